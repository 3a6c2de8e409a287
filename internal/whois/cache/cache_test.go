package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKey(t *testing.T) {
	t.Run("deterministic for identical inputs", func(t *testing.T) {
		assert.Equal(t, Key("com", "Domain Name: a.com\n"), Key("com", "Domain Name: a.com\n"))
	})

	t.Run("distinct per tld and payload", func(t *testing.T) {
		base := Key("com", "Domain Name: a.com\n")
		assert.NotEqual(t, base, Key("net", "Domain Name: a.com\n"))
		assert.NotEqual(t, base, Key("com", "Domain Name: b.com\n"))
	})

	t.Run("shifting the tld boundary changes the key", func(t *testing.T) {
		assert.NotEqual(t, Key("co", "m.x"), Key("com", ".x"))
	})
}

func TestNilCacheIsDisabled(t *testing.T) {
	var c *RecordCache
	ctx := context.Background()

	record, ok := c.Get(ctx, "com", "Domain Name: a.com\n")
	assert.False(t, ok)
	assert.Nil(t, record)

	assert.NoError(t, c.Set(ctx, "com", "Domain Name: a.com\n", map[string]any{"domain": "a.com"}))
}

func TestNewWithoutClient(t *testing.T) {
	assert.Nil(t, New(nil, 0))
}
