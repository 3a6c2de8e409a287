//go:build integration

package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"structwhois/internal/platform/redis"
	"structwhois/internal/whois/cache"
	"structwhois/pkg/testutil/containers"
)

type CacheSuite struct {
	suite.Suite
	container *containers.RedisContainer
	cache     *cache.RecordCache
}

func TestCacheSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(CacheSuite))
}

func (s *CacheSuite) SetupSuite() {
	s.container = containers.NewRedisContainer(s.T())
	client, err := redis.New(s.container.URL)
	s.Require().NoError(err)
	s.cache = cache.New(client, time.Minute)
}

func (s *CacheSuite) SetupTest() {
	s.Require().NoError(s.container.FlushAll(context.Background()))
}

func (s *CacheSuite) TestGetMiss() {
	record, ok := s.cache.Get(context.Background(), "com", "Domain Name: missing.com\n")
	s.False(ok)
	s.Nil(record)
}

func (s *CacheSuite) TestSetThenGet() {
	ctx := context.Background()
	raw := "Domain Name: example.com\nRegistrar: Example Registrar Inc.\n"
	record := map[string]any{
		"domain":       "example.com",
		"registrar":    "Example Registrar Inc.",
		"name_servers": []any{"ns1.example.com", "ns2.example.com"},
	}

	s.Require().NoError(s.cache.Set(ctx, "com", raw, record))

	got, ok := s.cache.Get(ctx, "com", raw)
	s.Require().True(ok)
	s.Equal(record, got)

	_, ok = s.cache.Get(ctx, "net", raw)
	s.False(ok, "same payload under a different tld is a different entry")
}

func (s *CacheSuite) TestEntriesExpire() {
	ctx := context.Background()
	client, err := redis.New(s.container.URL)
	s.Require().NoError(err)
	short := cache.New(client, 50*time.Millisecond)

	raw := "Domain Name: ttl.com\n"
	s.Require().NoError(short.Set(ctx, "com", raw, map[string]any{"domain": "ttl.com"}))

	_, ok := short.Get(ctx, "com", raw)
	s.Require().True(ok)

	time.Sleep(100 * time.Millisecond)
	_, ok = short.Get(ctx, "com", raw)
	s.False(ok)
}
