// Package cache memoizes full parse results across processes. Identical
// payloads for the same TLD hash to the same key, so a fleet of workers
// parsing the same registry response shares one extraction.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/zeebo/xxh3"

	"structwhois/internal/platform/redis"
)

// RecordCache stores serialized record maps in Redis. A nil *RecordCache is
// valid and disables caching, so callers never branch on configuration.
type RecordCache struct {
	client *redis.Client
	ttl    time.Duration
}

// New constructs a RecordCache. Returns nil when redis is not configured.
func New(client *redis.Client, ttl time.Duration) *RecordCache {
	if client == nil {
		return nil
	}
	return &RecordCache{client: client, ttl: ttl}
}

// Key derives the cache key from the TLD and the exact payload bytes.
func Key(tld, rawText string) string {
	sum := xxh3.HashString(tld + "|" + rawText)
	return fmt.Sprintf("structwhois:parse:%016x", sum)
}

// Get returns the cached record map for a payload, or (nil, false).
func (c *RecordCache) Get(ctx context.Context, tld, rawText string) (map[string]any, bool) {
	if c == nil {
		return nil, false
	}
	payload, err := c.client.Get(ctx, Key(tld, rawText)).Bytes()
	if err != nil {
		// Misses and transport errors look the same to callers; the parse
		// simply runs.
		return nil, false
	}
	var record map[string]any
	if err := json.Unmarshal(payload, &record); err != nil {
		return nil, false
	}
	return record, true
}

// Set stores a record map for a payload. Failures are returned so callers
// can log them, but a failed Set never fails the parse.
func (c *RecordCache) Set(ctx context.Context, tld, rawText string, record map[string]any) error {
	if c == nil {
		return nil
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode cached record: %w", err)
	}
	if err := c.client.Set(ctx, Key(tld, rawText), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("store cached record: %w", err)
	}
	return nil
}
