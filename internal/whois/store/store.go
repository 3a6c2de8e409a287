// Package store archives parsed whois records so repeated lookups for a
// domain can be audited and replayed without re-querying registries.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no record matches the lookup key.
var ErrNotFound = errors.New("record not found")

// StoredRecord is one archived parse result.
type StoredRecord struct {
	ID        uuid.UUID      `json:"id"`
	Domain    string         `json:"domain"`
	TLD       string         `json:"tld"`
	RawText   string         `json:"raw_text"`
	Fields    map[string]any `json:"fields"`
	CreatedAt time.Time      `json:"created_at"`
}

// RecordStore persists parse results.
type RecordStore interface {
	Save(ctx context.Context, record *StoredRecord) error
	Get(ctx context.Context, id uuid.UUID) (*StoredRecord, error)
	ListByDomain(ctx context.Context, domain string) ([]*StoredRecord, error)
	Count(ctx context.Context) (int, error)
}
