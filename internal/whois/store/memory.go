package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// InMemoryRecordStore keeps archived records in process memory. Intended for
// tests and deployments that run without PostgreSQL.
type InMemoryRecordStore struct {
	mu       sync.RWMutex
	records  map[uuid.UUID]*StoredRecord
	byDomain map[string][]uuid.UUID
}

// NewInMemoryRecordStore constructs an empty in-memory archive.
func NewInMemoryRecordStore() *InMemoryRecordStore {
	return &InMemoryRecordStore{
		records:  map[uuid.UUID]*StoredRecord{},
		byDomain: map[string][]uuid.UUID{},
	}
}

func (s *InMemoryRecordStore) Save(_ context.Context, record *StoredRecord) error {
	if record == nil {
		return fmt.Errorf("record is required")
	}
	if record.ID == uuid.Nil {
		return fmt.Errorf("record id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.ID] = cloneRecord(record)
	domain := strings.ToLower(record.Domain)
	s.byDomain[domain] = append(s.byDomain[domain], record.ID)
	return nil
}

func (s *InMemoryRecordStore) Get(_ context.Context, id uuid.UUID) (*StoredRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneRecord(record), nil
}

func (s *InMemoryRecordStore) ListByDomain(_ context.Context, domain string) ([]*StoredRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.byDomain[strings.ToLower(domain)]
	out := make([]*StoredRecord, 0, len(ids))
	for _, id := range ids {
		if record, ok := s.records[id]; ok {
			out = append(out, cloneRecord(record))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// cloneRecord copies the record and its Fields tree so callers and the store
// never alias the same maps or slices.
func cloneRecord(record *StoredRecord) *StoredRecord {
	clone := *record
	if record.Fields != nil {
		fields := make(map[string]any, len(record.Fields))
		for k, v := range record.Fields {
			fields[k] = cloneFieldValue(v)
		}
		clone.Fields = fields
	}
	return &clone
}

func cloneFieldValue(v any) any {
	switch tv := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(tv))
		for k, nested := range tv {
			m[k] = cloneFieldValue(nested)
		}
		return m
	case []any:
		s := make([]any, len(tv))
		for i, nested := range tv {
			s[i] = cloneFieldValue(nested)
		}
		return s
	case []string:
		return append([]string(nil), tv...)
	default:
		return v
	}
}

func (s *InMemoryRecordStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}
