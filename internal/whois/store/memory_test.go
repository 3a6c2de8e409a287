package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

type MemoryStoreSuite struct {
	suite.Suite
	store *InMemoryRecordStore
	ctx   context.Context
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = NewInMemoryRecordStore()
	s.ctx = context.Background()
}

func (s *MemoryStoreSuite) newRecord(domain string, createdAt time.Time) *StoredRecord {
	return &StoredRecord{
		ID:        uuid.New(),
		Domain:    domain,
		TLD:       "com",
		RawText:   "Domain Name: " + domain + "\n",
		Fields:    map[string]any{"domain": domain},
		CreatedAt: createdAt,
	}
}

func (s *MemoryStoreSuite) TestSaveAndGet() {
	s.Run("round trips a record", func() {
		record := s.newRecord("example.com", time.Now().UTC())
		s.Require().NoError(s.store.Save(s.ctx, record))

		got, err := s.store.Get(s.ctx, record.ID)
		s.Require().NoError(err)
		s.Equal(record.ID, got.ID)
		s.Equal("example.com", got.Domain)
		s.Equal(record.Fields, got.Fields)
	})

	s.Run("missing id is ErrNotFound", func() {
		_, err := s.store.Get(s.ctx, uuid.New())
		s.Require().ErrorIs(err, ErrNotFound)
	})

	s.Run("nil record is rejected", func() {
		s.Error(s.store.Save(s.ctx, nil))
	})

	s.Run("zero id is rejected", func() {
		s.Error(s.store.Save(s.ctx, &StoredRecord{Domain: "example.com"}))
	})

	s.Run("callers cannot mutate stored records", func() {
		record := s.newRecord("isolated.com", time.Now().UTC())
		s.Require().NoError(s.store.Save(s.ctx, record))
		record.Domain = "tampered.com"

		got, err := s.store.Get(s.ctx, record.ID)
		s.Require().NoError(err)
		s.Equal("isolated.com", got.Domain)

		got.Domain = "tampered-again.com"
		again, err := s.store.Get(s.ctx, record.ID)
		s.Require().NoError(err)
		s.Equal("isolated.com", again.Domain)
	})

	s.Run("fields maps and slices are not aliased", func() {
		record := s.newRecord("deep.com", time.Now().UTC())
		record.Fields = map[string]any{
			"name_servers": []any{"ns1.deep.com", "ns2.deep.com"},
			"registrant":   map[string]any{"name": "Deep Holdings"},
		}
		s.Require().NoError(s.store.Save(s.ctx, record))

		record.Fields["registrar"] = "injected"
		record.Fields["name_servers"].([]any)[0] = "evil.deep.com"

		got, err := s.store.Get(s.ctx, record.ID)
		s.Require().NoError(err)
		s.NotContains(got.Fields, "registrar")
		s.Equal([]any{"ns1.deep.com", "ns2.deep.com"}, got.Fields["name_servers"])

		got.Fields["name_servers"].([]any)[1] = "also-evil.deep.com"
		got.Fields["registrant"].(map[string]any)["name"] = "Imposter"

		again, err := s.store.Get(s.ctx, record.ID)
		s.Require().NoError(err)
		s.Equal([]any{"ns1.deep.com", "ns2.deep.com"}, again.Fields["name_servers"])
		s.Equal("Deep Holdings", again.Fields["registrant"].(map[string]any)["name"])
	})
}

func (s *MemoryStoreSuite) TestListByDomain() {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	newer := s.newRecord("Example.COM", base.Add(time.Hour))
	older := s.newRecord("example.com", base)
	other := s.newRecord("other.net", base)
	s.Require().NoError(s.store.Save(s.ctx, newer))
	s.Require().NoError(s.store.Save(s.ctx, older))
	s.Require().NoError(s.store.Save(s.ctx, other))

	s.Run("matches case-insensitively and sorts by creation time", func() {
		got, err := s.store.ListByDomain(s.ctx, "EXAMPLE.com")
		s.Require().NoError(err)
		s.Require().Len(got, 2)
		s.Equal(older.ID, got[0].ID)
		s.Equal(newer.ID, got[1].ID)
	})

	s.Run("unknown domain lists empty", func() {
		got, err := s.store.ListByDomain(s.ctx, "nothing.example")
		s.Require().NoError(err)
		s.Empty(got)
	})
}

func (s *MemoryStoreSuite) TestCount() {
	count, err := s.store.Count(s.ctx)
	s.Require().NoError(err)
	s.Zero(count)

	s.Require().NoError(s.store.Save(s.ctx, s.newRecord("a.com", time.Now())))
	s.Require().NoError(s.store.Save(s.ctx, s.newRecord("b.com", time.Now())))

	count, err = s.store.Count(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, count)
}
