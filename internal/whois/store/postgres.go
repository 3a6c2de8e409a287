package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PostgresStore archives records in PostgreSQL. Fields are stored as JSONB
// so schema changes in the record model never require a migration.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed record archive.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the archive table when it does not exist yet.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS whois_records (
			id UUID PRIMARY KEY,
			domain TEXT NOT NULL,
			tld TEXT NOT NULL,
			raw_text TEXT NOT NULL,
			fields JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS whois_records_domain_idx ON whois_records (domain);
	`)
	if err != nil {
		return fmt.Errorf("ensure whois_records schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Save(ctx context.Context, record *StoredRecord) error {
	if record == nil {
		return fmt.Errorf("record is required")
	}
	payload, err := json.Marshal(record.Fields)
	if err != nil {
		return fmt.Errorf("encode record fields: %w", err)
	}
	query := `
		INSERT INTO whois_records (id, domain, tld, raw_text, fields, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			domain = EXCLUDED.domain,
			tld = EXCLUDED.tld,
			raw_text = EXCLUDED.raw_text,
			fields = EXCLUDED.fields
	`
	_, err = s.db.ExecContext(ctx, query,
		record.ID, strings.ToLower(record.Domain), record.TLD,
		record.RawText, payload, record.CreatedAt)
	if err != nil {
		return fmt.Errorf("save whois record: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id uuid.UUID) (*StoredRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, domain, tld, raw_text, fields, created_at
		FROM whois_records WHERE id = $1
	`, id)
	record, err := scanRecord(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get whois record: %w", err)
	}
	return record, nil
}

func (s *PostgresStore) ListByDomain(ctx context.Context, domain string) ([]*StoredRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, domain, tld, raw_text, fields, created_at
		FROM whois_records WHERE domain = $1
		ORDER BY created_at
	`, strings.ToLower(domain))
	if err != nil {
		return nil, fmt.Errorf("list whois records: %w", err)
	}
	defer rows.Close()

	var out []*StoredRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan whois record: %w", err)
		}
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate whois records: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM whois_records`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count whois records: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*StoredRecord, error) {
	var (
		record    StoredRecord
		payload   []byte
		createdAt time.Time
	)
	if err := row.Scan(&record.ID, &record.Domain, &record.TLD,
		&record.RawText, &payload, &createdAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(payload, &record.Fields); err != nil {
		return nil, fmt.Errorf("decode record fields: %w", err)
	}
	record.CreatedAt = createdAt
	return &record, nil
}
