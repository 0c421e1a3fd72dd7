package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/windscape-energy/go-site-backend/internal/sites/domain"
)

// PGRecordRepository is the Postgres-backed record store. Records are kept
// as JSONB blobs keyed by canonical name so the Redis and Postgres backends
// stay interchangeable behind the same interface.
//
// Expected schema:
//
//	CREATE TABLE site_projects (
//	    name       TEXT PRIMARY KEY,
//	    data       JSONB NOT NULL,
//	    created_at TIMESTAMPTZ NOT NULL,
//	    updated_at TIMESTAMPTZ NOT NULL
//	);
type PGRecordRepository struct {
	db *sql.DB
}

// NewPGRecordRepository creates a new PGRecordRepository.
func NewPGRecordRepository(db *sql.DB) *PGRecordRepository {
	return &PGRecordRepository{db: db}
}

// Save upserts the record under its canonical name.
func (r *PGRecordRepository) Save(ctx context.Context, rec *domain.ProjectRecord) error {
	if rec.Name == "" {
		return fmt.Errorf("record name required")
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record %q: %w", rec.Name, err)
	}

	const q = `
INSERT INTO site_projects (name, data, created_at, updated_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (name) DO UPDATE SET data = $2, updated_at = $4;
`
	if _, err := r.db.ExecContext(ctx, q, rec.Name, data, rec.CreatedAt, rec.UpdatedAt); err != nil {
		return fmt.Errorf("save record %q: %w", rec.Name, err)
	}
	return nil
}

// Load retrieves one record; domain.ErrNotFound when no row holds the name.
func (r *PGRecordRepository) Load(ctx context.Context, name string) (*domain.ProjectRecord, error) {
	const q = `SELECT data FROM site_projects WHERE name = $1;`

	var data []byte
	err := r.db.QueryRowContext(ctx, q, name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load record %q: %w", name, err)
	}

	var rec domain.ProjectRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal record %q: %w", name, err)
	}
	return &rec, nil
}

// List returns every record in creation order.
func (r *PGRecordRepository) List(ctx context.Context) ([]*domain.ProjectRecord, error) {
	const q = `SELECT data FROM site_projects ORDER BY created_at ASC, name ASC;`
	return r.queryRecords(ctx, q)
}

// FindByPartialName returns records whose name contains substr,
// case-insensitively, in creation order.
func (r *PGRecordRepository) FindByPartialName(ctx context.Context, substr string) ([]*domain.ProjectRecord, error) {
	const q = `
SELECT data FROM site_projects
WHERE name ILIKE '%' || $1 || '%'
ORDER BY created_at ASC, name ASC;
`
	return r.queryRecords(ctx, q, substr)
}

// Delete removes the record.
func (r *PGRecordRepository) Delete(ctx context.Context, name string) error {
	const q = `DELETE FROM site_projects WHERE name = $1;`
	if _, err := r.db.ExecContext(ctx, q, name); err != nil {
		return fmt.Errorf("delete record %q: %w", name, err)
	}
	return nil
}

func (r *PGRecordRepository) queryRecords(ctx context.Context, q string, args ...any) ([]*domain.ProjectRecord, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	out := make([]*domain.ProjectRecord, 0, 16)
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		var rec domain.ProjectRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, fmt.Errorf("unmarshal record: %w", err)
		}
		out = append(out, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
