package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/windscape-energy/go-site-backend/internal/sites/domain"
)

const (
	recordKeyPrefix = "site:project:" // Record JSON: site:project:{name}
	recordIndexKey  = "site:projects" // Sorted set of names, scored by creation time
)

// RecordRepository is the Redis-backed record store. Records are stored as
// JSON blobs keyed by canonical name, with a creation-ordered name index so
// listings are deterministic.
type RecordRepository struct {
	client *redis.Client
}

// NewRecordRepository creates a new RecordRepository.
func NewRecordRepository(client *redis.Client) *RecordRepository {
	return &RecordRepository{client: client}
}

// Save persists the record under its canonical name.
func (r *RecordRepository) Save(ctx context.Context, rec *domain.ProjectRecord) error {
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

	pipe := r.client.Pipeline()
	pipe.Set(ctx, r.recordKey(rec.Name), data, 0)
	pipe.ZAddNX(ctx, recordIndexKey, redis.Z{
		Score:  float64(rec.CreatedAt.UnixNano()),
		Member: rec.Name,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save record %q: %w", rec.Name, err)
	}
	return nil
}

// Load retrieves one record; domain.ErrNotFound when no record holds the name.
func (r *RecordRepository) Load(ctx context.Context, name string) (*domain.ProjectRecord, error) {
	data, err := r.client.Get(ctx, r.recordKey(name)).Result()
	if err == redis.Nil {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load record %q: %w", name, err)
	}

	var rec domain.ProjectRecord
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, fmt.Errorf("unmarshal record %q: %w", name, err)
	}
	return &rec, nil
}

// List returns every record in creation order.
func (r *RecordRepository) List(ctx context.Context) ([]*domain.ProjectRecord, error) {
	names, err := r.client.ZRange(ctx, recordIndexKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list record names: %w", err)
	}
	return r.loadMany(ctx, names)
}

// FindByPartialName returns records whose name contains substr,
// case-insensitively, in creation order.
func (r *RecordRepository) FindByPartialName(ctx context.Context, substr string) ([]*domain.ProjectRecord, error) {
	names, err := r.client.ZRange(ctx, recordIndexKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list record names: %w", err)
	}

	needle := strings.ToLower(substr)
	matched := names[:0]
	for _, name := range names {
		if strings.Contains(strings.ToLower(name), needle) {
			matched = append(matched, name)
		}
	}
	return r.loadMany(ctx, matched)
}

// Delete removes the record and its index entry.
func (r *RecordRepository) Delete(ctx context.Context, name string) error {
	pipe := r.client.Pipeline()
	pipe.Del(ctx, r.recordKey(name))
	pipe.ZRem(ctx, recordIndexKey, name)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete record %q: %w", name, err)
	}
	return nil
}

func (r *RecordRepository) loadMany(ctx context.Context, names []string) ([]*domain.ProjectRecord, error) {
	out := make([]*domain.ProjectRecord, 0, len(names))
	for _, name := range names {
		rec, err := r.Load(ctx, name)
		if err == domain.ErrNotFound {
			// index entry without a record; tolerate and skip
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (r *RecordRepository) recordKey(name string) string {
	return recordKeyPrefix + name
}
