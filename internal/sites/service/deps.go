package service

import (
	"context"

	"github.com/windscape-energy/go-site-backend/internal/sites/domain"
)

// RecordStore is the durable key-value persistence contract for project
// records. Load returns domain.ErrNotFound for unknown names.
type RecordStore interface {
	List(ctx context.Context) ([]*domain.ProjectRecord, error)
	Load(ctx context.Context, name string) (*domain.ProjectRecord, error)
	Save(ctx context.Context, rec *domain.ProjectRecord) error
	Delete(ctx context.Context, name string) error
	FindByPartialName(ctx context.Context, substr string) ([]*domain.ProjectRecord, error)
}

// ResolutionCache is the slice of the cache contract the engine needs: it
// only ever invalidates; lookups belong to the name-resolution callers.
type ResolutionCache interface {
	Invalidate(ctx context.Context) error
}

// SessionStore tracks the per-session active project and navigation history.
type SessionStore interface {
	SetActiveProject(ctx context.Context, sessionID, name string) error
	AddToHistory(ctx context.Context, sessionID, name string) error
	ActiveProject(ctx context.Context, sessionID string) (string, error)
}

// Normalizer turns titles into canonical slugs and guarantees uniqueness
// against the record store.
type Normalizer interface {
	Normalize(title string) string
	EnsureUnique(ctx context.Context, candidate string) (string, error)
}
