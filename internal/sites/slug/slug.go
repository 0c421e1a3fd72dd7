package slug

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/windscape-energy/go-site-backend/internal/sites/domain"
)

// maxSuffixAttempts bounds the numeric suffix search before falling back to
// a random fragment.
const maxSuffixAttempts = 50

// Store is the minimal record lookup the normalizer needs to guarantee
// uniqueness. Load must return domain.ErrNotFound for free names.
type Store interface {
	Load(ctx context.Context, name string) (*domain.ProjectRecord, error)
}

// Normalizer turns free-form titles into canonical slugs and guarantees
// their uniqueness against the record store.
type Normalizer struct {
	store Store
}

// NewNormalizer creates a normalizer backed by the given store.
func NewNormalizer(store Store) *Normalizer {
	return &Normalizer{store: store}
}

// Normalize converts a free-form title into its canonical slug: lowercase,
// alphanumeric, dash-separated.
func Normalize(title string) string {
	var b strings.Builder
	b.Grow(len(title))

	lastDash := true // suppress leading dashes
	for _, r := range strings.ToLower(strings.TrimSpace(title)) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}

	return strings.TrimRight(b.String(), "-")
}

// Normalize is the method form used through the service interfaces.
func (n *Normalizer) Normalize(title string) string {
	return Normalize(title)
}

// EnsureUnique returns candidate unchanged when no record holds that name,
// otherwise the first free "<candidate>-N" variant. If the numeric search is
// exhausted a random fragment is appended instead.
func (n *Normalizer) EnsureUnique(ctx context.Context, candidate string) (string, error) {
	free, err := n.available(ctx, candidate)
	if err != nil {
		return "", err
	}
	if free {
		return candidate, nil
	}

	for i := 2; i < maxSuffixAttempts; i++ {
		alt := fmt.Sprintf("%s-%d", candidate, i)
		free, err := n.available(ctx, alt)
		if err != nil {
			return "", err
		}
		if free {
			return alt, nil
		}
	}

	return fmt.Sprintf("%s-%s", candidate, uuid.NewString()[:8]), nil
}

func (n *Normalizer) available(ctx context.Context, name string) (bool, error) {
	_, err := n.store.Load(ctx, name)
	if errors.Is(err, domain.ErrNotFound) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("check name %q: %w", name, err)
	}
	return false, nil
}
