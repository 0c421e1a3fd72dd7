package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix = "site:session:"     // Hash per session: site:session:{id}
	sessionTTL       = 24 * time.Hour
	historyMaxLen    = 50
)

// SessionRepository keeps the per-session active-project pointer and
// navigation history in Redis.
type SessionRepository struct {
	client *redis.Client
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(client *redis.Client) *SessionRepository {
	return &SessionRepository{client: client}
}

// SetActiveProject points the session at the given project.
func (s *SessionRepository) SetActiveProject(ctx context.Context, sessionID, name string) error {
	key := s.sessionKey(sessionID)

	pipe := s.client.Pipeline()
	pipe.HSet(ctx, key, "active_project", name)
	pipe.Expire(ctx, key, sessionTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("set active project for session %q: %w", sessionID, err)
	}
	return nil
}

// ActiveProject returns the session's active project name, or "" when the
// session has none.
func (s *SessionRepository) ActiveProject(ctx context.Context, sessionID string) (string, error) {
	name, err := s.client.HGet(ctx, s.sessionKey(sessionID), "active_project").Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get active project for session %q: %w", sessionID, err)
	}
	return name, nil
}

// AddToHistory appends a project name to the session's navigation history,
// keeping only the most recent entries.
func (s *SessionRepository) AddToHistory(ctx context.Context, sessionID, name string) error {
	key := s.historyKey(sessionID)

	pipe := s.client.Pipeline()
	pipe.RPush(ctx, key, name)
	pipe.LTrim(ctx, key, -historyMaxLen, -1)
	pipe.Expire(ctx, key, sessionTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append history for session %q: %w", sessionID, err)
	}
	return nil
}

// History returns the session's navigation history, oldest first.
func (s *SessionRepository) History(ctx context.Context, sessionID string) ([]string, error) {
	items, err := s.client.LRange(ctx, s.historyKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("history for session %q: %w", sessionID, err)
	}
	return items, nil
}

func (s *SessionRepository) sessionKey(sessionID string) string {
	return sessionKeyPrefix + sessionID
}

func (s *SessionRepository) historyKey(sessionID string) string {
	return fmt.Sprintf("%s%s:history", sessionKeyPrefix, sessionID)
}
