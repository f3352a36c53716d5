package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bidbuddy-workers/internal/common/database"
	"bidbuddy-workers/internal/models"

	"github.com/redis/go-redis/v9"
)

func SessionCacheKey(id string) string {
	return "copilot:session:" + id
}

type SessionRepository struct {
	db    *sql.DB
	cache redis.Cmdable
	ttl   time.Duration
}

func NewSessionRepository(db *sql.DB, cache redis.Cmdable, ttl time.Duration) *SessionRepository {
	return &SessionRepository{db: db, cache: cache, ttl: ttl}
}

// Get reads a session from the cache, falling back to Postgres.
func (r *SessionRepository) Get(ctx context.Context, id string) (*models.CopilotSession, error) {
	if r.cacheEnabled() {
		var cached models.CopilotSession
		if err := database.GetJSON(ctx, r.cache, SessionCacheKey(id), &cached); err == nil {
			return &cached, nil
		}
	}

	var (
		s         models.CopilotSession
		messages  []byte
		createdAt time.Time
		updatedAt time.Time
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, tender_id, user_id, messages, created_at, updated_at
		FROM copilot_sessions WHERE id = $1`, id).
		Scan(&s.ID, &s.TenderID, &s.UserID, &messages, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get copilot session %s: %w", id, err)
	}
	if len(messages) > 0 {
		if err := json.Unmarshal(messages, &s.Messages); err != nil {
			return nil, fmt.Errorf("decode messages of session %s: %w", id, err)
		}
	}
	s.CreatedAt = formatTime(createdAt)
	s.UpdatedAt = formatTime(updatedAt)
	return &s, nil
}

// Save upserts the session and refreshes the cache entry.
func (r *SessionRepository) Save(ctx context.Context, s *models.CopilotSession) error {
	messages := s.Messages
	if messages == nil {
		messages = []models.CopilotMessage{}
	}
	data, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("encode messages: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO copilot_sessions (id, tender_id, user_id, messages, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET messages = EXCLUDED.messages, updated_at = EXCLUDED.updated_at`,
		s.ID, s.TenderID, s.UserID, data, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save copilot session %s: %w", s.ID, err)
	}

	if r.cacheEnabled() {
		_ = database.SetJSON(ctx, r.cache, SessionCacheKey(s.ID), s, r.ttl)
	}
	return nil
}

func (r *SessionRepository) cacheEnabled() bool {
	return r.cache != nil && r.ttl > 0
}
