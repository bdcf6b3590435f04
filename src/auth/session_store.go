package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"www.github.com/Wanderer0074348/LinkedInAuth/src/models"
	"www.github.com/Wanderer0074348/LinkedInAuth/src/utils"
)

const sessionKeyPrefix = "session:"

// SessionStore keeps the application's login sessions in redis.
type SessionStore struct {
	client          *redis.Client
	sessionDuration time.Duration
	now             func() time.Time
}

func NewSessionStore(client *redis.Client, sessionDuration time.Duration) *SessionStore {
	return &SessionStore{
		client:          client,
		sessionDuration: sessionDuration,
		now:             time.Now,
	}
}

func (s *SessionStore) Duration() time.Duration {
	return s.sessionDuration
}

func (s *SessionStore) CreateSession(ctx context.Context, account *models.Account) (*models.Session, error) {
	sessionID, err := utils.RandomID(32)
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	now := s.now()
	session := &models.Session{
		ID:        sessionID,
		UserID:    account.ID,
		Username:  account.Username,
		ExpiresAt: now.Add(s.sessionDuration),
		CreatedAt: now,
	}

	if err := s.save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *SessionStore) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	data, err := s.client.Get(ctx, sessionKeyPrefix+sessionID).Bytes()
	if err == redis.Nil {
		return nil, fmt.Errorf("session: %w", models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var session models.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	if s.now().After(session.ExpiresAt) {
		s.DeleteSession(ctx, sessionID)
		return nil, fmt.Errorf("session expired: %w", models.ErrNotFound)
	}

	return &session, nil
}

func (s *SessionStore) DeleteSession(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, sessionKeyPrefix+sessionID).Err()
}

func (s *SessionStore) RefreshSession(ctx context.Context, sessionID string) error {
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}

	session.ExpiresAt = s.now().Add(s.sessionDuration)
	return s.save(ctx, session)
}

func (s *SessionStore) save(ctx context.Context, session *models.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := s.client.Set(ctx, sessionKeyPrefix+session.ID, data, s.sessionDuration).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}
