package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/domain"
)

// SessionStore is a Redis implementation of app.SessionRepository.
// Sessions are JSON values with a TTL; an expired session is rebuilt from attempt history.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

func (s *SessionStore) Load(ctx context.Context, userID string) (app.Session, bool, error) {
	data, err := s.client.Get(ctx, s.key(userID)).Bytes()
	if err == redis.Nil {
		return app.Session{}, false, nil
	}
	if err != nil {
		return app.Session{}, false, domain.NewStorageError("load session", err)
	}
	var session app.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return app.Session{}, false, domain.NewStorageError("load session", errors.Wrap(err, "decode session"))
	}
	return session, true, nil
}

func (s *SessionStore) Save(ctx context.Context, session app.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return errors.Wrap(err, "encode session")
	}
	if err := s.client.Set(ctx, s.key(session.UserID), data, s.ttl).Err(); err != nil {
		return domain.NewStorageError("save session", err)
	}
	return nil
}

func (s *SessionStore) Delete(ctx context.Context, userID string) error {
	if err := s.client.Del(ctx, s.key(userID)).Err(); err != nil {
		return domain.NewStorageError("delete session", err)
	}
	return nil
}

func (s *SessionStore) key(userID string) string {
	return "quiz:session:" + userID
}
