package memory

import (
	"context"
	"sync"

	"quiz-attempt-service/internal/app"
)

// SessionStore is an in-memory implementation of app.SessionRepository.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]app.Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]app.Session),
	}
}

func (s *SessionStore) Load(_ context.Context, userID string) (app.Session, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[userID]
	if !ok {
		return app.Session{}, false, nil
	}
	session.AttemptedQuizIDs = append([]string(nil), session.AttemptedQuizIDs...)
	return session, true, nil
}

func (s *SessionStore) Save(_ context.Context, session app.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session.AttemptedQuizIDs = append([]string(nil), session.AttemptedQuizIDs...)
	s.sessions[session.UserID] = session
	return nil
}

// Delete forgets a user's session; the next load rebuilds it from attempt history.
func (s *SessionStore) Delete(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
	return nil
}
