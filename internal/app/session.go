package app

import (
	"context"
	"sort"
	"time"

	"quiz-attempt-service/internal/domain"
)

// SessionRepository persists per-user session state between requests (in-memory, Redis, etc).
// Delete drops a session so the next load rebuilds it from attempt history.
type SessionRepository interface {
	Load(ctx context.Context, userID string) (Session, bool, error)
	Save(ctx context.Context, session Session) error
	Delete(ctx context.Context, userID string) error
}

// Session is the per-user state the quiz pages need: which quizzes the user already completed.
// It is loaded once per operation and saved whenever it changes.
type Session struct {
	UserID           string    `json:"userId"`
	AttemptedQuizIDs []string  `json:"attemptedQuizIds"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// NewSession builds a session from a list of completed quiz ids.
func NewSession(userID string, attempted []string, now time.Time) Session {
	s := Session{UserID: userID, UpdatedAt: now}
	for _, id := range attempted {
		s.MarkAttempted(id)
	}
	return s
}

// Attempted returns the attempted quiz ids as a set.
func (s Session) Attempted() map[string]struct{} {
	set := make(map[string]struct{}, len(s.AttemptedQuizIDs))
	for _, id := range s.AttemptedQuizIDs {
		set[id] = struct{}{}
	}
	return set
}

// MarkAttempted adds quizID to the attempted list and reports whether the session changed.
func (s *Session) MarkAttempted(quizID string) bool {
	i := sort.SearchStrings(s.AttemptedQuizIDs, quizID)
	if i < len(s.AttemptedQuizIDs) && s.AttemptedQuizIDs[i] == quizID {
		return false
	}
	s.AttemptedQuizIDs = append(s.AttemptedQuizIDs, "")
	copy(s.AttemptedQuizIDs[i+1:], s.AttemptedQuizIDs[i:])
	s.AttemptedQuizIDs[i] = quizID
	return true
}

// loadSession returns the user's session, rebuilding it from attempt history on a miss.
func (s *AttemptService) loadSession(ctx context.Context, userID string) (Session, error) {
	session, ok, err := s.sessions.Load(ctx, userID)
	if err != nil {
		s.log.WithError(err).WithField("user", userID).Warn("session load failed, rebuilding from attempts")
	}
	if err == nil && ok {
		return session, nil
	}

	ids, err := s.attempts.CompletedQuizIDs(ctx, userID)
	if err != nil {
		return Session{}, err
	}
	session = NewSession(userID, ids, s.now())
	s.saveSession(ctx, session)
	return session, nil
}

// saveSession stores session, or drops the stored copy when the write fails.
func (s *AttemptService) saveSession(ctx context.Context, session Session) {
	err := s.sessions.Save(ctx, session)
	if err == nil {
		return
	}
	logger := s.log.WithError(err).WithField("user", session.UserID)
	logger.Warn("session save failed, dropping stored session")
	s.dropSession(ctx, session.UserID)
}

func (s *AttemptService) dropSession(ctx context.Context, userID string) {
	if err := s.sessions.Delete(ctx, userID); err != nil {
		s.log.WithError(err).WithField("user", userID).Error("session delete failed")
	}
}

// rememberAttempt records a completed quiz in the session of every user sharing the attempt.
func (s *AttemptService) rememberAttempt(ctx context.Context, attempt domain.QuizAttempt) {
	for _, userID := range attempt.UserIDs {
		session, err := s.loadSession(ctx, userID)
		if err != nil {
			s.log.WithError(err).WithField("user", userID).Warn("session refresh failed, dropping stored session")
			s.dropSession(ctx, userID)
			continue
		}
		if session.MarkAttempted(attempt.QuizID) {
			session.UpdatedAt = s.now()
			s.saveSession(ctx, session)
		}
	}
}
