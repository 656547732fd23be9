package memory

import (
	"context"
	"sort"
	"sync"

	"quiz-attempt-service/internal/domain"
)

// AttemptStore is an in-memory implementation of app.AttemptRepository.
// Each Save replaces the whole record, like a document store's single-document write.
type AttemptStore struct {
	mu       sync.RWMutex
	attempts map[string]domain.QuizAttempt
}

func NewAttemptStore() *AttemptStore {
	return &AttemptStore{attempts: make(map[string]domain.QuizAttempt)}
}

func (s *AttemptStore) FindOpen(_ context.Context, quizID, userID string) (domain.QuizAttempt, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		found bool
		best  domain.QuizAttempt
	)
	for _, attempt := range s.attempts {
		if attempt.QuizID != quizID || attempt.IsCompleted {
			continue
		}
		if userID != "" && !attempt.HasUser(userID) {
			continue
		}
		if !found || attempt.StartTime.After(best.StartTime) {
			best, found = attempt, true
		}
	}
	if !found {
		return domain.QuizAttempt{}, false, nil
	}
	return cloneAttempt(best), true, nil
}

func (s *AttemptStore) Save(_ context.Context, attempt domain.QuizAttempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts[attempt.ID] = cloneAttempt(attempt)
	return nil
}

func (s *AttemptStore) LatestCompleted(_ context.Context, quizID, userID string) (domain.QuizAttempt, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		found bool
		best  domain.QuizAttempt
	)
	for _, attempt := range s.attempts {
		if attempt.QuizID != quizID || !attempt.IsCompleted || !attempt.HasUser(userID) {
			continue
		}
		if !found || endedAfter(attempt, best) {
			best, found = attempt, true
		}
	}
	if !found {
		return domain.QuizAttempt{}, false, nil
	}
	return cloneAttempt(best), true, nil
}

func (s *AttemptStore) CompletedQuizIDs(_ context.Context, userID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, attempt := range s.attempts {
		if attempt.IsCompleted && attempt.HasUser(userID) {
			seen[attempt.QuizID] = struct{}{}
		}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *AttemptStore) ListCompleted(_ context.Context, quizID string) ([]domain.QuizAttempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	attempts := make([]domain.QuizAttempt, 0)
	for _, attempt := range s.attempts {
		if attempt.QuizID == quizID && attempt.IsCompleted {
			attempts = append(attempts, cloneAttempt(attempt))
		}
	}
	sort.Slice(attempts, func(i, j int) bool { return endedAfter(attempts[i], attempts[j]) })
	return attempts, nil
}

// endedAfter orders completed attempts by end time, newest first, with the id as tie-break.
func endedAfter(a, b domain.QuizAttempt) bool {
	switch {
	case a.EndTime == nil:
		return false
	case b.EndTime == nil:
		return true
	case !a.EndTime.Equal(*b.EndTime):
		return a.EndTime.After(*b.EndTime)
	default:
		return a.ID > b.ID
	}
}

func cloneAttempt(a domain.QuizAttempt) domain.QuizAttempt {
	out := a
	out.UserIDs = append([]string(nil), a.UserIDs...)
	out.Questions = append([]domain.QuestionAttempt(nil), a.Questions...)
	if a.EndTime != nil {
		end := *a.EndTime
		out.EndTime = &end
	}
	return out
}
