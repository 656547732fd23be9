package app

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"quiz-attempt-service/internal/domain"
)

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.QuizDefinition, error)
	ListQuizzes(ctx context.Context) ([]domain.QuizDefinition, error)
}

// AttemptRepository abstracts how quiz attempts are stored (in-memory, Postgres, etc).
// An empty userID passed to FindOpen matches open attempts of any user.
type AttemptRepository interface {
	FindOpen(ctx context.Context, quizID, userID string) (domain.QuizAttempt, bool, error)
	Save(ctx context.Context, attempt domain.QuizAttempt) error
	LatestCompleted(ctx context.Context, quizID, userID string) (domain.QuizAttempt, bool, error)
	CompletedQuizIDs(ctx context.Context, userID string) ([]string, error)
	ListCompleted(ctx context.Context, quizID string) ([]domain.QuizAttempt, error)
}

// Options tunes the attempt service.
type Options struct {
	// SharedOpenAttempts makes the open-attempt lookup quiz-wide instead of per user, merging
	// every submitting user into a single attempt record.
	SharedOpenAttempts bool
	Logger             logrus.FieldLogger
	Clock              func() time.Time
}

// AttemptService contains the quiz attempt use cases.
type AttemptService struct {
	quizzes  QuizRepository
	attempts AttemptRepository
	sessions SessionRepository
	shared   bool
	log      logrus.FieldLogger
	now      func() time.Time
}

func NewAttemptService(quizzes QuizRepository, attempts AttemptRepository, sessions SessionRepository, opts Options) *AttemptService {
	s := &AttemptService{
		quizzes:  quizzes,
		attempts: attempts,
		sessions: sessions,
		shared:   opts.SharedOpenAttempts,
		log:      opts.Logger,
		now:      opts.Clock,
	}
	if s.log == nil {
		s.log = logrus.StandardLogger()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Start opens an attempt for the user, or returns the one already open.
func (s *AttemptService) Start(ctx context.Context, quizID, userID string) (domain.QuizAttempt, error) {
	if userID == "" {
		return domain.QuizAttempt{}, domain.ErrUnauthorized
	}
	if _, err := s.quizzes.GetQuiz(ctx, quizID); err != nil {
		return domain.QuizAttempt{}, err
	}

	attempt, found, err := s.attempts.FindOpen(ctx, quizID, s.openScope(userID))
	if err != nil {
		return domain.QuizAttempt{}, err
	}
	if found {
		if attempt.HasUser(userID) {
			return attempt, nil
		}
		attempt.UserIDs = append(attempt.UserIDs, userID)
	} else {
		attempt = domain.QuizAttempt{
			ID:        uuid.NewString(),
			QuizID:    quizID,
			UserIDs:   []string{userID},
			StartTime: s.now(),
		}
	}
	attempt.LastUserID = userID
	if err := s.attempts.Save(ctx, attempt); err != nil {
		return domain.QuizAttempt{}, asStorageError("start attempt", err)
	}
	return attempt, nil
}

// Submit scores an answer set and finalizes the caller's open attempt, creating one if none is open.
func (s *AttemptService) Submit(ctx context.Context, quizID, userID string, sub domain.Submission) (domain.AttemptSummary, error) {
	if userID == "" {
		return domain.AttemptSummary{}, domain.ErrUnauthorized
	}
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.AttemptSummary{}, err
	}

	questions, counts, err := scoreSubmission(quiz, sub)
	if err != nil {
		return domain.AttemptSummary{}, err
	}

	now := s.now()
	totalTime := clampSeconds(sub.TotalTimeSpent)

	attempt, found, err := s.attempts.FindOpen(ctx, quizID, s.openScope(userID))
	if err != nil {
		return domain.AttemptSummary{}, asStorageError("find open attempt", err)
	}
	if !found {
		attempt = domain.QuizAttempt{
			ID:        uuid.NewString(),
			QuizID:    quizID,
			UserIDs:   []string{userID},
			StartTime: now.Add(-time.Duration(totalTime) * time.Second),
		}
	} else if !attempt.HasUser(userID) {
		attempt.UserIDs = append(attempt.UserIDs, userID)
	}

	attempt.LastUserID = userID
	attempt.IsCompleted = true
	attempt.EndTime = &now
	attempt.TimeSpent = totalTime
	attempt.Questions = questions
	attempt.Correct = counts.correct
	attempt.Incorrect = counts.incorrect
	attempt.Unattempted = counts.unattempted
	attempt.Score = counts.score()
	attempt.TotalMarks = counts.totalMarks()

	logger := s.log.WithFields(logrus.Fields{"quiz": quizID, "user": userID, "attempt": attempt.ID})
	if err := s.attempts.Save(ctx, attempt); err != nil {
		logger.WithError(err).Error("attempt submission failed")
		return domain.AttemptSummary{}, asStorageError("save attempt", err)
	}
	logger.WithFields(logrus.Fields{"score": attempt.Score, "totalMarks": attempt.TotalMarks}).Info("attempt submitted")

	s.rememberAttempt(ctx, attempt)

	return domain.AttemptSummary{
		AttemptID:   attempt.ID,
		Score:       attempt.Score,
		TotalMarks:  attempt.TotalMarks,
		Correct:     attempt.Correct,
		Incorrect:   attempt.Incorrect,
		Unattempted: attempt.Unattempted,
	}, nil
}

// Result projects the caller's latest completed attempt onto the quiz.
func (s *AttemptService) Result(ctx context.Context, quizID, userID string) (domain.QuizResultView, error) {
	quiz, attempt, err := s.latestAttempt(ctx, quizID, userID)
	if err != nil {
		return domain.QuizResultView{}, err
	}
	return projectResult(quiz, attempt), nil
}

// Revision lists the caller's answers next to the correct ones, without scoring.
func (s *AttemptService) Revision(ctx context.Context, quizID, userID string) (domain.RevisionView, error) {
	quiz, attempt, err := s.latestAttempt(ctx, quizID, userID)
	if err != nil {
		return domain.RevisionView{}, err
	}
	return projectRevision(quiz, attempt), nil
}

// PriorAttempt reports whether the caller already completed the quiz.
func (s *AttemptService) PriorAttempt(ctx context.Context, quizID, userID string) (domain.PriorAttempt, error) {
	_, attempt, err := s.latestAttempt(ctx, quizID, userID)
	if errors.Is(err, domain.ErrAttemptNotFound) {
		return domain.PriorAttempt{}, nil
	}
	if err != nil {
		return domain.PriorAttempt{}, err
	}
	return domain.PriorAttempt{Attempted: true, AttemptID: attempt.ID}, nil
}

// ListQuizzes returns the catalog annotated with the caller's status, ordered by start time.
func (s *AttemptService) ListQuizzes(ctx context.Context, userID string) ([]domain.QuizSummary, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	quizzes, err := s.quizzes.ListQuizzes(ctx)
	if err != nil {
		return nil, err
	}
	session, err := s.loadSession(ctx, userID)
	if err != nil {
		return nil, asStorageError("load session", err)
	}

	sort.SliceStable(quizzes, func(i, j int) bool {
		if !quizzes[i].StartTime.Equal(quizzes[j].StartTime) {
			return quizzes[i].StartTime.Before(quizzes[j].StartTime)
		}
		return quizzes[i].ID < quizzes[j].ID
	})

	attempted := session.Attempted()
	now := s.now()
	summaries := make([]domain.QuizSummary, 0, len(quizzes))
	for _, quiz := range quizzes {
		summaries = append(summaries, domain.QuizSummary{
			ID:              quiz.ID,
			Title:           quiz.Title,
			StartTime:       quiz.StartTime,
			DurationMinutes: quiz.DurationMinutes,
			QuestionCount:   len(quiz.Questions),
			Syllabus:        quiz.Syllabus,
			Status:          domain.ResolveStatus(quiz, attempted, now),
		})
	}
	return summaries, nil
}

// Board wraps ListQuizzes into a timestamped snapshot for the status feed.
func (s *AttemptService) Board(ctx context.Context, userID string) (domain.StatusBoard, error) {
	quizzes, err := s.ListQuizzes(ctx, userID)
	if err != nil {
		return domain.StatusBoard{}, err
	}
	return domain.StatusBoard{UserID: userID, Quizzes: quizzes, UpdatedAt: s.now()}, nil
}

// ListAttempts returns every completed attempt of a quiz, newest first.
func (s *AttemptService) ListAttempts(ctx context.Context, quizID string) ([]domain.QuizAttempt, error) {
	if _, err := s.quizzes.GetQuiz(ctx, quizID); err != nil {
		return nil, err
	}
	attempts, err := s.attempts.ListCompleted(ctx, quizID)
	if err != nil {
		return nil, asStorageError("list attempts", err)
	}
	return attempts, nil
}

func (s *AttemptService) latestAttempt(ctx context.Context, quizID, userID string) (domain.QuizDefinition, domain.QuizAttempt, error) {
	if userID == "" {
		return domain.QuizDefinition{}, domain.QuizAttempt{}, domain.ErrUnauthorized
	}
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.QuizDefinition{}, domain.QuizAttempt{}, err
	}
	attempt, found, err := s.attempts.LatestCompleted(ctx, quizID, userID)
	if err != nil {
		return domain.QuizDefinition{}, domain.QuizAttempt{}, asStorageError("latest attempt", err)
	}
	if !found {
		return domain.QuizDefinition{}, domain.QuizAttempt{}, domain.ErrAttemptNotFound
	}
	return quiz, attempt, nil
}

func (s *AttemptService) openScope(userID string) string {
	if s.shared {
		return ""
	}
	return userID
}

// asStorageError keeps typed errors from the stores and wraps anything else.
func asStorageError(op string, err error) error {
	var storageErr *domain.StorageError
	if errors.As(err, &storageErr) {
		return err
	}
	return domain.NewStorageError(op, err)
}
