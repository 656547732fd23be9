package app

import (
	"context"

	"github.com/sirupsen/logrus"

	"quiz-attempt-service/internal/domain"
)

// CatalogWriter persists quiz definitions.
type CatalogWriter interface {
	UpsertQuiz(ctx context.Context, quiz domain.QuizDefinition) error
}

// QuizCache drops cached quiz content after a definition changes.
type QuizCache interface {
	Invalidate(ctx context.Context, quizID string) error
}

// CatalogService holds the admin use cases for quiz definitions.
type CatalogService struct {
	writer CatalogWriter
	cache  QuizCache
	log    logrus.FieldLogger
}

func NewCatalogService(writer CatalogWriter, cache QuizCache, logger logrus.FieldLogger) *CatalogService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &CatalogService{writer: writer, cache: cache, log: logger}
}

// UpsertQuiz validates and stores a quiz definition.
func (s *CatalogService) UpsertQuiz(ctx context.Context, quiz domain.QuizDefinition) (domain.QuizDefinition, error) {
	if quiz.Status == "" {
		quiz.Status = domain.LifecycleUpcoming
	}
	if err := quiz.Validate(); err != nil {
		return domain.QuizDefinition{}, err
	}
	if err := s.writer.UpsertQuiz(ctx, quiz); err != nil {
		return domain.QuizDefinition{}, asStorageError("upsert quiz", err)
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, quiz.ID); err != nil {
			// stale entries expire with the cache TTL
			s.log.WithError(err).WithField("quiz", quiz.ID).Warn("quiz cache invalidation failed")
		}
	}
	s.log.WithFields(logrus.Fields{"quiz": quiz.ID, "questions": len(quiz.Questions)}).Info("quiz upserted")
	return quiz, nil
}
