package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/domain"
	"quiz-attempt-service/internal/infra/memory"
)

func TestUpsertQuizInvalidatesCache(t *testing.T) {
	ctx := context.Background()
	loader := memory.NewStaticQuizLoader(catalog())
	repo := memory.NewQuizRepository(loader, time.Hour)
	service := app.NewCatalogService(loader, repo, quietLogger())

	cached, err := repo.GetQuiz(ctx, "quiz-live")
	if err != nil {
		t.Fatalf("get quiz: %v", err)
	}

	updated := cached
	updated.Title = "Renamed"
	updated.Status = ""
	stored, err := service.UpsertQuiz(ctx, updated)
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if stored.Status != domain.LifecycleUpcoming {
		t.Fatalf("expected default lifecycle status, got %q", stored.Status)
	}

	reloaded, err := repo.GetQuiz(ctx, "quiz-live")
	if err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if reloaded.Title != "Renamed" {
		t.Fatalf("expected cache to serve the new definition, got %q", reloaded.Title)
	}
}

func TestUpsertQuizRejectsInvalidDefinition(t *testing.T) {
	ctx := context.Background()
	loader := memory.NewStaticQuizLoader(catalog())
	service := app.NewCatalogService(loader, nil, quietLogger())

	_, err := service.UpsertQuiz(ctx, domain.QuizDefinition{
		ID:              "quiz-bad",
		DurationMinutes: 10,
		Questions: []domain.Question{
			{ID: 1, Options: []domain.Option{{ID: "a"}}, CorrectOptionID: "b"},
		},
	})
	var validationErr *domain.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := loader.LoadQuiz(ctx, "quiz-bad"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("invalid quiz should not be stored, got %v", err)
	}
}
