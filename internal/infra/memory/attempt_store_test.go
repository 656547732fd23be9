package memory

import (
	"context"
	"testing"
	"time"

	"quiz-attempt-service/internal/domain"
)

func TestAttemptStoreFindOpenScoping(t *testing.T) {
	ctx := context.Background()
	store := NewAttemptStore()
	start := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)

	_ = store.Save(ctx, domain.QuizAttempt{ID: "a1", QuizID: "quiz-1", UserIDs: []string{"u1"}, StartTime: start})

	if _, ok, _ := store.FindOpen(ctx, "quiz-1", "u2"); ok {
		t.Fatalf("expected no open attempt for u2")
	}
	if attempt, ok, _ := store.FindOpen(ctx, "quiz-1", ""); !ok || attempt.ID != "a1" {
		t.Fatalf("expected quiz-wide lookup to find a1, got ok=%v %+v", ok, attempt)
	}
	if attempt, ok, _ := store.FindOpen(ctx, "quiz-1", "u1"); !ok || attempt.ID != "a1" {
		t.Fatalf("expected u1 lookup to find a1, got ok=%v %+v", ok, attempt)
	}
}

func TestAttemptStoreLatestCompletedWins(t *testing.T) {
	ctx := context.Background()
	store := NewAttemptStore()
	first := time.Date(2026, 1, 10, 9, 30, 0, 0, time.UTC)
	second := first.Add(time.Hour)

	_ = store.Save(ctx, domain.QuizAttempt{ID: "a1", QuizID: "quiz-1", UserIDs: []string{"u1"}, IsCompleted: true, EndTime: &first, Score: 4})
	_ = store.Save(ctx, domain.QuizAttempt{ID: "a2", QuizID: "quiz-1", UserIDs: []string{"u1"}, IsCompleted: true, EndTime: &second, Score: 8})
	_ = store.Save(ctx, domain.QuizAttempt{ID: "a3", QuizID: "quiz-1", UserIDs: []string{"u1"}})

	latest, ok, err := store.LatestCompleted(ctx, "quiz-1", "u1")
	if err != nil || !ok {
		t.Fatalf("expected completed attempt, ok=%v err=%v", ok, err)
	}
	if latest.ID != "a2" {
		t.Fatalf("expected latest end time to win, got %s", latest.ID)
	}

	ids, _ := store.CompletedQuizIDs(ctx, "u1")
	if len(ids) != 1 || ids[0] != "quiz-1" {
		t.Fatalf("expected one completed quiz, got %v", ids)
	}

	all, _ := store.ListCompleted(ctx, "quiz-1")
	if len(all) != 2 || all[0].ID != "a2" {
		t.Fatalf("expected newest first, got %+v", all)
	}
}

func TestAttemptStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewAttemptStore()
	end := time.Date(2026, 1, 10, 9, 30, 0, 0, time.UTC)
	_ = store.Save(ctx, domain.QuizAttempt{ID: "a1", QuizID: "quiz-1", UserIDs: []string{"u1"}, IsCompleted: true, EndTime: &end})

	got, _, _ := store.LatestCompleted(ctx, "quiz-1", "u1")
	got.UserIDs[0] = "mutated"

	again, _, _ := store.LatestCompleted(ctx, "quiz-1", "u1")
	if again.UserIDs[0] != "u1" {
		t.Fatalf("expected stored record to be unaffected, got %v", again.UserIDs)
	}
}
