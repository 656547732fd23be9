package app_test

import (
	"context"
	"testing"
	"time"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/domain"
)

func receive(t *testing.T, ch <-chan domain.StatusBoard) domain.StatusBoard {
	t.Helper()
	select {
	case board := <-ch:
		return board
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for a status board")
	}
	return domain.StatusBoard{}
}

func statusOf(board domain.StatusBoard, quizID string) domain.QuizStatus {
	for _, q := range board.Quizzes {
		if q.ID == quizID {
			return q.Status
		}
	}
	return ""
}

func TestStatusFeedPublish(t *testing.T) {
	ctx := context.Background()
	f := newFixture(false)
	feed := app.NewStatusFeed(f.service, quietLogger())

	updates, cancel, err := feed.Subscribe(ctx, "u1")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()

	initial := receive(t, updates)
	if statusOf(initial, "quiz-live") != domain.StatusLive {
		t.Fatalf("unexpected initial board %+v", initial)
	}

	if _, err := f.service.Submit(ctx, "quiz-live", "u1", domain.Submission{Answers: map[int]domain.AnswerInput{}}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := feed.Publish(ctx, "u1"); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if got := statusOf(receive(t, updates), "quiz-live"); got != domain.StatusAttempted {
		t.Fatalf("expected attempted, got %q", got)
	}

	// nobody listens for u2, so there is nothing to compute
	if err := feed.Publish(ctx, "u2"); err != nil {
		t.Fatalf("publish without subscribers: %v", err)
	}
}

func TestStatusFeedRefreshOnlyOnChange(t *testing.T) {
	ctx := context.Background()
	f := newFixture(false)
	feed := app.NewStatusFeed(f.service, quietLogger())

	updates, cancel, err := feed.Subscribe(ctx, "u1")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()
	receive(t, updates)

	feed.Refresh(ctx)
	select {
	case board := <-updates:
		t.Fatalf("unexpected board without a status change: %+v", board)
	default:
	}

	f.clock.Advance(time.Hour)
	feed.Refresh(ctx)
	board := receive(t, updates)
	if statusOf(board, "quiz-next") != domain.StatusLive || statusOf(board, "quiz-live") != domain.StatusMissed {
		t.Fatalf("unexpected board after refresh %+v", board.Quizzes)
	}
}

func TestStatusFeedCancel(t *testing.T) {
	ctx := context.Background()
	f := newFixture(false)
	feed := app.NewStatusFeed(f.service, quietLogger())

	first, cancelFirst, err := feed.Subscribe(ctx, "u1")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	_, cancelSecond, err := feed.Subscribe(ctx, "u1")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if n := feed.Subscribers("u1"); n != 2 {
		t.Fatalf("expected 2 subscribers, got %d", n)
	}

	cancelFirst()
	cancelFirst()
	receive(t, first)
	if _, ok := <-first; ok {
		t.Fatalf("expected cancelled channel to be closed")
	}
	cancelSecond()
	if n := feed.Subscribers("u1"); n != 0 {
		t.Fatalf("expected no subscribers, got %d", n)
	}
}
