package http

import (
	"net/http"
	"testing"
	"time"

	"quiz-attempt-service/internal/auth"
	"quiz-attempt-service/internal/domain"
)

func TestQuizEndpointsRequireIdentity(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/v1/quizzes", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	rec = env.do(t, http.MethodGet, "/v1/quizzes", "not-a-jwt", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for garbage token, got %d", rec.Code)
	}
	rec = env.do(t, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected healthz without auth, got %d", rec.Code)
	}
}

func TestSubmitResultRevisionFlow(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, auth.Identity{UserID: "u1"})

	rec := env.do(t, http.MethodGet, "/v1/quizzes/quiz-live/result", token, nil)
	if rec.Code != http.StatusNotFound || decode[errorPayload](t, rec).Code != "attempt_not_found" {
		t.Fatalf("expected attempt_not_found, got %d %s", rec.Code, rec.Body.String())
	}
	rec = env.do(t, http.MethodGet, "/v1/quizzes/missing/result", token, nil)
	if rec.Code != http.StatusNotFound || decode[errorPayload](t, rec).Code != "quiz_not_found" {
		t.Fatalf("expected quiz_not_found, got %d %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodPost, "/v1/quizzes/quiz-live/attempts", token, map[string]any{
		"answers": map[string]any{
			"1": map[string]any{"selectedOptionId": "b", "status": "answered"},
			"2": map[string]any{"selectedOptionId": "b", "status": "answered"},
		},
		"totalTimeSpent":  120,
		"perQuestionTime": map[string]int{"1": 50, "2": -3},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("submit: expected 200, got %d %s", rec.Code, rec.Body.String())
	}
	summary := decode[domain.AttemptSummary](t, rec)
	if summary.Score != 3 || summary.TotalMarks != 8 || summary.Correct != 1 || summary.Incorrect != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}

	rec = env.do(t, http.MethodGet, "/v1/quizzes/quiz-live/result", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("result: expected 200, got %d", rec.Code)
	}
	first := rec.Body.String()
	result := decode[domain.QuizResultView](t, rec)
	if result.Questions[1].TimeSpent != 0 || *result.Questions[1].SelectedOption != "6" || result.TotalTime != 1800 {
		t.Fatalf("unexpected result %+v", result)
	}
	if again := env.do(t, http.MethodGet, "/v1/quizzes/quiz-live/result", token, nil).Body.String(); again != first {
		t.Fatalf("expected identical projections:\n%s\n%s", first, again)
	}

	rec = env.do(t, http.MethodGet, "/v1/quizzes/quiz-live/revision", token, nil)
	revision := decode[domain.RevisionView](t, rec)
	if len(revision.Questions) != 2 || revision.Questions[0].CorrectAnswer != "4" || !*revision.Questions[0].IsCorrect {
		t.Fatalf("unexpected revision %+v", revision)
	}

	rec = env.do(t, http.MethodGet, "/v1/quizzes/quiz-live/attempt", token, nil)
	prior := decode[domain.PriorAttempt](t, rec)
	if !prior.Attempted || prior.AttemptID != summary.AttemptID {
		t.Fatalf("unexpected prior attempt %+v", prior)
	}

	rec = env.do(t, http.MethodGet, "/v1/quizzes", token, nil)
	list := decode[struct {
		Quizzes []domain.QuizSummary `json:"quizzes"`
	}](t, rec)
	if len(list.Quizzes) != 2 || list.Quizzes[0].Status != domain.StatusAttempted || list.Quizzes[1].Status != domain.StatusUpcoming {
		t.Fatalf("unexpected list %+v", list.Quizzes)
	}
}

func TestSubmitValidation(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, auth.Identity{UserID: "u1"})

	rec := env.do(t, http.MethodPost, "/v1/quizzes/quiz-live/attempts", token, map[string]any{"totalTimeSpent": 10})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing answers, got %d", rec.Code)
	}
	if body := decode[errorPayload](t, rec); body.Fields["answers"] == "" {
		t.Fatalf("expected answers field error, got %+v", body)
	}

	rec = env.do(t, http.MethodPost, "/v1/quizzes/quiz-live/attempts", token, map[string]any{
		"answers": map[string]any{"9": map[string]any{"status": "answered"}},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown question, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/v1/quizzes/missing/attempts", token, map[string]any{"answers": map[string]any{}})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown quiz, got %d", rec.Code)
	}
}

func TestAdminRoutes(t *testing.T) {
	env := newTestEnv(t)
	student := env.token(t, auth.Identity{UserID: "u1", Email: "student@example.com"})
	admin := env.token(t, auth.Identity{UserID: "a1", Email: "admin@example.com"})

	quiz := map[string]any{
		"title":           "Fresh",
		"startTime":       testNow.Add(-5 * time.Minute),
		"durationMinutes": 20,
		"questions": []map[string]any{
			{"id": 1, "text": "Pick b", "options": []map[string]any{{"id": "a", "text": "A"}, {"id": "b", "text": "B"}}, "correctOptionId": "b"},
		},
	}

	if rec := env.do(t, http.MethodPut, "/v1/admin/quizzes/quiz-new", student, quiz); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for student, got %d", rec.Code)
	}
	if rec := env.do(t, http.MethodPut, "/v1/admin/quizzes/quiz-new", admin, quiz); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d %s", rec.Code, rec.Body.String())
	}

	quiz["questions"] = []map[string]any{
		{"id": 1, "text": "Pick b", "options": []map[string]any{{"id": "a", "text": "A"}, {"id": "b", "text": "B"}}, "correctOptionId": "z"},
	}
	if rec := env.do(t, http.MethodPut, "/v1/admin/quizzes/quiz-bad", admin, quiz); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad correct option, got %d", rec.Code)
	}

	rec := env.do(t, http.MethodPost, "/v1/quizzes/quiz-new/attempts", student, map[string]any{
		"answers": map[string]any{"1": map[string]any{"selectedOptionId": "b", "status": "answered"}},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected submit on new quiz to succeed, got %d %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodGet, "/v1/admin/quizzes/quiz-new/attempts", admin, nil)
	list := decode[struct {
		Attempts []domain.QuizAttempt `json:"attempts"`
	}](t, rec)
	if len(list.Attempts) != 1 || list.Attempts[0].Score != 4 {
		t.Fatalf("unexpected attempts %+v", list.Attempts)
	}
}
