package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/auth"
	"quiz-attempt-service/internal/domain"
	"quiz-attempt-service/internal/infra/memory"
)

var testNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

type testEnv struct {
	handler http.Handler
	tokens  *auth.Tokens
	feed    *app.StatusFeed
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	loader := memory.NewStaticQuizLoader(sampleQuizzes())
	quizRepo := memory.NewQuizRepository(loader, time.Minute)
	attempts := app.NewAttemptService(quizRepo, memory.NewAttemptStore(), memory.NewSessionStore(), app.Options{
		Logger: logger,
		Clock:  func() time.Time { return testNow },
	})
	catalog := app.NewCatalogService(loader, quizRepo, logger)
	feed := app.NewStatusFeed(attempts, logger)
	tokens := auth.NewTokens("test-secret", "quiz-service")

	return &testEnv{
		handler: NewRouter(RouterOptions{
			Attempts:       attempts,
			Catalog:        catalog,
			Feed:           feed,
			Tokens:         tokens,
			Policy:         auth.NewConfigPolicy(map[string][]string{auth.RoleAdmin: {"admin@example.com"}}),
			Logger:         logger,
			DisableReqLogs: true,
		}),
		tokens: tokens,
		feed:   feed,
	}
}

func (e *testEnv) token(t *testing.T, id auth.Identity) string {
	t.Helper()
	raw, err := e.tokens.Issue(id, time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return raw
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

func sampleQuizzes() map[string]domain.QuizDefinition {
	questions := []domain.Question{
		{ID: 1, Text: "2 + 2?", Options: []domain.Option{{ID: "a", Text: "3"}, {ID: "b", Text: "4"}}, CorrectOptionID: "b"},
		{ID: 2, Text: "3 * 3?", Options: []domain.Option{{ID: "a", Text: "9"}, {ID: "b", Text: "6"}}, CorrectOptionID: "a"},
	}
	return map[string]domain.QuizDefinition{
		"quiz-live": {
			ID: "quiz-live", Title: "Live", StartTime: testNow.Add(-10 * time.Minute), DurationMinutes: 30,
			Questions: questions, Status: domain.LifecycleUpcoming,
		},
		"quiz-next": {
			ID: "quiz-next", Title: "Next", StartTime: testNow.Add(time.Hour), DurationMinutes: 30,
			Questions: questions, Status: domain.LifecycleUpcoming,
		},
	}
}
