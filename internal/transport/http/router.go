package http

import (
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/auth"
)

// RouterOptions carries the dependencies of the HTTP surface.
type RouterOptions struct {
	Attempts       *app.AttemptService
	Catalog        *app.CatalogService
	Feed           *app.StatusFeed
	Tokens         IdentityParser
	Policy         auth.Policy
	Logger         *logrus.Logger
	DisableReqLogs bool
}

// NewRouter wires every route plus recovery, CORS and request logging.
func NewRouter(opts RouterOptions) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	quizzes := NewQuizHandler(opts.Attempts, opts.Feed, logger)
	admin := NewAdminHandler(opts.Catalog, opts.Attempts, logger)
	ws := NewWSHandler(opts.Feed, logger)

	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.Use(authenticate(opts.Tokens, logger))
	v1.HandleFunc("/quizzes", quizzes.List).Methods(http.MethodGet)
	v1.HandleFunc("/quizzes/{quizId}/attempts/start", quizzes.Start).Methods(http.MethodPost)
	v1.HandleFunc("/quizzes/{quizId}/attempts", quizzes.Submit).Methods(http.MethodPost)
	v1.HandleFunc("/quizzes/{quizId}/result", quizzes.Result).Methods(http.MethodGet)
	v1.HandleFunc("/quizzes/{quizId}/revision", quizzes.Revision).Methods(http.MethodGet)
	v1.HandleFunc("/quizzes/{quizId}/attempt", quizzes.PriorAttempt).Methods(http.MethodGet)
	v1.HandleFunc("/ws/quizzes", ws.ServeWS).Methods(http.MethodGet)

	adminRoutes := v1.PathPrefix("/admin").Subrouter()
	adminRoutes.Use(requireRole(opts.Policy, auth.RoleAdmin, logger))
	adminRoutes.HandleFunc("/quizzes/{quizId}", admin.UpsertQuiz).Methods(http.MethodPut)
	adminRoutes.HandleFunc("/quizzes/{quizId}/attempts", admin.ListAttempts).Methods(http.MethodGet)

	var h http.Handler = r
	h = handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions}),
	)(h)
	h = handlers.RecoveryHandler(handlers.RecoveryLogger(logger), handlers.PrintRecoveryStack(true))(h)
	if !opts.DisableReqLogs {
		h = handlers.LoggingHandler(logger.WriterLevel(logrus.InfoLevel), h)
	}
	return h
}
