package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/auth"
	"quiz-attempt-service/internal/config"
	"quiz-attempt-service/internal/domain"
	"quiz-attempt-service/internal/infra/memory"
	"quiz-attempt-service/internal/infra/postgres"
	rediscache "quiz-attempt-service/internal/infra/redis"
	transport "quiz-attempt-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz attempt server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

type cachedQuizzes interface {
	app.QuizRepository
	app.QuizCache
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := cfg.Logger()

	if cfg.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is not configured")
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}

	var (
		pool *pgxpool.Pool
		db   *bun.DB
	)
	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, logger); err != nil {
			return err
		}
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return errors.Wrap(err, "connect postgres")
		}
		defer pool.Close()
		if db, err = openBunDB(cfg); err != nil {
			return err
		}
		defer db.Close()
	}

	// Quiz content: Postgres when configured, otherwise a YAML catalog or the built-in sample.
	var (
		loader memory.QuizLoader
		writer app.CatalogWriter
	)
	if pool != nil {
		loader = postgres.NewQuizLoader(pool)
		writer = postgres.NewCatalogWriter(db)
	} else {
		quizzes := sampleQuizzes()
		if cfg.Quiz.Catalog != "" {
			catalog, err := config.LoadCatalog(cfg.Quiz.Catalog)
			if err != nil {
				return err
			}
			quizzes = make(map[string]domain.QuizDefinition, len(catalog.Quizzes))
			for _, quiz := range catalog.Quizzes {
				quizzes[quiz.ID] = quiz
			}
		}
		static := memory.NewStaticQuizLoader(quizzes)
		loader, writer = static, static
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var quizRepo cachedQuizzes
	if redisClient != nil {
		quizRepo = rediscache.NewQuizRepository(redisClient, loader, quizTTL)
	} else {
		quizRepo = memory.NewQuizRepository(loader, quizTTL)
	}

	var attempts app.AttemptRepository = memory.NewAttemptStore()
	if db != nil {
		attempts = postgres.NewAttemptStore(db)
	}

	sessionTTL := config.TTLDuration(cfg.Session.TTL, config.TTLDuration(cfg.Redis.TTL, 24*time.Hour))
	var sessions app.SessionRepository = memory.NewSessionStore()
	if redisClient != nil {
		sessions = rediscache.NewSessionStore(redisClient, sessionTTL)
	}

	attemptService := app.NewAttemptService(quizRepo, attempts, sessions, app.Options{
		SharedOpenAttempts: cfg.Attempts.SharedOpenAttempts,
		Logger:             logger,
	})
	catalogService := app.NewCatalogService(writer, quizRepo, logger)
	feed := app.NewStatusFeed(attemptService, logger)

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.Feed.Schedule, func() { feed.Refresh(ctx) }); err != nil {
		return errors.Wrapf(err, "invalid feed schedule %q", cfg.Feed.Schedule)
	}
	scheduler.Start()
	defer scheduler.Stop()

	router := transport.NewRouter(transport.RouterOptions{
		Attempts: attemptService,
		Catalog:  catalogService,
		Feed:     feed,
		Tokens:   auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.Issuer),
		Policy:   auth.NewConfigPolicy(map[string][]string{auth.RoleAdmin: cfg.Auth.AdminEmails}),
		Logger:   logger,
	})

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.WithFields(logrus.Fields{
			"port":     finalPort,
			"postgres": pool != nil,
			"redis":    redisClient != nil,
		}).Info("starting quiz attempt service")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("failed to start server")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info("shutting down server...")
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleQuizzes is served when neither Postgres nor a catalog file is configured.
func sampleQuizzes() map[string]domain.QuizDefinition {
	now := time.Now().UTC().Truncate(time.Minute)
	return map[string]domain.QuizDefinition{
		"quiz-1": {
			ID:              "quiz-1",
			Title:           "Arithmetic warm-up",
			StartTime:       now.Add(-5 * time.Minute),
			DurationMinutes: 60,
			Syllabus:        []string{"addition", "multiplication"},
			Status:          domain.LifecycleUpcoming,
			Questions: []domain.Question{
				{
					ID:   1,
					Text: "What is 2 + 2?",
					Options: []domain.Option{
						{ID: "a", Text: "3"},
						{ID: "b", Text: "4"},
						{ID: "c", Text: "5"},
					},
					CorrectOptionID: "b",
				},
				{
					ID:   2,
					Text: "What is 3 * 3?",
					Options: []domain.Option{
						{ID: "a", Text: "6"},
						{ID: "b", Text: "9"},
					},
					CorrectOptionID: "b",
				},
			},
		},
	}
}
