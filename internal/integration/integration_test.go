package integration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/domain"
	"quiz-attempt-service/internal/infra/postgres"
	pgmigrations "quiz-attempt-service/internal/infra/postgres/migrations"
	infraredis "quiz-attempt-service/internal/infra/redis"
)

func TestSubmitAndResultEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	db := migrateDB(t, ctx, pgURL)
	defer db.Close()

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	quizRepo := infraredis.NewQuizRepository(redisClient, postgres.NewQuizLoader(pool), 5*time.Minute)
	catalog := app.NewCatalogService(postgres.NewCatalogWriter(db), quizRepo, logger)
	if _, err := catalog.UpsertQuiz(ctx, sampleQuiz()); err != nil {
		t.Fatalf("seed quiz: %v", err)
	}

	attempts := postgres.NewAttemptStore(db)
	sessions := infraredis.NewSessionStore(redisClient, 5*time.Minute)
	now := time.Now().UTC().Truncate(time.Millisecond)
	service := app.NewAttemptService(quizRepo, attempts, sessions, app.Options{
		Logger: logger,
		Clock:  func() time.Time { return now },
	})

	if _, err := service.Result(ctx, "quiz-1", "u1"); !errors.Is(err, domain.ErrAttemptNotFound) {
		t.Fatalf("expected ErrAttemptNotFound, got %v", err)
	}

	started, err := service.Start(ctx, "quiz-1", "u1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	now = now.Add(2 * time.Minute)
	option := "b"
	summary, err := service.Submit(ctx, "quiz-1", "u1", domain.Submission{
		Answers:        map[int]domain.AnswerInput{1: {SelectedOptionID: &option, Status: domain.AnswerAnswered}},
		TotalTimeSpent: 120,
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if summary.AttemptID != started.ID || summary.Score != 4 || summary.TotalMarks != 8 || summary.Unattempted != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}

	now = now.Add(time.Minute)
	wrong := "a"
	second, err := service.Submit(ctx, "quiz-1", "u1", domain.Submission{
		Answers: map[int]domain.AnswerInput{1: {SelectedOptionID: &wrong, Status: domain.AnswerAnswered}},
	})
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}

	result, err := service.Result(ctx, "quiz-1", "u1")
	if err != nil {
		t.Fatalf("result: %v", err)
	}
	if result.AttemptID != second.AttemptID || result.Score != 0 || result.Incorrect != 1 {
		t.Fatalf("expected the latest attempt, got %+v", result)
	}

	listed, err := service.ListAttempts(ctx, "quiz-1")
	if err != nil || len(listed) != 2 {
		t.Fatalf("expected 2 completed attempts, got %d (%v)", len(listed), err)
	}

	// drop the cached session: statuses must come back from Postgres
	if err := sessions.Delete(ctx, "u1"); err != nil {
		t.Fatalf("delete session: %v", err)
	}
	quizzes, err := service.ListQuizzes(ctx, "u1")
	if err != nil {
		t.Fatalf("list quizzes: %v", err)
	}
	if len(quizzes) != 1 || quizzes[0].Status != domain.StatusAttempted {
		t.Fatalf("unexpected quiz list %+v", quizzes)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func migrateDB(t *testing.T, ctx context.Context, dsn string) *bun.DB {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func sampleQuiz() domain.QuizDefinition {
	return domain.QuizDefinition{
		ID:              "quiz-1",
		Title:           "Arithmetic",
		StartTime:       time.Now().UTC().Add(-time.Minute).Truncate(time.Second),
		DurationMinutes: 30,
		Status:          domain.LifecycleLive,
		Questions: []domain.Question{
			{
				ID:              1,
				Text:            "What is 2 + 2?",
				Options:         []domain.Option{{ID: "a", Text: "3"}, {ID: "b", Text: "4"}},
				CorrectOptionID: "b",
			},
			{
				ID:              2,
				Text:            "What is 3 * 3?",
				Options:         []domain.Option{{ID: "a", Text: "9"}, {ID: "b", Text: "6"}},
				CorrectOptionID: "a",
			},
		},
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
