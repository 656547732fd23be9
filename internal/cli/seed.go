package cli

import (
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/config"
	"quiz-attempt-service/internal/infra/postgres"
	rediscache "quiz-attempt-service/internal/infra/redis"
)

// NewSeedCmd loads a YAML catalog into Postgres.
func NewSeedCmd(configPath *string) *cobra.Command {
	var catalogPath string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Upsert the quizzes of a YAML catalog into Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			logger := cfg.Logger()
			if catalogPath == "" {
				catalogPath = cfg.Quiz.Catalog
			}
			if catalogPath == "" {
				return errors.New("no catalog given: pass --catalog or set quiz.catalog")
			}
			catalog, err := config.LoadCatalog(catalogPath)
			if err != nil {
				return err
			}

			db, err := openBunDB(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			var cache app.QuizCache
			if cfg.Redis.Addr != "" {
				client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
				defer client.Close()
				// the loader is never consulted by Invalidate
				cache = rediscache.NewQuizRepository(client, nil, 0)
			}

			service := app.NewCatalogService(postgres.NewCatalogWriter(db), cache, logger)
			for _, quiz := range catalog.Quizzes {
				if _, err := service.UpsertQuiz(ctx, quiz); err != nil {
					return errors.Wrapf(err, "seed quiz %q", quiz.ID)
				}
			}
			logger.WithField("quizzes", len(catalog.Quizzes)).Info("catalog seeded")
			return nil
		},
	}
	cmd.Flags().StringVar(&catalogPath, "catalog", "", "path to a YAML quiz catalog (defaults to quiz.catalog)")
	return cmd
}
