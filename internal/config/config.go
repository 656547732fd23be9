package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"quiz-attempt-service/internal/domain"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Quiz struct {
		TTL     string `yaml:"ttl"`
		Catalog string `yaml:"catalog"`
	} `yaml:"quiz"`
	Session struct {
		TTL string `yaml:"ttl"`
	} `yaml:"session"`
	Auth struct {
		JWTSecret   string   `yaml:"jwt_secret"`
		Issuer      string   `yaml:"issuer"`
		AdminEmails []string `yaml:"admin_emails"`
	} `yaml:"auth"`
	Attempts struct {
		SharedOpenAttempts bool `yaml:"shared_open_attempts"`
	} `yaml:"attempts"`
	Feed struct {
		Schedule string `yaml:"schedule"`
	} `yaml:"feed"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// Load reads an optional .env file, the YAML config at path, then environment overrides.
// A missing config file yields defaults.
func Load(path string) (Config, error) {
	cfg := Config{}
	if err := godotenv.Load(); err != nil && !os.IsNotExist(errors.Cause(err)) {
		return cfg, errors.Wrap(err, "load .env")
	}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return cfg, errors.Wrapf(err, "read config %s", path)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, errors.Wrapf(err, "parse config %s", path)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	overrides := map[string]*string{
		"PORT":              &c.Server.Port,
		"QUIZ_POSTGRES_URL": &c.Postgres.URL,
		"QUIZ_REDIS_ADDR":   &c.Redis.Addr,
		"QUIZ_JWT_SECRET":   &c.Auth.JWTSecret,
		"QUIZ_LOG_LEVEL":    &c.Log.Level,
	}
	for env, field := range overrides {
		if v := os.Getenv(env); v != "" {
			*field = v
		}
	}
	if v := os.Getenv("QUIZ_ADMIN_EMAILS"); v != "" {
		c.Auth.AdminEmails = strings.Split(v, ",")
	}
}

func (c *Config) applyDefaults() {
	if c.Auth.Issuer == "" {
		c.Auth.Issuer = "quiz-service"
	}
	if c.Feed.Schedule == "" {
		c.Feed.Schedule = "@every 30s"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

// Logger builds the process logger from the log section.
func (c Config) Logger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	if strings.EqualFold(c.Log.Format, "json") {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(c.Log.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)
	return l
}

// Catalog is the YAML layout of a quiz catalog file, used by `seed` and the in-memory loader.
type Catalog struct {
	Quizzes []domain.QuizDefinition `yaml:"quizzes"`
}

// LoadCatalog reads and validates a catalog file.
func LoadCatalog(path string) (Catalog, error) {
	var catalog Catalog
	data, err := os.ReadFile(path)
	if err != nil {
		return catalog, errors.Wrapf(err, "read catalog %s", path)
	}
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return catalog, errors.Wrapf(err, "parse catalog %s", path)
	}
	for i := range catalog.Quizzes {
		if catalog.Quizzes[i].Status == "" {
			catalog.Quizzes[i].Status = domain.LifecycleUpcoming
		}
		if err := catalog.Quizzes[i].Validate(); err != nil {
			return catalog, errors.Wrapf(err, "quiz %q", catalog.Quizzes[i].ID)
		}
	}
	return catalog, nil
}
