package postgres

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/pkg/errors"

	"quiz-attempt-service/internal/domain"
)

// QuizLoader loads quiz JSONB from Postgres.
type QuizLoader struct {
	pool *pgxpool.Pool
}

func NewQuizLoader(pool *pgxpool.Pool) *QuizLoader {
	return &QuizLoader{pool: pool}
}

func (l *QuizLoader) LoadQuiz(ctx context.Context, quizID string) (domain.QuizDefinition, error) {
	var raw []byte
	err := l.pool.QueryRow(ctx, `SELECT data FROM quizzes WHERE id=$1`, quizID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.QuizDefinition{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.QuizDefinition{}, domain.NewStorageError("load quiz", err)
	}
	return decodeQuiz(raw)
}

func (l *QuizLoader) ListQuizzes(ctx context.Context) ([]domain.QuizDefinition, error) {
	rows, err := l.pool.Query(ctx, `SELECT data FROM quizzes ORDER BY start_time, id`)
	if err != nil {
		return nil, domain.NewStorageError("list quizzes", err)
	}
	defer rows.Close()

	quizzes := make([]domain.QuizDefinition, 0)
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, domain.NewStorageError("list quizzes", err)
		}
		quiz, err := decodeQuiz(raw)
		if err != nil {
			return nil, err
		}
		quizzes = append(quizzes, quiz)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewStorageError("list quizzes", err)
	}
	return quizzes, nil
}

func decodeQuiz(raw []byte) (domain.QuizDefinition, error) {
	var quiz domain.QuizDefinition
	if err := json.Unmarshal(raw, &quiz); err != nil {
		return domain.QuizDefinition{}, domain.NewStorageError("decode quiz", errors.Wrap(err, "unmarshal quiz"))
	}
	return quiz, nil
}
