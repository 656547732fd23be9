package postgres

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"quiz-attempt-service/internal/domain"
)

type quizRow struct {
	bun.BaseModel `bun:"table:quizzes"`

	ID        string                `bun:"id,pk"`
	StartTime time.Time             `bun:"start_time"`
	Data      domain.QuizDefinition `bun:"data,type:jsonb"`
	UpdatedAt time.Time             `bun:"updated_at"`
}

// CatalogWriter upserts quiz definitions into the quizzes table.
type CatalogWriter struct {
	db  *bun.DB
	now func() time.Time
}

func NewCatalogWriter(db *bun.DB) *CatalogWriter {
	return &CatalogWriter{db: db, now: time.Now}
}

func (w *CatalogWriter) UpsertQuiz(ctx context.Context, quiz domain.QuizDefinition) error {
	row := quizRow{
		ID:        quiz.ID,
		StartTime: quiz.StartTime,
		Data:      quiz,
		UpdatedAt: w.now(),
	}
	_, err := w.db.NewInsert().
		Model(&row).
		On("CONFLICT (id) DO UPDATE").
		Set("start_time = EXCLUDED.start_time").
		Set("data = EXCLUDED.data").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return domain.NewStorageError("upsert quiz", err)
	}
	return nil
}
