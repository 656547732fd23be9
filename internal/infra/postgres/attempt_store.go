package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"

	"quiz-attempt-service/internal/domain"
)

type attemptRow struct {
	bun.BaseModel `bun:"table:quiz_attempts"`

	ID          string                   `bun:"id,pk,type:uuid"`
	QuizID      string                   `bun:"quiz_id"`
	UserIDs     []string                 `bun:"user_ids,array"`
	LastUserID  string                   `bun:"last_user_id"`
	StartTime   time.Time                `bun:"start_time"`
	EndTime     *time.Time               `bun:"end_time"`
	IsCompleted bool                     `bun:"is_completed"`
	TimeSpent   int                      `bun:"time_spent"`
	Questions   []domain.QuestionAttempt `bun:"questions,type:jsonb"`
	Correct     int                      `bun:"correct"`
	Incorrect   int                      `bun:"incorrect"`
	Unattempted int                      `bun:"unattempted"`
	Score       int                      `bun:"score"`
	TotalMarks  int                      `bun:"total_marks"`
	UpdatedAt   time.Time                `bun:"updated_at"`
}

// AttemptStore persists attempts in the quiz_attempts table.
// Save is a single-row upsert; there is no cross-row locking.
type AttemptStore struct {
	db  *bun.DB
	now func() time.Time
}

func NewAttemptStore(db *bun.DB) *AttemptStore {
	return &AttemptStore{db: db, now: time.Now}
}

func (s *AttemptStore) FindOpen(ctx context.Context, quizID, userID string) (domain.QuizAttempt, bool, error) {
	var row attemptRow
	q := s.db.NewSelect().
		Model(&row).
		Where("quiz_id = ?", quizID).
		Where("NOT is_completed").
		Order("start_time DESC").
		Limit(1)
	if userID != "" {
		q = q.Where("? = ANY(user_ids)", userID)
	}
	return s.scanOne(ctx, q, &row, "find open attempt")
}

func (s *AttemptStore) Save(ctx context.Context, attempt domain.QuizAttempt) error {
	row := toRow(attempt)
	row.UpdatedAt = s.now()
	_, err := s.db.NewInsert().
		Model(&row).
		On("CONFLICT (id) DO UPDATE").
		Set("user_ids = EXCLUDED.user_ids").
		Set("last_user_id = EXCLUDED.last_user_id").
		Set("end_time = EXCLUDED.end_time").
		Set("is_completed = EXCLUDED.is_completed").
		Set("time_spent = EXCLUDED.time_spent").
		Set("questions = EXCLUDED.questions").
		Set("correct = EXCLUDED.correct").
		Set("incorrect = EXCLUDED.incorrect").
		Set("unattempted = EXCLUDED.unattempted").
		Set("score = EXCLUDED.score").
		Set("total_marks = EXCLUDED.total_marks").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return domain.NewStorageError("save attempt", err)
	}
	return nil
}

func (s *AttemptStore) LatestCompleted(ctx context.Context, quizID, userID string) (domain.QuizAttempt, bool, error) {
	var row attemptRow
	q := s.db.NewSelect().
		Model(&row).
		Where("quiz_id = ?", quizID).
		Where("is_completed").
		Where("? = ANY(user_ids)", userID).
		Order("end_time DESC", "id DESC").
		Limit(1)
	return s.scanOne(ctx, q, &row, "latest attempt")
}

func (s *AttemptStore) CompletedQuizIDs(ctx context.Context, userID string) ([]string, error) {
	ids := make([]string, 0)
	err := s.db.NewSelect().
		Model((*attemptRow)(nil)).
		ColumnExpr("DISTINCT quiz_id").
		Where("is_completed").
		Where("? = ANY(user_ids)", userID).
		OrderExpr("quiz_id").
		Scan(ctx, &ids)
	if err != nil {
		return nil, domain.NewStorageError("completed quiz ids", err)
	}
	return ids, nil
}

func (s *AttemptStore) ListCompleted(ctx context.Context, quizID string) ([]domain.QuizAttempt, error) {
	var rows []attemptRow
	err := s.db.NewSelect().
		Model(&rows).
		Where("quiz_id = ?", quizID).
		Where("is_completed").
		Order("end_time DESC", "id DESC").
		Scan(ctx)
	if err != nil {
		return nil, domain.NewStorageError("list attempts", err)
	}
	attempts := make([]domain.QuizAttempt, 0, len(rows))
	for _, row := range rows {
		attempts = append(attempts, row.toDomain())
	}
	return attempts, nil
}

func (s *AttemptStore) scanOne(ctx context.Context, q *bun.SelectQuery, row *attemptRow, op string) (domain.QuizAttempt, bool, error) {
	err := q.Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.QuizAttempt{}, false, nil
	}
	if err != nil {
		return domain.QuizAttempt{}, false, domain.NewStorageError(op, err)
	}
	return row.toDomain(), true, nil
}

func toRow(a domain.QuizAttempt) attemptRow {
	return attemptRow{
		ID:          a.ID,
		QuizID:      a.QuizID,
		UserIDs:     a.UserIDs,
		LastUserID:  a.LastUserID,
		StartTime:   a.StartTime,
		EndTime:     a.EndTime,
		IsCompleted: a.IsCompleted,
		TimeSpent:   a.TimeSpent,
		Questions:   a.Questions,
		Correct:     a.Correct,
		Incorrect:   a.Incorrect,
		Unattempted: a.Unattempted,
		Score:       a.Score,
		TotalMarks:  a.TotalMarks,
	}
}

func (r attemptRow) toDomain() domain.QuizAttempt {
	return domain.QuizAttempt{
		ID:          r.ID,
		QuizID:      r.QuizID,
		UserIDs:     r.UserIDs,
		LastUserID:  r.LastUserID,
		StartTime:   r.StartTime,
		EndTime:     r.EndTime,
		IsCompleted: r.IsCompleted,
		TimeSpent:   r.TimeSpent,
		Questions:   r.Questions,
		Correct:     r.Correct,
		Incorrect:   r.Incorrect,
		Unattempted: r.Unattempted,
		Score:       r.Score,
		TotalMarks:  r.TotalMarks,
	}
}
