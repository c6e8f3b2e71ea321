package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ensayolab/ensayo-backend/internal/model"
)

// AttemptRepository handles exam attempt data access.
type AttemptRepository struct {
	pool *pgxpool.Pool
}

// NewAttemptRepository creates a new AttemptRepository.
func NewAttemptRepository(pool *pgxpool.Pool) *AttemptRepository {
	return &AttemptRepository{pool: pool}
}

// Create inserts a new attempt with status in_progress.
func (r *AttemptRepository) Create(ctx context.Context, userID, examID uuid.UUID) (*model.Attempt, error) {
	a := &model.Attempt{
		UserID: userID,
		ExamID: examID,
		Status: model.AttemptStatusInProgress,
	}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO exam_attempts (user_id, exam_id, status)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		userID, examID, model.AttemptStatusInProgress,
	).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Complete transitions an attempt to completed with its graded counts and
// scaled score. The attempt row is never mutated again after this.
func (r *AttemptRepository) Complete(ctx context.Context, attemptID uuid.UUID, correct, incorrect, omitted, score int, finishedAt time.Time) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE exam_attempts
		 SET status = $1, finished_at = $2, score_total = $3,
		     correct_count = $4, incorrect_count = $5, omitted_count = $6
		 WHERE id = $7`,
		model.AttemptStatusCompleted, finishedAt, score, correct, incorrect, omitted, attemptID)
	return err
}

// GetByID retrieves one attempt. Returns pgx.ErrNoRows if absent.
func (r *AttemptRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Attempt, error) {
	a := &model.Attempt{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, exam_id, status, created_at, finished_at,
		        score_total, correct_count, incorrect_count, omitted_count
		 FROM exam_attempts WHERE id = $1`, id,
	).Scan(&a.ID, &a.UserID, &a.ExamID, &a.Status, &a.CreatedAt, &a.FinishedAt,
		&a.ScoreTotal, &a.CorrectCount, &a.IncorrectCount, &a.OmittedCount)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// ListByUser retrieves a learner's attempts, newest first.
func (r *AttemptRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Attempt, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, exam_id, status, created_at, finished_at,
		        score_total, correct_count, incorrect_count, omitted_count
		 FROM exam_attempts
		 WHERE user_id = $1
		 ORDER BY created_at DESC`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []model.Attempt
	for rows.Next() {
		var a model.Attempt
		if err := rows.Scan(&a.ID, &a.UserID, &a.ExamID, &a.Status, &a.CreatedAt, &a.FinishedAt,
			&a.ScoreTotal, &a.CorrectCount, &a.IncorrectCount, &a.OmittedCount); err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}
