package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ensayolab/ensayo-backend/internal/model"
)

// AnswerRepository handles the immutable answer-trail records.
type AnswerRepository struct {
	pool *pgxpool.Pool
}

// NewAnswerRepository creates a new AnswerRepository.
func NewAnswerRepository(pool *pgxpool.Pool) *AnswerRepository {
	return &AnswerRepository{pool: pool}
}

// Insert writes one answer record. The ON CONFLICT clause makes the write
// idempotent so a requeued worker payload never duplicates rows.
func (r *AnswerRepository) Insert(ctx context.Context, a *model.Answer) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO user_answers (attempt_id, question_id, selected_option, is_correct)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (attempt_id, question_id) DO NOTHING`,
		a.AttemptID, a.QuestionID, a.SelectedOption, a.IsCorrect,
	)
	return err
}

// ListByAttempt retrieves the answer trail joined with question content and
// explanations for the result review page, in exam order.
func (r *AnswerRepository) ListByAttempt(ctx context.Context, attemptID uuid.UUID) ([]model.AnswerReview, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT ua.question_id, q.content, ua.selected_option, q.correct_answer, ua.is_correct, q.explanation
		 FROM user_answers ua
		 JOIN questions q ON q.id = ua.question_id
		 JOIN exam_attempts a ON a.id = ua.attempt_id
		 JOIN exam_questions eq ON eq.question_id = ua.question_id AND eq.exam_id = a.exam_id
		 WHERE ua.attempt_id = $1
		 ORDER BY eq.position`, attemptID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reviews []model.AnswerReview
	for rows.Next() {
		var rev model.AnswerReview
		if err := rows.Scan(&rev.QuestionID, &rev.Content, &rev.SelectedOption, &rev.CorrectAnswer, &rev.IsCorrect, &rev.Explanation); err != nil {
			return nil, err
		}
		reviews = append(reviews, rev)
	}
	return reviews, rows.Err()
}
