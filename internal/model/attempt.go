package model

import (
	"time"

	"github.com/google/uuid"
)

// AttemptStatus enumerates attempt lifecycle states.
type AttemptStatus string

const (
	AttemptStatusInProgress AttemptStatus = "in_progress"
	AttemptStatusCompleted  AttemptStatus = "completed"
)

// Attempt is one learner's run through one exam. Created once at session
// start, mutated exactly once at finalize, never deleted.
type Attempt struct {
	ID             uuid.UUID     `json:"id"`
	UserID         uuid.UUID     `json:"user_id"`
	ExamID         uuid.UUID     `json:"exam_id"`
	Status         AttemptStatus `json:"status"`
	CreatedAt      time.Time     `json:"created_at"`
	FinishedAt     *time.Time    `json:"finished_at,omitempty"`
	ScoreTotal     *int          `json:"score_total,omitempty"`
	CorrectCount   *int          `json:"correct_count,omitempty"`
	IncorrectCount *int          `json:"incorrect_count,omitempty"`
	OmittedCount   *int          `json:"omitted_count,omitempty"`
}
