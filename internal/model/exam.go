package model

import (
	"time"

	"github.com/google/uuid"
)

// Exam represents a practice exam in the catalog. Catalog data is read-only
// from this backend's point of view; authoring happens upstream.
type Exam struct {
	ID              uuid.UUID `json:"id"`
	Title           string    `json:"title"`
	DurationMinutes int       `json:"duration_minutes"`
	CreatedAt       time.Time `json:"created_at"`
}

// ExamSummary is an exam as listed in the lobby, with the question count
// attached so the frontend can show "N preguntas" without a second request.
type ExamSummary struct {
	Exam
	QuestionCount int `json:"question_count"`
}

// ExamPayload is the Redis-cached paper sent to learners. Correct answers and
// explanations are stripped; they only travel back after the attempt is graded.
type ExamPayload struct {
	ExamID    uuid.UUID            `json:"exam_id"`
	Title     string               `json:"title"`
	Duration  int                  `json:"duration_minutes"`
	Questions []QuestionForLearner `json:"questions"`
}
