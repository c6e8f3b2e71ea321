package model

import "github.com/google/uuid"

// Answer is an immutable per-question record of the answer trail, written at
// finalize. SelectedOption is nil for omitted questions.
type Answer struct {
	AttemptID      uuid.UUID `json:"attempt_id"`
	QuestionID     uuid.UUID `json:"question_id"`
	SelectedOption *string   `json:"selected_option"`
	IsCorrect      bool      `json:"is_correct"`
}

// AnswerReview is an answer joined with its question for the result page.
type AnswerReview struct {
	QuestionID     uuid.UUID `json:"question_id"`
	Content        string    `json:"content"`
	SelectedOption *string   `json:"selected_option"`
	CorrectAnswer  string    `json:"correct_answer"`
	IsCorrect      bool      `json:"is_correct"`
	Explanation    string    `json:"explanation"`
}
