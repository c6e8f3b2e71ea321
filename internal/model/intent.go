package model

import "github.com/google/uuid"

// SelectAnswerRequest is the payload for answering a question.
type SelectAnswerRequest struct {
	QuestionID     uuid.UUID `json:"question_id" binding:"required"`
	SelectedOption string    `json:"selected_option" binding:"required,max=2000"`
}

// NavigateRequest moves the question cursor. Either a relative direction or
// an absolute index; index wins when both are present.
type NavigateRequest struct {
	Direction string `json:"direction" binding:"omitempty,oneof=next prev"`
	Index     *int   `json:"index" binding:"omitempty,min=0"`
}
