package model

import "github.com/google/uuid"

// Difficulty labels a question in the catalog. The session engine never
// branches on it; it is display metadata.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Question is the full catalog record, including the answer key. It must
// never be serialized to a learner while their attempt is in progress.
type Question struct {
	ID            uuid.UUID  `json:"id"`
	Content       string     `json:"content"`
	ImageURL      *string    `json:"image_url,omitempty"`
	Difficulty    Difficulty `json:"difficulty"`
	CorrectAnswer string     `json:"correct_answer"`
	Distractors   []string   `json:"distractors"`
	Explanation   string     `json:"explanation"`
}

// Options returns the selectable options for the question: the correct answer
// followed by the distractors. Option ordering/shuffling is a frontend concern.
func (q *Question) Options() []string {
	opts := make([]string, 0, len(q.Distractors)+1)
	opts = append(opts, q.CorrectAnswer)
	opts = append(opts, q.Distractors...)
	return opts
}

// QuestionForLearner is a question with the answer key and explanation
// removed, safe to hand to an in-progress session.
type QuestionForLearner struct {
	ID         uuid.UUID  `json:"id"`
	Content    string     `json:"content"`
	ImageURL   *string    `json:"image_url,omitempty"`
	Difficulty Difficulty `json:"difficulty"`
	Options    []string   `json:"options"`
}

// ForLearner strips the answer key from a catalog question.
func (q *Question) ForLearner() QuestionForLearner {
	return QuestionForLearner{
		ID:         q.ID,
		Content:    q.Content,
		ImageURL:   q.ImageURL,
		Difficulty: q.Difficulty,
		Options:    q.Options(),
	}
}
