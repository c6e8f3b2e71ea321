package session

import "github.com/google/uuid"

// Ledger buffers the learner's current answer selections for one attempt.
// At most one entry per question; re-selecting overwrites. Entries stay
// mutable until finalize, when they are flushed as immutable answer records.
//
// The ledger itself is not goroutine safe; the owning Session serializes
// access under its mutex.
type Ledger struct {
	selections map[uuid.UUID]string
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{selections: make(map[uuid.UUID]string)}
}

// Set upserts the selection for a question.
func (l *Ledger) Set(questionID uuid.UUID, option string) {
	l.selections[questionID] = option
}

// Get returns the current selection and whether one exists.
func (l *Ledger) Get(questionID uuid.UUID) (string, bool) {
	v, ok := l.selections[questionID]
	return v, ok
}

// Answered reports whether the question has a selection.
func (l *Ledger) Answered(questionID uuid.UUID) bool {
	_, ok := l.selections[questionID]
	return ok
}

// Len returns the number of answered questions.
func (l *Ledger) Len() int {
	return len(l.selections)
}
