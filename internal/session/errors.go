package session

import (
	"errors"
	"fmt"
)

// Failure modes of session start and learner intents. Handlers match these
// with errors.Is to pick response codes.
var (
	// ErrExamNotFound: the exam identifier does not reference a catalog exam.
	ErrExamNotFound = errors.New("exam not found")

	// ErrEmptyExam: the exam has no linked questions. Guarded at start so the
	// scoring engine never sees a zero total.
	ErrEmptyExam = errors.New("exam has no questions")

	// ErrDataIntegrity: the catalog returned fewer questions than the exam
	// references. Indicates upstream data corruption, fatal to start.
	ErrDataIntegrity = errors.New("question set incomplete")

	// ErrInvalidQuestion: an intent referenced a question outside this
	// session's question set. Integration error, not a learner-facing state.
	ErrInvalidQuestion = errors.New("question not part of this session")
)

// PersistError wraps a durable-write failure. At start time it is fatal (no
// attempt row means no session); at finish time the in-memory result still
// stands and callers surface it as a warning.
type PersistError struct {
	Op  string
	Err error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Op, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }
