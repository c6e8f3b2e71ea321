package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ensayolab/ensayo-backend/internal/model"
)

// Catalog supplies read-only exam and question data. Implementations return
// ErrExamNotFound when the exam identifier is unknown.
type Catalog interface {
	GetExam(ctx context.Context, id uuid.UUID) (*model.Exam, error)
	GetQuestionIDs(ctx context.Context, examID uuid.UUID) ([]uuid.UUID, error)
	GetQuestions(ctx context.Context, ids []uuid.UUID) ([]model.Question, error)
}

// AttemptStore records attempt lifecycle writes. InsertAnswer is
// fire-and-forget tolerant: finalize logs failures and keeps going.
type AttemptStore interface {
	CreateAttempt(ctx context.Context, userID, examID uuid.UUID) (*model.Attempt, error)
	InsertAnswer(ctx context.Context, a model.Answer) error
	CompleteAttempt(ctx context.Context, attemptID uuid.UUID, res Result, finishedAt time.Time) error
}

// Result holds the graded counts and scaled score of a finished attempt.
// Correct + Incorrect + Omitted always equals Total.
type Result struct {
	Correct   int `json:"correct_count"`
	Incorrect int `json:"incorrect_count"`
	Omitted   int `json:"omitted_count"`
	Total     int `json:"total_questions"`
	Score     int `json:"score_total"`
}

// Session drives one attempt from start to graded finish: it owns the
// countdown, the question cursor and the answer ledger, and finalizes either
// on explicit intent or when the clock crosses zero.
//
// All exported methods are safe for concurrent use; the HTTP layer and the
// ticker goroutine both touch the session.
type Session struct {
	mu    sync.Mutex
	store AttemptStore
	log   zerolog.Logger

	attempt   *model.Attempt
	exam      *model.Exam
	questions []model.Question
	byID      map[uuid.UUID]*model.Question

	ledger    *Ledger
	position  int
	remaining int
	finished  bool
	result    *Result
}

// Start initializes a session: fetches the exam, creates the attempt row,
// loads the ordered question set and arms the countdown. Any failure aborts
// start entirely; no session exists until Start returns nil error.
func Start(ctx context.Context, catalog Catalog, store AttemptStore, examID, userID uuid.UUID, log zerolog.Logger) (*Session, error) {
	exam, err := catalog.GetExam(ctx, examID)
	if err != nil {
		return nil, err
	}

	attempt, err := store.CreateAttempt(ctx, userID, examID)
	if err != nil {
		return nil, &PersistError{Op: "attempt", Err: err}
	}

	ids, err := catalog.GetQuestionIDs(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("load question ids: %w", err)
	}
	if len(ids) == 0 {
		return nil, ErrEmptyExam
	}

	loaded, err := catalog.GetQuestions(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}

	// Fix the question order to the catalog's id sequence and verify every
	// referenced question actually arrived.
	byID := make(map[uuid.UUID]*model.Question, len(loaded))
	for i := range loaded {
		byID[loaded[i].ID] = &loaded[i]
	}
	ordered := make([]model.Question, 0, len(ids))
	for _, id := range ids {
		q, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: question %s missing", ErrDataIntegrity, id)
		}
		ordered = append(ordered, *q)
	}
	index := make(map[uuid.UUID]*model.Question, len(ordered))
	for i := range ordered {
		index[ordered[i].ID] = &ordered[i]
	}

	return &Session{
		store:     store,
		log:       log.With().Str("component", "session").Str("attempt_id", attempt.ID.String()).Logger(),
		attempt:   attempt,
		exam:      exam,
		questions: ordered,
		byID:      index,
		ledger:    NewLedger(),
		remaining: exam.DurationMinutes * 60,
	}, nil
}

// AttemptID returns the identifier of the attempt this session is driving.
func (s *Session) AttemptID() uuid.UUID { return s.attempt.ID }

// ExamID returns the exam this session runs against.
func (s *Session) ExamID() uuid.UUID { return s.exam.ID }

// UserID returns the owning learner.
func (s *Session) UserID() uuid.UUID { return s.attempt.UserID }

// SelectAnswer upserts the learner's selection for a question. Selecting the
// same question again overwrites the earlier choice. No persistence happens
// here; answers buffer in the ledger until finalize. A no-op once terminal.
func (s *Session) SelectAnswer(questionID uuid.UUID, option string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.finished {
		return nil
	}
	if _, ok := s.byID[questionID]; !ok {
		return ErrInvalidQuestion
	}
	s.ledger.Set(questionID, option)
	return nil
}

// Next advances the cursor, clamped at the last question.
func (s *Session) Next() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seekLocked(s.position + 1)
}

// Prev moves the cursor back, clamped at the first question.
func (s *Session) Prev() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seekLocked(s.position - 1)
}

// Seek moves the cursor to an absolute index, clamped into the valid range.
// Pure state mutation; a no-op once terminal.
func (s *Session) Seek(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seekLocked(index)
}

func (s *Session) seekLocked(index int) {
	if s.finished {
		return
	}
	if index < 0 {
		index = 0
	}
	if max := len(s.questions) - 1; index > max {
		index = max
	}
	s.position = index
}

// Tick delivers one elapsed second. The zero crossing triggers finalize
// exactly once; further ticks are no-ops. Returns the result and true on the
// tick that finished the session.
func (s *Session) Tick(ctx context.Context) (*Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.finished || s.remaining <= 0 {
		return nil, false
	}

	s.remaining--
	if s.remaining > 0 {
		return nil, false
	}

	res, err := s.finishLocked(ctx)
	if err != nil {
		// Timeout finalize has no caller to surface to; the result is still
		// computed and the learner sees it, only durability suffered.
		s.log.Error().Err(err).Msg("auto-finish persistence failed")
	}
	return res, true
}

// Finish grades the attempt and transitions the session to its terminal
// state. Idempotent: a second call returns the already-computed result and
// performs no further writes. A non-nil result is returned even when the
// completion write fails; the error then tells the caller to warn the
// learner that the result may not have been saved.
func (s *Session) Finish(ctx context.Context) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.finished {
		return s.result, nil
	}
	return s.finishLocked(ctx)
}

// finishLocked runs the finalize sequence. Callers hold s.mu.
func (s *Session) finishLocked(ctx context.Context) (*Result, error) {
	// 1. Flush the answer trail, one record per question, omitted included.
	// Individual failures are logged, never fatal: the score below is
	// computed in memory regardless.
	for i := range s.questions {
		q := &s.questions[i]
		var selected *string
		if v, ok := s.ledger.Get(q.ID); ok {
			selected = &v
		}
		rec := model.Answer{
			AttemptID:      s.attempt.ID,
			QuestionID:     q.ID,
			SelectedOption: selected,
			IsCorrect:      selected != nil && *selected == q.CorrectAnswer,
		}
		if err := s.store.InsertAnswer(ctx, rec); err != nil {
			s.log.Warn().Err(err).Str("question_id", q.ID.String()).Msg("answer record not persisted")
		}
	}

	// 2. Partition every question into exactly one of three buckets.
	res := &Result{Total: len(s.questions)}
	for i := range s.questions {
		q := &s.questions[i]
		selected, ok := s.ledger.Get(q.ID)
		switch {
		case !ok:
			res.Omitted++
		case selected == q.CorrectAnswer:
			res.Correct++
		default:
			res.Incorrect++
		}
	}

	// 3. Scale the raw ratio.
	res.Score = Score(res.Correct, res.Total)

	// 4. Persist the completion. Failure is surfaced but the session still
	// goes terminal so the learner is never stuck re-finishing.
	now := time.Now()
	var persistErr error
	if err := s.store.CompleteAttempt(ctx, s.attempt.ID, *res, now); err != nil {
		persistErr = &PersistError{Op: "completion", Err: err}
	}

	// 5. Terminal transition.
	s.finished = true
	s.result = res
	s.attempt.Status = model.AttemptStatusCompleted
	s.attempt.FinishedAt = &now

	return res, persistErr
}

// Finished reports whether the session reached its terminal state.
func (s *Session) Finished() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finished
}

// Remaining returns the countdown in seconds.
func (s *Session) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remaining
}

// Result returns the graded result, or nil while in progress.
func (s *Session) Result() *Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// View is a presentation snapshot of the session: the current question
// (answer key stripped), cursor, clock and per-question progress flags, plus
// the result once terminal.
type View struct {
	AttemptID        uuid.UUID                 `json:"attempt_id"`
	ExamID           uuid.UUID                 `json:"exam_id"`
	Title            string                    `json:"title"`
	Position         int                       `json:"position"`
	Total            int                       `json:"total_questions"`
	RemainingSeconds int                       `json:"remaining_seconds"`
	Question         *model.QuestionForLearner `json:"question,omitempty"`
	Selected         *string                   `json:"selected_option,omitempty"`
	Answered         []bool                    `json:"answered"`
	AnsweredCount    int                       `json:"answered_count"`
	Finished         bool                      `json:"finished"`
	Result           *Result                   `json:"result,omitempty"`
}

// View captures a consistent snapshot for the presentation layer.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		AttemptID:        s.attempt.ID,
		ExamID:           s.exam.ID,
		Title:            s.exam.Title,
		Position:         s.position,
		Total:            len(s.questions),
		RemainingSeconds: s.remaining,
		Answered:         make([]bool, len(s.questions)),
		AnsweredCount:    s.ledger.Len(),
		Finished:         s.finished,
		Result:           s.result,
	}
	for i := range s.questions {
		v.Answered[i] = s.ledger.Answered(s.questions[i].ID)
	}
	if !s.finished {
		current := s.questions[s.position]
		q := current.ForLearner()
		v.Question = &q
		if sel, ok := s.ledger.Get(current.ID); ok {
			v.Selected = &sel
		}
	}
	return v
}
