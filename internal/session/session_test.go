package session

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ensayolab/ensayo-backend/internal/model"
)

// ─── Fakes ──────────────────────────────────────────────────────────

type fakeCatalog struct {
	exam      *model.Exam
	examErr   error
	ids       []uuid.UUID
	idsErr    error
	questions []model.Question
	questsErr error
}

func (f *fakeCatalog) GetExam(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	if f.examErr != nil {
		return nil, f.examErr
	}
	return f.exam, nil
}

func (f *fakeCatalog) GetQuestionIDs(ctx context.Context, examID uuid.UUID) ([]uuid.UUID, error) {
	return f.ids, f.idsErr
}

func (f *fakeCatalog) GetQuestions(ctx context.Context, ids []uuid.UUID) ([]model.Question, error) {
	if f.questsErr != nil {
		return nil, f.questsErr
	}
	return f.questions, nil
}

type fakeStore struct {
	createErr    error
	insertErr    error
	completeErr  error
	answers      []model.Answer
	completions  int
	completedRes Result
}

func (f *fakeStore) CreateAttempt(ctx context.Context, userID, examID uuid.UUID) (*model.Attempt, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &model.Attempt{
		ID:        uuid.New(),
		UserID:    userID,
		ExamID:    examID,
		Status:    model.AttemptStatusInProgress,
		CreatedAt: time.Now(),
	}, nil
}

func (f *fakeStore) InsertAnswer(ctx context.Context, a model.Answer) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.answers = append(f.answers, a)
	return nil
}

func (f *fakeStore) CompleteAttempt(ctx context.Context, attemptID uuid.UUID, res Result, finishedAt time.Time) error {
	if f.completeErr != nil {
		return f.completeErr
	}
	f.completions++
	f.completedRes = res
	return nil
}

// ─── Helpers ────────────────────────────────────────────────────────

func makeQuestions(n int) []model.Question {
	qs := make([]model.Question, n)
	for i := range qs {
		qs[i] = model.Question{
			ID:            uuid.New(),
			Content:       fmt.Sprintf("Question %d", i+1),
			Difficulty:    model.DifficultyMedium,
			CorrectAnswer: fmt.Sprintf("correct-%d", i+1),
			Distractors:   []string{"wrong-a", "wrong-b", "wrong-c"},
		}
	}
	return qs
}

func makeCatalog(durationMinutes int, qs []model.Question) *fakeCatalog {
	ids := make([]uuid.UUID, len(qs))
	for i := range qs {
		ids[i] = qs[i].ID
	}
	return &fakeCatalog{
		exam: &model.Exam{
			ID:              uuid.New(),
			Title:           "Ensayo PAES M1",
			DurationMinutes: durationMinutes,
			CreatedAt:       time.Now(),
		},
		ids:       ids,
		questions: qs,
	}
}

func startSession(t *testing.T, catalog *fakeCatalog, store *fakeStore) *Session {
	t.Helper()
	sess, err := Start(context.Background(), catalog, store, catalog.exam.ID, uuid.New(), zerolog.Nop())
	require.NoError(t, err)
	require.NotNil(t, sess)
	return sess
}

// ─── Start ──────────────────────────────────────────────────────────

func TestStart_ExamNotFound(t *testing.T) {
	catalog := &fakeCatalog{examErr: ErrExamNotFound}

	sess, err := Start(context.Background(), catalog, &fakeStore{}, uuid.New(), uuid.New(), zerolog.Nop())
	assert.Nil(t, sess)
	assert.ErrorIs(t, err, ErrExamNotFound)
}

func TestStart_EmptyExam(t *testing.T) {
	catalog := makeCatalog(60, nil)

	sess, err := Start(context.Background(), catalog, &fakeStore{}, catalog.exam.ID, uuid.New(), zerolog.Nop())
	assert.Nil(t, sess)
	assert.ErrorIs(t, err, ErrEmptyExam)
}

func TestStart_AttemptPersistFailureIsFatal(t *testing.T) {
	catalog := makeCatalog(60, makeQuestions(2))
	store := &fakeStore{createErr: errors.New("connection refused")}

	sess, err := Start(context.Background(), catalog, store, catalog.exam.ID, uuid.New(), zerolog.Nop())
	assert.Nil(t, sess)

	var perr *PersistError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "attempt", perr.Op)
}

func TestStart_MissingQuestionIsDataIntegrity(t *testing.T) {
	qs := makeQuestions(3)
	catalog := makeCatalog(60, qs)
	// The catalog references three questions but only delivers two.
	catalog.questions = qs[:2]

	sess, err := Start(context.Background(), catalog, &fakeStore{}, catalog.exam.ID, uuid.New(), zerolog.Nop())
	assert.Nil(t, sess)
	assert.ErrorIs(t, err, ErrDataIntegrity)
}

func TestStart_ArmsCountdownFromDuration(t *testing.T) {
	catalog := makeCatalog(90, makeQuestions(2))
	sess := startSession(t, catalog, &fakeStore{})

	assert.Equal(t, 90*60, sess.Remaining())
	assert.False(t, sess.Finished())
	assert.Nil(t, sess.Result())
}

// ─── Answer ledger through the session ──────────────────────────────

func TestSelectAnswer_UnknownQuestion(t *testing.T) {
	catalog := makeCatalog(60, makeQuestions(2))
	sess := startSession(t, catalog, &fakeStore{})

	err := sess.SelectAnswer(uuid.New(), "anything")
	assert.ErrorIs(t, err, ErrInvalidQuestion)
}

func TestSelectAnswer_OverwriteReplacesSelection(t *testing.T) {
	qs := makeQuestions(2)
	catalog := makeCatalog(60, qs)
	sess := startSession(t, catalog, &fakeStore{})

	require.NoError(t, sess.SelectAnswer(qs[0].ID, "wrong-a"))
	require.NoError(t, sess.SelectAnswer(qs[0].ID, qs[0].CorrectAnswer))

	v := sess.View()
	require.NotNil(t, v.Selected)
	assert.Equal(t, qs[0].CorrectAnswer, *v.Selected)
	assert.Equal(t, 1, v.AnsweredCount, "overwrite must not inflate the answered count")
}

func TestSelectAnswer_NoOpAfterFinish(t *testing.T) {
	qs := makeQuestions(2)
	catalog := makeCatalog(60, qs)
	sess := startSession(t, catalog, &fakeStore{})

	_, err := sess.Finish(context.Background())
	require.NoError(t, err)

	assert.NoError(t, sess.SelectAnswer(qs[0].ID, "late"))
	assert.Equal(t, 2, sess.Result().Omitted, "a late selection must not change the graded result")
}

// ─── Navigation ─────────────────────────────────────────────────────

func TestNavigation_ClampsAtBounds(t *testing.T) {
	catalog := makeCatalog(60, makeQuestions(3))
	sess := startSession(t, catalog, &fakeStore{})

	sess.Prev()
	assert.Equal(t, 0, sess.View().Position, "prev at the first question stays put")

	sess.Next()
	sess.Next()
	sess.Next()
	sess.Next()
	assert.Equal(t, 2, sess.View().Position, "next at the last question stays put")

	sess.Seek(-5)
	assert.Equal(t, 0, sess.View().Position)

	sess.Seek(100)
	assert.Equal(t, 2, sess.View().Position)

	sess.Seek(1)
	assert.Equal(t, 1, sess.View().Position)
}

// ─── Finalize ───────────────────────────────────────────────────────

func TestFinish_PartitionsEveryQuestion(t *testing.T) {
	qs := makeQuestions(4)
	catalog := makeCatalog(60, qs)
	store := &fakeStore{}
	sess := startSession(t, catalog, store)

	require.NoError(t, sess.SelectAnswer(qs[0].ID, qs[0].CorrectAnswer))
	require.NoError(t, sess.SelectAnswer(qs[1].ID, "wrong-a"))

	res, err := sess.Finish(context.Background())
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.Equal(t, 1, res.Correct)
	assert.Equal(t, 1, res.Incorrect)
	assert.Equal(t, 2, res.Omitted)
	assert.Equal(t, 4, res.Total)
	assert.Equal(t, res.Total, res.Correct+res.Incorrect+res.Omitted)
	assert.Equal(t, 250, res.Score)

	// One answer record per question, omitted included.
	require.Len(t, store.answers, 4)
	byQuestion := make(map[uuid.UUID]model.Answer, len(store.answers))
	for _, a := range store.answers {
		byQuestion[a.QuestionID] = a
	}
	assert.True(t, byQuestion[qs[0].ID].IsCorrect)
	assert.False(t, byQuestion[qs[1].ID].IsCorrect)
	assert.Nil(t, byQuestion[qs[2].ID].SelectedOption)
	assert.Nil(t, byQuestion[qs[3].ID].SelectedOption)

	assert.Equal(t, 1, store.completions)
	assert.Equal(t, *res, store.completedRes)
	assert.True(t, sess.Finished())
}

func TestFinish_AllCorrect(t *testing.T) {
	qs := makeQuestions(5)
	catalog := makeCatalog(60, qs)
	sess := startSession(t, catalog, &fakeStore{})

	for i := range qs {
		require.NoError(t, sess.SelectAnswer(qs[i].ID, qs[i].CorrectAnswer))
	}

	res, err := sess.Finish(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, res.Correct)
	assert.Equal(t, 0, res.Incorrect)
	assert.Equal(t, 0, res.Omitted)
	assert.Equal(t, 1000, res.Score)
}

func TestFinish_Idempotent(t *testing.T) {
	qs := makeQuestions(3)
	catalog := makeCatalog(60, qs)
	store := &fakeStore{}
	sess := startSession(t, catalog, store)

	first, err := sess.Finish(context.Background())
	require.NoError(t, err)

	second, err := sess.Finish(context.Background())
	require.NoError(t, err)

	assert.Same(t, first, second, "a repeat finish must return the already-computed result")
	assert.Equal(t, 1, store.completions, "a repeat finish must not write again")
	assert.Len(t, store.answers, 3, "a repeat finish must not re-flush the answer trail")
}

func TestFinish_CompletionWriteFailureStillGrades(t *testing.T) {
	qs := makeQuestions(2)
	catalog := makeCatalog(60, qs)
	store := &fakeStore{completeErr: errors.New("connection reset")}
	sess := startSession(t, catalog, store)

	res, err := sess.Finish(context.Background())

	require.NotNil(t, res, "the learner still gets a graded result")
	var perr *PersistError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "completion", perr.Op)

	assert.True(t, sess.Finished(), "the session goes terminal even when the write failed")

	// A retry does not re-run the failed write; the result stands.
	again, err := sess.Finish(context.Background())
	assert.NoError(t, err)
	assert.Same(t, res, again)
}

func TestFinish_AnswerTrailFailureIsTolerated(t *testing.T) {
	qs := makeQuestions(2)
	catalog := makeCatalog(60, qs)
	store := &fakeStore{insertErr: errors.New("queue full")}
	sess := startSession(t, catalog, store)

	require.NoError(t, sess.SelectAnswer(qs[0].ID, qs[0].CorrectAnswer))

	res, err := sess.Finish(context.Background())
	require.NoError(t, err, "answer trail failures never fail the finish")
	assert.Equal(t, 1, res.Correct)
	assert.Equal(t, 1, store.completions)
}

// ─── Countdown ──────────────────────────────────────────────────────

func TestTick_CountsDownAndAutoFinishes(t *testing.T) {
	qs := makeQuestions(4)
	catalog := makeCatalog(1, qs) // 60 seconds
	store := &fakeStore{}
	sess := startSession(t, catalog, store)

	ctx := context.Background()
	for i := 0; i < 59; i++ {
		res, finished := sess.Tick(ctx)
		assert.Nil(t, res)
		assert.False(t, finished)
	}
	assert.Equal(t, 1, sess.Remaining())

	res, finished := sess.Tick(ctx)
	require.True(t, finished, "the zero crossing finishes the session")
	require.NotNil(t, res)

	// Nothing was answered before time ran out.
	assert.Equal(t, 0, res.Correct)
	assert.Equal(t, 4, res.Omitted)
	assert.Equal(t, 0, res.Score)
	assert.Equal(t, 1, store.completions)
}

func TestTick_NoOpAfterFinish(t *testing.T) {
	qs := makeQuestions(2)
	catalog := makeCatalog(1, qs)
	store := &fakeStore{}
	sess := startSession(t, catalog, store)

	_, err := sess.Finish(context.Background())
	require.NoError(t, err)

	res, finished := sess.Tick(context.Background())
	assert.Nil(t, res)
	assert.False(t, finished)
	assert.Equal(t, 1, store.completions, "ticks after finalize must not re-trigger it")
}

func TestTick_SurvivesPersistFailureOnTimeout(t *testing.T) {
	qs := makeQuestions(2)
	catalog := makeCatalog(1, qs)
	store := &fakeStore{completeErr: errors.New("down")}
	sess := startSession(t, catalog, store)

	ctx := context.Background()
	for i := 0; i < 60; i++ {
		sess.Tick(ctx)
	}

	assert.True(t, sess.Finished())
	require.NotNil(t, sess.Result())
	assert.Equal(t, 2, sess.Result().Omitted)
}

// ─── View ───────────────────────────────────────────────────────────

func TestView_StripsAnswerKey(t *testing.T) {
	qs := makeQuestions(2)
	catalog := makeCatalog(60, qs)
	sess := startSession(t, catalog, &fakeStore{})

	v := sess.View()
	require.NotNil(t, v.Question)
	assert.Equal(t, qs[0].ID, v.Question.ID)
	assert.Equal(t, qs[0].Content, v.Question.Content)
	assert.Len(t, v.Question.Options, 4)
	assert.Equal(t, 2, v.Total)
	assert.Equal(t, []bool{false, false}, v.Answered)
	assert.False(t, v.Finished)
}

func TestView_TracksProgressAndResult(t *testing.T) {
	qs := makeQuestions(3)
	catalog := makeCatalog(60, qs)
	sess := startSession(t, catalog, &fakeStore{})

	require.NoError(t, sess.SelectAnswer(qs[1].ID, "wrong-a"))
	sess.Seek(1)

	v := sess.View()
	assert.Equal(t, 1, v.Position)
	assert.Equal(t, []bool{false, true, false}, v.Answered)
	assert.Equal(t, 1, v.AnsweredCount)
	require.NotNil(t, v.Selected)
	assert.Equal(t, "wrong-a", *v.Selected)

	_, err := sess.Finish(context.Background())
	require.NoError(t, err)

	v = sess.View()
	assert.True(t, v.Finished)
	assert.Nil(t, v.Question, "the terminal view no longer serves questions")
	require.NotNil(t, v.Result)
	assert.Equal(t, 2, v.Result.Omitted)
}
