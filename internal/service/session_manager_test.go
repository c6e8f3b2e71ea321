package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ensayolab/ensayo-backend/internal/model"
	"github.com/ensayolab/ensayo-backend/internal/session"
)

type stubCatalog struct {
	exam      *model.Exam
	ids       []uuid.UUID
	questions []model.Question
}

func newStubCatalog(questionCount int) *stubCatalog {
	c := &stubCatalog{
		exam: &model.Exam{
			ID:              uuid.New(),
			Title:           "Ensayo PAES M1",
			DurationMinutes: 60,
			CreatedAt:       time.Now(),
		},
	}
	for i := 0; i < questionCount; i++ {
		q := model.Question{
			ID:            uuid.New(),
			Content:       "stub",
			Difficulty:    model.DifficultyEasy,
			CorrectAnswer: "yes",
			Distractors:   []string{"no"},
		}
		c.questions = append(c.questions, q)
		c.ids = append(c.ids, q.ID)
	}
	return c
}

func (c *stubCatalog) GetExam(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	if id != c.exam.ID {
		return nil, session.ErrExamNotFound
	}
	return c.exam, nil
}

func (c *stubCatalog) GetQuestionIDs(ctx context.Context, examID uuid.UUID) ([]uuid.UUID, error) {
	return c.ids, nil
}

func (c *stubCatalog) GetQuestions(ctx context.Context, ids []uuid.UUID) ([]model.Question, error) {
	return c.questions, nil
}

type stubStore struct{}

func (stubStore) CreateAttempt(ctx context.Context, userID, examID uuid.UUID) (*model.Attempt, error) {
	return &model.Attempt{
		ID:        uuid.New(),
		UserID:    userID,
		ExamID:    examID,
		Status:    model.AttemptStatusInProgress,
		CreatedAt: time.Now(),
	}, nil
}

func (stubStore) InsertAnswer(ctx context.Context, a model.Answer) error { return nil }

func (stubStore) CompleteAttempt(ctx context.Context, attemptID uuid.UUID, res session.Result, finishedAt time.Time) error {
	return nil
}

func newTestManager(catalog *stubCatalog) *SessionManager {
	return NewSessionManager(catalog, stubStore{}, zerolog.Nop())
}

func TestStartExam_RegistersSession(t *testing.T) {
	catalog := newStubCatalog(2)
	m := newTestManager(catalog)
	defer m.Shutdown()

	userID := uuid.New()
	sess, err := m.StartExam(context.Background(), catalog.exam.ID, userID)
	require.NoError(t, err)
	require.NotNil(t, sess)

	got, err := m.Get(sess.AttemptID(), userID)
	require.NoError(t, err)
	assert.Same(t, sess, got)

	active, ok := m.ActiveForUser(userID)
	require.True(t, ok)
	assert.Same(t, sess, active)
}

func TestStartExam_UnknownExam(t *testing.T) {
	catalog := newStubCatalog(2)
	m := newTestManager(catalog)
	defer m.Shutdown()

	_, err := m.StartExam(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, session.ErrExamNotFound)
}

// gatedCatalog signals when GetExam is entered and blocks it until released,
// holding a start mid-initialization at a controlled point.
type gatedCatalog struct {
	*stubCatalog
	entered chan struct{}
	release chan struct{}
}

func (c *gatedCatalog) GetExam(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	c.entered <- struct{}{}
	<-c.release
	return c.stubCatalog.GetExam(ctx, id)
}

func TestStartExam_SimultaneousStartsSingleWinner(t *testing.T) {
	catalog := newStubCatalog(2)
	gated := &gatedCatalog{
		stubCatalog: catalog,
		entered:     make(chan struct{}, 1),
		release:     make(chan struct{}),
	}
	m := NewSessionManager(gated, stubStore{}, zerolog.Nop())
	defer m.Shutdown()

	userID := uuid.New()

	type outcome struct {
		sess *session.Session
		err  error
	}
	first := make(chan outcome, 1)
	go func() {
		sess, err := m.StartExam(context.Background(), catalog.exam.ID, userID)
		first <- outcome{sess, err}
	}()

	// The first start is now inside initialization, past the registry check.
	<-gated.entered

	// A second tab starting the same exam must be rejected immediately, not
	// create a second attempt with a second clock.
	_, err := m.StartExam(context.Background(), catalog.exam.ID, userID)
	assert.ErrorIs(t, err, ErrAttemptInProgress)

	close(gated.release)
	got := <-first
	require.NoError(t, got.err)
	require.NotNil(t, got.sess)

	active, ok := m.ActiveForUser(userID)
	require.True(t, ok)
	assert.Same(t, got.sess, active)
}

func TestStartExam_FailedStartFreesTheSlot(t *testing.T) {
	catalog := newStubCatalog(2)
	m := newTestManager(catalog)
	defer m.Shutdown()

	userID := uuid.New()
	_, err := m.StartExam(context.Background(), uuid.New(), userID)
	require.ErrorIs(t, err, session.ErrExamNotFound)

	// The aborted start must not leave the learner locked out.
	sess, err := m.StartExam(context.Background(), catalog.exam.ID, userID)
	require.NoError(t, err)
	require.NotNil(t, sess)
}

func TestStartExam_RejectsSecondConcurrentAttempt(t *testing.T) {
	catalog := newStubCatalog(2)
	m := newTestManager(catalog)
	defer m.Shutdown()

	userID := uuid.New()
	_, err := m.StartExam(context.Background(), catalog.exam.ID, userID)
	require.NoError(t, err)

	_, err = m.StartExam(context.Background(), catalog.exam.ID, userID)
	assert.ErrorIs(t, err, ErrAttemptInProgress)
}

func TestStartExam_AllowedAgainAfterFinish(t *testing.T) {
	catalog := newStubCatalog(2)
	m := newTestManager(catalog)
	defer m.Shutdown()

	userID := uuid.New()
	sess, err := m.StartExam(context.Background(), catalog.exam.ID, userID)
	require.NoError(t, err)

	_, err = m.Finish(context.Background(), sess.AttemptID(), userID)
	require.NoError(t, err)

	_, ok := m.ActiveForUser(userID)
	assert.False(t, ok, "a finished session is not active")

	next, err := m.StartExam(context.Background(), catalog.exam.ID, userID)
	require.NoError(t, err)
	assert.NotEqual(t, sess.AttemptID(), next.AttemptID())
}

func TestGet_OwnershipEnforced(t *testing.T) {
	catalog := newStubCatalog(2)
	m := newTestManager(catalog)
	defer m.Shutdown()

	sess, err := m.StartExam(context.Background(), catalog.exam.ID, uuid.New())
	require.NoError(t, err)

	_, err = m.Get(sess.AttemptID(), uuid.New())
	assert.ErrorIs(t, err, ErrNotSessionOwner)

	_, err = m.Get(uuid.New(), uuid.New())
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestFinish_SessionStaysReadableForResult(t *testing.T) {
	catalog := newStubCatalog(2)
	m := newTestManager(catalog)
	defer m.Shutdown()

	userID := uuid.New()
	sess, err := m.StartExam(context.Background(), catalog.exam.ID, userID)
	require.NoError(t, err)

	res, err := m.Finish(context.Background(), sess.AttemptID(), userID)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, 2, res.Omitted)

	// The terminal session is retained so the result can still be fetched.
	got, err := m.Get(sess.AttemptID(), userID)
	require.NoError(t, err)
	assert.True(t, got.Finished())
}
