package handler

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
	ws "github.com/ensayolab/ensayo-backend/internal/websocket"
)

type wsTestCatalog struct {
	exam      *model.Exam
	ids       []uuid.UUID
	questions []model.Question
}

func (c *wsTestCatalog) GetExam(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	return c.exam, nil
}

func (c *wsTestCatalog) GetQuestionIDs(ctx context.Context, examID uuid.UUID) ([]uuid.UUID, error) {
	return c.ids, nil
}

func (c *wsTestCatalog) GetQuestions(ctx context.Context, ids []uuid.UUID) ([]model.Question, error) {
	return c.questions, nil
}

type wsTestStore struct{}

func (wsTestStore) CreateAttempt(ctx context.Context, userID, examID uuid.UUID) (*model.Attempt, error) {
	return &model.Attempt{
		ID:        uuid.New(),
		UserID:    userID,
		ExamID:    examID,
		Status:    model.AttemptStatusInProgress,
		CreatedAt: time.Now(),
	}, nil
}

func (wsTestStore) InsertAnswer(ctx context.Context, a model.Answer) error { return nil }

func (wsTestStore) CompleteAttempt(ctx context.Context, attemptID uuid.UUID, res session.Result, finishedAt time.Time) error {
	return nil
}

func newNavigateSession(t *testing.T, questionCount int) *session.Session {
	t.Helper()

	catalog := &wsTestCatalog{
		exam: &model.Exam{ID: uuid.New(), Title: "nav", DurationMinutes: 30, CreatedAt: time.Now()},
	}
	for i := 0; i < questionCount; i++ {
		q := model.Question{
			ID:            uuid.New(),
			Content:       "nav",
			Difficulty:    model.DifficultyEasy,
			CorrectAnswer: "yes",
			Distractors:   []string{"no"},
		}
		catalog.questions = append(catalog.questions, q)
		catalog.ids = append(catalog.ids, q.ID)
	}

	sess, err := session.Start(context.Background(), catalog, wsTestStore{}, catalog.exam.ID, uuid.New(), zerolog.Nop())
	require.NoError(t, err)
	return sess
}

func TestApplyNavigate_AcceptsSameIntentsAsRest(t *testing.T) {
	sess := newNavigateSession(t, 3)

	assert.True(t, applyNavigate(sess, &ws.Request{Direction: "next"}))
	assert.Equal(t, 1, sess.View().Position)

	assert.True(t, applyNavigate(sess, &ws.Request{Direction: "next"}))
	assert.True(t, applyNavigate(sess, &ws.Request{Direction: "next"}))
	assert.Equal(t, 2, sess.View().Position, "next clamps at the last question")

	assert.True(t, applyNavigate(sess, &ws.Request{Direction: "prev"}))
	assert.Equal(t, 1, sess.View().Position)

	idx := 0
	assert.True(t, applyNavigate(sess, &ws.Request{Index: &idx}))
	assert.Equal(t, 0, sess.View().Position)
}

func TestApplyNavigate_IndexWinsOverDirection(t *testing.T) {
	sess := newNavigateSession(t, 3)

	idx := 2
	assert.True(t, applyNavigate(sess, &ws.Request{Index: &idx, Direction: "prev"}))
	assert.Equal(t, 2, sess.View().Position)
}

func TestApplyNavigate_RejectsEmptyIntent(t *testing.T) {
	sess := newNavigateSession(t, 3)

	assert.False(t, applyNavigate(sess, &ws.Request{}))
	assert.False(t, applyNavigate(sess, &ws.Request{Direction: "sideways"}))
	assert.Equal(t, 0, sess.View().Position)
}
