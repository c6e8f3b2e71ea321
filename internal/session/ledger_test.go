package session

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestLedger_SetAndGet(t *testing.T) {
	l := NewLedger()
	qID := uuid.New()

	_, ok := l.Get(qID)
	assert.False(t, ok)
	assert.False(t, l.Answered(qID))
	assert.Equal(t, 0, l.Len())

	l.Set(qID, "Madrid")

	v, ok := l.Get(qID)
	assert.True(t, ok)
	assert.Equal(t, "Madrid", v)
	assert.True(t, l.Answered(qID))
	assert.Equal(t, 1, l.Len())
}

func TestLedger_OverwriteKeepsOneEntry(t *testing.T) {
	l := NewLedger()
	qID := uuid.New()

	l.Set(qID, "Madrid")
	l.Set(qID, "Santiago")

	v, _ := l.Get(qID)
	assert.Equal(t, "Santiago", v)
	assert.Equal(t, 1, l.Len(), "re-selecting must not add a second entry")
}

func TestLedger_IndependentQuestions(t *testing.T) {
	l := NewLedger()
	q1, q2 := uuid.New(), uuid.New()

	l.Set(q1, "A")
	l.Set(q2, "B")

	assert.Equal(t, 2, l.Len())

	l.Set(q1, "C")

	v1, _ := l.Get(q1)
	v2, _ := l.Get(q2)
	assert.Equal(t, "C", v1)
	assert.Equal(t, "B", v2, "overwriting one question must not touch another")
}
