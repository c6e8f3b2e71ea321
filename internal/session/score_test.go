package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScore_Anchors(t *testing.T) {
	assert.Equal(t, 0, Score(0, 10), "all incorrect anchors at 0")
	assert.Equal(t, 500, Score(5, 10), "half correct anchors at 500")
	assert.Equal(t, 1000, Score(10, 10), "all correct anchors at 1000")
}

func TestScore_LinearScale(t *testing.T) {
	// One percentage point is worth 10 points on the scale.
	assert.Equal(t, 250, Score(1, 4))
	assert.Equal(t, 750, Score(3, 4))
	assert.Equal(t, 600, Score(6, 10))
	assert.Equal(t, 100, Score(1, 10))
}

func TestScore_Rounding(t *testing.T) {
	// 1/3 = 33.333...% -> 333.33 rounds down.
	assert.Equal(t, 333, Score(1, 3))
	// 2/3 = 66.666...% -> 666.67 rounds up.
	assert.Equal(t, 667, Score(2, 3))
	// 41/80 = 51.25% -> 512.5, the half tie rounds away from zero.
	assert.Equal(t, 513, Score(41, 80))
}

func TestScore_SingleQuestion(t *testing.T) {
	assert.Equal(t, 0, Score(0, 1))
	assert.Equal(t, 1000, Score(1, 1))
}
