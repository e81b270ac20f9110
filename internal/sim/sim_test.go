package sim

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestChance(t *testing.T) {
	assert.True(t, Chance(Always(), 0.01))
	assert.False(t, Chance(Never(), 0.99))
	assert.False(t, Chance(Always(), 0), "zero probability never fires")
}

func TestNewRand_SameSeedSameStream(t *testing.T) {
	a := NewRand(42)
	b := NewRand(42)
	for i := 0; i < 20; i++ {
		assert.Equal(t, a.Float64(), b.Float64())
	}
}

func TestSequence(t *testing.T) {
	s := NewSequence(0.5, 0.1)
	assert.Equal(t, 0.5, s.Float64())
	assert.Equal(t, 0.1, s.Float64())
	assert.Equal(t, 0.1, s.Float64(), "last value repeats")

	assert.Equal(t, 1.0, NewSequence().Float64())
}

func TestStepClock(t *testing.T) {
	c := NewStepClock(250 * time.Millisecond)
	start := c.Now()
	end := c.Now()
	assert.Equal(t, 250*time.Millisecond, end.Sub(start))
	assert.InDelta(t, 250.0, Millis(end.Sub(start)), 1e-9)
}
