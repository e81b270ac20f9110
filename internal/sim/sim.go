// Package sim provides the random and time sources used by the route and
// link verifiers. Both are injected so a verification pass can be replayed
// deterministically.
package sim

import (
	"math/rand/v2"
	"sync"
	"time"
)

// Rand yields pseudo-random values in [0, 1).
type Rand interface {
	Float64() float64
}

// Chance reports whether an event with probability p happens on this draw.
func Chance(r Rand, p float64) bool {
	if p <= 0 {
		return false
	}
	return r.Float64() < p
}

// lockedRand guards a *rand.Rand, which is not safe for concurrent use.
type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (l *lockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}

// NewRand returns a seeded generator. A zero seed is replaced by the current
// time so unseeded runs still vary.
func NewRand(seed uint64) Rand {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &lockedRand{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Fixed always yields v.
type Fixed float64

func (f Fixed) Float64() float64 { return float64(f) }

// Always forces every probabilistic branch.
func Always() Rand { return Fixed(0) }

// Never suppresses every probabilistic branch.
func Never() Rand { return Fixed(1) }

// Sequence replays a script of values and then repeats the last one.
type Sequence struct {
	mu   sync.Mutex
	vals []float64
	pos  int
}

// NewSequence returns a Sequence over vals. An empty script behaves like Never.
func NewSequence(vals ...float64) *Sequence {
	return &Sequence{vals: vals}
}

func (s *Sequence) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.vals) == 0 {
		return 1
	}
	if s.pos >= len(s.vals) {
		return s.vals[len(s.vals)-1]
	}
	v := s.vals[s.pos]
	s.pos++
	return v
}

// Clock reports the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// StepClock advances by Step on every call to Now.
type StepClock struct {
	mu   sync.Mutex
	now  time.Time
	Step time.Duration
}

// NewStepClock returns a clock starting at a fixed instant.
func NewStepClock(step time.Duration) *StepClock {
	return &StepClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Step: step}
}

func (c *StepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.Step)
	return t
}

// Millis converts a duration to fractional milliseconds.
func Millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
