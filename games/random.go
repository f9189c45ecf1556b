package games

import (
	"math/rand"
	"sync"
	"time"
)

// RandomSource supplies the draws a round consumes. *rand.Rand satisfies it.
type RandomSource interface {
	// Float64 returns a uniform value in [0.0, 1.0)
	Float64() float64
	// Intn returns a uniform value in [0, n)
	Intn(n int) int
}

// SharedSource is a RandomSource safe for concurrent use by request handlers
type SharedSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSharedSource creates a time-seeded source for production use
func NewSharedSource() *SharedSource {
	return NewSeededSource(time.Now().UnixNano())
}

// NewSeededSource creates a deterministic concurrent-safe source
func NewSeededSource(seed int64) *SharedSource {
	return &SharedSource{rng: rand.New(rand.NewSource(seed))}
}

func (s *SharedSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

func (s *SharedSource) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(n)
}

// ScriptedSource replays fixed draws in order. It panics when a script runs
// out, which makes a test that consumes an unexpected draw fail loudly.
type ScriptedSource struct {
	mu     sync.Mutex
	floats []float64
	ints   []int
}

// NewScriptedSource creates a source returning floats from Float64 and ints
// from Intn, each in the order given.
func NewScriptedSource(floats []float64, ints []int) *ScriptedSource {
	return &ScriptedSource{floats: floats, ints: ints}
}

func (s *ScriptedSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.floats) == 0 {
		panic("scripted source: no float draws left")
	}
	v := s.floats[0]
	s.floats = s.floats[1:]
	return v
}

func (s *ScriptedSource) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.ints) == 0 {
		panic("scripted source: no int draws left")
	}
	v := s.ints[0]
	s.ints = s.ints[1:]
	if v < 0 || v >= n {
		panic("scripted source: draw out of range")
	}
	return v
}

// Remaining returns how many scripted draws have not been consumed
func (s *ScriptedSource) Remaining() (floats int, ints int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.floats), len(s.ints)
}
