package recommend

import (
	"math/rand"
	"sync"
	"time"
)

// Source supplies the randomness used for score jitter and popular sampling.
// *rand.Rand satisfies it.
type Source interface {
	Float64() float64
	Intn(n int) int
}

// lockedSource serializes access to a *rand.Rand so one engine can serve
// concurrent requests.
type lockedSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSource returns a goroutine-safe Source seeded from the clock.
func NewSource() Source {
	return &lockedSource{rng: rand.New(rand.NewSource(time.Now().UnixNano()))} //nolint:gosec // recommendation jitter, not security sensitive
}

// NewSeededSource returns a goroutine-safe Source with a fixed seed.
func NewSeededSource(seed int64) Source {
	return &lockedSource{rng: rand.New(rand.NewSource(seed))} //nolint:gosec // deterministic seed for reproducible runs
}

func (s *lockedSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

func (s *lockedSource) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(n)
}
