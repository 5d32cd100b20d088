package input

import (
	"math/rand"
	"sync"
	"time"
)

// Jitter produces the humanizing randomness applied to timings and
// coordinates. A zero seed draws a time-based one; tests inject a
// fixed seed for reproducible draws.
type Jitter struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewJitter creates a jitter source.
func NewJitter(seed int64) *Jitter {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Jitter{rng: rand.New(rand.NewSource(seed))}
}

// Uniform draws from [min, max).
func (j *Jitter) Uniform(min, max float64) float64 {
	j.mu.Lock()
	defer j.mu.Unlock()
	return min + j.rng.Float64()*(max-min)
}

// Scale multiplies v by a uniform factor drawn from [lo, hi).
func (j *Jitter) Scale(v, lo, hi float64) float64 {
	return v * j.Uniform(lo, hi)
}

// IntBetween draws an integer from [lo, hi] inclusive.
func (j *Jitter) IntBetween(lo, hi int) int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return lo + j.rng.Intn(hi-lo+1)
}

// Seconds draws a duration uniformly from [min, max) seconds.
func (j *Jitter) Seconds(min, max float64) time.Duration {
	return time.Duration(j.Uniform(min, max) * float64(time.Second))
}
