package roster

import (
	"math"
	"math/rand"
	"time"
)

// Backoff computes exponential retry delays with jitter.
type Backoff struct {
	Initial    time.Duration // Initial delay (default: 500ms)
	Max        time.Duration // Maximum delay (default: 30s)
	Multiplier float64       // Multiplier per attempt (default: 2.0)
	Jitter     float64       // Jitter factor 0-1 (default: 0.1 = 10%)
}

// DefaultBackoff returns the write queue's default retry policy.
func DefaultBackoff() Backoff {
	return Backoff{
		Initial:    500 * time.Millisecond,
		Max:        30 * time.Second,
		Multiplier: 2.0,
		Jitter:     0.1,
	}
}

// Delay returns the wait before retry number attempt (starting at 1).
func (b Backoff) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	multiplier := b.Multiplier
	if multiplier < 1 {
		multiplier = 1
	}

	// initial * multiplier^(attempt-1)
	delay := float64(b.Initial) * math.Pow(multiplier, float64(attempt-1))

	if b.Max > 0 && delay > float64(b.Max) {
		delay = float64(b.Max)
	}

	// delay * (1 + random(-jitter, +jitter))
	if b.Jitter > 0 {
		jitterRange := delay * b.Jitter
		delay = delay + (rand.Float64()*2-1)*jitterRange
	}

	if delay < 0 {
		delay = float64(b.Initial)
	}
	return time.Duration(delay)
}
