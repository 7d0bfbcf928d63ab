// Package backoff computes how long a failed job waits before its next
// attempt. Strategies are stateless and safe for concurrent use.
package backoff

import (
	"math"
	"math/rand/v2"
	"time"
)

// Strategy computes the delay before a retry attempt.
type Strategy interface {
	// Delay returns the wait before retry attempt n. Attempt 1 is the first
	// retry after the initial failure.
	Delay(attempt int) time.Duration
}

// Func adapts a plain function to Strategy.
type Func func(attempt int) time.Duration

// Delay calls f.
func (f Func) Delay(attempt int) time.Duration { return f(attempt) }

// Constant waits the same interval before every retry.
type Constant struct {
	Interval time.Duration
}

// NewConstant creates a constant backoff strategy.
func NewConstant(interval time.Duration) *Constant {
	return &Constant{Interval: interval}
}

// Delay returns the fixed interval.
func (c *Constant) Delay(_ int) time.Duration {
	return c.Interval
}

// Polynomial grows the delay with the fourth power of the attempt number
// plus a base offset and a random jitter that widens with each attempt:
//
//	attempt^4 + Base + rand[0, Jitter) * (attempt + 1)
//
// With the defaults the 25th retry lands roughly three weeks after the
// first failure.
type Polynomial struct {
	Base   time.Duration
	Jitter time.Duration
	Max    time.Duration
}

// NewPolynomial creates a polynomial backoff strategy. A zero max means
// uncapped.
func NewPolynomial(base, jitter, maxDelay time.Duration) *Polynomial {
	return &Polynomial{Base: base, Jitter: jitter, Max: maxDelay}
}

// Delay returns the polynomial delay for attempt, capped at Max when set.
func (p *Polynomial) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := time.Duration(math.Pow(float64(attempt), 4)) * time.Second
	d += p.Base
	if p.Jitter > 0 {
		d += time.Duration(rand.Int64N(int64(p.Jitter))) * time.Duration(attempt+1) //nolint:gosec // jitter does not need crypto rand
	}
	if p.Max > 0 && d > p.Max {
		return p.Max
	}
	return d
}

// Exponential doubles the delay each attempt up to Max.
type Exponential struct {
	Initial time.Duration
	Max     time.Duration
}

// NewExponential creates an exponential backoff strategy.
func NewExponential(initial, maxDelay time.Duration) *Exponential {
	return &Exponential{Initial: initial, Max: maxDelay}
}

// Delay returns Initial * 2^(attempt-1), capped at Max.
func (e *Exponential) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := time.Duration(float64(e.Initial) * math.Pow(2, float64(attempt-1)))
	if e.Max > 0 && d > e.Max {
		return e.Max
	}
	return d
}

// DefaultStrategy returns the strategy the engine uses when none is
// configured: Polynomial with a 15s base and up to 10s of jitter per step.
func DefaultStrategy() Strategy {
	return NewPolynomial(15*time.Second, 10*time.Second, 0)
}
