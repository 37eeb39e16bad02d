package worker

import "time"

// RetryPolicy controls how failed export tasks are rescheduled.
// Zero values fall back to a one second base delay doubling per attempt.
type RetryPolicy struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// NextDelay returns the wait before retrying the given attempt (1-based).
// Delays grow geometrically and never exceed MaxDelay when it is set.
func (r RetryPolicy) NextDelay(attempt int) time.Duration {
	base := r.InitialDelay
	if base <= 0 {
		base = time.Second
	}
	factor := r.BackoffFactor
	if factor <= 0 {
		factor = 2
	}

	delay := base
	for i := 1; i < attempt; i++ {
		delay = time.Duration(float64(delay) * factor)
		if r.MaxDelay > 0 && delay >= r.MaxDelay {
			return r.MaxDelay
		}
		if delay <= 0 {
			// Overflow guard for absurd attempt counts.
			if r.MaxDelay > 0 {
				return r.MaxDelay
			}
			return base
		}
	}
	if r.MaxDelay > 0 && delay > r.MaxDelay {
		return r.MaxDelay
	}
	return delay
}
