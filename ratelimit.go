package tracker

import "time"

// Interval is a fixed-interval rate limiter. One instance is shared by all
// calls to a single provider, so the inter-call delay holds across the
// resolver, the price fetcher and the batch refresh.
type Interval struct {
	every time.Duration
	last  time.Time
	sleep func(time.Duration) // replaced in tests
}

// NewInterval creates a limiter enforcing at most one call per `every`.
func NewInterval(every time.Duration) *Interval {
	return &Interval{every: every, sleep: time.Sleep}
}

// Every returns the enforced inter-call delay.
func (i *Interval) Every() time.Duration {
	if i == nil {
		return 0
	}
	return i.every
}

// Wait blocks until the interval since the previous call has elapsed.
func (i *Interval) Wait() {
	if i == nil || i.every <= 0 {
		return
	}
	if !i.last.IsZero() {
		if elapsed := time.Since(i.last); elapsed < i.every {
			i.sleep(i.every - elapsed)
		}
	}
	i.last = time.Now()
}
