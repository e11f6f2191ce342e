package time

import "time"

// clock measures durations against a fixed start using the monotonic reading
// time.Now alone can jump when the wall clock is changed, time.Since cannot
type Clock struct {
	startTime time.Time
}

func NewClock() *Clock {
	return &Clock{
		startTime: time.Now(),
	}
}

// duration since the clock was created, always moves forward
func (c *Clock) Elapsed() time.Duration {
	return time.Since(c.startTime)
}

// time elapsed since an earlier reading of the same clock
func (c *Clock) Since(mark time.Duration) time.Duration {
	if d := c.Elapsed() - mark; d > 0 {
		return d
	}
	return 0
}
