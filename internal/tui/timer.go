package tui

import "time"

type timerState int

const (
	timerStopped timerState = iota
	timerRunning
	timerPaused
)

// countdown tracks a pausable phase of fixed length, separate from display.
type countdown struct {
	now func() time.Time

	state     timerState
	length    time.Duration
	startTime time.Time
	pausedAt  time.Time
	pauseGap  time.Duration
}

func newCountdown(now func() time.Time) countdown {
	if now == nil {
		now = time.Now
	}
	return countdown{now: now}
}

func (c *countdown) start(length time.Duration) {
	c.state = timerRunning
	c.length = length
	c.startTime = c.now()
	c.pauseGap = 0
}

func (c *countdown) stop() {
	c.state = timerStopped
}

func (c *countdown) pause() {
	if c.state != timerRunning {
		return
	}
	c.state = timerPaused
	c.pausedAt = c.now()
}

func (c *countdown) resume() {
	if c.state != timerPaused {
		return
	}
	c.pauseGap += c.now().Sub(c.pausedAt)
	c.state = timerRunning
}

func (c *countdown) toggle() {
	switch c.state {
	case timerRunning:
		c.pause()
	case timerPaused:
		c.resume()
	}
}

func (c countdown) running() bool { return c.state != timerStopped }
func (c countdown) paused() bool  { return c.state == timerPaused }

// elapsed is the active time since start, pauses excluded.
func (c countdown) elapsed() time.Duration {
	switch c.state {
	case timerStopped:
		return 0
	case timerPaused:
		return c.pausedAt.Sub(c.startTime) - c.pauseGap
	}
	return c.now().Sub(c.startTime) - c.pauseGap
}

func (c countdown) remaining() time.Duration {
	return max(c.length-c.elapsed(), 0)
}

func (c countdown) finished() bool {
	return c.state == timerRunning && c.elapsed() >= c.length
}
