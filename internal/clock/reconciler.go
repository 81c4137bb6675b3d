// Package clock derives the attempt countdown from a server-anchored time sample.
//
// The engine takes one sample at hydrate or start and counts down locally from it.
// A single sample drifts when the device is suspended or the exam is long, so the
// engine may feed later samples through Countdown.Lower; a later sample can only
// shorten the countdown, never extend it.
package clock

import (
	"time"
)

// Anchor is a server-authoritative time sample for one attempt.
type Anchor struct {
	// ServerNow is the server's current time at the moment of the sample.
	ServerNow time.Time
	// AttemptStart is the server-recorded start of the attempt.
	AttemptStart time.Time
	// ExamEnd is the absolute end of the exam window, if scheduled.
	ExamEnd *time.Time
	// Duration is the nominal attempt duration.
	Duration time.Duration
}

// Remaining returns min(duration - (serverNow - attemptStart), examEnd - serverNow)
// in whole seconds, clamped to [0, duration].
func Remaining(a Anchor) int64 {
	elapsed := a.ServerNow.Sub(a.AttemptStart)
	if elapsed < 0 {
		// A start stamped after "now" is clock skew between server nodes; treat as zero elapsed.
		elapsed = 0
	}

	left := a.Duration - elapsed
	if a.ExamEnd != nil {
		if untilEnd := a.ExamEnd.Sub(a.ServerNow); untilEnd < left {
			left = untilEnd
		}
	}

	if left < 0 {
		return 0
	}
	if left > a.Duration {
		left = a.Duration
	}
	return int64(left / time.Second)
}

// Countdown is the locally ticking remaining-time counter. It is not safe for
// concurrent use; the engine guards it.
type Countdown struct {
	remaining int64
}

// NewCountdown starts a countdown at the given number of seconds.
func NewCountdown(seconds int64) *Countdown {
	if seconds < 0 {
		seconds = 0
	}
	return &Countdown{remaining: seconds}
}

// Tick decrements by one second, never below zero, and returns the new value.
func (c *Countdown) Tick() int64 {
	if c.remaining > 0 {
		c.remaining--
	}
	return c.remaining
}

// Remaining returns the seconds left.
func (c *Countdown) Remaining() int64 { return c.remaining }

// Expired reports whether the countdown reached zero.
func (c *Countdown) Expired() bool { return c.remaining == 0 }

// Lower applies a fresher sample. Only a smaller value is accepted; it reports
// whether the countdown changed.
func (c *Countdown) Lower(seconds int64) bool {
	if seconds < 0 {
		seconds = 0
	}
	if seconds >= c.remaining {
		return false
	}
	c.remaining = seconds
	return true
}
