package main

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/stemsi/exstem-attempt/internal/integrity"
)

// leaveWindow is how long a second Ctrl+C counts as confirming the first.
const leaveWindow = 3 * time.Second

// terminalPlatform maps Ctrl+C onto the leave events of a browser tab. With the
// guard armed the first interrupt is a leave attempt and a second one within
// leaveWindow confirms it.
type terminalPlatform struct {
	events chan integrity.PlatformEvent
	guard  atomic.Bool

	mu          sync.Mutex
	lastAttempt time.Time
}

func newTerminalPlatform() *terminalPlatform {
	return &terminalPlatform{events: make(chan integrity.PlatformEvent, 8)}
}

func (p *terminalPlatform) Events() <-chan integrity.PlatformEvent { return p.events }

func (p *terminalPlatform) SetLeaveGuard(enabled bool) error {
	p.guard.Store(enabled)
	return nil
}

// PushHistoryEntry is a no-op: a terminal has no back gesture.
func (p *terminalPlatform) PushHistoryEntry() error { return nil }

// interrupt records one Ctrl+C and reports whether the client should exit.
func (p *terminalPlatform) interrupt(now time.Time) (leave bool, warned bool) {
	if !p.guard.Load() {
		return true, false
	}

	p.mu.Lock()
	confirmed := !p.lastAttempt.IsZero() && now.Sub(p.lastAttempt) <= leaveWindow
	if confirmed {
		p.lastAttempt = time.Time{}
	} else {
		p.lastAttempt = now
	}
	p.mu.Unlock()

	if confirmed {
		p.send(integrity.PlatformEvent{Kind: integrity.EventLeaveConfirmed, At: now})
		return true, false
	}
	p.send(integrity.PlatformEvent{Kind: integrity.EventLeaveAttempt, At: now})
	return false, true
}

func (p *terminalPlatform) send(ev integrity.PlatformEvent) {
	select {
	case p.events <- ev:
	default:
	}
}
