// Package integrity raises advisory signals about tab switches and navigation
// while an attempt is in progress. Nothing here can block the student; the host
// platform gives no such guarantee.
package integrity

import "time"

// EventKind enumerates the platform events the monitor understands.
type EventKind string

const (
	EventHidden         EventKind = "hidden"
	EventVisible        EventKind = "visible"
	EventLeaveAttempt   EventKind = "leave_attempt"
	EventLeaveConfirmed EventKind = "leave_confirmed"
	EventBackNavigation EventKind = "back_navigation"
)

// PlatformEvent is one observation from the host (browser bridge, terminal, ...).
type PlatformEvent struct {
	Kind EventKind
	At   time.Time
}

// Platform is the injected source of visibility and navigation events plus the
// two controls the monitor needs. Implementations must be safe for concurrent use.
type Platform interface {
	// Events delivers platform observations. The channel may stay open forever.
	Events() <-chan PlatformEvent
	// SetLeaveGuard arms or disarms the host's "leave this page?" confirmation.
	SetLeaveGuard(enabled bool) error
	// PushHistoryEntry adds a benign history entry so a back gesture is absorbed.
	PushHistoryEntry() error
}

// NopPlatform never emits and accepts every control. Used for headless hosts.
type NopPlatform struct{}

func (NopPlatform) Events() <-chan PlatformEvent { return nil }
func (NopPlatform) SetLeaveGuard(bool) error     { return nil }
func (NopPlatform) PushHistoryEntry() error      { return nil }
