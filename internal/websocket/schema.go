package websocket

import "time"

// ─── Events (View → Agent) ──────────────────────────────────────────

type Event string

const (
	EventHidden         Event = "hidden"
	EventVisible        Event = "visible"
	EventLeaveAttempt   Event = "leave_attempt"
	EventLeaveConfirmed Event = "leave_confirmed"
	EventBackNavigation Event = "back_navigation"
	EventPing           Event = "ping"
)

// RequestEnvelope is every message the view sends.
type RequestEnvelope struct {
	Event Event      `json:"event"`
	At    *time.Time `json:"at,omitempty"`
}

// ─── Commands (Agent → View) ────────────────────────────────────────

type Command string

const (
	CommandSetLeaveGuard Command = "set_leave_guard"
	CommandPushHistory   Command = "push_history"
	CommandPong          Command = "pong"
	CommandError         Command = "error"
)

// LeaveGuardCommand arms or disarms the confirm-before-leave prompt.
type LeaveGuardCommand struct {
	Command Command `json:"command"`
	Enabled bool    `json:"enabled"`
}

// PushHistoryCommand asks the view to push a guard history entry.
type PushHistoryCommand struct {
	Command Command `json:"command"`
}

type PongResponse struct {
	Command Command `json:"command"`
}

type ErrorResponse struct {
	Command Command `json:"command"`
	Error   string  `json:"error"`
}
