package websocket

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/stemsi/exstem-attempt/internal/integrity"
)

// ErrViewAttached is returned by Serve when another view already holds the bridge.
var ErrViewAttached = errors.New("a view is already attached")

// Bridge is the integrity.Platform of the local agent. The exam view connects
// over WebSocket, reports visibility and navigation events, and receives leave
// guard and history commands. Commands issued while no view is attached are
// replayed when one connects.
type Bridge struct {
	events chan integrity.PlatformEvent
	log    zerolog.Logger
	now    func() time.Time

	mu          sync.Mutex
	conn        *websocket.Conn
	guard       bool
	pendingPush bool
}

// NewBridge creates a bridge with no view attached.
func NewBridge(log zerolog.Logger) *Bridge {
	return &Bridge{
		events: make(chan integrity.PlatformEvent, 32),
		log:    log.With().Str("component", "platform_bridge").Logger(),
		now:    time.Now,
	}
}

// Events implements integrity.Platform.
func (b *Bridge) Events() <-chan integrity.PlatformEvent { return b.events }

// SetLeaveGuard implements integrity.Platform.
func (b *Bridge) SetLeaveGuard(enabled bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.guard = enabled
	if b.conn == nil {
		return nil
	}
	return WriteTyped(b.conn, LeaveGuardCommand{Command: CommandSetLeaveGuard, Enabled: enabled})
}

// PushHistoryEntry implements integrity.Platform.
func (b *Bridge) PushHistoryEntry() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.conn == nil {
		b.pendingPush = true
		return nil
	}
	return WriteTyped(b.conn, PushHistoryCommand{Command: CommandPushHistory})
}

// Attached reports whether a view is connected.
func (b *Bridge) Attached() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conn != nil
}

// Serve attaches conn and reads view events until the connection drops or ctx
// is done. Only one view is attached at a time. View events are forwarded only
// while the leave guard is armed, that is while an attempt is in progress.
func (b *Bridge) Serve(ctx context.Context, conn *websocket.Conn) error {
	if err := b.attach(conn); err != nil {
		WriteError(conn, err.Error())
		return err
	}
	defer b.detach(conn)

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	b.log.Info().Msg("View attached")

	for {
		var msg RequestEnvelope
		if err := ReadJSON(conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				b.log.Warn().Err(err).Msg("Unexpected close")
			} else {
				b.log.Debug().Msg("View detached")
			}
			return nil
		}

		kind, ok := eventKind(msg.Event)
		if !ok {
			if msg.Event == EventPing {
				b.write(PongResponse{Command: CommandPong})
				continue
			}
			b.log.Warn().Str("event", string(msg.Event)).Msg("Unknown event")
			b.write(ErrorResponse{Command: CommandError, Error: "unknown event: " + string(msg.Event)})
			continue
		}

		if !b.armed() {
			// Lobby and post-submit events are not part of an attempt.
			b.log.Debug().Str("event", string(msg.Event)).Msg("Leave guard disarmed, dropping event")
			continue
		}

		at := b.now()
		if msg.At != nil {
			at = *msg.At
		}
		select {
		case b.events <- integrity.PlatformEvent{Kind: kind, At: at}:
		default:
			b.log.Warn().Str("event", string(msg.Event)).Msg("Event buffer full, dropping")
		}
	}
}

func (b *Bridge) armed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.guard
}

func (b *Bridge) attach(conn *websocket.Conn) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.conn != nil {
		return ErrViewAttached
	}
	b.conn = conn

	// Replay the current guard so a reloaded view starts in the right mode.
	if err := WriteTyped(conn, LeaveGuardCommand{Command: CommandSetLeaveGuard, Enabled: b.guard}); err != nil {
		b.log.Warn().Err(err).Msg("Failed to replay leave guard")
	}
	if b.pendingPush || b.guard {
		b.pendingPush = false
		if err := WriteTyped(conn, PushHistoryCommand{Command: CommandPushHistory}); err != nil {
			b.log.Warn().Err(err).Msg("Failed to replay history entry")
		}
	}
	return nil
}

func (b *Bridge) detach(conn *websocket.Conn) {
	b.mu.Lock()
	if b.conn == conn {
		b.conn = nil
	}
	b.mu.Unlock()
}

func (b *Bridge) write(v interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.conn == nil {
		return
	}
	if err := WriteTyped(b.conn, v); err != nil {
		b.log.Debug().Err(err).Msg("Write to view failed")
	}
}

func eventKind(e Event) (integrity.EventKind, bool) {
	switch e {
	case EventHidden:
		return integrity.EventHidden, true
	case EventVisible:
		return integrity.EventVisible, true
	case EventLeaveAttempt:
		return integrity.EventLeaveAttempt, true
	case EventLeaveConfirmed:
		return integrity.EventLeaveConfirmed, true
	case EventBackNavigation:
		return integrity.EventBackNavigation, true
	}
	return "", false
}
