package integrity

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// SignalKind enumerates advisory signals.
type SignalKind string

const (
	SignalTabHidden      SignalKind = "tab_hidden"
	SignalTabVisible     SignalKind = "tab_visible"
	SignalLeaveAttempt   SignalKind = "leave_attempt"
	SignalLeaveConfirmed SignalKind = "leave_confirmed"
	SignalBackAbsorbed   SignalKind = "back_absorbed"
)

// Signal is an advisory observation handed to the engine.
type Signal struct {
	Kind SignalKind `json:"kind"`
	At   time.Time  `json:"at"`
	// HiddenCount is the number of times the page lost visibility so far.
	HiddenCount int `json:"hidden_count"`
}

// Monitor turns platform events into signals while enabled.
type Monitor struct {
	platform Platform
	onSignal func(Signal)
	log      zerolog.Logger
	now      func() time.Time

	mu      sync.Mutex
	enabled bool
	hidden  int
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewMonitor creates a disabled monitor. onSignal runs on the monitor goroutine.
func NewMonitor(p Platform, onSignal func(Signal), log zerolog.Logger) *Monitor {
	if p == nil {
		p = NopPlatform{}
	}
	return &Monitor{
		platform: p,
		onSignal: onSignal,
		log:      log.With().Str("component", "integrity_monitor").Logger(),
		now:      time.Now,
	}
}

// Run starts consuming platform events until ctx is done or Close is called.
// Calling Run twice has no effect.
func (m *Monitor) Run(ctx context.Context) {
	m.mu.Lock()
	if m.done != nil {
		m.mu.Unlock()
		return
	}
	ctx, m.cancel = context.WithCancel(ctx)
	m.done = make(chan struct{})
	done := m.done
	m.mu.Unlock()

	go func() {
		defer close(done)
		events := m.platform.Events()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				m.handle(ev)
			}
		}
	}()
}

// Enable arms the leave guard and pushes a guard history entry. Idempotent.
func (m *Monitor) Enable() {
	m.mu.Lock()
	if m.enabled {
		m.mu.Unlock()
		return
	}
	m.enabled = true
	m.mu.Unlock()

	if err := m.platform.SetLeaveGuard(true); err != nil {
		m.log.Warn().Err(err).Msg("Failed to arm leave guard")
	}
	if err := m.platform.PushHistoryEntry(); err != nil {
		m.log.Warn().Err(err).Msg("Failed to push guard history entry")
	}
}

// Disable disarms the guard and ignores further events until re-enabled.
func (m *Monitor) Disable() {
	m.mu.Lock()
	if !m.enabled {
		m.mu.Unlock()
		return
	}
	m.enabled = false
	m.mu.Unlock()

	if err := m.platform.SetLeaveGuard(false); err != nil {
		m.log.Warn().Err(err).Msg("Failed to disarm leave guard")
	}
}

// Enabled reports whether signals are currently raised.
func (m *Monitor) Enabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.enabled
}

// HiddenCount returns the number of visibility losses observed while enabled.
func (m *Monitor) HiddenCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hidden
}

// Close disables the monitor and stops its goroutine.
func (m *Monitor) Close() {
	m.Disable()

	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

func (m *Monitor) handle(ev PlatformEvent) {
	at := ev.At
	if at.IsZero() {
		at = m.now()
	}

	m.mu.Lock()
	if !m.enabled {
		m.mu.Unlock()
		return
	}
	var kind SignalKind
	switch ev.Kind {
	case EventHidden:
		m.hidden++
		kind = SignalTabHidden
	case EventVisible:
		kind = SignalTabVisible
	case EventLeaveAttempt:
		kind = SignalLeaveAttempt
	case EventLeaveConfirmed:
		kind = SignalLeaveConfirmed
	case EventBackNavigation:
		kind = SignalBackAbsorbed
	default:
		m.mu.Unlock()
		m.log.Debug().Str("kind", string(ev.Kind)).Msg("Ignoring unknown platform event")
		return
	}
	sig := Signal{Kind: kind, At: at, HiddenCount: m.hidden}
	m.mu.Unlock()

	if kind == SignalBackAbsorbed {
		// Re-push so the next back gesture lands on a guard entry too.
		if err := m.platform.PushHistoryEntry(); err != nil {
			m.log.Warn().Err(err).Msg("Failed to absorb back navigation")
		}
	}

	m.log.Info().
		Str("signal", string(sig.Kind)).
		Int("hidden_count", sig.HiddenCount).
		Msg("Integrity signal")

	if m.onSignal != nil {
		m.onSignal(sig)
	}
}
