package session

import (
	"sync"
	"time"

	"github.com/stemsi/exstem-attempt/internal/integrity"
	"github.com/stemsi/exstem-attempt/internal/model"
)

// EventType names what happened in the engine.
type EventType string

const (
	EventStateChanged     EventType = "state_changed"
	EventTick             EventType = "tick"
	EventWarning          EventType = "warning"
	EventAnswerChanged    EventType = "answer_changed"
	EventIntegrity        EventType = "integrity"
	EventAutosaved        EventType = "autosaved"
	EventAutoSubmitFailed EventType = "auto_submit_failed"
	EventSubmitted        EventType = "submitted"
)

// WarningFiveMinutesLeft is raised once when the countdown reaches the warning threshold.
const WarningFiveMinutesLeft = "5-minutes-left"

// Event is delivered to the Notifier after the state change it describes.
type Event struct {
	Type             EventType           `json:"type"`
	State            model.AttemptStatus `json:"state"`
	SecondsRemaining int64               `json:"seconds_remaining"`
	Warning          string              `json:"warning,omitempty"`
	Signal           *integrity.Signal   `json:"signal,omitempty"`
	Result           *model.SubmitResult `json:"result,omitempty"`
	Error            string              `json:"error,omitempty"`
	At               time.Time           `json:"at"`
}

// Notifier receives engine events. Notify is never called with the engine lock held,
// but it may be called from several goroutines.
type Notifier interface {
	Notify(Event)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Event)

func (f NotifierFunc) Notify(ev Event) { f(ev) }

// Broadcaster fans events out to any number of subscribers. A subscriber that
// falls behind loses events instead of blocking the engine.
type Broadcaster struct {
	mu     sync.Mutex
	subs   map[chan Event]struct{}
	buffer int
}

// NewBroadcaster creates a broadcaster whose subscriber channels hold buffer events.
func NewBroadcaster(buffer int) *Broadcaster {
	if buffer <= 0 {
		buffer = 64
	}
	return &Broadcaster{subs: make(map[chan Event]struct{}), buffer: buffer}
}

// Subscribe returns a channel of events and a function that cancels the subscription.
func (b *Broadcaster) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, b.buffer)

	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, ch)
			b.mu.Unlock()
			close(ch)
		})
	}
}

// Notify implements Notifier.
func (b *Broadcaster) Notify(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
