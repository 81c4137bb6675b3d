package main

import (
	"testing"
	"time"

	"github.com/stemsi/exstem-attempt/internal/integrity"
)

func TestInterruptWithoutGuardLeaves(t *testing.T) {
	p := newTerminalPlatform()
	leave, warned := p.interrupt(time.Now())
	if !leave || warned {
		t.Fatalf("leave=%v warned=%v, want immediate leave", leave, warned)
	}
	select {
	case ev := <-p.Events():
		t.Fatalf("unexpected event %v", ev.Kind)
	default:
	}
}

func TestInterruptWithGuard(t *testing.T) {
	tests := []struct {
		name      string
		gap       time.Duration
		wantLeave bool
		wantKinds []integrity.EventKind
	}{
		{"second within window confirms", time.Second, true,
			[]integrity.EventKind{integrity.EventLeaveAttempt, integrity.EventLeaveConfirmed}},
		{"second after window warns again", leaveWindow + time.Second, false,
			[]integrity.EventKind{integrity.EventLeaveAttempt, integrity.EventLeaveAttempt}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTerminalPlatform()
			_ = p.SetLeaveGuard(true)

			start := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
			leave, warned := p.interrupt(start)
			if leave || !warned {
				t.Fatalf("first interrupt: leave=%v warned=%v", leave, warned)
			}
			leave, _ = p.interrupt(start.Add(tt.gap))
			if leave != tt.wantLeave {
				t.Fatalf("second interrupt leave = %v, want %v", leave, tt.wantLeave)
			}

			for i, want := range tt.wantKinds {
				ev := <-p.Events()
				if ev.Kind != want {
					t.Errorf("event %d = %v, want %v", i, ev.Kind, want)
				}
			}
		})
	}
}
