package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/stemsi/exstem-attempt/internal/model"
	"github.com/stemsi/exstem-attempt/internal/session"
)

type idleTicker struct{ c chan time.Time }

func (t idleTicker) C() <-chan time.Time { return t.c }
func (t idleTicker) Stop()               {}

func idleTickers(time.Duration) session.Ticker { return idleTicker{c: make(chan time.Time)} }

type countingAPI struct {
	fetches atomic.Int32
}

func (a *countingAPI) FetchForAttempt(_ context.Context, examID uuid.UUID) (*model.FetchResult, error) {
	a.fetches.Add(1)
	return &model.FetchResult{
		Exam: model.Exam{
			ID:              examID,
			DurationMinutes: 10,
			Questions:       []model.Question{{ID: uuid.New(), Type: model.QuestionTypeFreeResponse}},
		},
		ServerTime: time.Now(),
	}, nil
}

func (a *countingAPI) StartAttempt(context.Context, uuid.UUID) (*model.StartResult, error) {
	return &model.StartResult{
		Attempt:         model.Attempt{ID: uuid.New(), Status: model.AttemptStatusInProgress, StartedAt: time.Now()},
		DurationSeconds: 600,
	}, nil
}

func (a *countingAPI) SubmitAttempt(context.Context, uuid.UUID, uuid.UUID, model.SubmitRequest) (*model.SubmitResult, error) {
	return &model.SubmitResult{}, nil
}

func newTestService(api *countingAPI) *AttemptService {
	return NewAttemptService(session.Options{API: api, NewTicker: idleTickers}, zerolog.Nop())
}

func TestAttemptServiceWithoutSession(t *testing.T) {
	svc := newTestService(&countingAPI{})

	if _, err := svc.State(); !errors.Is(err, ErrNoSession) {
		t.Errorf("State err = %v, want ErrNoSession", err)
	}
	if _, err := svc.Start(context.Background()); !errors.Is(err, ErrNoSession) {
		t.Errorf("Start err = %v, want ErrNoSession", err)
	}
	if err := svc.Close(context.Background()); !errors.Is(err, ErrNoSession) {
		t.Errorf("Close err = %v, want ErrNoSession", err)
	}
	svc.Shutdown(context.Background())
}

func TestAttemptServiceHydrateSameExamReattaches(t *testing.T) {
	api := &countingAPI{}
	svc := newTestService(api)
	defer svc.Shutdown(context.Background())

	examID := uuid.New()
	ctx := context.Background()
	if _, err := svc.Hydrate(ctx, examID); err != nil {
		t.Fatalf("Hydrate: %v", err)
	}
	if _, err := svc.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	snap, err := svc.Hydrate(ctx, examID)
	if err != nil {
		t.Fatalf("second Hydrate: %v", err)
	}
	if snap.State != model.AttemptStatusInProgress {
		t.Errorf("state = %s, want in_progress", snap.State)
	}
	if got := api.fetches.Load(); got != 1 {
		t.Errorf("fetches = %d, want 1", got)
	}
}

func TestAttemptServiceHydrateOtherExamReplaces(t *testing.T) {
	api := &countingAPI{}
	svc := newTestService(api)
	defer svc.Shutdown(context.Background())

	ctx := context.Background()
	first, second := uuid.New(), uuid.New()
	if _, err := svc.Hydrate(ctx, first); err != nil {
		t.Fatalf("Hydrate first: %v", err)
	}
	snap, err := svc.Hydrate(ctx, second)
	if err != nil {
		t.Fatalf("Hydrate second: %v", err)
	}
	if snap.Exam == nil || snap.Exam.ID != second {
		t.Fatalf("snapshot exam = %+v, want %s", snap.Exam, second)
	}
	if got := api.fetches.Load(); got != 2 {
		t.Errorf("fetches = %d, want 2", got)
	}
}

func TestAttemptServiceEventsFanOut(t *testing.T) {
	svc := newTestService(&countingAPI{})
	defer svc.Shutdown(context.Background())

	events, cancel := svc.Subscribe()
	defer cancel()

	ctx := context.Background()
	if _, err := svc.Hydrate(ctx, uuid.New()); err != nil {
		t.Fatalf("Hydrate: %v", err)
	}
	if _, err := svc.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	select {
	case ev := <-events:
		if ev.Type != session.EventStateChanged || ev.State != model.AttemptStatusInProgress {
			t.Errorf("event = %s/%s, want state_changed/in_progress", ev.Type, ev.State)
		}
	case <-time.After(time.Second):
		t.Fatal("no event after Start")
	}
}
