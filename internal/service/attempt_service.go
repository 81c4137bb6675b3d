package service

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-attempt/internal/model"
	"github.com/stemsi/exstem-attempt/internal/session"
)

// ErrNoSession is returned when no exam has been hydrated yet.
var ErrNoSession = errors.New("no session hydrated")

// AttemptService owns the single exam session hosted by the agent. A kiosk
// runs one attempt at a time; hydrating another exam closes the current one.
type AttemptService struct {
	opts   session.Options
	events *session.Broadcaster
	log    zerolog.Logger

	mu     sync.Mutex
	engine *session.Engine
	examID uuid.UUID
}

// NewAttemptService creates the service. opts is the template for every engine;
// its Notifier is replaced by the service's broadcaster.
func NewAttemptService(opts session.Options, log zerolog.Logger) *AttemptService {
	events := session.NewBroadcaster(64)
	opts.Notifier = events
	return &AttemptService{
		opts:   opts,
		events: events,
		log:    log.With().Str("component", "attempt_service").Logger(),
	}
}

// Hydrate opens the session for examID. Hydrating the exam already open is a
// no-op returning its current state, so a reloaded view reattaches.
func (s *AttemptService) Hydrate(ctx context.Context, examID uuid.UUID) (session.Snapshot, error) {
	s.mu.Lock()
	if s.engine != nil && s.examID == examID {
		e := s.engine
		s.mu.Unlock()
		return e.Snapshot(), nil
	}
	old, oldID := s.engine, s.examID
	s.engine = nil
	s.mu.Unlock()

	if old != nil {
		s.log.Info().Str("exam_id", oldID.String()).Msg("Closing previous session")
		old.Close(ctx)
	}

	e := session.New(s.opts)
	if err := e.Hydrate(ctx, examID); err != nil {
		e.Close(ctx)
		return session.Snapshot{}, err
	}

	s.mu.Lock()
	if s.engine != nil {
		// Another hydrate won the race.
		winner := s.engine
		s.mu.Unlock()
		e.Close(ctx)
		return winner.Snapshot(), nil
	}
	s.engine = e
	s.examID = examID
	s.mu.Unlock()

	return e.Snapshot(), nil
}

// Start starts the attempt of the hydrated exam.
func (s *AttemptService) Start(ctx context.Context) (session.Snapshot, error) {
	e, err := s.current()
	if err != nil {
		return session.Snapshot{}, err
	}
	if err := e.Start(ctx); err != nil {
		return session.Snapshot{}, err
	}
	return e.Snapshot(), nil
}

// SetAnswer records or clears an answer.
func (s *AttemptService) SetAnswer(questionID uuid.UUID, value string) (session.Snapshot, error) {
	e, err := s.current()
	if err != nil {
		return session.Snapshot{}, err
	}
	if err := e.SetAnswer(questionID, value); err != nil {
		return session.Snapshot{}, err
	}
	return e.Snapshot(), nil
}

// SetCursor moves the current question index.
func (s *AttemptService) SetCursor(index int) (session.Snapshot, error) {
	e, err := s.current()
	if err != nil {
		return session.Snapshot{}, err
	}
	if _, err := e.SetCurrentQuestion(index); err != nil {
		return session.Snapshot{}, err
	}
	return e.Snapshot(), nil
}

// Submit submits the attempt on the student's request.
func (s *AttemptService) Submit(ctx context.Context) (*model.SubmitResult, error) {
	e, err := s.current()
	if err != nil {
		return nil, err
	}
	return e.Submit(ctx, false)
}

// State returns the current session snapshot.
func (s *AttemptService) State() (session.Snapshot, error) {
	e, err := s.current()
	if err != nil {
		return session.Snapshot{}, err
	}
	return e.Snapshot(), nil
}

// Subscribe streams engine events of whichever session is open.
func (s *AttemptService) Subscribe() (<-chan session.Event, func()) {
	return s.events.Subscribe()
}

// Close tears the current session down without submitting.
func (s *AttemptService) Close(ctx context.Context) error {
	s.mu.Lock()
	e := s.engine
	s.engine = nil
	s.mu.Unlock()

	if e == nil {
		return ErrNoSession
	}
	e.Close(ctx)
	return nil
}

// Shutdown closes any open session. Used on agent exit.
func (s *AttemptService) Shutdown(ctx context.Context) {
	if err := s.Close(ctx); err != nil && !errors.Is(err, ErrNoSession) {
		s.log.Warn().Err(err).Msg("Shutdown close failed")
	}
}

func (s *AttemptService) current() (*session.Engine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.engine == nil {
		return nil, ErrNoSession
	}
	return s.engine, nil
}
