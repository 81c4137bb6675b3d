// Package session implements the exam attempt state machine.
//
// An Engine owns one attempt from hydrate to submission. Every transition runs
// under a single mutex. Network and storage calls run outside it, and so do
// Notifier callbacks. Timers start when the attempt enters in_progress and stop
// together when it is submitted or the engine is closed.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/stemsi/exstem-attempt/internal/answer"
	"github.com/stemsi/exstem-attempt/internal/apiclient"
	"github.com/stemsi/exstem-attempt/internal/backup"
	"github.com/stemsi/exstem-attempt/internal/clock"
	"github.com/stemsi/exstem-attempt/internal/integrity"
	"github.com/stemsi/exstem-attempt/internal/model"
)

const (
	DefaultAutosaveInterval = 10 * time.Second
	DefaultWarningThreshold = 300
	tickInterval            = time.Second
)

// API is the exam session API the engine depends on.
type API interface {
	FetchForAttempt(ctx context.Context, examID uuid.UUID) (*model.FetchResult, error)
	StartAttempt(ctx context.Context, examID uuid.UUID) (*model.StartResult, error)
	SubmitAttempt(ctx context.Context, examID, attemptID uuid.UUID, req model.SubmitRequest) (*model.SubmitResult, error)
}

// Backup is the local best-effort persistence of the answer store.
type Backup interface {
	Save(ctx context.Context, snap backup.Snapshot)
	Load(ctx context.Context, examID uuid.UUID) (*backup.Snapshot, bool)
	Clear(ctx context.Context, examID uuid.UUID)
}

// nopBackup is used when no Backup is configured.
type nopBackup struct{}

func (nopBackup) Save(context.Context, backup.Snapshot)                     {}
func (nopBackup) Load(context.Context, uuid.UUID) (*backup.Snapshot, bool) { return nil, false }
func (nopBackup) Clear(context.Context, uuid.UUID)                         {}

// Options configures an Engine. API is required.
type Options struct {
	API      API
	Backup   Backup
	Platform integrity.Platform
	Notifier Notifier
	Logger   zerolog.Logger

	// AutosaveInterval defaults to 10s.
	AutosaveInterval time.Duration
	// WarningThreshold is in seconds and defaults to 300.
	WarningThreshold int64
	// ResyncInterval re-reads the server clock periodically. Zero disables it.
	ResyncInterval time.Duration

	NewTicker TickerFactory
	Now       func() time.Time
}

// Snapshot is a consistent copy of the observable session state.
type Snapshot struct {
	State                model.AttemptStatus  `json:"state"`
	Exam                 *model.Exam          `json:"exam,omitempty"`
	Questions            []model.Question     `json:"questions"`
	Attempt              *model.Attempt       `json:"attempt,omitempty"`
	Answers              map[uuid.UUID]string `json:"answers"`
	CurrentQuestionIndex int                  `json:"current_question_index"`
	SecondsRemaining     int64                `json:"seconds_remaining"`
	LastAutosaveAt       *time.Time           `json:"last_autosave_at,omitempty"`
	TabVisible           bool                 `json:"tab_visible"`
	WarningsShown        []string             `json:"warnings_shown"`
	AnsweredCount        int                  `json:"answered_count"`
	HiddenCount          int                  `json:"hidden_count"`
	Result               *model.SubmitResult  `json:"result,omitempty"`
}

// Engine is the session state machine of one exam attempt.
type Engine struct {
	api       API
	backup    Backup
	notifier  Notifier
	monitor   *integrity.Monitor
	log       zerolog.Logger
	newTicker TickerFactory
	now       func() time.Time

	autosaveEvery time.Duration
	resyncEvery   time.Duration
	warnAt        int64

	mu         sync.Mutex
	state      model.AttemptStatus
	hydrating  bool
	hydrated   bool
	starting   bool
	closed     bool
	exam       *model.Exam
	questions  []model.Question
	order      []uuid.UUID
	attempt    *model.Attempt
	result     *model.SubmitResult
	answers    *answer.Store
	countdown  *clock.Countdown
	cursor     int
	warnings   []string
	tabVisible bool
	hidden     int
	savedRev   uint64
	lastSaveAt time.Time

	timersCancel context.CancelFunc
	timers       sync.WaitGroup
	work         sync.WaitGroup
	saveMu       sync.Mutex
}

// New creates an engine in not_started. Call Hydrate before anything else.
func New(opts Options) *Engine {
	if opts.AutosaveInterval <= 0 {
		opts.AutosaveInterval = DefaultAutosaveInterval
	}
	if opts.WarningThreshold <= 0 {
		opts.WarningThreshold = DefaultWarningThreshold
	}
	if opts.NewTicker == nil {
		opts.NewTicker = NewRealTicker
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Backup == nil {
		opts.Backup = nopBackup{}
	}

	e := &Engine{
		api:           opts.API,
		backup:        opts.Backup,
		notifier:      opts.Notifier,
		log:           opts.Logger.With().Str("component", "session").Logger(),
		newTicker:     opts.NewTicker,
		now:           opts.Now,
		autosaveEvery: opts.AutosaveInterval,
		resyncEvery:   opts.ResyncInterval,
		warnAt:        opts.WarningThreshold,
		state:         model.AttemptStatusNotStarted,
		answers:       answer.NewStore(),
		tabVisible:    true,
	}
	e.monitor = integrity.NewMonitor(opts.Platform, e.onSignal, opts.Logger)
	return e
}

// State returns the current state.
func (e *Engine) State() model.AttemptStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Hydrate loads the exam, its questions, any existing attempt and the server time.
// It is valid once, on a fresh engine.
func (e *Engine) Hydrate(ctx context.Context, examID uuid.UUID) error {
	e.mu.Lock()
	if e.closed || e.hydrated || e.hydrating {
		err := &InvalidStateError{Op: "hydrate", State: e.state}
		e.mu.Unlock()
		return err
	}
	e.hydrating = true
	e.mu.Unlock()

	res, err := e.fetch(ctx, examID)
	if err != nil {
		e.mu.Lock()
		e.hydrating = false
		e.mu.Unlock()
		e.log.Warn().Err(err).Str("exam_id", examID.String()).Msg("Hydrate failed")
		return &LoadError{ExamID: examID, Err: err}
	}

	if res.Attempt == nil {
		if err := windowError(res); err != nil {
			e.mu.Lock()
			e.hydrating = false
			e.mu.Unlock()
			return &LoadError{ExamID: examID, Err: err}
		}
	}

	// The backup is read for diagnostics only. Server-confirmed answers always win.
	local, hasLocal := e.backup.Load(ctx, examID)

	e.mu.Lock()
	e.hydrating = false
	if e.closed {
		e.mu.Unlock()
		return &InvalidStateError{Op: "hydrate", State: e.state}
	}
	e.hydrated = true
	e.setExamLocked(res)

	var evs []Event
	armed := false
	switch {
	case res.Attempt == nil:
		e.state = model.AttemptStatusNotStarted

	case res.Attempt.Status == model.AttemptStatusSubmitted:
		e.attempt = res.Attempt
		e.loadAnswersLocked(res.Attempt.Answers)
		e.answers.Freeze()
		e.result = res.Attempt.Result
		e.state = model.AttemptStatusSubmitted

	default:
		evs, armed = e.resumeLocked(res)
	}

	if hasLocal {
		e.logBackupDivergenceLocked(local)
	}
	state := e.state
	e.mu.Unlock()

	e.log.Info().
		Str("exam_id", examID.String()).
		Str("state", string(state)).
		Msg("Session hydrated")

	e.emit(evs...)
	if armed {
		e.monitor.Enable()
	}
	return nil
}

// Start creates the attempt on the server. Only valid from not_started.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.closed || !e.hydrated || e.starting || e.state != model.AttemptStatusNotStarted {
		err := &InvalidStateError{Op: "start", State: e.state}
		e.mu.Unlock()
		return err
	}
	e.starting = true
	examID := e.exam.ID
	e.mu.Unlock()

	res, err := e.api.StartAttempt(ctx, examID)
	if errors.Is(err, apiclient.ErrAlreadyAttempted) {
		return e.resumeAfterConflict(ctx, examID)
	}
	if err != nil {
		e.mu.Lock()
		e.starting = false
		e.mu.Unlock()
		e.log.Warn().Err(err).Str("exam_id", examID.String()).Msg("Start failed")
		return &StartError{Err: err}
	}

	e.mu.Lock()
	e.starting = false
	attempt := res.Attempt
	attempt.ExamID = examID
	attempt.Status = model.AttemptStatusInProgress
	attempt.Answers = nil
	e.attempt = &attempt

	duration := res.DurationSeconds
	if duration <= 0 {
		duration = e.exam.DurationSeconds()
	}
	e.countdown = clock.NewCountdown(clock.Remaining(clock.Anchor{
		ServerNow:    attempt.StartedAt,
		AttemptStart: attempt.StartedAt,
		ExamEnd:      e.exam.ScheduledEnd,
		Duration:     time.Duration(duration) * time.Second,
	}))
	evs, armed := e.enterInProgressLocked()
	remaining := e.countdown.Remaining()
	e.mu.Unlock()

	e.log.Info().
		Str("exam_id", examID.String()).
		Str("attempt_id", attempt.ID.String()).
		Int64("seconds_remaining", remaining).
		Msg("Attempt started")

	e.emit(evs...)
	if armed {
		e.monitor.Enable()
	}
	return nil
}

// resumeAfterConflict handles a start rejected because the attempt already
// exists: the existing in_progress attempt is re-fetched and resumed.
func (e *Engine) resumeAfterConflict(ctx context.Context, examID uuid.UUID) error {
	res, err := e.fetch(ctx, examID)

	e.mu.Lock()
	e.starting = false
	if err != nil {
		e.mu.Unlock()
		return &StartError{Err: err}
	}
	if res.Attempt == nil || res.Attempt.Status == model.AttemptStatusSubmitted || e.closed {
		e.mu.Unlock()
		return &StartError{Err: apiclient.ErrAlreadyAttempted}
	}
	if e.state != model.AttemptStatusNotStarted {
		err := &InvalidStateError{Op: "start", State: e.state}
		e.mu.Unlock()
		return err
	}
	evs, armed := e.resumeLocked(res)
	e.mu.Unlock()

	e.log.Info().
		Str("exam_id", examID.String()).
		Str("attempt_id", res.Attempt.ID.String()).
		Msg("Resumed existing attempt")

	e.emit(evs...)
	if armed {
		e.monitor.Enable()
	}
	return nil
}

// SetAnswer records an answer. An empty value clears it.
func (e *Engine) SetAnswer(questionID uuid.UUID, value string) error {
	e.mu.Lock()
	if e.state != model.AttemptStatusInProgress || e.closed {
		err := &InvalidStateError{Op: "set answer", State: e.state}
		e.mu.Unlock()
		return err
	}
	q, ok := e.findQuestionLocked(questionID)
	if !ok {
		e.mu.Unlock()
		return ErrUnknownQuestion
	}
	if value != "" && q.Type == model.QuestionTypeSingleChoice && !q.HasOption(value) {
		e.mu.Unlock()
		return ErrInvalidOption
	}
	changed := e.answers.Set(questionID, value)
	var ev Event
	if changed {
		ev = e.eventLocked(EventAnswerChanged)
	}
	e.mu.Unlock()

	if changed {
		e.emit(ev)
	}
	return nil
}

// SetCurrentQuestion moves the navigation cursor, bounded to the question list.
// It returns the index actually selected.
func (e *Engine) SetCurrentQuestion(index int) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.state {
	case model.AttemptStatusInProgress, model.AttemptStatusSubmitted:
	default:
		return e.cursor, &InvalidStateError{Op: "navigate", State: e.state}
	}
	if len(e.questions) == 0 {
		e.cursor = 0
		return 0, nil
	}
	e.cursor = max(0, min(index, len(e.questions)-1))
	return e.cursor, nil
}

// Tick advances the countdown by one second. At zero it initiates the
// auto-submission, at most one at a time.
func (e *Engine) Tick() {
	e.mu.Lock()
	if e.closed || e.countdown == nil ||
		(e.state != model.AttemptStatusInProgress && e.state != model.AttemptStatusSubmitting) {
		e.mu.Unlock()
		return
	}

	remaining := e.countdown.Tick()
	evs := []Event{e.eventLocked(EventTick)}

	if len(e.warnings) == 0 && remaining <= e.warnAt {
		e.warnings = append(e.warnings, WarningFiveMinutesLeft)
		ev := e.eventLocked(EventWarning)
		ev.Warning = WarningFiveMinutesLeft
		evs = append(evs, ev)
	}

	fire := e.countdown.Expired() && e.state == model.AttemptStatusInProgress
	if fire {
		evs = append(evs, e.beginSubmitLocked())
		e.work.Add(1)
	}
	e.mu.Unlock()

	e.emit(evs...)
	if fire {
		e.log.Info().Str("attempt_id", e.attemptID().String()).Msg("Time is up, auto-submitting")
		e.monitor.Disable()
		go func() {
			defer e.work.Done()
			_, _ = e.runSubmit(context.Background(), true)
		}()
	}
}

// Submit sends the answers to the server. Only valid from in_progress; an
// overlapping call gets InvalidStateError and causes no network traffic.
func (e *Engine) Submit(ctx context.Context, autoSubmitted bool) (*model.SubmitResult, error) {
	e.mu.Lock()
	if e.state != model.AttemptStatusInProgress || e.closed {
		err := &InvalidStateError{Op: "submit", State: e.state}
		e.mu.Unlock()
		return nil, err
	}
	ev := e.beginSubmitLocked()
	e.work.Add(1)
	e.mu.Unlock()
	defer e.work.Done()

	e.emit(ev)
	e.monitor.Disable()
	return e.runSubmit(ctx, autoSubmitted)
}

// Close tears the session down without submitting: a final autosave when an
// attempt is active, then every timer and the monitor are stopped.
func (e *Engine) Close(ctx context.Context) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.mu.Unlock()

	e.autosave(ctx)
	e.stopTimers()
	e.monitor.Close()
	e.work.Wait()

	e.log.Info().Str("state", string(e.State())).Msg("Session closed")
}

// Snapshot returns a copy of the observable state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap := Snapshot{
		State:                e.state,
		Exam:                 e.exam,
		Questions:            e.questions,
		Answers:              e.answers.Snapshot(),
		AnsweredCount:        e.answers.Len(),
		CurrentQuestionIndex: e.cursor,
		TabVisible:           e.tabVisible,
		HiddenCount:          e.hidden,
		WarningsShown:        append([]string{}, e.warnings...),
		Result:               e.result,
	}
	if e.attempt != nil {
		a := *e.attempt
		snap.Attempt = &a
	}
	if e.countdown != nil {
		snap.SecondsRemaining = e.countdown.Remaining()
	}
	if !e.lastSaveAt.IsZero() {
		t := e.lastSaveAt
		snap.LastAutosaveAt = &t
	}
	return snap
}

// ────────────────────────────────────────────────────────────────────────────
// Submission
// ────────────────────────────────────────────────────────────────────────────

func (e *Engine) beginSubmitLocked() Event {
	e.state = model.AttemptStatusSubmitting
	return e.eventLocked(EventStateChanged)
}

func (e *Engine) runSubmit(ctx context.Context, auto bool) (*model.SubmitResult, error) {
	e.mu.Lock()
	examID, attemptID := e.exam.ID, e.attempt.ID
	req := model.SubmitRequest{
		Answers:       e.answers.Pairs(e.order),
		AutoSubmitted: auto,
	}
	e.mu.Unlock()

	res, err := e.api.SubmitAttempt(ctx, examID, attemptID, req)
	if err != nil {
		e.mu.Lock()
		e.state = model.AttemptStatusInProgress
		evs := []Event{e.eventLocked(EventStateChanged)}
		if auto {
			ev := e.eventLocked(EventAutoSubmitFailed)
			ev.Error = err.Error()
			evs = append(evs, ev)
		}
		reenable := !e.closed
		e.mu.Unlock()

		e.log.Warn().
			Err(err).
			Str("attempt_id", attemptID.String()).
			Bool("auto_submitted", auto).
			Msg("Submit failed, answers kept")

		e.emit(evs...)
		if reenable {
			e.monitor.Enable()
		}
		return nil, &SubmitError{AutoSubmitted: auto, Err: err}
	}

	e.mu.Lock()
	e.state = model.AttemptStatusSubmitted
	e.result = res
	e.attempt.Status = model.AttemptStatusSubmitted
	e.attempt.AutoSubmitted = auto
	e.attempt.Result = res
	e.attempt.Answers = req.Answers
	e.answers.Freeze()
	changed := e.eventLocked(EventStateChanged)
	done := e.eventLocked(EventSubmitted)
	e.mu.Unlock()

	e.log.Info().
		Str("attempt_id", attemptID.String()).
		Bool("auto_submitted", auto).
		Float64("score", res.Score).
		Msg("Attempt submitted")

	e.backup.Clear(context.WithoutCancel(ctx), examID)
	e.stopTimers()
	e.monitor.Close()
	e.emit(changed, done)
	return res, nil
}

// ────────────────────────────────────────────────────────────────────────────
// Timers
// ────────────────────────────────────────────────────────────────────────────

func (e *Engine) startTimersLocked() {
	if e.timersCancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	e.timersCancel = cancel

	e.every(ctx, tickInterval, e.Tick)
	e.every(ctx, e.autosaveEvery, func() { e.autosave(ctx) })
	if e.resyncEvery > 0 {
		e.every(ctx, e.resyncEvery, func() { e.resync(ctx) })
	}
}

func (e *Engine) every(ctx context.Context, d time.Duration, fn func()) {
	t := e.newTicker(d)
	e.timers.Add(1)
	go func() {
		defer e.timers.Done()
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C():
				fn()
			}
		}
	}()
}

// stopTimers must not be called with e.mu held or from a timer goroutine.
func (e *Engine) stopTimers() {
	e.mu.Lock()
	cancel := e.timersCancel
	e.timersCancel = nil
	e.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	e.timers.Wait()
}

// autosave writes the answer store to the backup when it changed since the last save.
func (e *Engine) autosave(ctx context.Context) {
	e.saveMu.Lock()
	defer e.saveMu.Unlock()

	e.mu.Lock()
	if e.state != model.AttemptStatusInProgress && e.state != model.AttemptStatusSubmitting {
		e.mu.Unlock()
		return
	}
	rev := e.answers.Revision()
	if e.answers.Len() == 0 || rev == e.savedRev {
		e.mu.Unlock()
		return
	}
	snap := backup.Snapshot{
		ExamID:    e.exam.ID,
		AttemptID: e.attempt.ID,
		Answers:   e.answers.Pairs(e.order),
		SavedAt:   e.now().UTC(),
	}
	e.mu.Unlock()

	e.backup.Save(ctx, snap)

	e.mu.Lock()
	e.savedRev = rev
	e.lastSaveAt = snap.SavedAt
	ev := e.eventLocked(EventAutosaved)
	e.mu.Unlock()

	e.emit(ev)
}

// resync re-reads the server clock. The countdown only ever goes down.
func (e *Engine) resync(ctx context.Context) {
	e.mu.Lock()
	if e.state != model.AttemptStatusInProgress && e.state != model.AttemptStatusSubmitting {
		e.mu.Unlock()
		return
	}
	examID, attemptID := e.exam.ID, e.attempt.ID
	e.mu.Unlock()

	res, err := e.fetch(ctx, examID)
	if err != nil {
		e.log.Debug().Err(err).Str("exam_id", examID.String()).Msg("Clock resync failed")
		return
	}
	if res.Attempt == nil || res.Attempt.ID != attemptID {
		return
	}
	secs := clock.Remaining(e.anchor(res))

	e.mu.Lock()
	if e.countdown == nil || !e.countdown.Lower(secs) {
		e.mu.Unlock()
		return
	}
	ev := e.eventLocked(EventTick)
	e.mu.Unlock()

	e.log.Info().
		Str("attempt_id", attemptID.String()).
		Int64("seconds_remaining", secs).
		Msg("Countdown corrected from server clock")
	e.emit(ev)
}

// ────────────────────────────────────────────────────────────────────────────
// Integrity
// ────────────────────────────────────────────────────────────────────────────

// onSignal runs on the monitor goroutine.
func (e *Engine) onSignal(sig integrity.Signal) {
	e.mu.Lock()
	switch sig.Kind {
	case integrity.SignalTabHidden:
		e.tabVisible = false
	case integrity.SignalTabVisible:
		e.tabVisible = true
	}
	e.hidden = sig.HiddenCount
	ev := e.eventLocked(EventIntegrity)
	ev.Signal = &sig
	e.mu.Unlock()

	e.emit(ev)

	if sig.Kind == integrity.SignalLeaveConfirmed {
		e.autosave(context.Background())
	}
}

// ────────────────────────────────────────────────────────────────────────────
// Internal helpers
// ────────────────────────────────────────────────────────────────────────────

func (e *Engine) fetch(ctx context.Context, examID uuid.UUID) (*model.FetchResult, error) {
	if e.api == nil {
		return nil, errors.New("no exam api configured")
	}
	res, err := e.api.FetchForAttempt(ctx, examID)
	if err != nil {
		return nil, err
	}
	if len(res.Questions) == 0 {
		res.Questions = res.Exam.Questions
	}
	return res, nil
}

// windowError reports why an exam without an attempt cannot be taken at the
// server's current time.
func windowError(res *model.FetchResult) error {
	if s := res.Exam.ScheduledStart; s != nil && res.ServerTime.Before(*s) {
		return apiclient.ErrNotYetOpen
	}
	if end := res.Exam.ScheduledEnd; end != nil && !res.ServerTime.Before(*end) {
		return apiclient.ErrClosed
	}
	return nil
}

func (e *Engine) setExamLocked(res *model.FetchResult) {
	exam := res.Exam
	e.exam = &exam
	e.questions = res.Questions
	e.order = make([]uuid.UUID, len(res.Questions))
	for i, q := range res.Questions {
		e.order[i] = q.ID
	}
}

func (e *Engine) findQuestionLocked(id uuid.UUID) (*model.Question, bool) {
	for i := range e.questions {
		if e.questions[i].ID == id {
			return &e.questions[i], true
		}
	}
	return nil, false
}

func (e *Engine) loadAnswersLocked(pairs []model.AnswerPair) {
	dropped := e.answers.Load(pairs, func(id uuid.UUID) bool {
		_, ok := e.findQuestionLocked(id)
		return ok
	})
	if dropped > 0 {
		e.log.Warn().Int("dropped", dropped).Msg("Discarded answers for unknown questions")
	}
	e.savedRev = e.answers.Revision()
}

// resumeLocked restores an in_progress attempt from a fetch result.
func (e *Engine) resumeLocked(res *model.FetchResult) ([]Event, bool) {
	attempt := *res.Attempt
	attempt.Status = model.AttemptStatusInProgress
	e.attempt = &attempt
	e.loadAnswersLocked(res.Attempt.Answers)
	e.countdown = clock.NewCountdown(clock.Remaining(e.anchor(res)))
	return e.enterInProgressLocked()
}

func (e *Engine) anchor(res *model.FetchResult) clock.Anchor {
	return clock.Anchor{
		ServerNow:    res.ServerTime,
		AttemptStart: res.Attempt.StartedAt,
		ExamEnd:      res.Exam.ScheduledEnd,
		Duration:     time.Duration(res.Exam.DurationSeconds()) * time.Second,
	}
}

// enterInProgressLocked reports whether timers were armed, in which case the
// caller enables the monitor after releasing the lock.
func (e *Engine) enterInProgressLocked() ([]Event, bool) {
	e.state = model.AttemptStatusInProgress
	ev := e.eventLocked(EventStateChanged)
	if e.closed {
		return []Event{ev}, false
	}
	e.startTimersLocked()
	e.monitor.Run(context.Background())
	return []Event{ev}, true
}

func (e *Engine) logBackupDivergenceLocked(local *backup.Snapshot) {
	diverged := 0
	for _, p := range local.Answers {
		if v, ok := e.answers.Get(p.QuestionID); !ok || v != p.Answer {
			diverged++
		}
	}
	serverCount := e.answers.Len()
	if diverged == 0 && len(local.Answers) == serverCount {
		return
	}
	e.log.Warn().
		Str("exam_id", local.ExamID.String()).
		Int("local_answers", len(local.Answers)).
		Int("server_answers", serverCount).
		Int("diverged", diverged).
		Time("backup_saved_at", local.SavedAt).
		Msg("Local backup differs from server answers, server wins")
}

func (e *Engine) attemptID() uuid.UUID {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.attempt == nil {
		return uuid.Nil
	}
	return e.attempt.ID
}

func (e *Engine) eventLocked(t EventType) Event {
	ev := Event{Type: t, State: e.state, At: e.now()}
	if e.countdown != nil {
		ev.SecondsRemaining = e.countdown.Remaining()
	}
	return ev
}

func (e *Engine) emit(evs ...Event) {
	if e.notifier == nil {
		return
	}
	for _, ev := range evs {
		e.notifier.Notify(ev)
	}
}
