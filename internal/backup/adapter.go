package backup

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-attempt/internal/config"
	"github.com/stemsi/exstem-attempt/internal/model"
)

// Snapshot is the serialized answer store of one attempt.
type Snapshot struct {
	ExamID    uuid.UUID          `json:"exam_id"`
	AttemptID uuid.UUID          `json:"attempt_id"`
	Answers   []model.AnswerPair `json:"answers"`
	SavedAt   time.Time          `json:"saved_at"`
}

// Adapter is the persistence adapter used by the session engine. Every failure
// is logged and swallowed: losing the backup must never block exam-taking.
type Adapter struct {
	storage   Storage
	sealer    *Sealer
	studentID int
	timeout   time.Duration
	now       func() time.Time
	log       zerolog.Logger
}

// NewAdapter wraps a storage. studentID scopes keys so students sharing a kiosk
// never read each other's backups. sealer may be nil.
func NewAdapter(storage Storage, sealer *Sealer, studentID int, log zerolog.Logger) *Adapter {
	return &Adapter{
		storage:   storage,
		sealer:    sealer,
		studentID: studentID,
		timeout:   3 * time.Second,
		now:       time.Now,
		log:       log.With().Str("component", "backup").Logger(),
	}
}

func (a *Adapter) key(examID uuid.UUID) string {
	return config.CacheKey.StudentExamBackupKey(examID.String(), a.studentID)
}

// Save writes the snapshot for its exam.
func (a *Adapter) Save(ctx context.Context, snap Snapshot) {
	if a == nil || a.storage == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	if snap.SavedAt.IsZero() {
		snap.SavedAt = a.now().UTC()
	}
	key := a.key(snap.ExamID)

	raw, err := json.Marshal(snap)
	if err != nil {
		a.log.Error().Err(err).Str("exam_id", snap.ExamID.String()).Msg("Backup marshal failed")
		return
	}
	sealed, err := a.sealer.Seal(key, raw)
	if err != nil {
		a.log.Error().Err(err).Str("exam_id", snap.ExamID.String()).Msg("Backup seal failed")
		return
	}
	if err := a.storage.Set(ctx, key, sealed); err != nil {
		a.log.Warn().Err(err).Str("exam_id", snap.ExamID.String()).Msg("Backup write failed")
		return
	}

	a.log.Debug().
		Str("exam_id", snap.ExamID.String()).
		Int("answers", len(snap.Answers)).
		Msg("Backup saved")
}

// Load reads the snapshot for an exam. It reports false when there is none or
// it cannot be read.
func (a *Adapter) Load(ctx context.Context, examID uuid.UUID) (*Snapshot, bool) {
	if a == nil || a.storage == nil {
		return nil, false
	}
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	key := a.key(examID)
	data, err := a.storage.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return nil, false
	}
	if err != nil {
		a.log.Warn().Err(err).Str("exam_id", examID.String()).Msg("Backup read failed")
		return nil, false
	}

	plain, err := a.sealer.Open(key, data)
	if err != nil {
		a.log.Warn().Err(err).Str("exam_id", examID.String()).Msg("Backup open failed")
		return nil, false
	}

	var snap Snapshot
	if err := json.Unmarshal(plain, &snap); err != nil {
		a.log.Warn().Err(err).Str("exam_id", examID.String()).Msg("Backup is corrupt")
		return nil, false
	}
	return &snap, true
}

// Clear removes the snapshot for an exam.
func (a *Adapter) Clear(ctx context.Context, examID uuid.UUID) {
	if a == nil || a.storage == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	if err := a.storage.Delete(ctx, a.key(examID)); err != nil {
		a.log.Warn().Err(err).Str("exam_id", examID.String()).Msg("Backup clear failed")
	}
}
