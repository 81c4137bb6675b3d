package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-attempt/internal/apiclient"
	"github.com/stemsi/exstem-attempt/internal/backup"
	"github.com/stemsi/exstem-attempt/internal/config"
	"github.com/stemsi/exstem-attempt/internal/database"
	"github.com/stemsi/exstem-attempt/internal/integrity"
	"github.com/stemsi/exstem-attempt/internal/session"
)

// BuildSessionOptions wires the exam API client, the backup storage and the
// platform into engine options. The returned close function releases the backup
// storage connection.
func BuildSessionOptions(ctx context.Context, cfg *config.Config, platform integrity.Platform, log zerolog.Logger) (session.Options, func(), error) {
	claims, err := apiclient.ParseClaims(cfg.APIToken)
	if err != nil {
		return session.Options{}, nil, fmt.Errorf("api token: %w", err)
	}

	storage, closeStorage, err := database.OpenBackupStorage(ctx, cfg, log)
	if err != nil {
		return session.Options{}, nil, fmt.Errorf("backup storage: %w", err)
	}

	sealer, err := backup.NewSealer(cfg.BackupSecret)
	if err != nil {
		closeStorage()
		return session.Options{}, nil, fmt.Errorf("backup sealer: %w", err)
	}
	if sealer == nil {
		log.Warn().Msg("BACKUP_SECRET is empty, backups are stored unencrypted")
	}

	log.Info().
		Int("student_id", claims.UserID).
		Str("api", cfg.APIBaseURL).
		Str("backup_driver", cfg.BackupDriver).
		Msg("Session dependencies ready")

	opts := session.Options{
		API:              apiclient.New(cfg.APIBaseURL, cfg.APIToken, cfg.APITimeout, log),
		Backup:           backup.NewAdapter(storage, sealer, claims.UserID, log),
		Platform:         platform,
		Logger:           log,
		AutosaveInterval: cfg.AutosaveInterval,
		WarningThreshold: int64(cfg.WarningThreshold / time.Second),
		ResyncInterval:   cfg.ResyncInterval,
	}
	return opts, closeStorage, nil
}
