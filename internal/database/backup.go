package database

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-attempt/internal/backup"
	"github.com/stemsi/exstem-attempt/internal/config"
)

// Backup drivers selectable with BACKUP_DRIVER.
const (
	DriverFile     = "file"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// OpenBackupStorage connects the storage named by cfg.BackupDriver. The returned
// close function releases the underlying connection and is never nil.
func OpenBackupStorage(ctx context.Context, cfg *config.Config, log zerolog.Logger) (backup.Storage, func(), error) {
	switch cfg.BackupDriver {
	case DriverFile, "":
		fs, err := backup.NewFileStorage(cfg.BackupDir)
		if err != nil {
			return nil, nil, err
		}
		log.Info().Str("component", "database").Str("dir", cfg.BackupDir).Msg("File backup storage ready")
		return fs, func() {}, nil

	case DriverRedis:
		rdb, err := NewRedisClient(ctx, cfg, log)
		if err != nil {
			return nil, nil, err
		}
		return backup.NewRedisStorage(rdb, backup.DefaultRedisTTL), func() { rdb.Close() }, nil

	case DriverPostgres:
		pool, err := NewPostgresPool(ctx, cfg, log)
		if err != nil {
			return nil, nil, err
		}
		return backup.NewPostgresStorage(pool), pool.Close, nil

	case DriverMemory:
		log.Warn().Str("component", "database").Msg("Memory backup storage: answers are lost if the agent restarts")
		return backup.NewMemoryStorage(), func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown backup driver %q", cfg.BackupDriver)
}
