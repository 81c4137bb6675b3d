package backup

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStorage keeps snapshots in the attempt_backups table (see migrations/).
// Meant for lab deployments where kiosks share one database.
type PostgresStorage struct {
	pool *pgxpool.Pool
}

func NewPostgresStorage(pool *pgxpool.Pool) *PostgresStorage {
	return &PostgresStorage{pool: pool}
}

func (p *PostgresStorage) Get(ctx context.Context, key string) ([]byte, error) {
	var payload []byte
	err := p.pool.QueryRow(ctx,
		`SELECT payload FROM attempt_backups WHERE backup_key = $1`, key,
	).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select backup: %w", err)
	}
	return payload, nil
}

func (p *PostgresStorage) Set(ctx context.Context, key string, value []byte) error {
	// UPSERT the snapshot, one row per key.
	_, err := p.pool.Exec(ctx,
		`INSERT INTO attempt_backups (backup_key, payload)
		 VALUES ($1, $2)
		 ON CONFLICT (backup_key) DO UPDATE
		 SET payload = EXCLUDED.payload, updated_at = NOW()`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("upsert backup: %w", err)
	}
	return nil
}

func (p *PostgresStorage) Delete(ctx context.Context, key string) error {
	if _, err := p.pool.Exec(ctx, `DELETE FROM attempt_backups WHERE backup_key = $1`, key); err != nil {
		return fmt.Errorf("delete backup: %w", err)
	}
	return nil
}
