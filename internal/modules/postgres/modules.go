package postgres

import (
	"context"
	"fmt"

	"reversion_bot/internal/modules/config"
	"reversion_bot/pkg/db"
)

// Connect opens the pool for cfg.DB and checks it answers.
func Connect(ctx context.Context, cfg *config.Config) (*db.PgTxManager, error) {
	if cfg.DB == "" {
		return nil, fmt.Errorf("postgres journal needs db_dsn or DATABASE_DSN")
	}
	poolMaster, err := db.NewPool(ctx, db.PoolConfig{
		DSN:      cfg.DB,
		MaxConns: 4,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create poolMaster: %w", err)
	}

	if err = poolMaster.Ping(ctx); err != nil {
		poolMaster.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return db.NewPgTxManager(poolMaster), nil
}
