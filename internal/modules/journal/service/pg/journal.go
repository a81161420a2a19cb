package pg

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"

	"reversion_bot/internal/models"
	"reversion_bot/internal/modules/journal/service/pg/store"
	"reversion_bot/pkg/db"
	"reversion_bot/pkg/logger"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Journal persists trading state to Postgres.
type Journal struct {
	db    db.TxManager
	store *store.Store
}

func New(tm db.TxManager) *Journal {
	return &Journal{db: tm, store: store.New()}
}

// Migrate applies the embedded schema files in name order. Every statement is idempotent.
func (j *Journal) Migrate(ctx context.Context) error {
	names, err := fs.Glob(migrations, "migrations/*.sql")
	if err != nil {
		return err
	}
	sort.Strings(names)
	return j.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		for _, name := range names {
			body, err := migrations.ReadFile(name)
			if err != nil {
				return err
			}
			if _, err := tx.Exec(ctxTx, string(body)); err != nil {
				return fmt.Errorf("migration %s: %w", name, err)
			}
			logger.Info("[JOURNAL] applied %s", name)
		}
		return nil
	})
}

func (j *Journal) RecordOpen(ctx context.Context, pos models.Position, sig models.Signal) error {
	return j.store.UpsertOpen(ctx, j.db.Conn(), pos, sig)
}

func (j *Journal) RecordClose(ctx context.Context, pos models.Position, reason models.CloseReason, at time.Time) error {
	return j.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		return j.store.Close(ctxTx, tx, pos, reason, at)
	})
}

func (j *Journal) RecordIncident(ctx context.Context, inc models.Incident) error {
	return j.store.InsertIncident(ctx, j.db.Conn(), inc)
}

func (j *Journal) SaveCooldown(ctx context.Context, entry models.CooldownEntry) error {
	return j.store.UpsertCooldown(ctx, j.db.Conn(), entry)
}

func (j *Journal) LoadOpen(ctx context.Context) ([]models.Position, error) {
	return j.store.ListOpen(ctx, j.db.Conn())
}

func (j *Journal) LoadCooldowns(ctx context.Context, now time.Time) ([]models.CooldownEntry, error) {
	return j.store.ListCooldowns(ctx, j.db.Conn(), now)
}
