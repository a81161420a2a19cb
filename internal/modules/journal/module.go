package journal

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/fx"

	"reversion_bot/internal/modules/config"
	"reversion_bot/internal/modules/journal/service"
	"reversion_bot/internal/modules/journal/service/pg"
	"reversion_bot/internal/modules/journal/service/sqlite"
	"reversion_bot/internal/modules/postgres"
	"reversion_bot/internal/runner"
	"reversion_bot/pkg/logger"
)

const connectTimeout = 15 * time.Second

// Module provides the runner.Journal selected by journal.driver.
func Module() fx.Option {
	return fx.Module("journal",
		fx.Provide(newJournal),
	)
}

func newJournal(lc fx.Lifecycle, cfg *config.Config) (runner.Journal, error) {
	switch cfg.Journal.Driver {
	case config.JournalPostgres:
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()

		tm, err := postgres.Connect(ctx, cfg)
		if err != nil {
			return nil, err
		}
		j := pg.New(tm)
		if err := j.Migrate(ctx); err != nil {
			tm.Close()
			return nil, fmt.Errorf("journal migrate: %w", err)
		}
		lc.Append(fx.StopHook(tm.Close))
		return j, nil

	case config.JournalSQLite:
		j, err := sqlite.Open(cfg.Journal.SQLitePath)
		if err != nil {
			return nil, err
		}
		lc.Append(fx.StopHook(j.Close))
		return j, nil

	default:
		logger.Warn("[JOURNAL] driver %q, positions are not persisted", cfg.Journal.Driver)
		return service.Noop{}, nil
	}
}
