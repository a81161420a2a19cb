package instruments

import (
	"context"

	"github.com/robfig/cron/v3"
	"go.uber.org/fx"

	clientsvc "reversion_bot/internal/modules/binance_client/service"
	"reversion_bot/internal/modules/config"
	"reversion_bot/internal/modules/instruments/service"
	"reversion_bot/internal/runner"
	"reversion_bot/pkg/logger"
)

// Module provides the tradable universe and refreshes it on trading.instruments_refresh.
func Module() fx.Option {
	return fx.Module("instruments",
		fx.Provide(
			func(cfg *config.Config, c *clientsvc.Client) *service.Universe {
				return service.NewUniverse(cfg, c)
			},
			func(u *service.Universe) runner.Universe { return u },
		),
		fx.Invoke(func(lc fx.Lifecycle, cfg *config.Config, u *service.Universe) error {
			if cfg.Trading.InstrumentsRefresh == "" {
				return nil
			}
			c := cron.New()
			_, err := c.AddFunc(cfg.Trading.InstrumentsRefresh, func() {
				ctx, cancel := context.WithTimeout(context.Background(), cfg.Binance.CallTimeout)
				defer cancel()
				if err := u.Refresh(ctx); err != nil {
					logger.Warn("[UNIVERSE] %v", err)
				}
			})
			if err != nil {
				return err
			}
			lc.Append(fx.Hook{
				OnStart: func(context.Context) error {
					c.Start()
					return nil
				},
				OnStop: func(ctx context.Context) error {
					select {
					case <-c.Stop().Done():
					case <-ctx.Done():
					}
					return nil
				},
			})
			return nil
		}),
	)
}
