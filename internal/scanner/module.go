package scanner

import (
	"context"
	"errors"

	"go.uber.org/fx"

	clientsvc "reversion_bot/internal/modules/binance_client/service"
	"reversion_bot/internal/modules/config"
	"reversion_bot/internal/runner"
	"reversion_bot/pkg/logger"
)

func Module() fx.Option {
	return fx.Module("scanner",
		fx.Provide(
			func(cfg *config.Config, u runner.Universe, c runner.CandleSource, client *clientsvc.Client, n runner.Notifier) *Scanner {
				return New(Params{
					Config:   cfg,
					Universe: u,
					Candles:  c,
					Tickers:  client,
					Notifier: n,
				})
			},
		),
		fx.Invoke(func(lc fx.Lifecycle, s *Scanner) {
			runCtx, cancel := context.WithCancel(context.Background())
			done := make(chan struct{})
			lc.Append(fx.Hook{
				OnStart: func(context.Context) error {
					go func() {
						defer close(done)
						if err := s.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
							logger.Error("[SCANNER] stopped: %v", err)
						}
					}()
					logger.Info("[SCANNER] started, %d timeframes", len(s.timeframes))
					return nil
				},
				OnStop: func(ctx context.Context) error {
					cancel()
					select {
					case <-done:
					case <-ctx.Done():
					}
					return nil
				},
			})
		}),
	)
}
