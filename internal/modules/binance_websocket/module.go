package binance_websocket

import (
	"context"

	"go.uber.org/fx"

	clientsvc "reversion_bot/internal/modules/binance_client/service"
	"reversion_bot/internal/modules/binance_websocket/service"
	"reversion_bot/internal/modules/config"
	"reversion_bot/internal/runner"
	"reversion_bot/pkg/logger"
)

// Module provides the candle source of the trading loop. With trading.use_stream
// it warms a store over REST and keeps it current from the kline websocket.
func Module() fx.Option {
	return fx.Module("binance_websocket",
		fx.Provide(
			func(cfg *config.Config) *service.Store {
				return service.NewStore(cfg.Strategy.KlinesLimit * 2)
			},
			service.NewStream,
			func(cfg *config.Config, c *clientsvc.Client, store *service.Store) *service.Feed {
				return service.NewFeed(cfg, c, store)
			},
			func(f *service.Feed) runner.CandleSource { return f },
		),
		fx.Invoke(func(lc fx.Lifecycle, cfg *config.Config, universe runner.Universe, feed *service.Feed, stream *service.Stream) {
			if !cfg.Trading.UseStream {
				return
			}
			runCtx, cancel := context.WithCancel(context.Background())
			done := make(chan struct{})
			lc.Append(fx.Hook{
				OnStart: func(context.Context) error {
					go func() {
						defer close(done)
						instruments, err := universe.Instruments(runCtx)
						if err != nil {
							logger.Error("[WS] instruments: %v, stream not started", err)
							return
						}
						symbols := make([]string, 0, len(instruments))
						for _, inst := range instruments {
							symbols = append(symbols, inst.Symbol)
						}
						interval := cfg.Strategy.Interval
						feed.Subscribe(symbols, interval)
						if err := feed.Warmup(runCtx, symbols, interval, cfg.Strategy.KlinesLimit); err != nil {
							logger.Warn("[WS] %v", err)
						}
						stream.Run(runCtx, symbols, interval)
					}()
					return nil
				},
				OnStop: func(ctx context.Context) error {
					cancel()
					select {
					case <-done:
						hits, misses := feed.Stats()
						logger.Info("[WS] stopped, store hits=%d misses=%d", hits, misses)
					case <-ctx.Done():
					}
					return nil
				},
			})
		}),
	)
}
