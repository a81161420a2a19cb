package main

import (
	"context"

	"go.uber.org/fx"

	"reversion_bot/internal/modules/binance_client"
	"reversion_bot/internal/modules/binance_websocket"
	"reversion_bot/internal/modules/config"
	"reversion_bot/internal/modules/instruments"
	telegram "reversion_bot/internal/modules/telegram_bot"
	"reversion_bot/internal/scanner"
	"reversion_bot/pkg/logger"
)

// scanner is the notify-only variant: same detector, alerts only, no orders.
func main() {
	app := fx.New(
		config.Module(),
		fx.Module("observability", fx.Invoke(func(lc fx.Lifecycle, cfg *config.Config) error {
			logger.SetServiceName("reversion_scanner")
			if err := logger.Init(cfg.LogLevel); err != nil {
				return err
			}
			lc.Append(fx.Hook{OnStop: func(context.Context) error {
				logger.Sync()
				return nil
			}})
			return nil
		})),
		binance_client.Module(),
		instruments.Module(),
		binance_websocket.Module(),
		telegram.Module(),
		scanner.Module(),
	)
	app.Run()
}
