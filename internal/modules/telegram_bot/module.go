package telegram

import (
	"context"

	"go.uber.org/fx"

	"reversion_bot/internal/modules/telegram_bot/service"
	"reversion_bot/internal/runner"
)

func Module() fx.Option {
	return fx.Module("telegram",
		fx.Provide(
			service.NewTelegram,
			func(t *service.Telegram) runner.Notifier { return t },
			func(t *service.Telegram) runner.CommandRegistry { return t },
		),
		fx.Invoke(
			func(lc fx.Lifecycle, t *service.Telegram) {
				lc.Append(fx.Hook{
					OnStart: func(ctx context.Context) error {
						// ctx only lives for the start phase
						t.Start(context.Background())
						return nil
					},
					OnStop: func(ctx context.Context) error {
						t.Stop()
						return nil
					},
				})
			},
		),
	)
}
