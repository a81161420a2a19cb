package binance_client

import (
	"go.uber.org/fx"

	"reversion_bot/internal/modules/binance_client/service"
	"reversion_bot/internal/runner"
	"reversion_bot/internal/strategy"
)

// Module provides the futures REST client and the views the trading loop depends on.
func Module() fx.Option {
	return fx.Module("binance_client",
		fx.Provide(
			service.NewClient,
			func(c *service.Client) strategy.MarketGate { return c },
			func(c *service.Client) runner.OrderGateway { return c },
			func(c *service.Client) runner.Account { return c },
		),
	)
}
