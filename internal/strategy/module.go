package strategy

import (
	"go.uber.org/fx"

	"reversion_bot/internal/modules/config"
)

func Module() fx.Option {
	return fx.Module("strategy",
		fx.Provide(
			func(cfg *config.Config) *Detector {
				return NewDetector(ParamsFromConfig(cfg))
			},
			NewEvaluator, // needs MarketGate and PositionBook
		),
	)
}
