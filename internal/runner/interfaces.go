package runner

import (
	"context"
	"time"

	"reversion_bot/internal/models"
)

// Universe lists the instruments to scan this cycle.
type Universe interface {
	Instruments(ctx context.Context) ([]models.Instrument, error)
}

type CandleSource interface {
	Candles(ctx context.Context, symbol, interval string, limit int) ([]models.Candle, error)
}

type Account interface {
	// Balance is the quote-asset futures wallet balance.
	Balance(ctx context.Context) (float64, error)
}

type OrderGateway interface {
	PlaceOrder(ctx context.Context, req models.OrderRequest) (models.OrderID, error)
	OrderStatus(ctx context.Context, symbol string, id models.OrderID) (models.OrderStatus, error)
	CancelOrder(ctx context.Context, symbol string, id models.OrderID) error
}

type SignalEvaluator interface {
	Evaluate(ctx context.Context, inst models.Instrument, candles []models.Candle) (models.Signal, error)
}

// Notifier is best effort; its errors are logged and never abort the loop.
type Notifier interface {
	Send(ctx context.Context, msg string) error
	Alert(ctx context.Context, msg string) error
}

// Journal persists the trade history and the state needed to resume after restart.
type Journal interface {
	RecordOpen(ctx context.Context, pos models.Position, sig models.Signal) error
	RecordClose(ctx context.Context, pos models.Position, reason models.CloseReason, at time.Time) error
	RecordIncident(ctx context.Context, inc models.Incident) error
	SaveCooldown(ctx context.Context, entry models.CooldownEntry) error
	LoadOpen(ctx context.Context) ([]models.Position, error)
	LoadCooldowns(ctx context.Context, now time.Time) ([]models.CooldownEntry, error)
}

// Heartbeat receives liveness from the scan loop.
type Heartbeat interface {
	SetReady(v bool)
	TouchCycle(t time.Time)
}

// CommandRegistry accepts chat commands answered with plain text.
type CommandRegistry interface {
	RegisterCommand(name string, handler func(ctx context.Context) string)
}

type Clock func() time.Time
