package strategy

import (
	"context"
	"errors"
	"fmt"

	"reversion_bot/internal/models"
	"reversion_bot/internal/modules/config"
	"reversion_bot/pkg/logger"
)

var (
	ErrNoSignal        = errors.New("no signal")
	ErrLowLiquidity    = errors.New("quote volume below floor")
	ErrNegativeFunding = errors.New("funding rate rejected")
	ErrPositionOpen    = errors.New("position already open")
)

// IsRejection reports whether err is a normal "do not trade" outcome rather than a failure.
func IsRejection(err error) bool {
	return errors.Is(err, ErrNoSignal) ||
		errors.Is(err, ErrLowLiquidity) ||
		errors.Is(err, ErrNegativeFunding) ||
		errors.Is(err, ErrPositionOpen)
}

// MarketGate is the market data the gating rules need.
type MarketGate interface {
	Ticker(ctx context.Context, symbol string) (models.Ticker, error)
	// FundingRate returns ok=false when the venue has no rate for the symbol.
	FundingRate(ctx context.Context, symbol string) (rate float64, ok bool, err error)
	IsPositionOpen(ctx context.Context, symbol string) (bool, error)
}

// PositionBook answers whether a symbol is already tracked locally.
type PositionBook interface {
	Has(symbol string) bool
}

// Evaluator runs the detector and the trading gates. It never mutates positions.
type Evaluator struct {
	detector       *Detector
	gate           MarketGate
	book           PositionBook
	minQuoteVolume float64
	fundingFilter  string
}

func NewEvaluator(cfg *config.Config, detector *Detector, gate MarketGate, book PositionBook) *Evaluator {
	return &Evaluator{
		detector:       detector,
		gate:           gate,
		book:           book,
		minQuoteVolume: cfg.Strategy.MinQuoteVolume,
		fundingFilter:  cfg.Strategy.FundingFilter,
	}
}

// Evaluate returns an actionable signal, a rejection (see IsRejection) or a fetch error.
func (e *Evaluator) Evaluate(ctx context.Context, inst models.Instrument, candles []models.Candle) (models.Signal, error) {
	sig, reading, ok := e.detector.Detect(inst, candles)
	if !ok {
		return models.Signal{}, ErrNoSignal
	}
	logger.Info("[SIGNAL] %s %s entry=%.8g sl=%.8g tp=%.8g %s",
		inst.Symbol, sig.Side, sig.EntryPrice, sig.StopPrice, sig.TakeProfitPrice, reading)

	if e.book != nil && e.book.Has(inst.Symbol) {
		return sig, ErrPositionOpen
	}

	ticker, err := e.gate.Ticker(ctx, inst.Symbol)
	if err != nil {
		return sig, fmt.Errorf("ticker %s: %w", inst.Symbol, err)
	}
	if ticker.QuoteVolume < e.minQuoteVolume {
		return sig, fmt.Errorf("%w: %.0f < %.0f", ErrLowLiquidity, ticker.QuoteVolume, e.minQuoteVolume)
	}

	if err = e.checkFunding(ctx, sig); err != nil {
		return sig, err
	}

	open, err := e.gate.IsPositionOpen(ctx, inst.Symbol)
	if err != nil {
		return sig, fmt.Errorf("position risk %s: %w", inst.Symbol, err)
	}
	if open {
		return sig, fmt.Errorf("%w on exchange", ErrPositionOpen)
	}
	return sig, nil
}

func (e *Evaluator) checkFunding(ctx context.Context, sig models.Signal) error {
	if e.fundingFilter == config.FundingFilterOff {
		return nil
	}
	if e.fundingFilter == config.FundingFilterLongOnly && sig.Side != models.SideLong {
		return nil
	}
	rate, ok, err := e.gate.FundingRate(ctx, sig.Symbol)
	if err != nil {
		// an unknown rate does not block the trade
		logger.Warn("[FUNDING] %s: %v", sig.Symbol, err)
		return nil
	}
	if ok && rate < 0 {
		return fmt.Errorf("%w: %s rate=%.6f", ErrNegativeFunding, sig.Side, rate)
	}
	return nil
}
