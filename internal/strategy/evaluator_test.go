package strategy

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"reversion_bot/internal/models"
	"reversion_bot/internal/modules/config"
)

type gateMock struct {
	mock.Mock
}

func (m *gateMock) Ticker(ctx context.Context, symbol string) (models.Ticker, error) {
	args := m.Called(symbol)
	return args.Get(0).(models.Ticker), args.Error(1)
}

func (m *gateMock) FundingRate(ctx context.Context, symbol string) (float64, bool, error) {
	args := m.Called(symbol)
	return args.Get(0).(float64), args.Bool(1), args.Error(2)
}

func (m *gateMock) IsPositionOpen(ctx context.Context, symbol string) (bool, error) {
	args := m.Called(symbol)
	return args.Bool(0), args.Error(1)
}

type bookStub map[string]bool

func (b bookStub) Has(symbol string) bool { return b[symbol] }

func newTestEvaluator(t *testing.T, filter string, gate MarketGate, book PositionBook) *Evaluator {
	t.Helper()
	cfg := config.Default()
	cfg.Strategy.FundingFilter = filter
	return NewEvaluator(&cfg, NewDetector(referenceParams()), gate, book)
}

func liquidTicker() models.Ticker {
	return models.Ticker{Symbol: "XYZUSDT", LastPrice: 96.5, QuoteVolume: 200_000_000}
}

func TestEvaluateAcceptsLiquidLong(t *testing.T) {
	gate := new(gateMock)
	gate.On("Ticker", "XYZUSDT").Return(liquidTicker(), nil)
	gate.On("FundingRate", "XYZUSDT").Return(0.0001, true, nil)
	gate.On("IsPositionOpen", "XYZUSDT").Return(false, nil)

	sig, err := newTestEvaluator(t, config.FundingFilterBoth, gate, bookStub{}).
		Evaluate(context.Background(), testInstrument(), longSetup())
	require.NoError(t, err)
	assert.Equal(t, models.SideLong, sig.Side)
	gate.AssertExpectations(t)
}

func TestEvaluateNoSignalSkipsQueries(t *testing.T) {
	gate := new(gateMock)

	_, err := newTestEvaluator(t, config.FundingFilterBoth, gate, bookStub{}).
		Evaluate(context.Background(), testInstrument(), candlesFrom(sellOffCloses()))
	assert.ErrorIs(t, err, ErrNoSignal)
	assert.True(t, IsRejection(err))
	gate.AssertNotCalled(t, "Ticker", mock.Anything)
}

func TestEvaluateRejectsThinMarket(t *testing.T) {
	gate := new(gateMock)
	thin := liquidTicker()
	thin.QuoteVolume = 99_999_999
	gate.On("Ticker", "XYZUSDT").Return(thin, nil)

	_, err := newTestEvaluator(t, config.FundingFilterBoth, gate, bookStub{}).
		Evaluate(context.Background(), testInstrument(), longSetup())
	assert.ErrorIs(t, err, ErrLowLiquidity)
	gate.AssertNotCalled(t, "FundingRate", mock.Anything)
}

func TestEvaluateFundingFilter(t *testing.T) {
	cases := []struct {
		name    string
		filter  string
		candles []models.Candle
		reject  bool
	}{
		{"both rejects long", config.FundingFilterBoth, longSetup(), true},
		{"both rejects short", config.FundingFilterBoth, shortSetup(), true},
		{"long only rejects long", config.FundingFilterLongOnly, longSetup(), true},
		{"long only lets short through", config.FundingFilterLongOnly, shortSetup(), false},
		{"off", config.FundingFilterOff, longSetup(), false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			gate := new(gateMock)
			gate.On("Ticker", "XYZUSDT").Return(liquidTicker(), nil)
			gate.On("FundingRate", "XYZUSDT").Return(-0.0002, true, nil)
			gate.On("IsPositionOpen", "XYZUSDT").Return(false, nil)

			_, err := newTestEvaluator(t, c.filter, gate, bookStub{}).
				Evaluate(context.Background(), testInstrument(), c.candles)
			if c.reject {
				assert.ErrorIs(t, err, ErrNegativeFunding)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestEvaluateUnknownFundingDoesNotBlock(t *testing.T) {
	gate := new(gateMock)
	gate.On("Ticker", "XYZUSDT").Return(liquidTicker(), nil)
	gate.On("FundingRate", "XYZUSDT").Return(0.0, false, errors.New("timeout"))
	gate.On("IsPositionOpen", "XYZUSDT").Return(false, nil)

	_, err := newTestEvaluator(t, config.FundingFilterBoth, gate, bookStub{}).
		Evaluate(context.Background(), testInstrument(), longSetup())
	assert.NoError(t, err)
}

func TestEvaluateRejectsOpenPosition(t *testing.T) {
	t.Run("tracked locally", func(t *testing.T) {
		gate := new(gateMock)
		_, err := newTestEvaluator(t, config.FundingFilterBoth, gate, bookStub{"XYZUSDT": true}).
			Evaluate(context.Background(), testInstrument(), longSetup())
		assert.ErrorIs(t, err, ErrPositionOpen)
		gate.AssertNotCalled(t, "Ticker", mock.Anything)
	})

	t.Run("reported by exchange", func(t *testing.T) {
		gate := new(gateMock)
		gate.On("Ticker", "XYZUSDT").Return(liquidTicker(), nil)
		gate.On("FundingRate", "XYZUSDT").Return(0.0001, true, nil)
		gate.On("IsPositionOpen", "XYZUSDT").Return(true, nil)

		_, err := newTestEvaluator(t, config.FundingFilterBoth, gate, bookStub{}).
			Evaluate(context.Background(), testInstrument(), longSetup())
		assert.ErrorIs(t, err, ErrPositionOpen)
	})
}

func TestEvaluateFetchErrorIsNotRejection(t *testing.T) {
	gate := new(gateMock)
	gate.On("Ticker", "XYZUSDT").Return(models.Ticker{}, errors.New("502"))

	_, err := newTestEvaluator(t, config.FundingFilterBoth, gate, bookStub{}).
		Evaluate(context.Background(), testInstrument(), longSetup())
	require.Error(t, err)
	assert.False(t, IsRejection(err))
}
