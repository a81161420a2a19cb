package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reversion_bot/internal/models"
	"reversion_bot/internal/modules/config"
)

type sourceStub struct {
	list  []models.Instrument
	err   error
	calls int
}

func (s *sourceStub) ExchangeInstruments(context.Context) ([]models.Instrument, error) {
	s.calls++
	return s.list, s.err
}

func inst(symbol, quote, status string) models.Instrument {
	return models.Instrument{Symbol: symbol, QuoteAsset: quote, Status: status, StepSize: 0.001, TickSize: 0.01}
}

func symbols(list []models.Instrument) []string {
	out := make([]string, len(list))
	for i, inst := range list {
		out[i] = inst.Symbol
	}
	return out
}

func TestUniverseFilters(t *testing.T) {
	cfg := config.Default()
	src := &sourceStub{list: []models.Instrument{
		inst("XYZUSDT", "USDT", models.InstrumentTrading),
		inst("BTCUSDT", "USDT", models.InstrumentTrading),
		inst("ABCUSDT", "USDT", models.InstrumentTrading),
		inst("XYZUSDC", "USDC", models.InstrumentTrading),
		inst("OLDUSDT", "USDT", "SETTLING"),
	}}
	u := NewUniverse(&cfg, src)

	list, err := u.Instruments(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"ABCUSDT", "XYZUSDT"}, symbols(list))
	assert.False(t, u.LoadedAt().IsZero())

	_, err = u.Instruments(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, src.calls)
}

func TestUniverseKeepsListWhenRefreshFails(t *testing.T) {
	cfg := config.Default()
	src := &sourceStub{list: []models.Instrument{inst("XYZUSDT", "USDT", models.InstrumentTrading)}}
	u := NewUniverse(&cfg, src)
	require.NoError(t, u.Refresh(context.Background()))

	src.err = errors.New("http 502")
	assert.Error(t, u.Refresh(context.Background()))

	list, err := u.Instruments(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"XYZUSDT"}, symbols(list))
}

func TestUniverseFirstLoadError(t *testing.T) {
	cfg := config.Default()
	u := NewUniverse(&cfg, &sourceStub{err: errors.New("http 418")})

	_, err := u.Instruments(context.Background())
	assert.Error(t, err)
}
