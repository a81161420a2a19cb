package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reversion_bot/internal/helper"
	"reversion_bot/internal/models"
)

func TestDetectLong(t *testing.T) {
	d := NewDetector(referenceParams())

	sig, r, ok := d.Detect(testInstrument(), longSetup())
	require.True(t, ok, r.String())

	assert.Equal(t, models.SideLong, sig.Side)
	assert.Equal(t, "XYZUSDT", sig.Symbol)
	assert.Less(t, sig.RSI, 30.0)
	assert.InDelta(t, 22.31, sig.RSI, 0.05)
	assert.Equal(t, helper.RoundPrice(r.Lower*0.99, 0.01), sig.EntryPrice)
	assert.InDelta(t, 95.26, sig.EntryPrice, 1e-9)
	assert.InDelta(t, 93.35, sig.StopPrice, 1e-9)
	assert.InDelta(t, 98.12, sig.TakeProfitPrice, 1e-9)
	assert.Less(t, sig.StopPrice, sig.EntryPrice)
	assert.Greater(t, sig.TakeProfitPrice, sig.EntryPrice)
}

func TestDetectShort(t *testing.T) {
	d := NewDetector(referenceParams())

	sig, r, ok := d.Detect(testInstrument(), shortSetup())
	require.True(t, ok, r.String())

	assert.Equal(t, models.SideShort, sig.Side)
	assert.Greater(t, sig.RSI, 70.0)
	assert.InDelta(t, 104.81, sig.EntryPrice, 1e-9)
	assert.InDelta(t, 106.91, sig.StopPrice, 1e-9)
	assert.InDelta(t, 101.67, sig.TakeProfitPrice, 1e-9)
}

func TestDetectNeedsBandTouch(t *testing.T) {
	d := NewDetector(referenceParams())

	// last low 96.4 stays above the 96.22 band even though RSI is oversold
	_, r, ok := d.Detect(testInstrument(), candlesFrom(sellOffCloses()))
	assert.False(t, ok)
	assert.Less(t, r.RSI, 30.0)
	assert.Greater(t, r.Low, r.Lower)
}

func TestDetectNeedsRSIConfirmation(t *testing.T) {
	p := referenceParams()
	p.Oversold = 20
	d := NewDetector(p)

	_, _, ok := d.Detect(testInstrument(), longSetup())
	assert.False(t, ok)
}

func TestDetectIgnoresSaturatedRSI(t *testing.T) {
	closes := make([]float64, 48)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	candles := candlesFrom(closes)
	candles[len(candles)-1].High = 200

	d := NewDetector(referenceParams())
	_, r, ok := d.Detect(testInstrument(), candles)
	assert.False(t, ok)
	assert.Equal(t, 100.0, r.RSI)
	assert.Greater(t, r.High, r.Upper)
}

func TestDetectShortWindow(t *testing.T) {
	d := NewDetector(referenceParams())
	_, _, ok := d.Detect(testInstrument(), longSetup()[:15])
	assert.False(t, ok)
}

func TestLevelsRoundToTick(t *testing.T) {
	stop, tp := Levels(models.SideLong, 100, 0.02, 0.03, 0.01)
	assert.Equal(t, 98.0, stop)
	assert.Equal(t, 103.0, tp)

	stop, tp = Levels(models.SideShort, 100, 0.02, 0.03, 0.01)
	assert.Equal(t, 102.0, stop)
	assert.Equal(t, 97.0, tp)
}
