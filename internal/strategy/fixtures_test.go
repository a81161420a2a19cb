package strategy

import (
	"time"

	"reversion_bot/internal/models"
)

var fixtureStart = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

func candlesFrom(closes []float64) []models.Candle {
	out := make([]models.Candle, len(closes))
	for i, c := range closes {
		out[i] = models.Candle{
			OpenTime: fixtureStart.Add(time.Duration(i) * 5 * time.Minute),
			Open:     c,
			High:     c + 0.1,
			Low:      c - 0.1,
			Close:    c,
			Volume:   1000,
		}
	}
	return out
}

// sellOffCloses: 40 bars chopping around 100, then a slide into a final flush.
// RSI ends near 22, the 3σ lower band near 96.22, the last close at 96.5.
func sellOffCloses() []float64 {
	closes := make([]float64, 0, 48)
	for i := 0; i < 40; i++ {
		c := 100.0
		if i%2 == 1 {
			c += 0.3
		}
		closes = append(closes, c)
	}
	for i := 0; i < 7; i++ {
		closes = append(closes, closes[len(closes)-1]-0.4)
	}
	return append(closes, closes[len(closes)-1]-1.0)
}

// longSetup has the last low at 95.5, through the lower band.
func longSetup() []models.Candle {
	candles := candlesFrom(sellOffCloses())
	candles[len(candles)-1].Low = 95.5
	return candles
}

// shortSetup mirrors longSetup around 100: RSI near 78, upper band near 103.78.
func shortSetup() []models.Candle {
	src := sellOffCloses()
	closes := make([]float64, len(src))
	for i, c := range src {
		closes[i] = 200 - c
	}
	candles := candlesFrom(closes)
	candles[len(candles)-1].High = 104.5
	return candles
}

func testInstrument() models.Instrument {
	return models.Instrument{Symbol: "XYZUSDT", QuoteAsset: "USDT", StepSize: 0.001, TickSize: 0.01}
}

func referenceParams() Params {
	return Params{
		Interval:           "5m",
		BollingerPeriod:    20,
		BollingerDeviation: 3.0,
		RSIPeriod:          14,
		Oversold:           30,
		Overbought:         70,
		EntryOffsetPct:     0.01,
		StopLossPct:        0.02,
		TakeProfitPct:      0.03,
	}
}
