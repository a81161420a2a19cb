package strategy

import (
	"fmt"

	"reversion_bot/internal/helper"
	"reversion_bot/internal/models"
	"reversion_bot/internal/modules/config"
)

type Params struct {
	Interval           string
	BollingerPeriod    int
	BollingerDeviation float64
	RSIPeriod          int
	Oversold           float64
	Overbought         float64
	EntryOffsetPct     float64
	StopLossPct        float64
	TakeProfitPct      float64
}

func ParamsFromConfig(cfg *config.Config) Params {
	s := cfg.Strategy
	return Params{
		Interval:           s.Interval,
		BollingerPeriod:    s.BollingerPeriod,
		BollingerDeviation: s.BollingerDeviation,
		RSIPeriod:          s.RSIPeriod,
		Oversold:           s.RSIOversold,
		Overbought:         s.RSIOverbought,
		EntryOffsetPct:     s.EntryOffsetPct,
		StopLossPct:        s.StopLossPct,
		TakeProfitPct:      s.TakeProfitPct,
	}
}

// Reading is the indicator state at the last bar.
type Reading struct {
	RSI    float64
	Upper  float64
	Middle float64
	Lower  float64
	High   float64
	Low    float64
	Close  float64
}

func (r Reading) String() string {
	return fmt.Sprintf("rsi=%.2f bb=[%.6g %.6g %.6g] hl=[%.6g %.6g]", r.RSI, r.Lower, r.Middle, r.Upper, r.Low, r.High)
}

// Detector is the pure band-touch + RSI rule. It holds no state.
type Detector struct {
	p Params
}

func NewDetector(p Params) *Detector {
	return &Detector{p: p}
}

func (d *Detector) Params() Params { return d.p }

// MinBars is the shortest series Read accepts.
func (d *Detector) MinBars() int {
	if d.p.RSIPeriod+1 > d.p.BollingerPeriod {
		return d.p.RSIPeriod + 1
	}
	return d.p.BollingerPeriod
}

// Read computes indicators at the last bar.
func (d *Detector) Read(candles []models.Candle) (Reading, bool) {
	if len(candles) < d.MinBars() {
		return Reading{}, false
	}
	closes := models.Closes(candles)
	rsi := RSI(closes, d.p.RSIPeriod)
	bands, ok := Bollinger(closes, d.p.BollingerPeriod, d.p.BollingerDeviation)
	if rsi == nil || !ok {
		return Reading{}, false
	}
	last := len(candles) - 1
	return Reading{
		RSI:    rsi[last],
		Upper:  bands.Upper[last],
		Middle: bands.Middle[last],
		Lower:  bands.Lower[last],
		High:   candles[last].High,
		Low:    candles[last].Low,
		Close:  candles[last].Close,
	}, true
}

// Detect returns a signal when the last bar pierces a band with RSI confirmation.
// Prices are rounded to the instrument tick.
func (d *Detector) Detect(inst models.Instrument, candles []models.Candle) (models.Signal, Reading, bool) {
	r, ok := d.Read(candles)
	if !ok {
		return models.Signal{}, r, false
	}
	// RSI pinned at 100 means no losses in the window, treated as warm-up noise
	if r.RSI >= 100 {
		return models.Signal{}, r, false
	}

	var side models.Side
	var entry float64
	switch {
	case r.Low <= r.Lower && r.RSI < d.p.Oversold:
		side = models.SideLong
		entry = r.Lower * (1 - d.p.EntryOffsetPct)
	case r.High >= r.Upper && r.RSI > d.p.Overbought:
		side = models.SideShort
		entry = r.Upper * (1 + d.p.EntryOffsetPct)
	default:
		return models.Signal{}, r, false
	}

	entry = helper.RoundPrice(entry, inst.TickSize)
	stop, tp := Levels(side, entry, d.p.StopLossPct, d.p.TakeProfitPct, inst.TickSize)
	return models.Signal{
		Symbol:          inst.Symbol,
		Interval:        d.p.Interval,
		Side:            side,
		EntryPrice:      entry,
		StopPrice:       stop,
		TakeProfitPrice: tp,
		RSI:             r.RSI,
		UpperBand:       r.Upper,
		LowerBand:       r.Lower,
		At:              candles[len(candles)-1].OpenTime,
	}, r, true
}

// Levels derives tick-rounded stop and take-profit prices from the entry.
func Levels(side models.Side, entry, stopPct, tpPct, tick float64) (stop, tp float64) {
	if side == models.SideShort {
		stop = entry * (1 + stopPct)
		tp = entry * (1 - tpPct)
	} else {
		stop = entry * (1 - stopPct)
		tp = entry * (1 + tpPct)
	}
	return helper.RoundPrice(stop, tick), helper.RoundPrice(tp, tick)
}
