package helper

import (
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	QtyFallbackDecimals   = 3
	PriceFallbackDecimals = 6
)

// StepDecimals derives the number of decimals from an exchange step or tick size.
// Non-positive steps fall back to the given precision. Non power-of-ten steps
// such as 0.05 keep their own precision.
func StepDecimals(step float64, fallback int) int32 {
	if step <= 0 || math.IsNaN(step) || math.IsInf(step, 0) {
		return int32(fallback)
	}
	d := int32(math.Round(-math.Log10(step)))
	if exp := -decimal.NewFromFloat(step).Exponent(); exp > d {
		d = exp
	}
	if d < 0 {
		return 0
	}
	return d
}

// RoundQty truncates qty down to a multiple of step. Never rounds up.
func RoundQty(qty, step float64) float64 {
	if qty <= 0 {
		return 0
	}
	places := StepDecimals(step, QtyFallbackDecimals)
	q := decimal.NewFromFloat(qty)
	if step > 0 {
		s := decimal.NewFromFloat(step)
		q = q.Div(s).Floor().Mul(s)
	}
	out, _ := q.Truncate(places).Float64()
	return out
}

// RoundPrice rounds px to the nearest multiple of tick, half away from zero.
func RoundPrice(px, tick float64) float64 {
	places := StepDecimals(tick, PriceFallbackDecimals)
	p := decimal.NewFromFloat(px)
	if tick > 0 {
		t := decimal.NewFromFloat(tick)
		p = p.Div(t).Round(0).Mul(t)
	}
	out, _ := p.Round(places).Float64()
	return out
}

// FormatDecimal renders v with the precision implied by step, as exchanges expect.
func FormatDecimal(v, step float64, fallback int) string {
	return decimal.NewFromFloat(v).StringFixed(StepDecimals(step, fallback))
}

// NormInterval normalizes kline interval spellings.
func NormInterval(raw string) string {
	s := strings.TrimSpace(strings.ToLower(raw))
	s = strings.TrimPrefix(s, "kline_")
	switch s {
	case "60m", "1h":
		return "1h"
	case "240m", "4h":
		return "4h"
	default:
		return s
	}
}

// IntervalDuration returns the bar length of a kline interval, or 0 if unknown.
func IntervalDuration(interval string) time.Duration {
	switch NormInterval(interval) {
	case "1m":
		return time.Minute
	case "3m":
		return 3 * time.Minute
	case "5m":
		return 5 * time.Minute
	case "15m":
		return 15 * time.Minute
	case "30m":
		return 30 * time.Minute
	case "1h":
		return time.Hour
	case "2h":
		return 2 * time.Hour
	case "4h":
		return 4 * time.Hour
	case "1d":
		return 24 * time.Hour
	default:
		return 0
	}
}

// Tradable reports whether symbol is quoted in quote and not denylisted.
func Tradable(symbol, quote string, excluded map[string]struct{}) bool {
	symbol = strings.ToUpper(symbol)
	if !strings.HasSuffix(symbol, strings.ToUpper(quote)) || len(symbol) == len(quote) {
		return false
	}
	_, skip := excluded[symbol]
	return !skip
}
