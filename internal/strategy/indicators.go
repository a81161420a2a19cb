package strategy

import (
	"github.com/markcheno/go-talib"
)

// RSI returns Wilder's RSI aligned with closes; the first period values are zero.
// A series with no price change at all reads 50.
func RSI(closes []float64, period int) []float64 {
	if period < 2 || len(closes) <= period {
		return nil
	}
	out := talib.Rsi(closes, period)

	flat := true
	for i := 1; i < len(closes); i++ {
		if closes[i] != closes[i-1] {
			flat = false
		}
		if flat && i >= period {
			out[i] = 50
		}
	}
	return out
}

// Bands holds Bollinger envelopes aligned with closes.
type Bands struct {
	Upper  []float64
	Middle []float64
	Lower  []float64
}

// Bollinger computes SMA(period) ± k population standard deviations.
func Bollinger(closes []float64, period int, k float64) (Bands, bool) {
	if period < 2 || len(closes) < period {
		return Bands{}, false
	}
	upper, middle, lower := talib.BBands(closes, period, k, k, talib.SMA)
	return Bands{Upper: upper, Middle: middle, Lower: lower}, true
}
