package models

import "time"

// Candle is one OHLCV bar. Series are ordered oldest first.
type Candle struct {
	OpenTime time.Time
	Open     float64
	High     float64
	Low      float64
	Close    float64
	Volume   float64
}

// Ticker is a 24h snapshot.
type Ticker struct {
	Symbol      string
	LastPrice   float64
	HighPrice   float64
	LowPrice    float64
	QuoteVolume float64
}

func Closes(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}
