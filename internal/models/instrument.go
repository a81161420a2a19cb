package models

// Instrument carries the exchange rules needed for rounding.
type Instrument struct {
	Symbol     string
	QuoteAsset string
	Status     string
	StepSize   float64
	TickSize   float64
}

const InstrumentTrading = "TRADING"
