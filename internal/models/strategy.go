package models

import "time"

type Side string

const (
	SideNone  Side = ""
	SideLong  Side = "LONG"
	SideShort Side = "SHORT"
)

// Opposite returns the closing side.
func (s Side) Opposite() Side {
	switch s {
	case SideLong:
		return SideShort
	case SideShort:
		return SideLong
	default:
		return SideNone
	}
}

// Signal is produced and consumed inside one scan iteration, never persisted on its own.
type Signal struct {
	Symbol          string
	Interval        string
	Side            Side
	EntryPrice      float64
	StopPrice       float64
	TakeProfitPrice float64

	// indicator readings at the signal bar, kept for alerts and the journal
	RSI       float64
	UpperBand float64
	LowerBand float64
	At        time.Time
}
