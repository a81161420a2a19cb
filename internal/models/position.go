package models

import "time"

// OrderID is the exchange order identifier. Empty means the leg was never accepted.
type OrderID string

func (id OrderID) Empty() bool { return id == "" }

// Position is an open bracketed trade. One per symbol.
type Position struct {
	Symbol            string    `json:"symbol"`
	Side              Side      `json:"side"`
	Quantity          float64   `json:"quantity"`
	EntryPrice        float64   `json:"entry_price"`
	StopPrice         float64   `json:"stop_price"`
	TakeProfitPrice   float64   `json:"take_profit_price"`
	EntryOrderID      OrderID   `json:"entry_order_id"`
	StopOrderID       OrderID   `json:"stop_order_id"`
	TakeProfitOrderID OrderID   `json:"take_profit_order_id"`
	OpenedAt          time.Time `json:"opened_at"`
}

// Protected reports whether both protective legs were accepted.
func (p Position) Protected() bool {
	return !p.StopOrderID.Empty() && !p.TakeProfitOrderID.Empty()
}

type CloseReason string

const (
	CloseByStop       CloseReason = "stop_loss"
	CloseByTakeProfit CloseReason = "take_profit"
)

// CooldownEntry blocks a symbol from scanning until Until.
type CooldownEntry struct {
	Symbol string
	Until  time.Time
}
