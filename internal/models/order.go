package models

type OrderSide string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

type OrderType string

const (
	OrderTypeLimit            OrderType = "LIMIT"
	OrderTypeStopMarket       OrderType = "STOP_MARKET"
	OrderTypeTakeProfitMarket OrderType = "TAKE_PROFIT_MARKET"
)

type PositionSide string

const (
	PositionSideBoth  PositionSide = "BOTH"
	PositionSideLong  PositionSide = "LONG"
	PositionSideShort PositionSide = "SHORT"
)

type OrderStatus string

const (
	OrderStatusNew             OrderStatus = "NEW"
	OrderStatusPartiallyFilled OrderStatus = "PARTIALLY_FILLED"
	OrderStatusFilled          OrderStatus = "FILLED"
	OrderStatusCanceled        OrderStatus = "CANCELED"
	OrderStatusExpired         OrderStatus = "EXPIRED"
	OrderStatusRejected        OrderStatus = "REJECTED"
	OrderStatusUnknown         OrderStatus = ""
)

// OrderRequest is a single order submission. Price is used by LIMIT, StopPrice by trigger orders.
type OrderRequest struct {
	Symbol        string
	Side          OrderSide
	Type          OrderType
	PositionSide  PositionSide
	Quantity      float64
	Price         float64
	StopPrice     float64
	ReduceOnly    bool
	ClientOrderID string
}

// EntrySide maps a trade direction to the order side that opens it.
func EntrySide(s Side) OrderSide {
	if s == SideShort {
		return OrderSideSell
	}
	return OrderSideBuy
}

// HedgeSide maps a trade direction to the hedge-mode position side.
func HedgeSide(s Side) PositionSide {
	if s == SideShort {
		return PositionSideShort
	}
	return PositionSideLong
}
