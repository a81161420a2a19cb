package service

import (
	"context"
	"fmt"

	"github.com/adshao/go-binance/v2/futures"

	"reversion_bot/internal/helper"
	"reversion_bot/internal/models"
)

// PlaceOrder submits req and returns the exchange order id.
func (c *Client) PlaceOrder(ctx context.Context, req models.OrderRequest) (models.OrderID, error) {
	if req.Quantity <= 0 {
		return "", fmt.Errorf("place %s %s: quantity %g", req.Symbol, req.Type, req.Quantity)
	}
	inst := c.instrument(req.Symbol)

	svc := c.api.NewCreateOrderService().
		Symbol(req.Symbol).
		Side(futures.SideType(req.Side)).
		PositionSide(futures.PositionSideType(req.PositionSide)).
		Type(futures.OrderType(req.Type)).
		Quantity(helper.FormatDecimal(req.Quantity, inst.StepSize, helper.QtyFallbackDecimals))
	if req.ClientOrderID != "" {
		svc = svc.NewClientOrderID(req.ClientOrderID)
	}

	switch req.Type {
	case models.OrderTypeLimit:
		svc = svc.
			TimeInForce(futures.TimeInForceTypeGTC).
			Price(helper.FormatDecimal(req.Price, inst.TickSize, helper.PriceFallbackDecimals))
	case models.OrderTypeStopMarket, models.OrderTypeTakeProfitMarket:
		svc = svc.StopPrice(helper.FormatDecimal(req.StopPrice, inst.TickSize, helper.PriceFallbackDecimals))
	default:
		return "", fmt.Errorf("place %s: unsupported order type %q", req.Symbol, req.Type)
	}
	if req.ReduceOnly {
		svc = svc.ReduceOnly(true)
	}

	var res *futures.CreateOrderResponse
	err := c.call(ctx, "create_order", func(ctx context.Context) (err error) {
		res, err = svc.Do(ctx)
		return err
	})
	if err != nil {
		return "", err
	}
	return formatOrderID(res.OrderID), nil
}

// OrderStatus queries one order. Statuses outside the known set map to OrderStatusUnknown.
func (c *Client) OrderStatus(ctx context.Context, symbol string, id models.OrderID) (models.OrderStatus, error) {
	orderID, err := parseOrderID(id)
	if err != nil {
		return models.OrderStatusUnknown, err
	}
	var order *futures.Order
	err = c.call(ctx, "get_order", func(ctx context.Context) (err error) {
		order, err = c.api.NewGetOrderService().Symbol(symbol).OrderID(orderID).Do(ctx)
		return err
	})
	if err != nil {
		return models.OrderStatusUnknown, err
	}
	return toStatus(order.Status), nil
}

// CancelOrder cancels one order. An order that is already gone is not an error.
func (c *Client) CancelOrder(ctx context.Context, symbol string, id models.OrderID) error {
	orderID, err := parseOrderID(id)
	if err != nil {
		return err
	}
	err = c.call(ctx, "cancel_order", func(ctx context.Context) error {
		_, err := c.api.NewCancelOrderService().Symbol(symbol).OrderID(orderID).Do(ctx)
		return err
	})
	if isUnknownOrder(err) {
		return nil
	}
	return err
}
