package service

import (
	"context"
	"fmt"

	"github.com/adshao/go-binance/v2/futures"
)

// Balance returns the wallet balance of the quote asset.
func (c *Client) Balance(ctx context.Context) (float64, error) {
	var balances []*futures.Balance
	err := c.call(ctx, "balance", func(ctx context.Context) (err error) {
		balances, err = c.api.NewGetBalanceService().Do(ctx)
		return err
	})
	if err != nil {
		return 0, err
	}
	for _, b := range balances {
		if b != nil && b.Asset == c.quote {
			return parseFloat(b.Balance), nil
		}
	}
	return 0, fmt.Errorf("balance: no %s asset", c.quote)
}

// IsPositionOpen reports a non-zero position amount on either side.
func (c *Client) IsPositionOpen(ctx context.Context, symbol string) (bool, error) {
	var risks []*futures.PositionRisk
	err := c.call(ctx, "position_risk", func(ctx context.Context) (err error) {
		risks, err = c.api.NewGetPositionRiskService().Symbol(symbol).Do(ctx)
		return err
	})
	if err != nil {
		return false, err
	}
	return hasExposure(risks, symbol), nil
}
