package service

import (
	"context"

	"github.com/adshao/go-binance/v2/futures"

	"reversion_bot/internal/models"
)

// ExchangeInstruments lists every perpetual contract with its step and tick sizes.
func (c *Client) ExchangeInstruments(ctx context.Context) ([]models.Instrument, error) {
	var info *futures.ExchangeInfo
	err := c.call(ctx, "exchange_info", func(ctx context.Context) (err error) {
		info, err = c.api.NewExchangeInfoService().Do(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	out := make([]models.Instrument, 0, len(info.Symbols))
	for _, s := range info.Symbols {
		if s.ContractType != "" && s.ContractType != futures.ContractTypePerpetual {
			continue
		}
		inst := models.Instrument{
			Symbol:     s.Symbol,
			QuoteAsset: s.QuoteAsset,
			Status:     s.Status,
		}
		if lot := s.LotSizeFilter(); lot != nil {
			inst.StepSize = parseFloat(lot.StepSize)
		}
		if pf := s.PriceFilter(); pf != nil {
			inst.TickSize = parseFloat(pf.TickSize)
		}
		out = append(out, inst)
	}
	c.remember(out)
	return out, nil
}
