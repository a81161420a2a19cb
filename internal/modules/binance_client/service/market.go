package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/adshao/go-binance/v2/futures"

	"reversion_bot/internal/helper"
	"reversion_bot/internal/models"
)

const maxKlinesLimit = 1500

// Candles returns the latest limit bars, oldest first. The last bar may still be forming.
func (c *Client) Candles(ctx context.Context, symbol, interval string, limit int) ([]models.Candle, error) {
	if limit <= 0 || limit > maxKlinesLimit {
		return nil, fmt.Errorf("klines %s: limit %d out of range", symbol, limit)
	}
	var klines []*futures.Kline
	err := c.call(ctx, "klines", func(ctx context.Context) (err error) {
		klines, err = c.api.NewKlinesService().
			Symbol(symbol).
			Interval(helper.NormInterval(interval)).
			Limit(limit).
			Do(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return toCandles(klines), nil
}

// Ticker returns the 24h statistics for symbol.
func (c *Client) Ticker(ctx context.Context, symbol string) (models.Ticker, error) {
	var stats []*futures.PriceChangeStats
	err := c.call(ctx, "ticker", func(ctx context.Context) (err error) {
		stats, err = c.api.NewListPriceChangeStatsService().Symbol(symbol).Do(ctx)
		return err
	})
	if err != nil {
		return models.Ticker{}, err
	}
	for _, s := range stats {
		if s != nil && strings.EqualFold(s.Symbol, symbol) {
			return toTicker(s), nil
		}
	}
	return models.Ticker{}, fmt.Errorf("ticker %s: not found", symbol)
}

// Tickers returns the 24h statistics of every contract in one request.
func (c *Client) Tickers(ctx context.Context) ([]models.Ticker, error) {
	var stats []*futures.PriceChangeStats
	err := c.call(ctx, "tickers", func(ctx context.Context) (err error) {
		stats, err = c.api.NewListPriceChangeStatsService().Do(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	out := make([]models.Ticker, 0, len(stats))
	for _, s := range stats {
		if s != nil {
			out = append(out, toTicker(s))
		}
	}
	return out, nil
}

// FundingRate returns the last funding rate. ok is false when the venue reports none.
func (c *Client) FundingRate(ctx context.Context, symbol string) (float64, bool, error) {
	var res []*futures.PremiumIndex
	err := c.call(ctx, "premium_index", func(ctx context.Context) (err error) {
		res, err = c.api.NewPremiumIndexService().Symbol(symbol).Do(ctx)
		return err
	})
	if err != nil {
		return 0, false, err
	}
	for _, entry := range res {
		if entry == nil || !strings.EqualFold(entry.Symbol, symbol) {
			continue
		}
		return parseOptional(entry.LastFundingRate)
	}
	return 0, false, nil
}
