package service

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/adshao/go-binance/v2/common"
	"github.com/adshao/go-binance/v2/futures"

	"reversion_bot/internal/models"
)

// codeUnknownOrder is returned when cancelling an order that is filled, cancelled or never existed.
const codeUnknownOrder = -2011

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// parseOptional distinguishes an empty field from a zero value.
func parseOptional(s string) (float64, bool, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, fmt.Errorf("parse %q: %w", s, err)
	}
	return v, true, nil
}

func toCandles(klines []*futures.Kline) []models.Candle {
	out := make([]models.Candle, 0, len(klines))
	for _, k := range klines {
		if k == nil {
			continue
		}
		out = append(out, models.Candle{
			OpenTime: time.UnixMilli(k.OpenTime).UTC(),
			Open:     parseFloat(k.Open),
			High:     parseFloat(k.High),
			Low:      parseFloat(k.Low),
			Close:    parseFloat(k.Close),
			Volume:   parseFloat(k.Volume),
		})
	}
	return out
}

func toTicker(s *futures.PriceChangeStats) models.Ticker {
	return models.Ticker{
		Symbol:      s.Symbol,
		LastPrice:   parseFloat(s.LastPrice),
		HighPrice:   parseFloat(s.HighPrice),
		LowPrice:    parseFloat(s.LowPrice),
		QuoteVolume: parseFloat(s.QuoteVolume),
	}
}

func toStatus(s futures.OrderStatusType) models.OrderStatus {
	switch s {
	case futures.OrderStatusTypeNew:
		return models.OrderStatusNew
	case futures.OrderStatusTypePartiallyFilled:
		return models.OrderStatusPartiallyFilled
	case futures.OrderStatusTypeFilled:
		return models.OrderStatusFilled
	case futures.OrderStatusTypeCanceled:
		return models.OrderStatusCanceled
	case futures.OrderStatusTypeExpired:
		return models.OrderStatusExpired
	case futures.OrderStatusTypeRejected:
		return models.OrderStatusRejected
	default:
		return models.OrderStatusUnknown
	}
}

func hasExposure(risks []*futures.PositionRisk, symbol string) bool {
	for _, r := range risks {
		if r == nil || !strings.EqualFold(r.Symbol, symbol) {
			continue
		}
		if parseFloat(r.PositionAmt) != 0 {
			return true
		}
	}
	return false
}

func formatOrderID(id int64) models.OrderID {
	if id == 0 {
		return ""
	}
	return models.OrderID(strconv.FormatInt(id, 10))
}

func parseOrderID(id models.OrderID) (int64, error) {
	v, err := strconv.ParseInt(string(id), 10, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("bad order id %q", id)
	}
	return v, nil
}

func isUnknownOrder(err error) bool {
	var apiErr *common.APIError
	return errors.As(err, &apiErr) && apiErr.Code == codeUnknownOrder
}
