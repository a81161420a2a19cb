package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/adshao/go-binance/v2/common"
	"github.com/adshao/go-binance/v2/futures"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reversion_bot/internal/models"
)

func TestToCandles(t *testing.T) {
	open := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	candles := toCandles([]*futures.Kline{
		{OpenTime: open.UnixMilli(), Open: "96.10", High: "96.40", Low: "95.50", Close: "96.20", Volume: "1234.5"},
		nil,
		{OpenTime: open.Add(5 * time.Minute).UnixMilli(), Open: "96.2", High: "96.3", Low: "96.0", Close: "bad", Volume: ""},
	})

	require.Len(t, candles, 2)
	assert.Equal(t, models.Candle{OpenTime: open, Open: 96.1, High: 96.4, Low: 95.5, Close: 96.2, Volume: 1234.5}, candles[0])
	assert.Zero(t, candles[1].Close)
	assert.Equal(t, open.Add(5*time.Minute), candles[1].OpenTime)
}

func TestToStatus(t *testing.T) {
	cases := map[futures.OrderStatusType]models.OrderStatus{
		futures.OrderStatusTypeNew:             models.OrderStatusNew,
		futures.OrderStatusTypePartiallyFilled: models.OrderStatusPartiallyFilled,
		futures.OrderStatusTypeFilled:          models.OrderStatusFilled,
		futures.OrderStatusTypeCanceled:        models.OrderStatusCanceled,
		futures.OrderStatusTypeExpired:         models.OrderStatusExpired,
		futures.OrderStatusTypeRejected:        models.OrderStatusRejected,
		"EXPIRED_IN_MATCH":                     models.OrderStatusUnknown,
	}
	for in, want := range cases {
		assert.Equal(t, want, toStatus(in), in)
	}
}

func TestParseOptional(t *testing.T) {
	v, ok, err := parseOptional("0.00010000")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 0.0001, v)

	_, ok, err = parseOptional(" ")
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = parseOptional("n/a")
	assert.Error(t, err)
}

func TestHasExposure(t *testing.T) {
	risks := []*futures.PositionRisk{
		{Symbol: "XYZUSDT", PositionSide: "LONG", PositionAmt: "0.000"},
		{Symbol: "XYZUSDT", PositionSide: "SHORT", PositionAmt: "-3.5"},
		{Symbol: "ABCUSDT", PositionSide: "LONG", PositionAmt: "1"},
	}
	assert.True(t, hasExposure(risks, "XYZUSDT"))
	assert.False(t, hasExposure(risks[:1], "XYZUSDT"))
	assert.False(t, hasExposure(risks, "DEFUSDT"))
}

func TestOrderIDRoundTrip(t *testing.T) {
	id := formatOrderID(8389765591234567)
	assert.Equal(t, models.OrderID("8389765591234567"), id)

	v, err := parseOrderID(id)
	require.NoError(t, err)
	assert.EqualValues(t, 8389765591234567, v)

	assert.True(t, formatOrderID(0).Empty())
	_, err = parseOrderID("")
	assert.Error(t, err)
	_, err = parseOrderID("en-abc")
	assert.Error(t, err)
}

func TestIsUnknownOrder(t *testing.T) {
	apiErr := &common.APIError{Code: codeUnknownOrder, Message: "Unknown order sent."}
	assert.True(t, isUnknownOrder(fmt.Errorf("cancel_order: %w", apiErr)))
	assert.False(t, isUnknownOrder(&common.APIError{Code: -1021, Message: "Timestamp outside recvWindow"}))
	assert.False(t, isUnknownOrder(nil))
}
