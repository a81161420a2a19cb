package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"reversion_bot/internal/models"
)

// KlineEvent is one kline update from the combined stream.
type KlineEvent struct {
	Symbol   string
	Interval string
	Candle   models.Candle
	Closed   bool
}

// ParseKline decodes {"stream":"...","data":{"e":"kline","k":{...}}} frames.
func ParseKline(msg []byte) (KlineEvent, error) {
	if !gjson.ValidBytes(msg) {
		return KlineEvent{}, fmt.Errorf("invalid json")
	}
	data := gjson.GetBytes(msg, "data")
	if !data.Exists() {
		data = gjson.ParseBytes(msg)
	}
	if data.Get("e").String() != "kline" {
		return KlineEvent{}, fmt.Errorf("not a kline event: %q", data.Get("e").String())
	}

	k := data.Get("k")
	ev := KlineEvent{
		Symbol:   strings.ToUpper(k.Get("s").String()),
		Interval: k.Get("i").String(),
		Closed:   k.Get("x").Bool(),
		Candle: models.Candle{
			OpenTime: time.UnixMilli(k.Get("t").Int()).UTC(),
			Open:     k.Get("o").Float(),
			High:     k.Get("h").Float(),
			Low:      k.Get("l").Float(),
			Close:    k.Get("c").Float(),
			Volume:   k.Get("v").Float(),
		},
	}
	if ev.Symbol == "" || ev.Interval == "" || ev.Candle.Close <= 0 {
		return KlineEvent{}, fmt.Errorf("incomplete kline for %q", ev.Symbol)
	}
	return ev, nil
}

// streamNames builds "<symbol>@kline_<interval>" names split into groups of at most size.
func streamNames(symbols []string, interval string, size int) [][]string {
	var groups [][]string
	var cur []string
	for _, s := range symbols {
		cur = append(cur, strings.ToLower(s)+"@kline_"+interval)
		if len(cur) == size {
			groups = append(groups, cur)
			cur = nil
		}
	}
	if len(cur) > 0 {
		groups = append(groups, cur)
	}
	return groups
}
