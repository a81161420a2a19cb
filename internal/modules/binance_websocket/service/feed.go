package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"reversion_bot/internal/helper"
	"reversion_bot/internal/models"
	"reversion_bot/internal/modules/config"
	"reversion_bot/pkg/logger"
)

const warmupParallel = 8

// Fetcher is the REST kline endpoint.
type Fetcher interface {
	Candles(ctx context.Context, symbol, interval string, limit int) ([]models.Candle, error)
}

// Feed serves candle windows from the stream store and falls back to REST
// when the store is cold or stale. Only subscribed series go through the store:
// anything else would be a snapshot nobody keeps current.
type Feed struct {
	rest     Fetcher
	store    *Store
	streamed bool

	mu         sync.RWMutex
	subscribed map[seriesKey]struct{}

	hits, misses atomic.Int64
}

func NewFeed(cfg *config.Config, rest Fetcher, store *Store) *Feed {
	return &Feed{
		rest:       rest,
		store:      store,
		streamed:   cfg.Trading.UseStream,
		subscribed: make(map[seriesKey]struct{}),
	}
}

// Subscribe marks the series the kline stream keeps current.
func (f *Feed) Subscribe(symbols []string, interval string) {
	interval = helper.NormInterval(interval)
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, sym := range symbols {
		f.subscribed[seriesKey{sym, interval}] = struct{}{}
	}
}

func (f *Feed) isSubscribed(symbol, interval string) bool {
	if !f.streamed {
		return false
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.subscribed[seriesKey{symbol, helper.NormInterval(interval)}]
	return ok
}

func (f *Feed) Candles(ctx context.Context, symbol, interval string, limit int) ([]models.Candle, error) {
	live := f.isSubscribed(symbol, interval)
	if live {
		if bars, ok := f.store.Window(symbol, interval, limit); ok {
			f.hits.Add(1)
			return bars, nil
		}
		f.misses.Add(1)
	}
	bars, err := f.rest.Candles(ctx, symbol, interval, limit)
	if err != nil {
		return nil, err
	}
	if live {
		f.store.Seed(symbol, interval, bars)
	}
	return bars, nil
}

// Warmup seeds the store over REST so the first cycle does not hit the API per symbol.
func (f *Feed) Warmup(ctx context.Context, symbols []string, interval string, limit int) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(warmupParallel)

	var failed atomic.Int64
	for _, sym := range symbols {
		sym := sym
		g.Go(func() error {
			bars, err := f.rest.Candles(ctx, sym, interval, limit)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				failed.Add(1)
				logger.Warn("[WARMUP] %s: %v", sym, err)
				return nil
			}
			f.store.Seed(sym, interval, bars)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("warmup: %w", err)
	}
	logger.Info("[WARMUP] %d symbols seeded, %d failed", len(symbols)-int(failed.Load()), failed.Load())
	return nil
}

// Stats reports how many windows came from the store and how many fell back to REST.
func (f *Feed) Stats() (hits, misses int64) {
	return f.hits.Load(), f.misses.Load()
}
