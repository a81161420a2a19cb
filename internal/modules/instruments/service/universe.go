package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"reversion_bot/internal/helper"
	"reversion_bot/internal/models"
	"reversion_bot/internal/modules/config"
	"reversion_bot/pkg/logger"
)

// Source lists every contract the venue knows about.
type Source interface {
	ExchangeInstruments(ctx context.Context) ([]models.Instrument, error)
}

// Universe caches the tradable instruments between refreshes. A failed refresh
// keeps serving the previous list.
type Universe struct {
	src      Source
	quote    string
	excluded map[string]struct{}

	mu       sync.RWMutex
	list     []models.Instrument
	loadedAt time.Time
}

func NewUniverse(cfg *config.Config, src Source) *Universe {
	return &Universe{
		src:      src,
		quote:    cfg.Trading.QuoteAsset,
		excluded: cfg.Excluded(),
	}
}

// Instruments returns the cached list, loading it on first use.
func (u *Universe) Instruments(ctx context.Context) ([]models.Instrument, error) {
	u.mu.RLock()
	list := u.list
	u.mu.RUnlock()

	if list == nil {
		if err := u.Refresh(ctx); err != nil {
			return nil, err
		}
		u.mu.RLock()
		list = u.list
		u.mu.RUnlock()
	}
	out := make([]models.Instrument, len(list))
	copy(out, list)
	return out, nil
}

// Refresh reloads the universe from the exchange.
func (u *Universe) Refresh(ctx context.Context) error {
	all, err := u.src.ExchangeInstruments(ctx)
	if err != nil {
		return fmt.Errorf("refresh instruments: %w", err)
	}
	list := u.filter(all)

	u.mu.Lock()
	prev := len(u.list)
	u.list = list
	u.loadedAt = time.Now()
	u.mu.Unlock()

	if prev != len(list) {
		logger.Info("[UNIVERSE] %d tradable %s instruments (was %d)", len(list), u.quote, prev)
	}
	return nil
}

func (u *Universe) filter(all []models.Instrument) []models.Instrument {
	out := make([]models.Instrument, 0, len(all))
	for _, inst := range all {
		if inst.Status != models.InstrumentTrading {
			continue
		}
		if inst.QuoteAsset != "" && inst.QuoteAsset != u.quote {
			continue
		}
		if !helper.Tradable(inst.Symbol, u.quote, u.excluded) {
			continue
		}
		out = append(out, inst)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// LoadedAt reports when the cached list was last refreshed.
func (u *Universe) LoadedAt() time.Time {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.loadedAt
}
