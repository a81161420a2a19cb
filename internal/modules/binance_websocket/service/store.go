package service

import (
	"sync"
	"time"

	"reversion_bot/internal/helper"
	"reversion_bot/internal/models"
)

type seriesKey struct {
	symbol   string
	interval string
}

// Store keeps the latest bars per symbol and interval, oldest first.
type Store struct {
	mu       sync.RWMutex
	capacity int
	series   map[seriesKey][]models.Candle
	now      func() time.Time
}

func NewStore(capacity int) *Store {
	return &Store{
		capacity: capacity,
		series:   make(map[seriesKey][]models.Candle),
		now:      time.Now,
	}
}

// Upsert replaces the bar with the same open time or appends a newer one.
// Bars older than the last stored bar are ignored. A bar that skips past missed
// bars restarts the series, so the window stays short until a REST reseed.
func (s *Store) Upsert(symbol, interval string, c models.Candle) {
	interval = helper.NormInterval(interval)
	key := seriesKey{symbol, interval}
	step := helper.IntervalDuration(interval)
	s.mu.Lock()
	defer s.mu.Unlock()

	bars := s.series[key]
	if n := len(bars); n > 0 {
		last := bars[n-1].OpenTime
		switch {
		case c.OpenTime.Equal(last):
			bars[n-1] = c
			return
		case c.OpenTime.Before(last):
			return
		case step > 0 && c.OpenTime.Sub(last) > step:
			bars = nil
		}
	}
	bars = append(bars, c)
	if len(bars) > s.capacity {
		bars = append(bars[:0:0], bars[len(bars)-s.capacity:]...)
	}
	s.series[key] = bars
}

// Seed replaces the series with a REST snapshot.
func (s *Store) Seed(symbol, interval string, candles []models.Candle) {
	if len(candles) > s.capacity {
		candles = candles[len(candles)-s.capacity:]
	}
	bars := make([]models.Candle, len(candles))
	copy(bars, candles)

	s.mu.Lock()
	s.series[seriesKey{symbol, helper.NormInterval(interval)}] = bars
	s.mu.Unlock()
}

// Window returns a copy of the last limit bars. ok is false when fewer bars are
// stored or the newest bar is more than one interval behind the clock.
func (s *Store) Window(symbol, interval string, limit int) ([]models.Candle, bool) {
	interval = helper.NormInterval(interval)
	s.mu.RLock()
	defer s.mu.RUnlock()

	bars := s.series[seriesKey{symbol, interval}]
	if limit <= 0 || len(bars) < limit {
		return nil, false
	}
	step := helper.IntervalDuration(interval)
	if step > 0 && s.now().Sub(bars[len(bars)-1].OpenTime) >= 2*step {
		return nil, false
	}
	out := make([]models.Candle, limit)
	copy(out, bars[len(bars)-limit:])
	return out, true
}
