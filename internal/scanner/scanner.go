// Package scanner runs the band-touch detector over the universe on several
// timeframes and only alerts. It never places orders.
package scanner

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"reversion_bot/internal/helper"
	"reversion_bot/internal/models"
	"reversion_bot/internal/modules/config"
	tg "reversion_bot/internal/modules/telegram_bot/service"
	"reversion_bot/internal/strategy"
	"reversion_bot/pkg/logger"
	"reversion_bot/pkg/metrics"
)

type Universe interface {
	Instruments(ctx context.Context) ([]models.Instrument, error)
}

type Candles interface {
	Candles(ctx context.Context, symbol, interval string, limit int) ([]models.Candle, error)
}

type Tickers interface {
	Tickers(ctx context.Context) ([]models.Ticker, error)
}

type Notifier interface {
	Send(ctx context.Context, msg string) error
}

// Hit is one detection on one timeframe.
type Hit struct {
	Signal  models.Signal
	Reading strategy.Reading
	Ticker  models.Ticker
}

type timeframe struct {
	interval string
	wait     time.Duration
	detector *strategy.Detector
}

type Scanner struct {
	universe Universe
	candles  Candles
	tickers  Tickers
	notifier Notifier
	now      func() time.Time

	timeframes    []timeframe
	limit         int
	maxConcurrent int
	minVolume     float64
	pause         time.Duration

	mu       sync.Mutex
	lastSent map[string]time.Time // symbol|interval|side
}

type Params struct {
	Config   *config.Config
	Universe Universe
	Candles  Candles
	Tickers  Tickers
	Notifier Notifier
	Now      func() time.Time
}

func New(p Params) *Scanner {
	base := strategy.ParamsFromConfig(p.Config)
	tfs := make([]timeframe, 0, len(p.Config.Scanner.Timeframes))
	for _, tf := range p.Config.Scanner.Timeframes {
		params := base
		params.Interval = helper.NormInterval(tf.Interval)
		tfs = append(tfs, timeframe{
			interval: params.Interval,
			wait:     tf.Wait,
			detector: strategy.NewDetector(params),
		})
	}
	maxConcurrent := p.Config.Scanner.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	now := p.Now
	if now == nil {
		now = time.Now
	}
	return &Scanner{
		universe:      p.Universe,
		candles:       p.Candles,
		tickers:       p.Tickers,
		notifier:      p.Notifier,
		now:           now,
		timeframes:    tfs,
		limit:         p.Config.Strategy.KlinesLimit,
		maxConcurrent: maxConcurrent,
		minVolume:     p.Config.Scanner.MinQuoteVolume,
		pause:         p.Config.Scanner.Pause,
		lastSent:      make(map[string]time.Time),
	}
}

// Run scans until ctx is cancelled, pausing between passes.
func (s *Scanner) Run(ctx context.Context) error {
	for {
		if _, err := s.ScanOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Warn("[SCANNER] %v", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.pause):
		}
	}
}

// ScanOnce runs every timeframe over the liquid part of the universe and sends
// alerts for hits outside their re-alert wait. It returns the alerted hits.
func (s *Scanner) ScanOnce(ctx context.Context) ([]Hit, error) {
	instruments, err := s.universe.Instruments(ctx)
	if err != nil {
		return nil, fmt.Errorf("instruments: %w", err)
	}
	tickers, err := s.tickers.Tickers(ctx)
	if err != nil {
		return nil, fmt.Errorf("tickers: %w", err)
	}
	bySymbol := make(map[string]models.Ticker, len(tickers))
	for _, t := range tickers {
		bySymbol[t.Symbol] = t
	}

	liquid := make([]models.Instrument, 0, len(instruments))
	for _, inst := range instruments {
		t, ok := bySymbol[inst.Symbol]
		if !ok {
			continue
		}
		if s.minVolume > 0 && t.QuoteVolume < s.minVolume {
			continue
		}
		liquid = append(liquid, inst)
	}

	var sent []Hit
	for _, tf := range s.timeframes {
		hits, err := s.scanTimeframe(ctx, tf, liquid, bySymbol)
		if err != nil {
			return sent, err
		}
		for _, h := range hits {
			if !s.due(h.Signal, tf.wait) {
				continue
			}
			if err := s.notifier.Send(ctx, FormatHit(h)); err != nil {
				logger.Warn("[SCANNER] send %s %s: %v", h.Signal.Symbol, tf.interval, err)
				continue
			}
			s.markSent(h.Signal)
			metrics.ScannerAlerts.WithLabelValues(tf.interval, string(h.Signal.Side)).Inc()
			sent = append(sent, h)
		}
	}
	logger.Info("[SCANNER] pass done: %d liquid of %d, %d alerts", len(liquid), len(instruments), len(sent))
	return sent, nil
}

func (s *Scanner) scanTimeframe(ctx context.Context, tf timeframe, instruments []models.Instrument, tickers map[string]models.Ticker) ([]Hit, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrent)

	var mu sync.Mutex
	var hits []Hit
	for _, inst := range instruments {
		inst := inst
		g.Go(func() error {
			bars, err := s.candles.Candles(gctx, inst.Symbol, tf.interval, s.limit)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				logger.Debug("[SCANNER] %s %s candles: %v", inst.Symbol, tf.interval, err)
				return nil
			}
			sig, reading, ok := tf.detector.Detect(inst, bars)
			if !ok {
				return nil
			}
			mu.Lock()
			hits = append(hits, Hit{Signal: sig, Reading: reading, Ticker: tickers[inst.Symbol]})
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].Signal.Symbol < hits[j].Signal.Symbol })
	return hits, nil
}

func alertKey(sig models.Signal) string {
	return sig.Symbol + "|" + sig.Interval + "|" + string(sig.Side)
}

func (s *Scanner) due(sig models.Signal, wait time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	last, ok := s.lastSent[alertKey(sig)]
	return !ok || s.now().Sub(last) >= wait
}

func (s *Scanner) markSent(sig models.Signal) {
	s.mu.Lock()
	s.lastSent[alertKey(sig)] = s.now()
	s.mu.Unlock()
}

// FormatHit renders the chat alert for one detection.
func FormatHit(h Hit) string {
	icon := "🟢"
	band := h.Reading.Lower
	if h.Signal.Side == models.SideShort {
		icon = "🔴"
		band = h.Reading.Upper
	}
	var beyond float64
	if band != 0 {
		beyond = (h.Reading.Close - band) / band
	}
	return tg.Lines(
		fmt.Sprintf("%s %s %s [%s]", icon, h.Signal.Side, h.Signal.Symbol, h.Signal.Interval),
		fmt.Sprintf("price %.6g (%s vs band)", h.Ticker.LastPrice, tg.Pct(beyond)),
		fmt.Sprintf("24h high %.6g low %.6g", h.Ticker.HighPrice, h.Ticker.LowPrice),
		fmt.Sprintf("24h volume %s", helper.HumanVolume(h.Ticker.QuoteVolume)),
		fmt.Sprintf("rsi %.2f bb %.6g / %.6g", h.Reading.RSI, h.Reading.Lower, h.Reading.Upper),
	)
}
