package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/opentracing/opentracing-go"

	"reversion_bot/internal/models"
	"reversion_bot/internal/modules/config"
	"reversion_bot/internal/strategy"
	"reversion_bot/pkg/logger"
	"reversion_bot/pkg/metrics"
)

// CycleStats summarizes one scan cycle.
type CycleStats struct {
	Scanned   int
	Cooldown  int
	Throttled int
	Signals   int
	Opened    int
	Errors    int
	Paused    bool
	Closed    []Closed
}

// Scheduler drives scan cycles. Run it from a single goroutine: lastSignal is not locked.
type Scheduler struct {
	universe   Universe
	candles    CandleSource
	evaluator  SignalEvaluator
	sizer      *RiskSizer
	placer     *BracketPlacer
	supervisor *Supervisor
	account    Account
	notifier   Notifier
	journal    Journal
	heartbeat  Heartbeat
	now        Clock

	interval                string
	limit                   int
	maxOpen                 int
	scanInterval            time.Duration
	cycleTimeout            time.Duration
	resignal                time.Duration
	resignalOnPlacementOnly bool
	ceilingPolicy           string
	partialPolicy           string

	lastSignal map[string]time.Time
}

type SchedulerParams struct {
	Config     *config.Config
	Universe   Universe
	Candles    CandleSource
	Evaluator  SignalEvaluator
	Sizer      *RiskSizer
	Placer     *BracketPlacer
	Supervisor *Supervisor
	Account    Account
	Notifier   Notifier
	Journal    Journal
	Heartbeat  Heartbeat
	Clock      Clock
}

func NewScheduler(p SchedulerParams) *Scheduler {
	cfg := p.Config
	return &Scheduler{
		universe:                p.Universe,
		candles:                 p.Candles,
		evaluator:               p.Evaluator,
		sizer:                   p.Sizer,
		placer:                  p.Placer,
		supervisor:              p.Supervisor,
		account:                 p.Account,
		notifier:                p.Notifier,
		journal:                 p.Journal,
		heartbeat:               p.Heartbeat,
		now:                     p.Clock,
		interval:                cfg.Strategy.Interval,
		limit:                   cfg.Strategy.KlinesLimit,
		maxOpen:                 cfg.Trading.MaxOpenPositions,
		scanInterval:            cfg.Trading.ScanInterval,
		cycleTimeout:            cfg.Trading.CycleTimeout,
		resignal:                cfg.Trading.ResignalInterval,
		resignalOnPlacementOnly: cfg.Trading.ResignalOnPlacementOnly,
		ceilingPolicy:           cfg.Trading.CeilingPolicy,
		partialPolicy:           cfg.Trading.PartialBracketPolicy,
		lastSignal:              make(map[string]time.Time),
	}
}

// Run repeats cycles until ctx is done, stop is closed, or the ceiling terminates the loop.
// A closed stop channel lets the running cycle finish first.
func (s *Scheduler) Run(ctx context.Context, stop <-chan struct{}) error {
	for {
		stats, err := s.RunCycle(ctx)
		if err != nil {
			return err
		}
		logger.Info("[CYCLE] scanned=%d signals=%d opened=%d closed=%d cooldown=%d throttled=%d errors=%d paused=%v tracked=%d",
			stats.Scanned, stats.Signals, stats.Opened, len(stats.Closed), stats.Cooldown, stats.Throttled, stats.Errors, stats.Paused, s.supervisor.Count())

		timer := time.NewTimer(s.scanInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-stop:
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

// RunCycle scans every instrument once, then reconciles open positions.
func (s *Scheduler) RunCycle(ctx context.Context) (CycleStats, error) {
	var stats CycleStats
	started := time.Now()

	span, ctx := opentracing.StartSpanFromContext(ctx, "scheduler.cycle")
	defer span.Finish()

	if n := s.supervisor.Count(); n >= s.maxOpen {
		if s.ceilingPolicy == config.CeilingTerminate {
			msg := fmt.Sprintf("⛔️ %d open positions, ceiling %d reached. Stopping.", n, s.maxOpen)
			logger.Warn("[CYCLE] %s", msg)
			s.notify(ctx, msg)
			return stats, ErrCeilingReached
		}
		stats.Paused = true
		logger.Info("[CYCLE] ceiling %d reached, scanning paused", s.maxOpen)
	} else {
		scanCtx, cancel := s.bounded(ctx)
		s.scan(scanCtx, &stats)
		cancel()
	}

	// a scan that used up its budget must not starve fill detection
	reconcileCtx, cancel := s.bounded(ctx)
	stats.Closed = s.supervisor.Reconcile(reconcileCtx)
	cancel()

	metrics.CycleSeconds.Observe(time.Since(started).Seconds())
	if s.heartbeat != nil {
		s.heartbeat.TouchCycle(s.now())
	}
	return stats, nil
}

// bounded applies the per-phase cycle timeout.
func (s *Scheduler) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cycleTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.cycleTimeout)
}

func (s *Scheduler) scan(ctx context.Context, stats *CycleStats) {
	instruments, err := s.universe.Instruments(ctx)
	if err != nil {
		stats.Errors++
		metrics.FetchErrors.WithLabelValues("instruments").Inc()
		logger.Error("[CYCLE] instruments: %v", err)
		return
	}
	for _, inst := range instruments {
		if ctx.Err() != nil {
			logger.Warn("[CYCLE] cut short: %v", ctx.Err())
			return
		}
		s.scanSymbol(ctx, inst, stats)
	}
}

func (s *Scheduler) scanSymbol(ctx context.Context, inst models.Instrument, stats *CycleStats) {
	defer func() {
		if r := recover(); r != nil {
			stats.Errors++
			logger.Error("[SCAN] %s panic: %v", inst.Symbol, r)
		}
	}()

	now := s.now()
	if _, ok := s.supervisor.CooldownUntil(inst.Symbol); ok {
		stats.Cooldown++
		return
	}
	if last, ok := s.lastSignal[inst.Symbol]; ok && now.Sub(last) <= s.resignal {
		stats.Throttled++
		return
	}
	if s.supervisor.Has(inst.Symbol) {
		return
	}
	stats.Scanned++

	span, ctx := opentracing.StartSpanFromContext(ctx, "scheduler.symbol")
	defer span.Finish()
	span.SetTag("symbol", inst.Symbol)

	candles, err := s.candles.Candles(ctx, inst.Symbol, s.interval, s.limit)
	if err != nil {
		s.transient(stats, &TransientFetchError{Op: "klines", Symbol: inst.Symbol, Err: err})
		return
	}

	sig, err := s.evaluator.Evaluate(ctx, inst, candles)
	switch {
	case errors.Is(err, strategy.ErrNoSignal):
		return
	case err != nil && strategy.IsRejection(err):
		metrics.Signals.WithLabelValues(string(sig.Side), metrics.OutcomeRejected).Inc()
		logger.Info("[SIGNAL] %s rejected: %v", inst.Symbol, err)
		return
	case err != nil:
		s.transient(stats, &TransientFetchError{Op: "evaluate", Symbol: inst.Symbol, Err: err})
		return
	}

	stats.Signals++
	if !s.resignalOnPlacementOnly {
		s.lastSignal[inst.Symbol] = now
	}
	if s.open(ctx, inst, sig, stats) && s.resignalOnPlacementOnly {
		s.lastSignal[inst.Symbol] = now
	}
}

// open sizes and places the bracket, then hands the position to the supervisor.
// Reports whether the entry order was accepted.
func (s *Scheduler) open(ctx context.Context, inst models.Instrument, sig models.Signal, stats *CycleStats) bool {
	side := string(sig.Side)
	if s.supervisor.Count() >= s.maxOpen {
		metrics.Signals.WithLabelValues(side, metrics.OutcomeSkipped).Inc()
		logger.Info("[OPEN] %s skipped, ceiling %d reached", sig.Symbol, s.maxOpen)
		return false
	}

	balance, err := s.account.Balance(ctx)
	if err != nil {
		s.transient(stats, &TransientFetchError{Op: "balance", Symbol: sig.Symbol, Err: err})
		return false
	}
	qty, err := s.sizer.Size(balance, sig.EntryPrice, sig.StopPrice, inst.StepSize)
	if err != nil {
		metrics.Signals.WithLabelValues(side, metrics.OutcomeSized0).Inc()
		logger.Info("[OPEN] %s %v", sig.Symbol, err)
		return false
	}

	bracket, err := s.placer.Place(ctx, sig, qty)
	var placement *PlacementFailure
	var partial *PartialBracketFailure
	switch {
	case errors.As(err, &placement):
		metrics.Signals.WithLabelValues(side, metrics.OutcomeFailed).Inc()
		logger.Error("[OPEN] %v", err)
		s.notify(ctx, fmt.Sprintf("❗️ [%s] entry order failed: %v", sig.Symbol, placement.Err))
		return false
	case errors.As(err, &partial):
		metrics.Signals.WithLabelValues(side, metrics.OutcomePartial).Inc()
		s.unprotected(ctx, sig, bracket, partial)
		if s.partialPolicy == config.PartialBracketTrack {
			s.track(ctx, sig, bracket, stats)
		}
		return true
	case err != nil:
		logger.Error("[OPEN] %s: %v", sig.Symbol, err)
		return false
	}

	metrics.Signals.WithLabelValues(side, metrics.OutcomePlaced).Inc()
	s.track(ctx, sig, bracket, stats)
	s.notify(ctx, fmt.Sprintf("📥 [%s] %s limit %g x %g | SL %g | TP %g | RSI %.1f",
		sig.Symbol, sig.Side, sig.EntryPrice, bracket.Quantity, sig.StopPrice, sig.TakeProfitPrice, sig.RSI))
	return true
}

func (s *Scheduler) track(ctx context.Context, sig models.Signal, b Bracket, stats *CycleStats) {
	pos := models.Position{
		Symbol:            sig.Symbol,
		Side:              sig.Side,
		Quantity:          b.Quantity,
		EntryPrice:        sig.EntryPrice,
		StopPrice:         sig.StopPrice,
		TakeProfitPrice:   sig.TakeProfitPrice,
		EntryOrderID:      b.EntryOrderID,
		StopOrderID:       b.StopOrderID,
		TakeProfitOrderID: b.TakeProfitOrderID,
		OpenedAt:          s.now(),
	}
	if err := s.supervisor.Track(ctx, pos, sig); err != nil {
		logger.Error("[OPEN] %v", err)
		return
	}
	stats.Opened++
}

func (s *Scheduler) unprotected(ctx context.Context, sig models.Signal, b Bracket, failure *PartialBracketFailure) {
	inc := models.Incident{
		Kind:   models.IncidentPartialBracket,
		Symbol: sig.Symbol,
		Detail: fmt.Sprintf("entry %s live, %v", b.EntryOrderID, failure),
		At:     s.now(),
	}
	metrics.Incidents.WithLabelValues(string(inc.Kind)).Inc()
	logger.Error("[UNPROTECTED] %s %s", sig.Symbol, inc.Detail)
	if err := s.journal.RecordIncident(ctx, inc); err != nil {
		logger.Error("[JOURNAL] record incident %s: %v", sig.Symbol, err)
	}

	tracked := "NOT tracked"
	if s.partialPolicy == config.PartialBracketTrack {
		tracked = "tracked with missing leg"
	}
	msg := fmt.Sprintf("🚨 UNPROTECTED [%s] %s qty=%g entry=%s SL=%s TP=%s (%s). Failed: %v",
		sig.Symbol, sig.Side, b.Quantity, b.EntryOrderID, orNone(b.StopOrderID), orNone(b.TakeProfitOrderID), tracked, failure.Legs)
	if err := s.notifier.Alert(ctx, msg); err != nil {
		logger.Error("[NOTIFY] alert: %v", err)
	}
}

func (s *Scheduler) transient(stats *CycleStats, err *TransientFetchError) {
	stats.Errors++
	metrics.FetchErrors.WithLabelValues(err.Op).Inc()
	logger.Warn("[SCAN] %v", err)
}

func (s *Scheduler) notify(ctx context.Context, msg string) {
	if err := s.notifier.Send(ctx, msg); err != nil {
		logger.Warn("[NOTIFY] %v", err)
	}
}

func orNone(id models.OrderID) string {
	if id.Empty() {
		return "none"
	}
	return string(id)
}
