package runner

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/opentracing/opentracing-go"

	"reversion_bot/internal/models"
	"reversion_bot/internal/modules/config"
	"reversion_bot/pkg/logger"
	"reversion_bot/pkg/metrics"
)

// Closed describes a position removed during a reconciliation pass.
type Closed struct {
	Position models.Position
	Reason   models.CloseReason
	At       time.Time
}

// Supervisor is the single owner of tracked positions and cooldowns.
// Fill detection is polling based, so a close is observed at most one scan interval late.
type Supervisor struct {
	mu        sync.Mutex
	positions map[string]models.Position
	cooldowns map[string]time.Time

	orders   OrderGateway
	journal  Journal
	notifier Notifier
	now      Clock

	cooldown       time.Duration
	cooldownOnStop bool
}

func NewSupervisor(cfg *config.Config, orders OrderGateway, journal Journal, notifier Notifier, now Clock) *Supervisor {
	return &Supervisor{
		positions:      make(map[string]models.Position),
		cooldowns:      make(map[string]time.Time),
		orders:         orders,
		journal:        journal,
		notifier:       notifier,
		now:            now,
		cooldown:       cfg.Trading.CooldownAfterClose,
		cooldownOnStop: cfg.Trading.CooldownOnStopLoss,
	}
}

func (s *Supervisor) Has(symbol string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.positions[symbol]
	return ok
}

func (s *Supervisor) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.positions)
}

// Positions returns a snapshot sorted by symbol.
func (s *Supervisor) Positions() []models.Position {
	s.mu.Lock()
	out := make([]models.Position, 0, len(s.positions))
	for _, p := range s.positions {
		out = append(out, p)
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// Cooldowns returns the active entries sorted by expiry.
func (s *Supervisor) Cooldowns() []models.CooldownEntry {
	now := s.now()
	s.mu.Lock()
	out := make([]models.CooldownEntry, 0, len(s.cooldowns))
	for sym, until := range s.cooldowns {
		if now.Before(until) {
			out = append(out, models.CooldownEntry{Symbol: sym, Until: until})
		}
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Until.Before(out[j].Until) })
	return out
}

// CooldownUntil reports an active cooldown for symbol.
func (s *Supervisor) CooldownUntil(symbol string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	until, ok := s.cooldowns[symbol]
	if !ok || !s.now().Before(until) {
		return time.Time{}, false
	}
	return until, true
}

// Track starts supervising pos. A second position for the same symbol is refused.
func (s *Supervisor) Track(ctx context.Context, pos models.Position, sig models.Signal) error {
	s.mu.Lock()
	if _, ok := s.positions[pos.Symbol]; ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrAlreadyTracked, pos.Symbol)
	}
	s.positions[pos.Symbol] = pos
	n := len(s.positions)
	s.mu.Unlock()

	metrics.TrackedPositions.Set(float64(n))
	if err := s.journal.RecordOpen(ctx, pos, sig); err != nil {
		logger.Error("[JOURNAL] record open %s: %v", pos.Symbol, err)
	}
	return nil
}

// Restore loads state persisted before a restart. Existing entries win.
func (s *Supervisor) Restore(positions []models.Position, cooldowns []models.CooldownEntry) {
	s.mu.Lock()
	for _, p := range positions {
		if _, ok := s.positions[p.Symbol]; !ok {
			s.positions[p.Symbol] = p
		}
	}
	for _, c := range cooldowns {
		if c.Until.After(s.cooldowns[c.Symbol]) {
			s.cooldowns[c.Symbol] = c.Until
		}
	}
	n := len(s.positions)
	s.mu.Unlock()
	metrics.TrackedPositions.Set(float64(n))
}

// Reconcile polls both protective orders of every tracked position and closes filled ones.
// A stop fill wins over a take-profit fill observed in the same pass.
func (s *Supervisor) Reconcile(ctx context.Context) []Closed {
	span, ctx := opentracing.StartSpanFromContext(ctx, "supervisor.reconcile")
	defer span.Finish()

	s.pruneCooldowns()

	var closed []Closed
	for _, pos := range s.Positions() {
		if ctx.Err() != nil {
			break
		}
		stopFilled, err := s.filled(ctx, pos.Symbol, pos.StopOrderID)
		if err != nil {
			logger.Warn("[SUPERVISE] %v", err)
			continue
		}
		tpFilled, err := s.filled(ctx, pos.Symbol, pos.TakeProfitOrderID)
		if err != nil {
			logger.Warn("[SUPERVISE] %v", err)
			continue
		}

		switch {
		case stopFilled && tpFilled:
			s.ambiguous(ctx, pos)
			closed = append(closed, s.close(ctx, pos, models.CloseByStop, pos.TakeProfitOrderID))
		case stopFilled:
			closed = append(closed, s.close(ctx, pos, models.CloseByStop, pos.TakeProfitOrderID))
		case tpFilled:
			closed = append(closed, s.close(ctx, pos, models.CloseByTakeProfit, pos.StopOrderID))
		}
	}
	span.SetTag("closed", len(closed))
	return closed
}

func (s *Supervisor) filled(ctx context.Context, symbol string, id models.OrderID) (bool, error) {
	if id.Empty() {
		return false, nil
	}
	status, err := s.orders.OrderStatus(ctx, symbol, id)
	if err != nil {
		metrics.FetchErrors.WithLabelValues("order_status").Inc()
		return false, &TransientFetchError{Op: "order status " + string(id), Symbol: symbol, Err: err}
	}
	return status == models.OrderStatusFilled, nil
}

func (s *Supervisor) close(ctx context.Context, pos models.Position, reason models.CloseReason, sibling models.OrderID) Closed {
	at := s.now()
	if !sibling.Empty() {
		if err := s.orders.CancelOrder(ctx, pos.Symbol, sibling); err != nil {
			logger.Warn("[SUPERVISE] %s cancel sibling %s: %v", pos.Symbol, sibling, err)
		}
	}

	var until time.Time
	s.mu.Lock()
	delete(s.positions, pos.Symbol)
	if reason == models.CloseByTakeProfit || s.cooldownOnStop {
		until = at.Add(s.cooldown)
		s.cooldowns[pos.Symbol] = until
	}
	n := len(s.positions)
	s.mu.Unlock()

	metrics.TrackedPositions.Set(float64(n))
	metrics.Closes.WithLabelValues(string(reason), string(pos.Side)).Inc()
	logger.Info("[CLOSE] %s %s by %s", pos.Symbol, pos.Side, reason)

	if err := s.journal.RecordClose(ctx, pos, reason, at); err != nil {
		logger.Error("[JOURNAL] record close %s: %v", pos.Symbol, err)
	}
	msg := fmt.Sprintf("%s [%s] %s closed by %s", closeIcon(reason), pos.Symbol, pos.Side, reason)
	if !until.IsZero() {
		if err := s.journal.SaveCooldown(ctx, models.CooldownEntry{Symbol: pos.Symbol, Until: until}); err != nil {
			logger.Error("[JOURNAL] save cooldown %s: %v", pos.Symbol, err)
		}
		msg += fmt.Sprintf(", cooldown until %s", until.UTC().Format("15:04:05"))
	}
	if err := s.notifier.Send(ctx, msg); err != nil {
		logger.Warn("[NOTIFY] %v", err)
	}
	return Closed{Position: pos, Reason: reason, At: at}
}

func (s *Supervisor) ambiguous(ctx context.Context, pos models.Position) {
	inc := models.Incident{
		Kind:   models.IncidentAmbiguousFill,
		Symbol: pos.Symbol,
		Detail: fmt.Sprintf("stop %s and take-profit %s both FILLED, resolved as stop-loss", pos.StopOrderID, pos.TakeProfitOrderID),
		At:     s.now(),
	}
	logger.Warn("[SUPERVISE] %s %s", pos.Symbol, inc.Detail)
	metrics.Incidents.WithLabelValues(string(inc.Kind)).Inc()
	if err := s.journal.RecordIncident(ctx, inc); err != nil {
		logger.Error("[JOURNAL] record incident %s: %v", pos.Symbol, err)
	}
}

func (s *Supervisor) pruneCooldowns() {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for sym, until := range s.cooldowns {
		if !now.Before(until) {
			delete(s.cooldowns, sym)
		}
	}
}

func closeIcon(reason models.CloseReason) string {
	if reason == models.CloseByTakeProfit {
		return "✅"
	}
	return "🛑"
}
