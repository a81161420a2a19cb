package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"reversion_bot/internal/models"
	"reversion_bot/internal/modules/config"
	"reversion_bot/internal/strategy"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// fakeExchange implements OrderGateway, Account and strategy.MarketGate.
type fakeExchange struct {
	mu sync.Mutex

	balance    float64
	balanceErr error

	tickers   map[string]models.Ticker
	funding   map[string]float64
	exchange  map[string]bool
	fail      map[models.OrderType]error
	statuses  map[models.OrderID]models.OrderStatus
	statusErr map[models.OrderID]error

	placed       []models.OrderRequest
	cancelled    []models.OrderID
	statusCalled []models.OrderID
	nextID       int
}

func newFakeExchange() *fakeExchange {
	return &fakeExchange{
		balance:   10000,
		tickers:   map[string]models.Ticker{},
		funding:   map[string]float64{},
		exchange:  map[string]bool{},
		fail:      map[models.OrderType]error{},
		statuses:  map[models.OrderID]models.OrderStatus{},
		statusErr: map[models.OrderID]error{},
	}
}

func (f *fakeExchange) Balance(context.Context) (float64, error) {
	return f.balance, f.balanceErr
}

func (f *fakeExchange) Ticker(_ context.Context, symbol string) (models.Ticker, error) {
	t, ok := f.tickers[symbol]
	if !ok {
		return models.Ticker{}, errors.New("no ticker")
	}
	return t, nil
}

func (f *fakeExchange) FundingRate(_ context.Context, symbol string) (float64, bool, error) {
	r, ok := f.funding[symbol]
	return r, ok, nil
}

func (f *fakeExchange) IsPositionOpen(_ context.Context, symbol string) (bool, error) {
	return f.exchange[symbol], nil
}

func (f *fakeExchange) PlaceOrder(_ context.Context, req models.OrderRequest) (models.OrderID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.placed = append(f.placed, req)
	if err := f.fail[req.Type]; err != nil {
		return "", err
	}
	f.nextID++
	id := models.OrderID(fmt.Sprintf("%d", 1000+f.nextID))
	f.statuses[id] = models.OrderStatusNew
	return id, nil
}

func (f *fakeExchange) OrderStatus(_ context.Context, _ string, id models.OrderID) (models.OrderStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusCalled = append(f.statusCalled, id)
	if err := f.statusErr[id]; err != nil {
		return models.OrderStatusUnknown, err
	}
	return f.statuses[id], nil
}

func (f *fakeExchange) CancelOrder(_ context.Context, _ string, id models.OrderID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = append(f.cancelled, id)
	f.statuses[id] = models.OrderStatusCanceled
	return nil
}

func (f *fakeExchange) fill(id models.OrderID) {
	f.mu.Lock()
	f.statuses[id] = models.OrderStatusFilled
	f.mu.Unlock()
}

type fakeUniverse struct {
	instruments []models.Instrument
	err         error
}

func (u *fakeUniverse) Instruments(context.Context) ([]models.Instrument, error) {
	return u.instruments, u.err
}

type fakeCandles struct {
	series map[string][]models.Candle
	errs   map[string]error
	calls  map[string]int
}

func newFakeCandles() *fakeCandles {
	return &fakeCandles{series: map[string][]models.Candle{}, errs: map[string]error{}, calls: map[string]int{}}
}

func (c *fakeCandles) Candles(_ context.Context, symbol, _ string, _ int) ([]models.Candle, error) {
	c.calls[symbol]++
	if err := c.errs[symbol]; err != nil {
		return nil, err
	}
	return c.series[symbol], nil
}

type fakeNotifier struct {
	mu     sync.Mutex
	sent   []string
	alerts []string
}

func (n *fakeNotifier) Send(_ context.Context, msg string) error {
	n.mu.Lock()
	n.sent = append(n.sent, msg)
	n.mu.Unlock()
	return nil
}

func (n *fakeNotifier) Alert(_ context.Context, msg string) error {
	n.mu.Lock()
	n.alerts = append(n.alerts, msg)
	n.mu.Unlock()
	return nil
}

type closeRecord struct {
	symbol string
	reason models.CloseReason
}

type fakeJournal struct {
	mu        sync.Mutex
	opened    []models.Position
	closed    []closeRecord
	incidents []models.Incident
	cooldowns []models.CooldownEntry
	open      []models.Position
}

func (j *fakeJournal) RecordOpen(_ context.Context, pos models.Position, _ models.Signal) error {
	j.mu.Lock()
	j.opened = append(j.opened, pos)
	j.mu.Unlock()
	return nil
}

func (j *fakeJournal) RecordClose(_ context.Context, pos models.Position, reason models.CloseReason, _ time.Time) error {
	j.mu.Lock()
	j.closed = append(j.closed, closeRecord{symbol: pos.Symbol, reason: reason})
	j.mu.Unlock()
	return nil
}

func (j *fakeJournal) RecordIncident(_ context.Context, inc models.Incident) error {
	j.mu.Lock()
	j.incidents = append(j.incidents, inc)
	j.mu.Unlock()
	return nil
}

func (j *fakeJournal) SaveCooldown(_ context.Context, entry models.CooldownEntry) error {
	j.mu.Lock()
	j.cooldowns = append(j.cooldowns, entry)
	j.mu.Unlock()
	return nil
}

func (j *fakeJournal) LoadOpen(context.Context) ([]models.Position, error) {
	return j.open, nil
}

func (j *fakeJournal) LoadCooldowns(context.Context, time.Time) ([]models.CooldownEntry, error) {
	return nil, nil
}

// fixtures

var fixtureStart = time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

// longSetup: 48 five-minute bars ending in a flush through the 3σ lower band, RSI near 22.
func longSetup() []models.Candle {
	closes := make([]float64, 0, 48)
	for i := 0; i < 40; i++ {
		c := 100.0
		if i%2 == 1 {
			c += 0.3
		}
		closes = append(closes, c)
	}
	for i := 0; i < 7; i++ {
		closes = append(closes, closes[len(closes)-1]-0.4)
	}
	closes = append(closes, closes[len(closes)-1]-1.0)

	out := make([]models.Candle, len(closes))
	for i, c := range closes {
		out[i] = models.Candle{
			OpenTime: fixtureStart.Add(time.Duration(i) * 5 * time.Minute),
			Open:     c, High: c + 0.1, Low: c - 0.1, Close: c, Volume: 1000,
		}
	}
	out[len(out)-1].Low = 95.5
	return out
}

func instrument(symbol string) models.Instrument {
	return models.Instrument{Symbol: symbol, QuoteAsset: "USDT", StepSize: 0.001, TickSize: 0.01}
}

type harness struct {
	cfg        config.Config
	clock      *fakeClock
	ex         *fakeExchange
	universe   *fakeUniverse
	candles    *fakeCandles
	notifier   *fakeNotifier
	journal    *fakeJournal
	supervisor *Supervisor
	scheduler  *Scheduler
}

func newHarness(mutate func(cfg *config.Config)) *harness {
	cfg := config.Default()
	if mutate != nil {
		mutate(&cfg)
	}
	h := &harness{
		cfg:      cfg,
		clock:    newFakeClock(),
		ex:       newFakeExchange(),
		universe: &fakeUniverse{},
		candles:  newFakeCandles(),
		notifier: &fakeNotifier{},
		journal:  &fakeJournal{},
	}
	h.supervisor = NewSupervisor(&h.cfg, h.ex, h.journal, h.notifier, h.clock.Now)
	evaluator := strategy.NewEvaluator(&h.cfg, strategy.NewDetector(strategy.ParamsFromConfig(&h.cfg)), h.ex, h.supervisor)
	h.scheduler = NewScheduler(SchedulerParams{
		Config:     &h.cfg,
		Universe:   h.universe,
		Candles:    h.candles,
		Evaluator:  evaluator,
		Sizer:      NewRiskSizer(&h.cfg),
		Placer:     NewBracketPlacer(&h.cfg, h.ex),
		Supervisor: h.supervisor,
		Account:    h.ex,
		Notifier:   h.notifier,
		Journal:    h.journal,
		Clock:      h.clock.Now,
	})
	return h
}

// withSignal lists symbol in the universe with a LONG setup that passes every gate.
func (h *harness) withSignal(symbol string) {
	h.universe.instruments = append(h.universe.instruments, instrument(symbol))
	h.candles.series[symbol] = longSetup()
	h.ex.tickers[symbol] = models.Ticker{Symbol: symbol, LastPrice: 96.5, QuoteVolume: 200_000_000}
	h.ex.funding[symbol] = 0.0001
}
