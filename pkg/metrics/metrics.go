// Package metrics exposes the engine counters. Registered in init and served at /metrics:
//
//	bot_signals_total{side,outcome}      signals by what happened to them
//	bot_orders_total{leg,result}         order submissions per bracket leg
//	bot_closes_total{reason,side}        closed positions by exit reason
//	bot_incidents_total{kind}            unprotected exposure and ambiguous fills
//	bot_tracked_positions                positions currently supervised
//	bot_fetch_errors_total{op}           transient failures of external calls
//	bot_cycle_seconds                    scan cycle latency
//	bot_scanner_alerts_total{interval,side} notify-only scanner alerts
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	Signals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_signals_total",
			Help: "Signals detected, split by side and outcome",
		},
		[]string{"side", "outcome"},
	)

	Orders = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_orders_total",
			Help: "Order submissions per bracket leg",
		},
		[]string{"leg", "result"},
	)

	Closes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_closes_total",
			Help: "Closed positions by exit reason",
		},
		[]string{"reason", "side"},
	)

	Incidents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_incidents_total",
			Help: "Partial brackets and ambiguous reconciliations",
		},
		[]string{"kind"},
	)

	TrackedPositions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "bot_tracked_positions",
			Help: "Positions currently supervised",
		},
	)

	FetchErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_fetch_errors_total",
			Help: "Transient failures of exchange calls",
		},
		[]string{"op"},
	)

	CycleSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bot_cycle_seconds",
			Help:    "Scan cycle duration",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		},
	)

	ScannerAlerts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_scanner_alerts_total",
			Help: "Alerts sent by the notify-only scanner",
		},
		[]string{"interval", "side"},
	)
)

// Signal outcomes.
const (
	OutcomeRejected = "rejected"
	OutcomeSized0   = "sizing_rejected"
	OutcomePlaced   = "placed"
	OutcomeFailed   = "placement_failed"
	OutcomePartial  = "partial"
	OutcomeSkipped  = "skipped"
)

func init() {
	prometheus.MustRegister(Signals, Orders, Closes, Incidents, TrackedPositions, FetchErrors, CycleSeconds, ScannerAlerts)
}
