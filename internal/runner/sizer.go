package runner

import (
	"fmt"
	"math"

	"reversion_bot/internal/helper"
	"reversion_bot/internal/modules/config"
)

// RiskSizer sizes an order so that a stop-out loses riskFraction of the balance.
type RiskSizer struct {
	riskFraction float64
}

func NewRiskSizer(cfg *config.Config) *RiskSizer {
	return &RiskSizer{riskFraction: cfg.Trading.RiskFraction}
}

// Size returns the step-rounded quantity. Any non-positive outcome is a *SizingRejection with qty 0.
func (s *RiskSizer) Size(balance, entry, stop, step float64) (float64, error) {
	if balance <= 0 {
		return 0, &SizingRejection{Reason: fmt.Sprintf("balance %.8g", balance)}
	}
	if entry <= 0 {
		return 0, &SizingRejection{Reason: fmt.Sprintf("entry %.8g", entry)}
	}

	stopDistPct := math.Abs(entry-stop) / entry
	if !(stopDistPct > 0) {
		return 0, &SizingRejection{Reason: "zero stop distance"}
	}

	riskBudget := balance * s.riskFraction
	notional := riskBudget / stopDistPct
	qty := helper.RoundQty(notional/entry, step)
	if qty <= 0 {
		return 0, &SizingRejection{Reason: fmt.Sprintf("quantity rounds to zero at step %g", step)}
	}
	return qty, nil
}
