package runner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"reversion_bot/internal/models"
)

// RegisterCommands exposes supervisor state as chat commands.
func RegisterCommands(reg CommandRegistry, sup *Supervisor) {
	reg.RegisterCommand("status", func(context.Context) string {
		return FormatPositions(sup.Positions())
	})
	reg.RegisterCommand("cooldowns", func(context.Context) string {
		return FormatCooldowns(sup.Cooldowns(), sup.now())
	})
}

func FormatPositions(positions []models.Position) string {
	if len(positions) == 0 {
		return "📭 No tracked positions"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "📊 Tracked positions: %d\n", len(positions))
	for _, p := range positions {
		fmt.Fprintf(&b, "- %s %s qty=%g entry=%g SL=%g TP=%g since %s",
			p.Symbol, p.Side, p.Quantity, p.EntryPrice, p.StopPrice, p.TakeProfitPrice, p.OpenedAt.UTC().Format("01-02 15:04"))
		if !p.Protected() {
			b.WriteString(" ⚠️ missing leg")
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func FormatCooldowns(entries []models.CooldownEntry, now time.Time) string {
	if len(entries) == 0 {
		return "No active cooldowns"
	}
	var b strings.Builder
	b.WriteString("⏳ Cooldowns:\n")
	for _, c := range entries {
		fmt.Fprintf(&b, "- %s %s left\n", c.Symbol, c.Until.Sub(now).Truncate(time.Second))
	}
	return strings.TrimRight(b.String(), "\n")
}
