package service

import (
	"context"
	"time"

	"reversion_bot/internal/models"
)

// Noop drops every record. State does not survive a restart.
type Noop struct{}

func (Noop) RecordOpen(context.Context, models.Position, models.Signal) error { return nil }

func (Noop) RecordClose(context.Context, models.Position, models.CloseReason, time.Time) error {
	return nil
}

func (Noop) RecordIncident(context.Context, models.Incident) error { return nil }

func (Noop) SaveCooldown(context.Context, models.CooldownEntry) error { return nil }

func (Noop) LoadOpen(context.Context) ([]models.Position, error) { return nil, nil }

func (Noop) LoadCooldowns(context.Context, time.Time) ([]models.CooldownEntry, error) {
	return nil, nil
}
