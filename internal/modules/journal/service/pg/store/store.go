package store

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"

	"reversion_bot/internal/models"
	"reversion_bot/internal/modules/journal/service/pg/store/sql"
)

// Store maps journal records onto the generated queries.
type Store struct {
	sql *sql.Queries
}

func New() *Store {
	return &Store{sql: sql.New()}
}

func (s *Store) UpsertOpen(ctx context.Context, tx sql.DBTX, pos models.Position, sig models.Signal) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("Store.UpsertOpen: %w", err)
		}
	}()
	var payload []byte
	payload, err = sonic.Marshal(sig)
	if err != nil {
		return err
	}
	return s.sql.UpsertOpenPosition(ctx, tx, &sql.UpsertOpenPositionParams{
		Symbol:            pos.Symbol,
		Side:              string(pos.Side),
		Quantity:          pos.Quantity,
		EntryPrice:        pos.EntryPrice,
		StopPrice:         pos.StopPrice,
		TakeProfitPrice:   pos.TakeProfitPrice,
		EntryOrderID:      string(pos.EntryOrderID),
		StopOrderID:       string(pos.StopOrderID),
		TakeProfitOrderID: string(pos.TakeProfitOrderID),
		OpenedAt:          pos.OpenedAt,
		Signal:            payload,
	})
}

// Close moves pos from the open table into the trade history. Run it inside a transaction.
func (s *Store) Close(ctx context.Context, tx sql.DBTX, pos models.Position, reason models.CloseReason, at time.Time) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("Store.Close: %w", err)
		}
	}()
	if err = s.sql.DeleteOpenPosition(ctx, tx, pos.Symbol); err != nil {
		return err
	}
	return s.sql.InsertTrade(ctx, tx, &sql.InsertTradeParams{
		Symbol:          pos.Symbol,
		Side:            string(pos.Side),
		Quantity:        pos.Quantity,
		EntryPrice:      pos.EntryPrice,
		StopPrice:       pos.StopPrice,
		TakeProfitPrice: pos.TakeProfitPrice,
		OpenedAt:        pos.OpenedAt,
		ClosedAt:        at,
		Reason:          string(reason),
	})
}

func (s *Store) InsertIncident(ctx context.Context, tx sql.DBTX, inc models.Incident) error {
	err := s.sql.InsertIncident(ctx, tx, &sql.InsertIncidentParams{
		Kind:   string(inc.Kind),
		Symbol: inc.Symbol,
		Detail: inc.Detail,
		At:     inc.At,
	})
	if err != nil {
		return fmt.Errorf("Store.InsertIncident: %w", err)
	}
	return nil
}

func (s *Store) UpsertCooldown(ctx context.Context, tx sql.DBTX, entry models.CooldownEntry) error {
	err := s.sql.UpsertCooldown(ctx, tx, &sql.UpsertCooldownParams{Symbol: entry.Symbol, Until: entry.Until})
	if err != nil {
		return fmt.Errorf("Store.UpsertCooldown: %w", err)
	}
	return nil
}

func (s *Store) ListOpen(ctx context.Context, tx sql.DBTX) ([]models.Position, error) {
	rows, err := s.sql.ListOpenPositions(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("Store.ListOpen: %w", err)
	}
	out := make([]models.Position, 0, len(rows))
	for _, r := range rows {
		out = append(out, models.Position{
			Symbol:            r.Symbol,
			Side:              models.Side(r.Side),
			Quantity:          r.Quantity,
			EntryPrice:        r.EntryPrice,
			StopPrice:         r.StopPrice,
			TakeProfitPrice:   r.TakeProfitPrice,
			EntryOrderID:      models.OrderID(r.EntryOrderID),
			StopOrderID:       models.OrderID(r.StopOrderID),
			TakeProfitOrderID: models.OrderID(r.TakeProfitOrderID),
			OpenedAt:          r.OpenedAt.UTC(),
		})
	}
	return out, nil
}

func (s *Store) ListCooldowns(ctx context.Context, tx sql.DBTX, now time.Time) ([]models.CooldownEntry, error) {
	rows, err := s.sql.ListActiveCooldowns(ctx, tx, now)
	if err != nil {
		return nil, fmt.Errorf("Store.ListCooldowns: %w", err)
	}
	out := make([]models.CooldownEntry, 0, len(rows))
	for _, r := range rows {
		out = append(out, models.CooldownEntry{Symbol: r.Symbol, Until: r.Until.UTC()})
	}
	return out, nil
}
