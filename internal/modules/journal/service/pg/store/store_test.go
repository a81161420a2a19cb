package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reversion_bot/internal/models"
)

type execCall struct {
	sql  string
	args []any
}

// recorder captures Exec calls. Query paths are covered against a live database only.
type recorder struct {
	calls []execCall
	err   error
}

func (r *recorder) Exec(_ context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	r.calls = append(r.calls, execCall{sql: sql, args: args})
	return pgconn.CommandTag{}, r.err
}

func (r *recorder) Query(context.Context, string, ...interface{}) (pgx.Rows, error) {
	return nil, errors.New("not supported")
}

func (r *recorder) QueryRow(context.Context, string, ...interface{}) pgx.Row {
	return nil
}

var opened = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func position() models.Position {
	return models.Position{
		Symbol: "XYZUSDT", Side: models.SideLong, Quantity: 52.356,
		EntryPrice: 95.26, StopPrice: 93.35, TakeProfitPrice: 98.12,
		EntryOrderID: "1001", StopOrderID: "1002", TakeProfitOrderID: "1003",
		OpenedAt: opened,
	}
}

func TestUpsertOpenStoresSignalPayload(t *testing.T) {
	rec := &recorder{}
	sig := models.Signal{Symbol: "XYZUSDT", Side: models.SideLong, RSI: 22.3}

	require.NoError(t, New().UpsertOpen(context.Background(), rec, position(), sig))

	require.Len(t, rec.calls, 1)
	args := rec.calls[0].args
	require.Len(t, args, 11)
	assert.Equal(t, "XYZUSDT", args[0])
	assert.Equal(t, "LONG", args[1])
	assert.Equal(t, "1003", args[8])
	assert.Contains(t, string(args[10].([]byte)), `"RSI":22.3`)
}

func TestCloseDeletesThenInserts(t *testing.T) {
	rec := &recorder{}
	at := opened.Add(time.Hour)

	require.NoError(t, New().Close(context.Background(), rec, position(), models.CloseByStop, at))

	require.Len(t, rec.calls, 2)
	assert.Contains(t, rec.calls[0].sql, "DELETE FROM open_positions")
	assert.Contains(t, rec.calls[1].sql, "INSERT INTO trades")
	assert.Equal(t, at, rec.calls[1].args[7])
	assert.Equal(t, "stop_loss", rec.calls[1].args[8])
}

func TestCloseStopsOnDeleteError(t *testing.T) {
	rec := &recorder{err: errors.New("conn closed")}

	err := New().Close(context.Background(), rec, position(), models.CloseByStop, opened)

	assert.ErrorContains(t, err, "Store.Close")
	assert.Len(t, rec.calls, 1)
}
