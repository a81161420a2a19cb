package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	_ "modernc.org/sqlite"

	"reversion_bot/internal/models"
	"reversion_bot/pkg/logger"
)

// Journal persists positions, closed trades, incidents and cooldowns to a local SQLite file.
type Journal struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens (or creates) the database and runs migrations.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	j := &Journal{db: db}
	if err := j.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	logger.Info("[JOURNAL] sqlite opened: %s", path)
	return j, nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}

func (j *Journal) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS open_positions (
			symbol               TEXT PRIMARY KEY,
			side                 TEXT NOT NULL,
			quantity             REAL NOT NULL,
			entry_price          REAL NOT NULL,
			stop_price           REAL NOT NULL,
			take_profit_price    REAL NOT NULL,
			entry_order_id       TEXT NOT NULL,
			stop_order_id        TEXT NOT NULL,
			take_profit_order_id TEXT NOT NULL,
			opened_at            INTEGER NOT NULL,
			signal               TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS trades (
			id                INTEGER PRIMARY KEY AUTOINCREMENT,
			symbol            TEXT NOT NULL,
			side              TEXT NOT NULL,
			quantity          REAL NOT NULL,
			entry_price       REAL NOT NULL,
			stop_price        REAL NOT NULL,
			take_profit_price REAL NOT NULL,
			opened_at         INTEGER NOT NULL,
			closed_at         INTEGER NOT NULL,
			reason            TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_closed ON trades(closed_at)`,
		`CREATE TABLE IF NOT EXISTS incidents (
			id     INTEGER PRIMARY KEY AUTOINCREMENT,
			kind   TEXT NOT NULL,
			symbol TEXT NOT NULL,
			detail TEXT,
			at     INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS cooldowns (
			symbol TEXT PRIMARY KEY,
			until  INTEGER NOT NULL
		)`,
	}
	for _, s := range stmts {
		if _, err := j.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (j *Journal) RecordOpen(ctx context.Context, pos models.Position, sig models.Signal) error {
	payload, err := sonic.Marshal(sig)
	if err != nil {
		return fmt.Errorf("marshal signal: %w", err)
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	_, err = j.db.ExecContext(ctx, `INSERT OR REPLACE INTO open_positions (
			symbol, side, quantity, entry_price, stop_price, take_profit_price,
			entry_order_id, stop_order_id, take_profit_order_id, opened_at, signal
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		pos.Symbol, string(pos.Side), pos.Quantity, pos.EntryPrice, pos.StopPrice, pos.TakeProfitPrice,
		string(pos.EntryOrderID), string(pos.StopOrderID), string(pos.TakeProfitOrderID),
		pos.OpenedAt.UnixMilli(), string(payload))
	if err != nil {
		return fmt.Errorf("insert open position: %w", err)
	}
	return nil
}

func (j *Journal) RecordClose(ctx context.Context, pos models.Position, reason models.CloseReason, at time.Time) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err = tx.ExecContext(ctx, `DELETE FROM open_positions WHERE symbol = ?`, pos.Symbol); err != nil {
		return fmt.Errorf("delete open position: %w", err)
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO trades (
			symbol, side, quantity, entry_price, stop_price, take_profit_price, opened_at, closed_at, reason
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		pos.Symbol, string(pos.Side), pos.Quantity, pos.EntryPrice, pos.StopPrice, pos.TakeProfitPrice,
		pos.OpenedAt.UnixMilli(), at.UnixMilli(), string(reason))
	if err != nil {
		return fmt.Errorf("insert trade: %w", err)
	}
	return tx.Commit()
}

func (j *Journal) RecordIncident(ctx context.Context, inc models.Incident) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	_, err := j.db.ExecContext(ctx, `INSERT INTO incidents (kind, symbol, detail, at) VALUES (?, ?, ?, ?)`,
		string(inc.Kind), inc.Symbol, inc.Detail, inc.At.UnixMilli())
	if err != nil {
		return fmt.Errorf("insert incident: %w", err)
	}
	return nil
}

func (j *Journal) SaveCooldown(ctx context.Context, entry models.CooldownEntry) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	_, err := j.db.ExecContext(ctx, `INSERT INTO cooldowns (symbol, until) VALUES (?, ?)
		ON CONFLICT(symbol) DO UPDATE SET until = excluded.until`,
		entry.Symbol, entry.Until.UnixMilli())
	if err != nil {
		return fmt.Errorf("upsert cooldown: %w", err)
	}
	return nil
}

func (j *Journal) LoadOpen(ctx context.Context) ([]models.Position, error) {
	rows, err := j.db.QueryContext(ctx, `SELECT
			symbol, side, quantity, entry_price, stop_price, take_profit_price,
			entry_order_id, stop_order_id, take_profit_order_id, opened_at
		FROM open_positions ORDER BY symbol`)
	if err != nil {
		return nil, fmt.Errorf("query open positions: %w", err)
	}
	defer rows.Close()

	var out []models.Position
	for rows.Next() {
		var (
			p               models.Position
			side            string
			entry, stop, tp string
			openedAt        int64
		)
		if err := rows.Scan(&p.Symbol, &side, &p.Quantity, &p.EntryPrice, &p.StopPrice, &p.TakeProfitPrice,
			&entry, &stop, &tp, &openedAt); err != nil {
			return nil, fmt.Errorf("scan open position: %w", err)
		}
		p.Side = models.Side(side)
		p.EntryOrderID, p.StopOrderID, p.TakeProfitOrderID = models.OrderID(entry), models.OrderID(stop), models.OrderID(tp)
		p.OpenedAt = time.UnixMilli(openedAt).UTC()
		out = append(out, p)
	}
	return out, rows.Err()
}

func (j *Journal) LoadCooldowns(ctx context.Context, now time.Time) ([]models.CooldownEntry, error) {
	rows, err := j.db.QueryContext(ctx, `SELECT symbol, until FROM cooldowns WHERE until > ? ORDER BY until`, now.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("query cooldowns: %w", err)
	}
	defer rows.Close()

	var out []models.CooldownEntry
	for rows.Next() {
		var (
			e     models.CooldownEntry
			until int64
		)
		if err := rows.Scan(&e.Symbol, &until); err != nil {
			return nil, fmt.Errorf("scan cooldown: %w", err)
		}
		e.Until = time.UnixMilli(until).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

// TradeCount returns the number of closed trades, by reason.
func (j *Journal) TradeCount(ctx context.Context) (map[models.CloseReason]int, error) {
	rows, err := j.db.QueryContext(ctx, `SELECT reason, COUNT(*) FROM trades GROUP BY reason`)
	if err != nil {
		return nil, fmt.Errorf("count trades: %w", err)
	}
	defer rows.Close()

	out := make(map[models.CloseReason]int)
	for rows.Next() {
		var (
			reason string
			n      int
		)
		if err := rows.Scan(&reason, &n); err != nil {
			return nil, err
		}
		out[models.CloseReason(reason)] = n
	}
	return out, rows.Err()
}
