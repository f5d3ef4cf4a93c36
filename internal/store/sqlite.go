package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"apcacli/internal/domain"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Compile-time interface check.
var _ Exporter = (*SQLiteStore)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS orders (
	id               TEXT PRIMARY KEY,
	parent_id        TEXT,
	client_order_id  TEXT,
	symbol           TEXT NOT NULL,
	side             TEXT NOT NULL,
	type             TEXT NOT NULL,
	order_class      TEXT,
	time_in_force    TEXT,
	status           TEXT NOT NULL,
	qty              TEXT,
	notional         TEXT,
	filled_qty       TEXT,
	filled_avg_price TEXT,
	limit_price      TEXT,
	stop_price       TEXT,
	extended_hours   INTEGER NOT NULL DEFAULT 0,
	created_at       TEXT,
	updated_at       TEXT,
	filled_at        TEXT
);
CREATE TABLE IF NOT EXISTS activities (
	id            TEXT PRIMARY KEY,
	activity_type TEXT NOT NULL,
	time          TEXT,
	date          TEXT,
	symbol        TEXT,
	side          TEXT,
	qty           TEXT,
	price         TEXT,
	net_amount    TEXT,
	description   TEXT,
	order_id      TEXT
);
CREATE TABLE IF NOT EXISTS bars (
	symbol      TEXT NOT NULL,
	timestamp   TEXT NOT NULL,
	open        REAL,
	high        REAL,
	low         REAL,
	close       REAL,
	volume      INTEGER,
	trade_count INTEGER,
	vwap        REAL,
	PRIMARY KEY (symbol, timestamp)
);
`

// SQLiteStore exports records into a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and creates
// the export tables if needed.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating tables in %s: %w", dbPath, err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// WriteOrders upserts orders and their legs.
func (s *SQLiteStore) WriteOrders(ctx context.Context, orders []domain.Order) error {
	return s.inTx(ctx, `INSERT OR REPLACE INTO orders
		(id, parent_id, client_order_id, symbol, side, type, order_class, time_in_force, status,
		 qty, notional, filled_qty, filled_avg_price, limit_price, stop_price, extended_hours,
		 created_at, updated_at, filled_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		func(stmt *sql.Stmt) error {
			var insert func(o domain.Order, parent string) error
			insert = func(o domain.Order, parent string) error {
				_, err := stmt.ExecContext(ctx,
					o.ID, nullString(parent), o.ClientOrderID, o.Symbol, string(o.Side), string(o.Type),
					string(o.Class), string(o.TimeInForce), string(o.Status),
					decPtr(o.Qty), decPtr(o.Notional), o.FilledQty.String(), decPtr(o.FilledAvgPrice),
					decPtr(o.LimitPrice), decPtr(o.StopPrice), o.ExtendedHours,
					timeStr(o.CreatedAt), timeStr(o.UpdatedAt), timePtr(o.FilledAt))
				if err != nil {
					return fmt.Errorf("inserting order %s: %w", o.ID, err)
				}
				for _, leg := range o.Legs {
					if err := insert(leg, o.ID); err != nil {
						return err
					}
				}
				return nil
			}
			for _, o := range orders {
				if err := insert(o, ""); err != nil {
					return err
				}
			}
			return nil
		})
}

// WriteActivities upserts account activities.
func (s *SQLiteStore) WriteActivities(ctx context.Context, acts []domain.Activity) error {
	return s.inTx(ctx, `INSERT OR REPLACE INTO activities
		(id, activity_type, time, date, symbol, side, qty, price, net_amount, description, order_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		func(stmt *sql.Stmt) error {
			for _, a := range acts {
				_, err := stmt.ExecContext(ctx,
					a.ID, a.ActivityType, timeStr(a.Time), a.Date, a.Symbol, a.Side,
					a.Qty.String(), a.Price.String(), a.NetAmount.String(), a.Description, a.OrderID)
				if err != nil {
					return fmt.Errorf("inserting activity %s: %w", a.ID, err)
				}
			}
			return nil
		})
}

// WriteBars upserts bars keyed by symbol and timestamp.
func (s *SQLiteStore) WriteBars(ctx context.Context, bars []domain.Bar) error {
	return s.inTx(ctx, `INSERT OR REPLACE INTO bars
		(symbol, timestamp, open, high, low, close, volume, trade_count, vwap)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		func(stmt *sql.Stmt) error {
			for _, b := range bars {
				_, err := stmt.ExecContext(ctx,
					b.Symbol, timeStr(b.Timestamp), b.Open, b.High, b.Low, b.Close,
					b.Volume, b.TradeCount, b.VWAP)
				if err != nil {
					return fmt.Errorf("inserting bar %s %s: %w", b.Symbol, timeStr(b.Timestamp), err)
				}
			}
			return nil
		})
}

// inTx prepares query in a transaction and commits if fn succeeds.
func (s *SQLiteStore) inTx(ctx context.Context, query string, fn func(*sql.Stmt) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()
	if err := fn(stmt); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func decPtr(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func timeStr(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func timePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return timeStr(*t)
}
