package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"apcacli/internal/domain"
)

func testBars() []domain.Bar {
	return []domain.Bar{
		{
			Symbol:     "AAPL",
			Timestamp:  time.Date(2024, 1, 2, 5, 0, 0, 0, time.UTC),
			Open:       185.0,
			High:       186.5,
			Low:        184.0,
			Close:      185.5,
			Volume:     50000000,
			TradeCount: 500000,
			VWAP:       185.25,
		},
		{
			Symbol:     "AAPL",
			Timestamp:  time.Date(2024, 1, 3, 5, 0, 0, 0, time.UTC),
			Open:       185.5,
			High:       187.0,
			Low:        185.0,
			Close:      186.0,
			Volume:     45000000,
			TradeCount: 450000,
			VWAP:       185.75,
		},
	}
}

func TestOpenByExtension(t *testing.T) {
	dir := t.TempDir()

	e, err := Open(filepath.Join(dir, "bars.parquet"))
	if err != nil {
		t.Fatalf("Open(.parquet) returned error: %v", err)
	}
	if _, ok := e.(*ParquetFile); !ok {
		t.Errorf("Open(.parquet) = %T, want *ParquetFile", e)
	}

	e, err = Open(filepath.Join(dir, "export.db"))
	if err != nil {
		t.Fatalf("Open(.db) returned error: %v", err)
	}
	defer e.Close()
	if _, ok := e.(*SQLiteStore); !ok {
		t.Errorf("Open(.db) = %T, want *SQLiteStore", e)
	}

	if _, err := Open(filepath.Join(dir, "out.csv")); err == nil {
		t.Error("Open(.csv) should fail")
	}
}

func TestParquetWriteReadBars(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "aapl.parquet")
	f := NewParquetFile(path)
	ctx := context.Background()
	bars := testBars()

	if err := f.WriteBars(ctx, bars[1:]); err != nil {
		t.Fatalf("WriteBars returned error: %v", err)
	}
	// A second write merges and replaces the overlapping bar.
	updated := bars[1]
	updated.Close = 190
	if err := f.WriteBars(ctx, []domain.Bar{bars[0], updated}); err != nil {
		t.Fatalf("WriteBars (merge) returned error: %v", err)
	}

	got, err := f.ReadBars()
	if err != nil {
		t.Fatalf("ReadBars returned error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len(bars) = %d, want 2", len(got))
	}
	if !got[0].Timestamp.Equal(bars[0].Timestamp) {
		t.Errorf("bars not sorted: first timestamp %v", got[0].Timestamp)
	}
	if got[1].Close != 190 {
		t.Errorf("merged close = %v, want 190", got[1].Close)
	}
	if got[0].Volume != 50000000 || got[0].VWAP != 185.25 {
		t.Errorf("bar fields lost: %+v", got[0])
	}
}

func TestParquetRejectsOrders(t *testing.T) {
	f := NewParquetFile(filepath.Join(t.TempDir(), "x.parquet"))
	if err := f.WriteOrders(context.Background(), nil); !errors.Is(err, ErrUnsupported) {
		t.Errorf("WriteOrders error = %v, want ErrUnsupported", err)
	}
	if err := f.WriteActivities(context.Background(), nil); !errors.Is(err, ErrUnsupported) {
		t.Errorf("WriteActivities error = %v, want ErrUnsupported", err)
	}
}

func TestSQLiteExport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.sqlite")
	s, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore returned error: %v", err)
	}
	ctx := context.Background()

	qty := decimal.NewFromInt(5)
	limit := decimal.RequireFromString("101.25")
	orders := []domain.Order{{
		ID:         "parent",
		Symbol:     "AAPL",
		Side:       domain.OrderSideBuy,
		Type:       domain.OrderTypeLimit,
		Status:     domain.OrderStatusNew,
		Qty:        &qty,
		LimitPrice: &limit,
		Legs: []domain.Order{{
			ID: "leg", Symbol: "AAPL", Side: domain.OrderSideSell, Type: domain.OrderTypeLimit, Status: domain.OrderStatusHeld,
		}},
	}}
	if err := s.WriteOrders(ctx, orders); err != nil {
		t.Fatalf("WriteOrders returned error: %v", err)
	}
	// Writing again replaces rather than duplicates.
	if err := s.WriteOrders(ctx, orders); err != nil {
		t.Fatalf("WriteOrders (again) returned error: %v", err)
	}
	acts := []domain.Activity{{ID: "a1", ActivityType: "FILL", Symbol: "AAPL", Qty: qty, NetAmount: decimal.NewFromInt(-500)}}
	if err := s.WriteActivities(ctx, acts); err != nil {
		t.Fatalf("WriteActivities returned error: %v", err)
	}
	if err := s.WriteBars(ctx, testBars()); err != nil {
		t.Fatalf("WriteBars returned error: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	count := func(table string) int {
		var n int
		if err := db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
			t.Fatalf("counting %s: %v", table, err)
		}
		return n
	}
	if n := count("orders"); n != 2 {
		t.Errorf("orders rows = %d, want 2", n)
	}
	if n := count("activities"); n != 1 {
		t.Errorf("activities rows = %d, want 1", n)
	}
	if n := count("bars"); n != 2 {
		t.Errorf("bars rows = %d, want 2", n)
	}

	var parent sql.NullString
	var limitText string
	if err := db.QueryRow("SELECT parent_id FROM orders WHERE id = 'leg'").Scan(&parent); err != nil {
		t.Fatal(err)
	}
	if parent.String != "parent" {
		t.Errorf("leg parent_id = %q, want parent", parent.String)
	}
	if err := db.QueryRow("SELECT limit_price FROM orders WHERE id = 'parent'").Scan(&limitText); err != nil {
		t.Fatal(err)
	}
	if limitText != "101.25" {
		t.Errorf("limit_price = %q, want 101.25", limitText)
	}
	var net string
	if err := db.QueryRow("SELECT net_amount FROM activities WHERE id = 'a1'").Scan(&net); err != nil {
		t.Fatal(err)
	}
	if net != "-500" {
		t.Errorf("net_amount = %q, want -500", net)
	}
}
