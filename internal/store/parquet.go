package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/parquet-go/parquet-go"

	"apcacli/internal/domain"
)

// Compile-time interface check.
var _ Exporter = (*ParquetFile)(nil)

// ParquetFile exports bars to a single Parquet file. Existing bars in the
// file are kept and merged with new ones.
type ParquetFile struct {
	Path string
}

// NewParquetFile returns an exporter writing to path.
func NewParquetFile(path string) *ParquetFile {
	return &ParquetFile{Path: path}
}

// BarRecord is the Parquet schema for bar data.
type BarRecord struct {
	Symbol     string  `parquet:"symbol"`
	Timestamp  int64   `parquet:"timestamp,timestamp(millisecond)"` // Unix ms
	Open       float64 `parquet:"open"`
	High       float64 `parquet:"high"`
	Low        float64 `parquet:"low"`
	Close      float64 `parquet:"close"`
	Volume     int64   `parquet:"volume"`
	TradeCount int64   `parquet:"trade_count"`
	VWAP       float64 `parquet:"vwap"`
}

// WriteBars merges bars into the file, sorted by timestamp.
func (f *ParquetFile) WriteBars(_ context.Context, bars []domain.Bar) error {
	if len(bars) == 0 {
		return nil
	}
	records := make([]BarRecord, 0, len(bars))
	for _, b := range bars {
		records = append(records, BarRecord{
			Symbol:     b.Symbol,
			Timestamp:  b.Timestamp.UnixMilli(),
			Open:       b.Open,
			High:       b.High,
			Low:        b.Low,
			Close:      b.Close,
			Volume:     b.Volume,
			TradeCount: b.TradeCount,
			VWAP:       b.VWAP,
		})
	}

	var existing []BarRecord
	if _, err := os.Stat(f.Path); err == nil {
		existing, err = readParquetFile[BarRecord](f.Path)
		if err != nil {
			return fmt.Errorf("reading existing bars from %s: %w", f.Path, err)
		}
	}
	if err := writeParquetFile(f.Path, mergeBarRecords(existing, records)); err != nil {
		return fmt.Errorf("writing bars to %s: %w", f.Path, err)
	}
	return nil
}

// ReadBars reads all bars stored in the file.
func (f *ParquetFile) ReadBars() ([]domain.Bar, error) {
	records, err := readParquetFile[BarRecord](f.Path)
	if err != nil {
		return nil, err
	}
	bars := make([]domain.Bar, 0, len(records))
	for _, r := range records {
		bars = append(bars, domain.Bar{
			Symbol:     r.Symbol,
			Timestamp:  time.UnixMilli(r.Timestamp).UTC(),
			Open:       r.Open,
			High:       r.High,
			Low:        r.Low,
			Close:      r.Close,
			Volume:     r.Volume,
			TradeCount: r.TradeCount,
			VWAP:       r.VWAP,
		})
	}
	return bars, nil
}

func (f *ParquetFile) WriteOrders(context.Context, []domain.Order) error {
	return fmt.Errorf("%w: parquet files hold bars only", ErrUnsupported)
}

func (f *ParquetFile) WriteActivities(context.Context, []domain.Activity) error {
	return fmt.Errorf("%w: parquet files hold bars only", ErrUnsupported)
}

// Close is a no-op; every write is a complete file.
func (f *ParquetFile) Close() error { return nil }

// ---------------------------------------------------------------------------
// Parquet file helpers
// ---------------------------------------------------------------------------

func writeParquetFile[T any](path string, records []T) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return parquet.WriteFile(path, records)
}

func readParquetFile[T any](path string) ([]T, error) {
	rows, err := parquet.ReadFile[T](path)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// mergeBarRecords deduplicates bar records by (symbol, timestamp), preferring
// new records over existing ones.
func mergeBarRecords(existing, incoming []BarRecord) []BarRecord {
	type key struct {
		symbol string
		ts     int64
	}
	seen := make(map[key]BarRecord, len(existing)+len(incoming))
	for _, r := range existing {
		seen[key{r.Symbol, r.Timestamp}] = r
	}
	for _, r := range incoming {
		seen[key{r.Symbol, r.Timestamp}] = r
	}

	merged := make([]BarRecord, 0, len(seen))
	for _, r := range seen {
		merged = append(merged, r)
	}
	sort.Slice(merged, func(i, j int) bool {
		if merged[i].Timestamp != merged[j].Timestamp {
			return merged[i].Timestamp < merged[j].Timestamp
		}
		return merged[i].Symbol < merged[j].Symbol
	})
	return merged
}
