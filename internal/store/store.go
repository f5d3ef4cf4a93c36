// Package store writes fetched records to local files on request: bars to
// Parquet, and orders, activities and bars to SQLite.
package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"apcacli/internal/domain"
)

// ErrUnsupported is returned when a file format cannot hold a record type.
var ErrUnsupported = errors.New("unsupported record type for file format")

// Exporter is an output file for fetched records.
type Exporter interface {
	// WriteBars persists a batch of bars, replacing bars with the same
	// symbol and timestamp.
	WriteBars(ctx context.Context, bars []domain.Bar) error

	// WriteOrders persists orders, replacing orders with the same id.
	WriteOrders(ctx context.Context, orders []domain.Order) error

	// WriteActivities persists account activities, replacing activities
	// with the same id.
	WriteActivities(ctx context.Context, acts []domain.Activity) error

	Close() error
}

// Open returns the exporter for path, chosen by its extension.
func Open(path string) (Exporter, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".parquet":
		return NewParquetFile(path), nil
	case ".db", ".sqlite", ".sqlite3":
		return NewSQLiteStore(path)
	default:
		return nil, fmt.Errorf("unknown export format %q (want .parquet, .db or .sqlite)", ext)
	}
}
