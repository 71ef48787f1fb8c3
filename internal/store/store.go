// Package store persists enriched daily bars keyed by (ticker, date).
package store

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"StockPulse/internal/model"
)

// Store reads and merges enriched bars. Rows are never updated or deleted:
// Merge inserts bars for dates not yet stored and skips the rest.
type Store interface {
	// Read returns bars for ticker with date >= since, ascending. A zero since reads all.
	Read(ctx context.Context, ticker string, since time.Time) ([]model.EnrichedBar, error)
	// Merge inserts the bars whose date is absent, atomically per call, and
	// reports how many rows were inserted.
	Merge(ctx context.Context, ticker string, bars []model.EnrichedBar) (int, error)
	Close() error
}

// Open selects a backend from a database URL: sqlite:///path, a bare file
// path, postgres:// or postgresql://, or memory://.
func Open(ctx context.Context, databaseURL string) (Store, error) {
	switch {
	case databaseURL == "" || strings.HasPrefix(databaseURL, "memory://"):
		log.Println("[INFO] using in-memory store")
		return NewMemoryStore(), nil
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return NewPostgresStore(ctx, databaseURL)
	default:
		path := databaseURL
		if strings.HasPrefix(path, "sqlite:///") {
			path = strings.TrimPrefix(path, "sqlite:///")
		} else {
			path = strings.TrimPrefix(path, "sqlite://")
		}
		if path == "" {
			return nil, fmt.Errorf("empty sqlite path in %q", databaseURL)
		}
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create db dir: %w", err)
			}
		}
		return NewSQLiteStore(path)
	}
}

// sinceKey is the inclusive lower date bound used by SQL backends.
func sinceKey(since time.Time) string {
	if since.IsZero() {
		return "0001-01-01"
	}
	return model.DateKey(since)
}
