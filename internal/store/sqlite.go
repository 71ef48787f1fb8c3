package store

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/guregu/null/v6"
	_ "modernc.org/sqlite"

	"StockPulse/internal/model"
)

// SQLiteStore persists bars to a SQLite database.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteStore opens (or creates) the SQLite database and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets API reads proceed while a merge is writing.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite store opened: %s", dbPath)
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		// date is TEXT (YYYY-MM-DD) so the driver hands it back verbatim and
		// range filters compare lexically.
		`CREATE TABLE IF NOT EXISTS stock_data (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			symbol           TEXT NOT NULL,
			date             TEXT NOT NULL,
			open             REAL NOT NULL,
			high             REAL NOT NULL,
			low              REAL NOT NULL,
			close            REAL NOT NULL CHECK (close > 0),
			volume           INTEGER,
			daily_return     REAL,
			ma_7             REAL,
			volatility_score REAL,
			created_at       INTEGER NOT NULL,
			UNIQUE (symbol, date)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_symbol_date ON stock_data(symbol, date)`,
	}

	for _, st := range stmts {
		if _, err := s.db.Exec(st); err != nil {
			return fmt.Errorf("exec %q: %w", st[:40], err)
		}
	}
	return nil
}

func (s *SQLiteStore) Read(ctx context.Context, ticker string, since time.Time) ([]model.EnrichedBar, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT date, open, high, low, close, volume,
		daily_return, ma_7, volatility_score
		FROM stock_data
		WHERE symbol = ? AND date >= ?
		ORDER BY date ASC`, ticker, sinceKey(since))
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", ticker, err)
	}
	defer rows.Close()

	var out []model.EnrichedBar
	for rows.Next() {
		var date string
		var dailyReturn, ma, vol null.Float
		b := model.EnrichedBar{Bar: model.Bar{Ticker: ticker}}
		if err := rows.Scan(&date, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume,
			&dailyReturn, &ma, &vol); err != nil {
			return nil, fmt.Errorf("scan %s: %w", ticker, err)
		}
		if b.Date, err = model.ParseDate(date); err != nil {
			return nil, fmt.Errorf("scan %s: %w", ticker, err)
		}
		b.DailyReturn = dailyReturn.ValueOrZero()
		b.MA7 = ma.ValueOrZero()
		b.Volatility30 = vol.ValueOrZero()
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", ticker, err)
	}
	return out, nil
}

func (s *SQLiteStore) Merge(ctx context.Context, ticker string, bars []model.EnrichedBar) (int, error) {
	if len(bars) == 0 {
		return 0, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO stock_data
		(symbol, date, open, high, low, close, volume,
		 daily_return, ma_7, volatility_score, created_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(symbol, date) DO NOTHING`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().Unix()
	inserted := 0
	for _, b := range bars {
		res, err := stmt.ExecContext(ctx,
			ticker, model.DateKey(b.Date), b.Open, b.High, b.Low, b.Close, b.Volume,
			b.DailyReturn, b.MA7, b.Volatility30, now,
		)
		if err != nil {
			return 0, fmt.Errorf("insert %s %s: %w", ticker, model.DateKey(b.Date), err)
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return inserted, nil
}

func (s *SQLiteStore) Close() error {
	log.Println("[INFO] closing sqlite store")
	return s.db.Close()
}
