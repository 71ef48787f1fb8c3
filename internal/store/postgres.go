package store

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/guregu/null/v6"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"StockPulse/internal/model"
)

// PostgresStore persists bars to PostgreSQL through a pgx pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects, pings and migrates.
func NewPostgresStore(ctx context.Context, connectionString string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(connectionString)
	if err != nil {
		return nil, fmt.Errorf("parse pgx connection string: %w", err)
	}
	config.MaxConns = 10
	config.MinConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("new pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	s := &PostgresStore{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	log.Printf("[INFO] postgres store opened: %s@%s/%s", config.ConnConfig.User, config.ConnConfig.Host, config.ConnConfig.Database)
	return s, nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS stock_data (
			id               BIGSERIAL PRIMARY KEY,
			symbol           TEXT NOT NULL,
			date             DATE NOT NULL,
			open             DOUBLE PRECISION NOT NULL,
			high             DOUBLE PRECISION NOT NULL,
			low              DOUBLE PRECISION NOT NULL,
			close            DOUBLE PRECISION NOT NULL,
			volume           BIGINT,
			daily_return     DOUBLE PRECISION,
			ma_7             DOUBLE PRECISION,
			volatility_score DOUBLE PRECISION,
			created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
			CONSTRAINT uq_symbol_date UNIQUE (symbol, date)
		)`,
		// Tables created before the close check existed get it added here.
		`DO $$ BEGIN
			ALTER TABLE stock_data ADD CONSTRAINT ck_close_positive CHECK (close > 0);
		EXCEPTION WHEN duplicate_object THEN NULL;
		END $$`,
		`CREATE INDEX IF NOT EXISTS idx_symbol_date ON stock_data(symbol, date)`,
	}
	for _, st := range stmts {
		if _, err := s.pool.Exec(ctx, st); err != nil {
			return fmt.Errorf("exec %q: %w", st[:40], err)
		}
	}
	return nil
}

type stockRow struct {
	Date            time.Time  `db:"date"`
	Open            float64    `db:"open"`
	High            float64    `db:"high"`
	Low             float64    `db:"low"`
	Close           float64    `db:"close"`
	Volume          null.Int   `db:"volume"`
	DailyReturn     null.Float `db:"daily_return"`
	MA7             null.Float `db:"ma_7"`
	VolatilityScore null.Float `db:"volatility_score"`
}

func (s *PostgresStore) Read(ctx context.Context, ticker string, since time.Time) ([]model.EnrichedBar, error) {
	query := `
		SELECT date, open, high, low, close, volume, daily_return, ma_7, volatility_score
		FROM stock_data
		WHERE symbol = @symbol AND date >= @since::date
		ORDER BY date ASC`
	args := pgx.NamedArgs{
		"symbol": ticker,
		"since":  sinceKey(since),
	}

	rows, err := s.pool.Query(ctx, query, args)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", ticker, err)
	}
	res, err := pgx.CollectRows(rows, pgx.RowToStructByName[stockRow])
	if err != nil {
		return nil, fmt.Errorf("collect %s: %w", ticker, err)
	}

	out := make([]model.EnrichedBar, len(res))
	for i, r := range res {
		out[i] = model.EnrichedBar{
			Bar: model.Bar{
				Ticker: ticker,
				Date:   model.DateOf(r.Date),
				Open:   r.Open,
				High:   r.High,
				Low:    r.Low,
				Close:  r.Close,
				Volume: r.Volume,
			},
			DailyReturn:  r.DailyReturn.ValueOrZero(),
			MA7:          r.MA7.ValueOrZero(),
			Volatility30: r.VolatilityScore.ValueOrZero(),
		}
	}
	return out, nil
}

func (s *PostgresStore) Merge(ctx context.Context, ticker string, bars []model.EnrichedBar) (int, error) {
	if len(bars) == 0 {
		return 0, nil
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, b := range bars {
		batch.Queue(`INSERT INTO stock_data
			(symbol, date, open, high, low, close, volume, daily_return, ma_7, volatility_score)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (symbol, date) DO NOTHING`,
			ticker, model.DateOf(b.Date), b.Open, b.High, b.Low, b.Close, b.Volume,
			b.DailyReturn, b.MA7, b.Volatility30,
		)
	}

	br := tx.SendBatch(ctx, batch)
	inserted := 0
	for range bars {
		tag, err := br.Exec()
		if err != nil {
			br.Close()
			return 0, fmt.Errorf("insert %s: %w", ticker, err)
		}
		inserted += int(tag.RowsAffected())
	}
	if err := br.Close(); err != nil {
		return 0, fmt.Errorf("close batch: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return inserted, nil
}

func (s *PostgresStore) Close() error {
	log.Println("[INFO] closing postgres store")
	s.pool.Close()
	return nil
}
