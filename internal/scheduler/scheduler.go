// Package scheduler runs the catalog warm job and answers chat commands.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"StockPulse/internal/analytics"
	"StockPulse/internal/calculator"
	"StockPulse/internal/notifier"
	"StockPulse/internal/series"
)

// Sender delivers a digest; *notifier.TelegramNotifier implements it.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Scheduler manages the warm cron task.
type Scheduler struct {
	Cron      *cron.Cron
	Series    *series.Service
	Analytics *analytics.Service
	Notifier  Sender
	WarmDays  int
	Ctx       context.Context
	now       func() time.Time
}

// NewScheduler creates a new Scheduler. n may be nil, in which case digests are
// only logged.
func NewScheduler(ctx context.Context, s *series.Service, a *analytics.Service, n Sender, warmDays int) *Scheduler {
	if warmDays <= 0 {
		warmDays = 30
	}
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Series:    s,
		Analytics: a,
		Notifier:  n,
		WarmDays:  warmDays,
		Ctx:       ctx,
		now:       time.Now,
	}
}

// Register schedules the warm task on warmCron.
func (s *Scheduler) Register(warmCron string) error {
	if _, err := s.Cron.AddFunc(warmCron, s.warmTask); err != nil {
		return fmt.Errorf("register warm task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler and waits for a running warm pass.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// RunWarmNow executes one warm pass immediately and returns its digest.
func (s *Scheduler) RunWarmNow() string {
	return s.warm()
}

func (s *Scheduler) warmTask() {
	s.warm()
}

func (s *Scheduler) warm() string {
	log.Println("[INFO] running warm task")
	lines := s.Warm(s.Ctx)
	digest := notifier.FormatWarmDigest(lines, s.now())
	s.trySend(digest)
	return digest
}

// Warm refreshes WarmDays of bars for every catalog ticker. Failures are
// recorded per ticker and never stop the pass.
func (s *Scheduler) Warm(ctx context.Context) []notifier.DigestLine {
	symbols := s.Series.Catalog().Symbols()
	lines := make([]notifier.DigestLine, 0, len(symbols))
	for _, ticker := range symbols {
		if ctx.Err() != nil {
			lines = append(lines, notifier.DigestLine{Ticker: ticker, Err: ctx.Err()})
			continue
		}
		line := s.warmOne(ctx, ticker)
		if line.Err != nil {
			log.Printf("[WARN] warm %s: %v", ticker, line.Err)
		}
		lines = append(lines, line)
	}
	return lines
}

func (s *Scheduler) warmOne(ctx context.Context, ticker string) notifier.DigestLine {
	line := notifier.DigestLine{Ticker: ticker}
	res, err := s.Series.Get(ctx, ticker, s.WarmDays)
	if err != nil {
		line.Err = err
		return line
	}
	line.Source = res.Source.String()
	line.Inserted = res.Inserted
	if res.PersistErr != nil {
		line.Err = fmt.Errorf("persist: %w", res.PersistErr)
		return line
	}

	bars := res.Bars
	if full, err := s.Series.Stored(ctx, ticker); err == nil {
		bars = full.Bars
	}
	line.Close = bars[len(bars)-1].Close
	high, low, err := calculator.Calculate52WeekRange(bars)
	if err != nil {
		line.Err = err
		return line
	}
	line.High52w, line.Low52w = high, low
	if line.Position, err = calculator.RangePosition(line.Close, high, low); err != nil {
		line.Err = err
	}
	return line
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return ""
	}
	// Group chats send "/cmd@botname".
	name, _, _ := strings.Cut(strings.ToLower(fields[0]), "@")
	args := fields[1:]

	switch name {
	case "/symbols":
		return notifier.FormatSymbols(s.Series.Catalog().Symbols())
	case "/summary":
		if len(args) != 1 {
			return "Usage: /summary TICKER"
		}
		summary, err := s.Analytics.Summary(ctx, args[0])
		if err != nil {
			return commandError(args[0], err)
		}
		return notifier.FormatSummary(strings.ToUpper(args[0]), summary)
	case "/compare":
		if len(args) != 2 {
			return "Usage: /compare TICKER1 TICKER2"
		}
		cmp, err := s.Analytics.CompareTickers(ctx, args[0], args[1])
		if err != nil {
			return commandError(args[0]+"/"+args[1], err)
		}
		return notifier.FormatComparison(cmp)
	case "/warm":
		s.warm()
		return ""
	default:
		return "Available commands:\n• /symbols\n• /summary TICKER\n• /compare TICKER1 TICKER2\n• /warm"
	}
}

func commandError(subject string, err error) string {
	switch {
	case errors.Is(err, series.ErrUnknownSymbol):
		return fmt.Sprintf("❌ Unknown symbol in %s. Try /symbols", strings.ToUpper(subject))
	case errors.Is(err, series.ErrNoData):
		return fmt.Sprintf("❌ No data for %s yet", strings.ToUpper(subject))
	default:
		log.Printf("[ERROR] command for %s: %v", subject, err)
		return "❌ Request failed, please retry later"
	}
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		log.Printf("[INFO] warm digest:\n%s", text)
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
