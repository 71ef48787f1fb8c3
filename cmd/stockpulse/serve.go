package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"StockPulse/internal/api"
)

var serveCMD = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long:  `Start the HTTP API, plus the warm scheduler and Telegram bot when configured.`,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	log.Println("[INFO] StockPulse starting...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	sched := a.newScheduler(ctx)
	if a.cfg.Schedule.WarmCron != "" {
		if err := sched.Register(a.cfg.Schedule.WarmCron); err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()
	}
	if a.telegram != nil {
		go a.telegram.StartPolling(ctx, sched.HandleCommand)
		log.Println("[INFO] Telegram polling started")
	}

	srv := api.NewServer(a.series, a.analytics, api.Options{
		MaxDays:         a.cfg.Data.MaxDays,
		AllowedOrigins:  a.cfg.Server.AllowedOrigins,
		AllowAllOrigins: a.cfg.Server.CORSAllowAll,
		Debug:           a.cfg.Debug(),
	}).HTTPServer(a.cfg.Addr())

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[INFO] listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Println("[INFO] shutdown signal received, stopping...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Println("[INFO] StockPulse stopped")
	return nil
}

