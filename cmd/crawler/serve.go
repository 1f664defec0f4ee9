package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/Linked-Data-Person-Crawler/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Linked-Data-Person-Crawler/internal/searcher/handler"
	"github.com/Adithya-Monish-Kumar-K/Linked-Data-Person-Crawler/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/Linked-Data-Person-Crawler/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Linked-Data-Person-Crawler/pkg/middleware"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the search API over HTTP",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntVar(&servePort, "port", 0, "listen port (default server.port)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = servePort
	}
	// /metrics is served on the API port.
	cfg.Metrics.Enabled = false

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	var cacheAdmin handler.CacheAdmin
	if a.cache != nil {
		cacheAdmin = a.cache
	}
	h := handler.New(a.service, cacheAdmin, cfg.Crawler.DefaultPeople)
	var history analytics.RecentLister
	if a.history != nil {
		history = a.history
	}
	reports := analytics.NewHandler(a.aggregator, history)

	checker := health.NewChecker(0)
	checker.Register("data_dir", health.Ping(func(context.Context) error {
		return dataDirWritable(cfg.Storage.DataDir)
	}, true))
	checker.Register("graph", func(context.Context) health.ComponentHealth {
		if state := a.port.BreakerState(); state != "closed" {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "circuit " + state}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})
	if a.redis != nil {
		checker.Register("redis", health.Ping(a.redis.Ping, false))
	} else {
		checker.Register("redis", health.Disabled)
	}
	if a.postgres != nil {
		checker.Register("postgres", health.Ping(a.postgres.Ping, false))
	} else {
		checker.Register("postgres", health.Disabled)
	}

	mux := http.NewServeMux()
	h.Register(mux)
	mux.HandleFunc("GET /api/v1/reports/stats", reports.Stats)
	mux.HandleFunc("GET /api/v1/reports", reports.Recent)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())
	mux.Handle("GET /metrics", metrics.Handler())

	var chain http.Handler = mux
	chain = middleware.Timeout(cfg.Server.WriteTimeout)(chain)
	chain = middleware.RateLimit(cfg.Server.RequestsPerMinute)(chain)
	chain = middleware.Metrics(a.metrics)(chain)
	chain = middleware.RequestID(chain)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("crawler api listening", "addr", server.Addr, "data_dir", cfg.Storage.DataDir, "endpoint", cfg.Graph.Endpoint)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving http: %w", err)
	}
	slog.Info("crawler api stopped")
	return nil
}
