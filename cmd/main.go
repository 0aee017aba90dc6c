/*
Package main is the entry point for the Chat Relay application.

It is responsible for loading configuration, initializing the global logging system,
wiring the session registry, websocket Hub and Relay together, setting up the HTTP server,
and gracefully handling operating system interrupt signals (SIGINT, SIGTERM)
to ensure a smooth server shutdown.
*/
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/time/rate"

	"chatrelay/internal/app/chat"
	"chatrelay/internal/app/session"
	"chatrelay/internal/configs"
	"chatrelay/internal/handler"
	"chatrelay/internal/pkg/filter"
	"chatrelay/internal/pkg/limiter"
	"chatrelay/internal/pkg/logx"
	"chatrelay/internal/pkg/metrics"
)

func main() {
	// Load configuration from environment variables
	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	logCloser := logx.InitGlobalLogger(logx.Options{
		Development: cfg.IsDevelopment(),
		LogFile:     cfg.LogFile,
	})
	defer logCloser.Close()

	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Str("public_dir", cfg.PublicDir).
		Int("extra_banned_words", len(cfg.BannedWords)).
		Float64("event_rate", cfg.EventRate).
		Int("event_burst", cfg.EventBurst).
		Bool("metrics_enabled", cfg.MetricsEnabled).
		Msg("Configuration loaded successfully")

	// Create a context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	contentFilter := filter.Default().With(cfg.BannedWords...)
	logx.Debug("Content filter loaded", "words", contentFilter.Len())

	// Initialize the Hub and the Relay
	hub := chat.NewHub(m)
	relay := chat.NewRelay(session.NewRegistry(), hub,
		chat.WithContentFilter(contentFilter),
		chat.WithMetrics(m),
	)

	connectLimiter := limiter.NewIPRateLimiter(rate.Limit(handler.ConnectRate), handler.ConnectBurst)

	deps := &handler.AppDeps{
		Relay:          relay,
		Hub:            hub,
		Config:         cfg,
		ConnectLimiter: connectLimiter,
	}
	if cfg.MetricsEnabled {
		deps.Gatherer = reg
	}

	// Setup HTTP server and routes
	router := handler.Router(deps)

	serverAddr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:              serverAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logx.Info(fmt.Sprintf("Chat Relay starting on http://localhost%s", serverAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logx.Fatal(err, "Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server with a timeout of 5 seconds.
	<-ctx.Done()
	logx.Info("Received shutdown signal. Starting graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logx.Error(err, "Server forced to shutdown")
	}

	hub.Shutdown()
	connectLimiter.Close()

	logx.Info("Server gracefully stopped.", "open_connections", hub.ConnectionCount())
}
