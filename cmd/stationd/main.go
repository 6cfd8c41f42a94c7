// Command stationd serves the queueing-station simulation daemon: run
// management, live snapshot streaming, and Prometheus metrics over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/queueworks/station-sim/internal/stationd"
	"github.com/queueworks/station-sim/pkg/logger"
)

func main() {
	// .env is optional; flags and env vars win over it.
	_ = godotenv.Load()

	addr := flag.String("addr", envOr("STATIOND_ADDR", ":8080"), "HTTP listen address")
	logLevel := flag.String("log-level", envOr("STATIOND_LOG_LEVEL", "info"), "log level (debug, info, warn, error)")
	flag.Parse()

	logger.SetDefault(logger.New(*logLevel, os.Stdout))

	server := stationd.NewServer()
	httpServer := &http.Server{
		Addr:              *addr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("stationd listening", "addr", *addr)
		errCh <- httpServer.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", "error", err)
			os.Exit(1)
		}
	case sig := <-stop:
		logger.Info("shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			logger.Error("graceful shutdown failed", "error", err)
			os.Exit(1)
		}
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
