package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wolfman30/dentago-admin/internal/api/router"
	"github.com/wolfman30/dentago-admin/internal/apiclient"
	"github.com/wolfman30/dentago-admin/internal/app/bootstrap"
	"github.com/wolfman30/dentago-admin/internal/appointments"
	appconfig "github.com/wolfman30/dentago-admin/internal/config"
	"github.com/wolfman30/dentago-admin/pkg/logging"
)

func main() {
	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting dentago-admin API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	rt, err := bootstrap.BuildRuntime(context.Background(), cfg, logger, nil)
	if err != nil {
		logger.Error("failed to initialize runtime", "error", err)
		os.Exit(1)
	}
	defer func() { _ = rt.Close() }()

	srv := newServer(cfg, router.New(rt.Router))

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

// newServer sizes the write timeout to the slowest route: a cancel by id
// is one read plus every cancel candidate, each with its own upstream
// timeout.
func newServer(cfg *appconfig.Config, handler http.Handler) *http.Server {
	upstream := cfg.RequestTimeout
	if upstream <= 0 {
		upstream = apiclient.DefaultTimeout
	}
	calls := 1 + len(appointments.CancelCandidates("id"))
	return &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      time.Duration(calls)*upstream + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
