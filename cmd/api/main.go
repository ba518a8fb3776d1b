package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/antonkudrin/coverage-assistant/internal/adapters/http"
	"github.com/antonkudrin/coverage-assistant/internal/bootstrap"
	"github.com/antonkudrin/coverage-assistant/internal/config"
	"github.com/antonkudrin/coverage-assistant/internal/observability/metrics"
)

func main() {
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	// Fail fast on a broken contract instead of 500ing the first reader.
	if err := httpadapter.LoadOpenAPIDoc(); err != nil {
		log.Fatalf("openapi document error: %v", err)
	}

	router := httpadapter.NewRouter(
		httpadapter.Config{
			ServiceName:    "coverage-api",
			RateLimitRPS:   cfg.APIRateLimitRPS,
			RateLimitBurst: cfg.APIRateLimitBurst,
		},
		app.Coverage, app.Billing, app.Device, app.Drug,
		app.Chat, app.Ingest, app.Docs,
		metrics.NewHTTPServerMetrics("coverage-api"),
	)

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		app.Logger.Info("api_listening", "port", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("api server error: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		app.Logger.Error("api_shutdown_error", "error", err)
	}
}
