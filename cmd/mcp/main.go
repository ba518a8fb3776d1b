package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	mcpadapter "github.com/antonkudrin/coverage-assistant/internal/adapters/mcp"
	"github.com/antonkudrin/coverage-assistant/internal/bootstrap"
	"github.com/antonkudrin/coverage-assistant/internal/config"
)

const version = "0.1.0"

func main() {
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	srv := mcpadapter.NewServer(version, app.Coverage, app.Billing, app.Device, app.Drug)
	app.Logger.Info("mcp_serving_stdio", "version", version)
	if err := srv.ServeStdio(); err != nil {
		log.Fatalf("mcp server error: %v", err)
	}
}
