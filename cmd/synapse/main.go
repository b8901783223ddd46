// Synapse orchestration server — serves the workflow HTTP API and runs
// workflow executions against LLM providers, streaming results over
// WebSocket.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/synapse-hq/synapse/pkg/api"
	"github.com/synapse-hq/synapse/pkg/config"
	"github.com/synapse-hq/synapse/pkg/database"
	"github.com/synapse-hq/synapse/pkg/engine"
	"github.com/synapse-hq/synapse/pkg/events"
	"github.com/synapse-hq/synapse/pkg/providers"
	"github.com/synapse-hq/synapse/pkg/services"
)

func main() {
	// Load .env if present; real environments set variables directly.
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, continuing with existing environment", "error", err)
	}

	// 1. Load configuration
	settings, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logLevel := slog.LevelInfo
	if settings.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting Synapse",
		"version", settings.AppVersion,
		"host", settings.Host,
		"port", settings.Port,
		"debug", settings.Debug)

	ctx := context.Background()

	// 2. Connect to PostgreSQL and apply migrations
	dbClient, err := database.NewClient(ctx, database.Config{URL: settings.DatabaseURL})
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			slog.Error("Error closing database client", "error", err)
		}
	}()
	slog.Info("Connected to PostgreSQL database")

	// 3. Event bus: Redis when configured, otherwise in-process
	var bus events.Bus
	if settings.RedisURL != "" {
		redisBus, err := events.NewRedisBus(settings.RedisURL)
		if err != nil {
			slog.Error("Failed to create Redis event bus", "error", err)
			os.Exit(1)
		}
		if err := redisBus.Ping(ctx); err != nil {
			slog.Error("Failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		bus = redisBus
		slog.Info("Connected to Redis event bus")
	} else {
		bus = events.NewMemoryBus()
		slog.Info("Using in-process event bus")
	}
	defer func() {
		if err := bus.Close(); err != nil {
			slog.Error("Error closing event bus", "error", err)
		}
	}()

	// 4. Services, provider registry, and the execution engine
	workflowService := services.NewWorkflowService(dbClient.DB())
	executionService := services.NewExecutionService(dbClient.DB())
	registry := providers.NewRegistry()
	publisher := events.NewPublisher(bus)
	cancels := engine.NewCancelRegistry()
	eng := engine.New(executionService, publisher, registry, cancels)
	slog.Info("Execution engine initialized", "providers", registry.Names())

	// 5. HTTP server
	httpServer := api.NewServer(settings, dbClient, workflowService, executionService, eng, registry, bus, cancels)

	errCh := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf("%s:%d", settings.Host, settings.Port)
		slog.Info("HTTP server listening", "addr", addr)
		if err := httpServer.Start(addr); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			errCh <- err
		}
	}()

	// 6. Wait for shutdown signal or server error
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	select {
	case sig := <-sigCh:
		slog.Info("Shutdown signal received", "signal", sig)
	case err := <-errCh:
		slog.Error("Server error triggered shutdown", "error", err)
	}

	// 7. Graceful shutdown. In-flight runs finish persisting on their own
	// goroutines; the HTTP server just stops accepting work.
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("Shutdown complete")
}
