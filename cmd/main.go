/*
Package main is the entry point for the Playchat real-time server.

It is responsible for loading configuration, initializing the global logging system and
metrics export, connecting to Postgres, setting up the HTTP server, starting the chat Hub,
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

	"playchat/internal/app/auth"
	"playchat/internal/app/chat"
	"playchat/internal/app/db"
	"playchat/internal/app/storage"
	"playchat/internal/configs"
	"playchat/internal/handler"
	"playchat/internal/pkg/logx"
	"playchat/internal/pkg/telemetry"
)

const serviceName = "playchat"

func main() {
	// Load configuration from environment variables
	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	logx.InitGlobalLogger(logx.Config{Development: cfg.IsDevelopment(), Service: serviceName})
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Dur("sweep_interval", cfg.SweepInterval).
		Dur("inactivity_timeout", cfg.InactivityTimeout).
		Msg("Configuration loaded successfully")

	// Create a context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Init(ctx, serviceName, cfg.OTLPEndpoint)
	if err != nil {
		logx.Fatal(err, "Failed to initialize telemetry")
	}

	pool, err := db.NewPool(ctx, cfg.DatabaseDSN)
	if err != nil {
		logx.Fatal(err, "Failed to connect to database")
	}
	defer pool.Close()

	queries := db.NewQueries(pool)

	opts := chat.Options{
		SweepInterval:     cfg.SweepInterval,
		InactivityTimeout: cfg.InactivityTimeout,
		Metrics:           telemetry.NewMetrics(),
	}

	storageCfg := storage.ServiceConfig{
		S3BucketName:      cfg.S3BucketName,
		S3Endpoint:        cfg.S3Endpoint,
		S3AccessKeyID:     cfg.S3AccessKeyID,
		S3SecretAccessKey: cfg.S3SecretAccessKey,
	}
	if storageCfg.Enabled() {
		objects, err := storage.NewService(ctx, storageCfg)
		if err != nil {
			logx.Fatal(err, "Failed to initialize storage service")
		}
		opts.Objects = objects
		logx.Info("Image message verification enabled", "bucket", cfg.S3BucketName)
	} else {
		logx.Info("S3 storage not configured, image message verification disabled")
	}

	// Initialize chat Hub
	hub := chat.NewHub(queries, opts)
	hub.Start()

	deps := &handler.AppDeps{
		Hub:    hub,
		Auth:   auth.NewAuthenticator(cfg.JWTSecret, queries),
		Config: cfg,
	}

	// Setup HTTP server and routes
	router := handler.Router(deps)

	serverAddr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logx.Info(fmt.Sprintf("Playchat Server starting on http://localhost%s", serverAddr))
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

	// hijacked WebSocket connections are not covered by server.Shutdown
	hub.Shutdown()

	if err := shutdownTelemetry(shutdownCtx); err != nil {
		logx.Error(err, "Failed to flush metrics")
	}

	logx.Info("Server gracefully stopped.")
}
