package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/soltixdb/udlc/internal/compression"
	"github.com/soltixdb/udlc/internal/config"
	"github.com/soltixdb/udlc/internal/logging"
	"github.com/soltixdb/udlc/internal/queue"
	"github.com/soltixdb/udlc/internal/router"
	"github.com/soltixdb/udlc/internal/services"
	"github.com/soltixdb/udlc/internal/storage"
	"github.com/soltixdb/udlc/internal/utils"
)

var (
	Version   = "dev"     // Injected via ldflags during build
	GitCommit = "unknown" // Injected via ldflags during build
	BuildTime = "unknown" // Injected via ldflags during build
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewFromConfig(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logging.SetGlobal(logger)
	logger.Info("Limits service starting...",
		"version", Version, "commit", GitCommit, "build time", BuildTime)

	// Result archive
	algo, err := compression.ParseAlgorithm(cfg.Storage.Compression)
	if err != nil {
		logger.Fatal("Invalid storage compression", "error", err)
	}
	compressor, err := compression.GetCompressor(algo)
	if err != nil {
		logger.Fatal("Invalid storage compression", "error", err)
	}
	store, err := storage.NewResultStore(cfg.Storage.DataDir, compressor)
	if err != nil {
		logger.Fatal("Failed to open result store", "error", err, "data_dir", cfg.Storage.DataDir)
	}
	logger.Info("Result store ready", "data_dir", cfg.Storage.DataDir, "compression", algo)

	// Job transport (configurable backend)
	logger.Info("Connecting to Queue", "type", cfg.Queue.Type, "url", cfg.Queue.URL)
	queueClient, err := queue.NewQueue(cfg.Queue)
	if err != nil {
		logger.Fatal("Failed to connect to Queue", "error", err)
	}
	defer func() { _ = queueClient.Close() }()

	jobs := services.NewJobService(logger, cfg, queueClient, store)
	if err := jobs.Start(); err != nil {
		logger.Fatal("Failed to start job service", "error", err)
	}

	if cfg.Auth.Enabled {
		logger.Info("API key authentication enabled", "num_keys", len(cfg.Auth.APIKeys))
	} else {
		logger.Warn("API key authentication DISABLED - all requests will be allowed")
	}

	app := router.New(logger, jobs, cfg)

	go func() {
		addr := cfg.GetServerAddress()
		logger.Info("Server listening", "address", addr)
		if err := app.Listen(addr); err != nil {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), utils.ShutdownTimeout)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}
	if err := jobs.Stop(shutdownCtx); err != nil {
		logger.Error("Running sweeps did not stop in time", "error", err)
	}

	logger.Info("Server exited")
}
