package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/marmos91/scopefs/internal/logger"
	"github.com/marmos91/scopefs/pkg/config"
	"github.com/marmos91/scopefs/pkg/facade"
	"github.com/marmos91/scopefs/pkg/server"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (default: "+config.GetDefaultConfigPath()+")")
	logLevel := flag.String("log-level", "", "Override log level (DEBUG, INFO, WARN, ERROR)")
	initConfig := flag.Bool("init-config", false, "Write a starter config file to the default location and exit")
	flag.Parse()

	if *initConfig {
		path, err := config.InitConfig(false)
		if err != nil {
			log.Fatalf("Failed to initialize config: %v", err)
		}
		fmt.Printf("Config file written to %s\n", path)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if err := logger.Configure(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output); err != nil {
		log.Fatalf("Failed to configure logging: %v", err)
	}

	fmt.Println("ScopeFS - Scoped Multi-Tenant File Server")
	logger.Info("Log level set to: %s", cfg.Logging.Level)

	// Cancelled on SIGINT/SIGTERM, which drives graceful shutdown of every
	// adapter.
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	metricsResult := config.InitializeMetrics(cfg)

	registry, err := config.InitializeRegistry(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize registry: %v", err)
	}
	for _, mount := range registry.ListMounts() {
		logger.Info("Mount configured: %s", mount)
	}

	service := facade.NewService(registry)
	srv := server.New(service)

	adapters, err := config.CreateAdapters(cfg, metricsResult.DavMetrics)
	if err != nil {
		log.Fatalf("Failed to create adapters: %v", err)
	}
	for _, adapter := range adapters {
		if err := srv.AddAdapter(adapter); err != nil {
			log.Fatalf("Failed to register %s adapter: %v", adapter.Protocol(), err)
		}
	}

	// The metrics server lives outside the adapter lifecycle: it is not a
	// client-facing protocol and stops with the same context.
	if metricsResult.Server != nil {
		go func() {
			if err := metricsResult.Server.Start(ctx); err != nil {
				logger.Error("Metrics server error: %v", err)
			}
		}()
	}

	logger.Info("Server is running. Press Ctrl+C to stop.")

	if err := srv.Serve(ctx); err != nil && err != context.Canceled {
		logger.Error("Server error: %v", err)
		os.Exit(1)
	}

	logger.Info("Server stopped gracefully")
}
