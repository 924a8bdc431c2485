package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"geoscan/config"
	"geoscan/database"
	apperrors "geoscan/errors"
	"geoscan/providers"
	"geoscan/quota"
	"geoscan/scanner"
	"geoscan/web"

	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	// Initialize logger with default level to load config
	tempLogger, err := config.InitLogger("info")
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	// Load config (which includes log level setting)
	cfg := config.Load(tempLogger)

	// Re-initialize logger with configured level
	logger, err := config.InitLogger(cfg.LogLevel)
	if err != nil {
		fmt.Printf("Failed to re-initialize logger with configured level: %v\n", err)
		os.Exit(1)
	}
	defer config.Cleanup()

	store, err := database.NewPostgresStore(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}

	// --- Ensure Schema Exists ---
	if err := store.EnsureSchema(ctx); err != nil {
		logger.Fatal("Failed to ensure database schema", zap.Error(err))
	}

	// A provider without credentials is skipped, not fatal: the scan runs on
	// whatever is configured.
	enabled := buildProviders(cfg, logger)
	if len(enabled) == 0 {
		logger.Fatal("No scan providers configured; set at least one provider API key")
	}

	quotaManager := quota.NewManager(cfg, store, logger)
	notifier := scanner.NewNotifier(cfg.NotifyWebhookURL, logger)
	orchestrator := scanner.NewOrchestrator(cfg, enabled, store, notifier, logger)

	reports, err := scanner.NewReportBuilder(store, cfg.ReportCacheSize, logger)
	if err != nil {
		logger.Fatal("Failed to initialize report builder", zap.Error(err))
	}

	// Initialize web server
	webServer := web.NewServer(orchestrator, quotaManager, reports, store, logger, cfg)

	// Create context that listens for interrupt signals
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Start web server
	port := fmt.Sprintf(":%d", cfg.WebPort)
	logger.Info("Starting GEO scan web server", zap.String("port", port))
	if err := webServer.Start(ctx, port); err != nil {
		logger.Error("Web server error", zap.Error(err))
		os.Exit(1)
	}
}

func buildProviders(cfg *config.Config, logger *zap.Logger) []providers.Provider {
	var enabled []providers.Provider

	add := func(name string, p providers.Provider, err error) {
		if err != nil {
			if apperrors.IsProviderConfig(err) {
				logger.Warn("Provider disabled", zap.String("provider", name), zap.Error(err))
				return
			}
			logger.Fatal("Failed to initialize provider", zap.String("provider", name), zap.Error(err))
		}
		enabled = append(enabled, p)
	}

	chatgpt, err := providers.NewChatGPTProvider(cfg, logger)
	add("chatgpt", chatgpt, err)
	perplexity, err := providers.NewPerplexityProvider(cfg, logger)
	add("perplexity", perplexity, err)
	overview, err := providers.NewOverviewProvider(cfg, logger)
	add("ai_overview", overview, err)

	return enabled
}
