package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"shopify-tally-integration/internal/client"
	"shopify-tally-integration/internal/config"
	"shopify-tally-integration/internal/logger"
	"shopify-tally-integration/internal/metrics"
	"shopify-tally-integration/internal/repository"
	"shopify-tally-integration/internal/server"
	"shopify-tally-integration/internal/service"
)

func main() {
	// load .env into os.Environ
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found (ok in prod)")
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewForEnvironment(cfg.Environment.Name, cfg.Log.Level)
	if cfg.Log.Format != "" {
		log = logger.New(&logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	}
	defer func() { _ = log.Sync() }()

	db, err := client.InitDBClient(cfg.Database, log)
	if err != nil {
		log.Fatal("init database", zap.Error(err))
	}
	if !cfg.Shopify.Configured() {
		log.Warn("SHOPIFY_STORE not set; storefront calls will fail until configured")
	}

	m := metrics.NewRegistry()

	orderRepo := repository.NewOrderRepository(db)
	shopRepo := repository.NewShopRepository(db)
	webhookEventRepo := repository.NewWebhookEventRepository(db)

	shopifyClient := client.NewShopifyClient(&cfg.Shopify, service.NewTokenProvider(&cfg.Shopify, shopRepo), m)

	orderService := service.NewOrderService(cfg, shopifyClient, orderRepo, webhookEventRepo, m)
	voucherService := service.NewVoucherService(shopifyClient, m)
	shopService := service.NewShopService(&cfg.Shopify, shopifyClient, shopRepo)

	// Init HTTP server
	srv := server.NewServer(log, cfg.APIKey, m, orderService, voucherService, shopService)

	serverAddr := cfg.Addr()
	log.Info("Starting HTTP server",
		zap.String("addr", serverAddr),
		zap.String("environment", cfg.Environment.Name),
		zap.String("db_driver", cfg.Database.Driver),
		zap.String("tax_policy", cfg.Tally.TaxPolicy),
	)
	go func() {
		if err := srv.Start(serverAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	<-sigChan
	log.Info("Signal received, starting graceful shutdown...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
