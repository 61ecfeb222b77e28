// Sweeper flips overdue active subscriptions to expired. The API enforces
// expiry lazily on read; this keeps the table honest for reporting and for
// anything that queries it directly. Run it one-shot from cron, or with
// -interval to loop.
package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/stanleykwembe/brilltech-mega/config"
	"github.com/stanleykwembe/brilltech-mega/internal/database"
	"github.com/stanleykwembe/brilltech-mega/internal/pkg/cron"
	"github.com/stanleykwembe/brilltech-mega/internal/repository"
	"github.com/stanleykwembe/brilltech-mega/internal/service"
)

var (
	interval = flag.Duration("interval", 0, "Sweep repeatedly at this interval (0 = run once and exit)")
)

func main() {
	flag.Parse()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()

	db, err := database.NewMySQL(&cfg.Database)
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}

	subscriptionRepo := repository.NewSubscriptionRepository(db)
	planRepo := repository.NewPlanRepository(db, nil)
	transactionRepo := repository.NewTransactionRepository(db)
	subscriptionService := service.NewSubscriptionService(subscriptionRepo, planRepo, transactionRepo, cfg, logger)

	if *interval <= 0 {
		n, err := subscriptionService.ExpireOverdue()
		if err != nil {
			logger.Fatal("sweep failed", zap.Error(err))
		}
		logger.Info("sweep complete", zap.Int64("expired", n))
		return
	}

	svc := cron.NewService(subscriptionService, *interval, logger)
	svc.Start()
	defer svc.Stop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("sweeper shutting down")
}
