package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/stanleykwembe/brilltech-mega/config"
	"github.com/stanleykwembe/brilltech-mega/internal/api"
	"github.com/stanleykwembe/brilltech-mega/internal/api/handler"
	"github.com/stanleykwembe/brilltech-mega/internal/database"
	"github.com/stanleykwembe/brilltech-mega/internal/pkg/cron"
	"github.com/stanleykwembe/brilltech-mega/internal/pkg/llm"
	"github.com/stanleykwembe/brilltech-mega/internal/pkg/payfast"
	"github.com/stanleykwembe/brilltech-mega/internal/repository"
	"github.com/stanleykwembe/brilltech-mega/internal/service"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.Server.Mode)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()

	db, err := database.NewMySQL(&cfg.Database)
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		logger.Fatal("database migration failed", zap.Error(err))
	}
	if err := database.Seed(db); err != nil {
		logger.Fatal("database seeding failed", zap.Error(err))
	}
	logger.Info("database ready")

	rdb, err := database.NewRedis(&cfg.Redis)
	if err != nil {
		logger.Fatal("redis connection failed", zap.Error(err))
	}
	logger.Info("redis connected")

	pfClient, err := payfast.NewClient(
		cfg.PayFast.ValidateURL,
		cfg.PayFast.SourceRanges,
		time.Duration(cfg.PayFast.ConfirmTimeoutSeconds)*time.Second,
	)
	if err != nil {
		logger.Fatal("payfast client init failed", zap.Error(err))
	}

	generator := llm.NewClient(cfg.AI.APIBaseURL, cfg.AI.APIKey, cfg.AI.Model)

	// Repositories
	userRepo := repository.NewUserRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	planRepo := repository.NewPlanRepository(db, rdb)
	subscriptionRepo := repository.NewSubscriptionRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)
	quotaRepo := repository.NewQuotaRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)

	// Services
	authService := service.NewAuthService(userRepo, cfg)
	subscriptionService := service.NewSubscriptionService(subscriptionRepo, planRepo, transactionRepo, cfg, logger)
	paymentService := service.NewPaymentService(transactionRepo, subscriptionService, pfClient, cfg, logger)
	quotaService := service.NewQuotaService(quotaRepo, subjectRepo, logger)
	gateService := service.NewGateService(subscriptionService, quotaService, logger)
	assignmentService := service.NewAssignmentService(
		assignmentRepo, subjectRepo, subscriptionService, quotaService, gateService, generator, logger)

	// Handlers
	authHandler := handler.NewAuthHandler(authService)
	subscriptionHandler := handler.NewSubscriptionHandler(subscriptionService)
	payfastHandler := handler.NewPayFastHandler(paymentService, logger)
	quotaHandler := handler.NewQuotaHandler(quotaService, subscriptionService, gateService)
	assignmentHandler := handler.NewAssignmentHandler(assignmentService)

	// Background expiry sweep
	cronService := cron.NewService(subscriptionService, time.Hour, logger)
	cronService.Start()
	defer cronService.Stop()

	router := api.NewRouter(
		authHandler,
		subscriptionHandler,
		payfastHandler,
		quotaHandler,
		assignmentHandler,
		cfg,
	)
	engine := router.Setup()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("server starting", zap.String("addr", addr))
	if err := engine.Run(addr); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func newLogger(mode string) (*zap.Logger, error) {
	if mode == "release" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
