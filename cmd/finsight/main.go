package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"finsight-etl/internal/api"
	"finsight-etl/internal/api/handlers"
	"finsight-etl/internal/jobs/inmemory"
	"finsight-etl/internal/repository"
	"finsight-etl/internal/service"
	"finsight-etl/pkg/auth"
	"finsight-etl/pkg/config"
	"finsight-etl/pkg/logger"
	"finsight-etl/pkg/objectstore"
	"finsight-etl/pkg/postgres"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logger.Level); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	appLogger := logger.Get()
	appLogger.Info("Starting finsight ETL service")

	ctx := context.Background()
	db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	store, err := objectstore.NewClient(ctx, cfg.Storage.Bucket, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to create object store client", zap.Error(err))
	}
	defer store.Close()

	// Repositories
	userRepo := repository.NewUserRepository(db, appLogger)
	statementRepo := repository.NewStatementRepository(db, appLogger)
	accountRepo := repository.NewAccountRepository(db, appLogger)
	txRepo := repository.NewTransactionRepository(db, appLogger)
	insightRepo := repository.NewInsightRepository(db, appLogger)

	// Services
	jwtManager := auth.NewJWTManager(cfg.JWT.SecretKey, cfg.JWT.Expiration, cfg.JWT.RefreshExp)
	authService := service.NewAuthService(userRepo, jwtManager, appLogger)

	enrichService, closeEnrich, err := service.NewEnrichService(&cfg.GigaChat, cfg.Pipeline.EnrichBatchSize, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize enrichment service", zap.Error(err))
	}
	defer closeEnrich()

	parseService := service.NewParseService(service.NewFitzExtractor(appLogger), appLogger)
	etlService := service.NewETLService(
		store, statementRepo, accountRepo, txRepo,
		parseService, enrichService, cfg.Pipeline.Parallelism, appLogger,
	)

	// In-process triggering transport: the upload handler publishes,
	// the ETL worker consumes.
	queue := inmemory.NewQueue(cfg.Pipeline.QueueBuffer, cfg.Pipeline.QueueWorkers, cfg.Pipeline.MaxAttempts)
	if err := queue.Start(ctx, etlService.ProcessBatch); err != nil {
		appLogger.Fatal("Failed to start ETL worker", zap.Error(err))
	}

	// Handlers and router
	authHandler := handlers.NewAuthHandler(authService, appLogger)
	statementHandler := handlers.NewStatementHandler(store, queue, statementRepo, txRepo, insightRepo, appLogger)
	app := api.SetupRouter(authHandler, statementHandler, jwtManager, appLogger)

	go func() {
		addr := ":" + cfg.Server.Port
		appLogger.Info("Server starting", zap.String("address", addr))
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down")
	if err := app.Shutdown(); err != nil {
		appLogger.Error("Server shutdown error", zap.Error(err))
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := queue.Stop(stopCtx); err != nil {
		appLogger.Error("Queue shutdown error", zap.Error(err))
	}
}
