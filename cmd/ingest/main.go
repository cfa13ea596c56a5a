// Command ingest runs the statement pipeline for one already-uploaded
// object key, bypassing the event queue. Useful for reprocessing a
// document by hand; replaying a completed document is a no-op.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"finsight-etl/internal/repository"
	"finsight-etl/internal/service"
	"finsight-etl/pkg/config"
	"finsight-etl/pkg/logger"
	"finsight-etl/pkg/objectstore"
	"finsight-etl/pkg/postgres"

	"go.uber.org/zap"
)

func main() {
	key := flag.String("key", "", "object store key of the document to process")
	flag.Parse()

	if *key == "" {
		fmt.Fprintln(os.Stderr, "usage: ingest -key <object-key>")
		os.Exit(2)
	}

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

	enrichService, closeEnrich, err := service.NewEnrichService(&cfg.GigaChat, cfg.Pipeline.EnrichBatchSize, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize enrichment service", zap.Error(err))
	}
	defer closeEnrich()

	etlService := service.NewETLService(
		store,
		repository.NewStatementRepository(db, appLogger),
		repository.NewAccountRepository(db, appLogger),
		repository.NewTransactionRepository(db, appLogger),
		service.NewParseService(service.NewFitzExtractor(appLogger), appLogger),
		enrichService,
		cfg.Pipeline.Parallelism,
		appLogger,
	)

	outcome, err := etlService.ProcessDocument(ctx, *key)
	if err != nil {
		appLogger.Fatal("Processing failed", zap.String("key", *key), zap.Error(err))
	}
	fmt.Printf("%s: %s\n", *key, outcome)
}
