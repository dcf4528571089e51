package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/travelcrm/backend/internal/application/rates"
	"github.com/travelcrm/backend/internal/infrastructure/config"
	"github.com/travelcrm/backend/internal/infrastructure/logger"
	"github.com/travelcrm/backend/internal/infrastructure/persistence"
)

func main() {
	var (
		filePath string
		logLevel string
	)

	flag.StringVar(&filePath, "file", "", "Path to the rate sheet CSV")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	if filePath == "" {
		printUsage()
		os.Exit(1)
	}

	log, err := logger.New(&logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	db, err := persistence.NewDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	f, err := os.Open(filePath)
	if err != nil {
		log.Fatal("Failed to open rate sheet", zap.String("file", filePath), zap.Error(err))
	}
	defer f.Close()

	svc := rates.NewImportService(persistence.NewGormRateProvider(db.DB), log)

	result, err := svc.Import(context.Background(), f)
	if err != nil {
		log.Fatal("Rate sheet import failed", zap.Error(err))
	}

	log.Info("Rate sheet import finished",
		zap.Int("total", result.Total),
		zap.Int("imported", result.Imported),
		zap.Int("failed", result.Failed),
	)
	for _, rowErr := range result.Errors {
		log.Warn("Row rejected",
			zap.Int("row", rowErr.Row),
			zap.String("column", rowErr.Column),
			zap.String("code", rowErr.Code),
			zap.String("message", rowErr.Message),
		)
	}

	if result.Failed > 0 {
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`TravelCRM Rate Sheet Import Tool

Usage:
  rateimport -file <path> [flags]

Expected CSV columns:
  deal_id        Deal UUID (required, unique within file)
  average_rate   Average conversion rate (required, positive decimal)
  rate_count     Conversion rate count (optional, defaults to 1)

Flags:
  -file string       Path to the rate sheet CSV
  -log-level string  Log level: debug, info, warn, error (default: info)`)
}
