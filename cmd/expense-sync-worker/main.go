package main

import (
	"context"
	"errors"
	"os"

	"expensetracker/internal/amqp"
	"expensetracker/internal/cli"
	"expensetracker/internal/config"
	applog "expensetracker/internal/log"
	gsheet "expensetracker/internal/sheets/google"
	"expensetracker/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg, logger := cli.LoadAndValidateConfig(applog.ComponentWorker, (*config.Config).ValidateWorker)
	logger.Info("Starting expense-sync-worker")

	ctx, stop := cli.SignalContext()
	defer stop()

	sheetsClient, err := gsheet.NewFromConfig(ctx, gsheet.Config{
		SpreadsheetID:      cfg.GoogleSpreadsheetID,
		SheetName:          cfg.GoogleSheetName,
		ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
		ServiceAccountFile: cfg.GoogleServiceAccountFile,
	}, logger)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	amqpClient, err := amqp.NewClient(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	syncWorker := worker.NewSyncWorker(sheetsClient, logger)

	err = amqpClient.ConsumeEvents(ctx, syncWorker.HandleEvent)
	handled, failed := syncWorker.Stats()
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", applog.FieldError, err,
			"handled", handled, "failed", failed)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete", "handled", handled, "failed", failed)
}
