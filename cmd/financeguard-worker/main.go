package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/flwkf/financeguard/internal/amqp"
	"github.com/flwkf/financeguard/internal/config"
	"github.com/flwkf/financeguard/internal/export"
	gsheet "github.com/flwkf/financeguard/internal/export/google"
	mem "github.com/flwkf/financeguard/internal/export/memory"
	"github.com/flwkf/financeguard/internal/log"
	"github.com/flwkf/financeguard/internal/storage"
	"github.com/flwkf/financeguard/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := log.DefaultConfig()
	cfg.Component = log.ComponentWorker
	logger := log.New(cfg)
	log.SetDefault(logger)

	logger.Info("Starting financeguard-worker")

	conf := config.Load()
	if err := conf.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(conf.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", log.FieldError, err, "path", conf.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// Export destination: Google Sheets when configured, an in-process
	// store otherwise so the pending queue still drains locally.
	var appender export.RowAppender
	if conf.GoogleSpreadsheetID != "" {
		client, err := gsheet.NewFromEnv(context.Background())
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
			os.Exit(1)
		}
		appender = client
		logger.Info("Google Sheets export initialized", "spreadsheet_id", conf.GoogleSpreadsheetID)
	} else {
		appender = mem.New()
		logger.Info("Google Sheets disabled - exporting to in-memory store")
	}

	amqpClient, err := amqp.NewClient(conf.AMQPURL, conf.AMQPExchange, conf.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	exportWorker := worker.NewExportWorker(repo, appender, conf.SyncBatchSize)

	// Drain rows that went pending while the worker was down.
	if err := exportWorker.StartupCheck(ctx); err != nil {
		logger.Error("Failed startup export check", log.FieldError, err)
		// Don't exit - continue with normal operation
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return amqpClient.ConsumeLedgerSync(gctx, exportWorker.HandleSyncMessage)
	})

	g.Go(func() error {
		ticker := time.NewTicker(conf.SyncInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case <-ticker.C:
				if err := exportWorker.ProcessPending(gctx); err != nil {
					logger.Error("Periodic export failed", log.FieldError, err)
				}
			}
		}
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-gctx.Done():
		logger.Info("Worker context cancelled")
	}

	cancel()
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}
