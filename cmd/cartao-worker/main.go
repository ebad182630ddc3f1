package main

import (
	"context"
	"os"
	"time"
	_ "time/tzdata"

	"cartao/internal/backend"
	"cartao/internal/cli"
	"cartao/internal/metrics"
	"cartao/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger("cartao-worker")
	logger.Info("Starting cartao-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required by the receipt cleanup worker")
		os.Exit(1)
	}

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	// No read cache: the worker only deletes.
	backendCfg.CacheEntries = 0

	res, err := backend.NewFactory(logger).Create(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize receipt storage", "error", err, "backend", cfg.BlobBackend)
		os.Exit(1)
	}
	if res.Publisher == nil {
		logger.Error("AMQP broker unreachable", "url_set", cfg.AMQPURL != "")
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(context.Context) {
		if res.Cleanup != nil {
			if err := res.Cleanup(); err != nil {
				logger.Error("Backend cleanup error", "error", err)
			}
		}
	})

	w := worker.NewReceiptCleanupWorker(res.Store, repo, metrics.New())
	logger.Info("Consuming receipt cleanup messages",
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue,
		"blob_backend", cfg.BlobBackend)
	if err := w.Run(ctx, res.Publisher); err != nil {
		logger.Error("Message consumption failed", "error", err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped gracefully")
}
