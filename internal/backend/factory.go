package backend

import (
	"context"
	"fmt"
	"log/slog"

	"cartao/internal/amqp"
	"cartao/internal/blob"
)

type DefaultFactory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

// Create builds the blob store for config, wraps it in the read cache and
// connects the cleanup queue. An unreachable broker is not fatal: the app
// falls back to deleting receipts inline.
func (f *DefaultFactory) Create(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var store blob.Store
	switch config.Type {
	case MemoryBackend:
		store = blob.NewMemoryStore()
		f.logger.Warn("Using in-memory receipt storage, receipts are lost on restart")
	case MinioBackend:
		ms, err := blob.NewMinioStore(ctx, config.Minio)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize MinIO store: %w", err)
		}
		store = ms
		f.logger.Info("Initialized MinIO receipt storage",
			"endpoint", config.Minio.Endpoint,
			"bucket", config.Minio.Bucket)
	default:
		return nil, fmt.Errorf("unsupported blob backend: %s", config.Type)
	}

	res := &Result{Store: store}
	if config.CacheEntries > 0 {
		res.Cached = blob.NewCachedStore(store, config.CacheEntries, config.CacheBytes, config.CacheTTL)
		res.Store = res.Cached
		f.logger.Info("Receipt cache enabled",
			"entries", config.CacheEntries,
			"max_bytes", config.CacheBytes,
			"ttl", config.CacheTTL)
	}

	if config.AMQPURL != "" {
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, deleting receipts inline", "error", err)
		} else {
			res.Publisher = client
			res.Cleanup = client.Close
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	return res, nil
}
