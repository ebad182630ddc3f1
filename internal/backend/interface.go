// Package backend builds the receipt storage stack selected by configuration:
// the blob store, its read cache and the optional cleanup queue.
package backend

import (
	"context"
	"time"

	"cartao/internal/amqp"
	"cartao/internal/blob"
)

// CleanupFunc releases resources held by a backend.
type CleanupFunc func() error

// Result is what the binaries wire into services.
type Result struct {
	Store     blob.Store
	Cached    *blob.CachedStore // nil when caching is disabled
	Publisher *amqp.Client      // nil when AMQP is not configured or unreachable
	Cleanup   CleanupFunc
}

type Factory interface {
	Create(ctx context.Context, config Config) (*Result, error)
}

type Config struct {
	Type BackendType

	Minio blob.MinioConfig

	CacheEntries int
	CacheBytes   int64
	CacheTTL     time.Duration

	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType names a blob store implementation.
type BackendType string

const (
	MemoryBackend BackendType = "memory"
	MinioBackend  BackendType = "minio"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, MinioBackend:
		return true
	default:
		return false
	}
}
