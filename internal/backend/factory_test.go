package backend

import (
	"context"
	"testing"
	"time"

	"cartao/internal/blob"
	"cartao/internal/config"
)

func TestFromAppConfig(t *testing.T) {
	cfg := &config.Config{
		BlobBackend:       "minio",
		MinioEndpoint:     "localhost",
		MinioPort:         9000,
		MinioBucket:       "card-manager",
		ReceiptCacheSize:  16,
		ReceiptCacheBytes: 1 << 20,
		ReceiptCacheTTL:   time.Minute,
	}

	bc, err := FromAppConfig(cfg)
	if err != nil {
		t.Fatalf("FromAppConfig() error = %v", err)
	}
	if bc.Type != MinioBackend || bc.Minio.Bucket != "card-manager" || bc.CacheEntries != 16 {
		t.Errorf("unexpected backend config %+v", bc)
	}

	cfg.BlobBackend = "s3"
	if _, err := FromAppConfig(cfg); err == nil {
		t.Error("expected error for unknown backend")
	}
	if _, err := FromAppConfig(nil); err == nil {
		t.Error("expected error for nil config")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"memory", Config{Type: MemoryBackend}, false},
		{"minio without bucket", Config{Type: MinioBackend, Minio: minioCfg("localhost", "")}, true},
		{"minio", Config{Type: MinioBackend, Minio: minioCfg("localhost", "b")}, false},
		{"amqp without queue", Config{Type: MemoryBackend, AMQPURL: "amqp://x", AMQPExchange: "e"}, true},
		{"unknown", Config{Type: "disk"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.config.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFactory_CreateMemoryWithCache(t *testing.T) {
	res, err := NewFactory(nil).Create(context.Background(), Config{
		Type:         MemoryBackend,
		CacheEntries: 4,
		CacheBytes:   1 << 20,
		CacheTTL:     time.Minute,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if res.Cached == nil || res.Store != res.Cached {
		t.Fatal("expected the store to be wrapped by the cache")
	}
	if res.Publisher != nil || res.Cleanup != nil {
		t.Error("no AMQP configured, publisher should be nil")
	}
	if err := res.Store.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}

func minioCfg(endpoint, bucket string) blob.MinioConfig {
	return blob.MinioConfig{Endpoint: endpoint, Bucket: bucket, AccessKey: "k", SecretKey: "s"}
}
