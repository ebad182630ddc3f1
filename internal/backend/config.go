package backend

import (
	"fmt"

	"cartao/internal/blob"
	"cartao/internal/config"
)

// FromAppConfig converts the application config to backend config.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.BlobBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid blob backend in config: %s", appConfig.BlobBackend)
	}

	return Config{
		Type: backendType,
		Minio: blob.MinioConfig{
			Endpoint:  appConfig.MinioEndpoint,
			Port:      appConfig.MinioPort,
			UseSSL:    appConfig.MinioUseSSL,
			AccessKey: appConfig.MinioAccessKey,
			SecretKey: appConfig.MinioSecretKey,
			Bucket:    appConfig.MinioBucket,
		},
		CacheEntries: appConfig.ReceiptCacheSize,
		CacheBytes:   appConfig.ReceiptCacheBytes,
		CacheTTL:     appConfig.ReceiptCacheTTL,
		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,
	}, nil
}

func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid blob backend: %s", c.Type)
	}
	if c.Type == MinioBackend {
		if c.Minio.Endpoint == "" {
			return fmt.Errorf("MinIO endpoint is required for minio backend")
		}
		if c.Minio.Bucket == "" {
			return fmt.Errorf("MinIO bucket is required for minio backend")
		}
	}
	if c.AMQPURL != "" && (c.AMQPExchange == "" || c.AMQPQueue == "") {
		return fmt.Errorf("AMQP exchange and queue are required when AMQP URL is set")
	}
	return nil
}
