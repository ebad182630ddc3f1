package blob

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type MinioConfig struct {
	Endpoint  string
	Port      int
	UseSSL    bool
	AccessKey string
	SecretKey string
	Bucket    string
}

// MinioStore keeps receipts in an S3-compatible bucket.
type MinioStore struct {
	client *minio.Client
	bucket string
}

// NewMinioStore connects to the object store and creates the bucket when it
// does not exist yet.
func NewMinioStore(ctx context.Context, cfg MinioConfig) (*MinioStore, error) {
	endpoint := cfg.Endpoint
	if cfg.Port > 0 {
		endpoint = net.JoinHostPort(cfg.Endpoint, strconv.Itoa(cfg.Port))
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, err)
		}
		slog.InfoContext(ctx, "Created receipt bucket", "bucket", cfg.Bucket)
	}

	return &MinioStore{client: client, bucket: cfg.Bucket}, nil
}

func (s *MinioStore) Put(ctx context.Context, data []byte, contentType string) (string, error) {
	key := NewReceiptKey(contentType)
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}
	return key, nil
}

func (s *MinioStore) Get(ctx context.Context, ref string) (Object, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, ref, minio.GetObjectOptions{})
	if err != nil {
		return Object{}, s.mapError(ref, err)
	}
	defer obj.Close()

	info, err := obj.Stat()
	if err != nil {
		return Object{}, s.mapError(ref, err)
	}
	data, err := io.ReadAll(obj)
	if err != nil {
		return Object{}, fmt.Errorf("read object %s: %w", ref, err)
	}
	return Object{Data: data, ContentType: info.ContentType}, nil
}

func (s *MinioStore) Delete(ctx context.Context, ref string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, ref, minio.RemoveObjectOptions{}); err != nil {
		return s.mapError(ref, err)
	}
	return nil
}

func (s *MinioStore) Ping(ctx context.Context) error {
	if _, err := s.client.BucketExists(ctx, s.bucket); err != nil {
		return fmt.Errorf("ping bucket %s: %w", s.bucket, err)
	}
	return nil
}

func (s *MinioStore) mapError(ref string, err error) error {
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return fmt.Errorf("%s: %w", ref, ErrNotFound)
	}
	return fmt.Errorf("object %s: %w", ref, err)
}
