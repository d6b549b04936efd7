package storage

import (
	"context"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

type MinioOpts func(c *minioConfig)

type minioConfig struct {
	endpoint        string
	bucket          string
	accessKey       string
	secretAccessKey string
	useSSL          bool
}

func newConfig(opts ...MinioOpts) *minioConfig {
	cfg := &minioConfig{
		useSSL: true,
	}

	for _, o := range opts {
		o(cfg)
	}
	return cfg
}

type minioStorage struct {
	cfg    *minioConfig
	client *minio.Client
}

// Make sure we conform to the Storage interface
var _ Storage = (*minioStorage)(nil)

func NewMinioStorage(opts ...MinioOpts) (Storage, error) {
	cfg := newConfig(opts...)

	// Initialize minio client object.
	minioClient, err := minio.New(cfg.endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.accessKey, cfg.secretAccessKey, ""),
		Secure: cfg.useSSL,
	})
	if err != nil {
		return nil, err
	}

	return &minioStorage{cfg: cfg, client: minioClient}, nil
}

func (s *minioStorage) PutText(ctx context.Context, key string, text string) error {
	reader := strings.NewReader(text)
	_, err := s.client.PutObject(ctx, s.cfg.bucket, key, reader, int64(reader.Len()), minio.PutObjectOptions{
		ContentType: "text/plain; charset=utf-8",
	})
	return err
}

func (s *minioStorage) GetText(ctx context.Context, key string) (string, error) {
	object, err := s.client.GetObject(ctx, s.cfg.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return "", err
	}
	defer object.Close()

	content, err := io.ReadAll(object)
	if err != nil {
		return "", err
	}

	return string(content), nil
}

func (s *minioStorage) PresignPut(ctx context.Context, key string, expiry time.Duration) (*url.URL, error) {
	return s.client.PresignedPutObject(ctx, s.cfg.bucket, key, expiry)
}

func (s *minioStorage) PresignGet(ctx context.Context, key string, expiry time.Duration) (*url.URL, error) {
	return s.client.PresignedGetObject(ctx, s.cfg.bucket, key, expiry, url.Values{})
}

// RemovePrefix deletes every object below the prefix. Failures on single
// objects are logged and skipped so one stuck object does not leave the
// rest behind.
func (s *minioStorage) RemovePrefix(ctx context.Context, prefix string) error {
	objects := s.client.ListObjects(ctx, s.cfg.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	})

	for object := range objects {
		if object.Err != nil {
			return object.Err
		}
		if err := s.client.RemoveObject(ctx, s.cfg.bucket, object.Key, minio.RemoveObjectOptions{}); err != nil {
			zap.S().Named("storage").Warnf("failed to remove object %s: %s", object.Key, err)
		}
	}

	return nil
}

func WithEndpoint(endpoint string) MinioOpts {
	return func(c *minioConfig) {
		c.endpoint = endpoint
	}
}

func WithBucket(bucket string) MinioOpts {
	return func(c *minioConfig) {
		c.bucket = bucket
	}
}

func WithAccessKey(accessKey string) MinioOpts {
	return func(c *minioConfig) {
		c.accessKey = accessKey
	}
}

func WithSecretKey(secretKey string) MinioOpts {
	return func(c *minioConfig) {
		c.secretAccessKey = secretKey
	}
}

func WithSSL(useSSL bool) MinioOpts {
	return func(c *minioConfig) {
		c.useSSL = useSSL
	}
}
