// Package objectstore reads batch files from an S3-compatible object store.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"textembedder/internal/application/common/slogger"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ErrObjectNotFound is returned when the batch key does not exist in the bucket.
var ErrObjectNotFound = errors.New("batch object not found")

// Config holds the object store connection settings.
type Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// MinioBatchSource opens batch files stored in a single bucket.
type MinioBatchSource struct {
	client *minio.Client
	bucket string
}

// NewMinioBatchSource creates a client for cfg.Endpoint. It does not contact the server.
func NewMinioBatchSource(cfg Config) (*MinioBatchSource, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("object store endpoint is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("object store bucket is required")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create object store client: %w", err)
	}
	return &MinioBatchSource{client: client, bucket: cfg.Bucket}, nil
}

// Bucket returns the bucket batches are read from.
func (s *MinioBatchSource) Bucket() string {
	return s.bucket
}

// Open returns the full content of the object stored under key.
// The object is stat'ed first so a missing key fails here rather than on first read.
func (s *MinioBatchSource) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, s.wrap(err, key)
	}
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		return nil, s.wrap(err, key)
	}

	slogger.Debug(ctx, "Opened batch object", slogger.Fields{"bucket": s.bucket, "key": key})
	return obj, nil
}

// Put uploads a batch file. It is used by tooling that stages batches.
func (s *MinioBatchSource) Put(ctx context.Context, key string, r io.Reader, size int64) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: "application/x-ndjson",
	})
	if err != nil {
		return s.wrap(err, key)
	}
	return nil
}

// Ping reports whether the bucket is reachable.
func (s *MinioBatchSource) Ping(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if !exists {
		return fmt.Errorf("bucket %s does not exist", s.bucket)
	}
	return nil
}

func (s *MinioBatchSource) wrap(err error, key string) error {
	resp := minio.ToErrorResponse(err)
	if resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: s3://%s/%s", ErrObjectNotFound, s.bucket, key)
	}
	return fmt.Errorf("object s3://%s/%s: %w", s.bucket, key, err)
}
