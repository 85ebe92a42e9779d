// Package storage writes report objects to object storage (S3, MinIO or
// Google Cloud Storage) and hands out presigned download links.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

const (
	// DriverS3 selects AWS S3 (or any endpoint speaking the S3 API).
	DriverS3 = "s3"
	// DriverMinIO selects MinIO.
	DriverMinIO = "minio"
	// DriverGCS selects Google Cloud Storage.
	DriverGCS = "gcs"
)

// ErrUnknownDriver indicates an unsupported storage driver.
var ErrUnknownDriver = errors.New("storage: unknown driver")

// Storage is the subset of object storage the service needs.
type Storage interface {
	io.Closer

	// PutObject uploads size bytes from r to bucket/key.
	PutObject(ctx context.Context, bucket, key string, r io.Reader, size int64, contentType string) error
	// PresignGet returns a URL valid for expiry that downloads bucket/key.
	PresignGet(ctx context.Context, bucket, key string, expiry time.Duration) (string, error)
}

// FactoryOptions groups configuration for storage drivers.
type FactoryOptions struct {
	S3    S3Options
	MinIO MinIOOptions
	GCS   GCSOptions
}

// NewFromDriver constructs a Storage implementation by driver name.
func NewFromDriver(ctx context.Context, driver string, opts FactoryOptions) (Storage, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case DriverS3:
		return NewS3(ctx, opts.S3)
	case DriverMinIO:
		return NewMinIO(opts.MinIO)
	case DriverGCS:
		return NewGCS(ctx, opts.GCS)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}
