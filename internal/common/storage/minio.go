// internal/common/storage/minio.go
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"bidbuddy-workers/internal/common/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// maxObjectSize bounds how much of a tender PDF is read into memory.
const maxObjectSize = 64 << 20

// ObjectAPI is the slice of the MinIO client used here.
type ObjectAPI interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (*minio.Object, error)
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// ObjectReader fetches whole objects by key. Workers depend on this.
type ObjectReader interface {
	GetObjectBytes(ctx context.Context, key string) ([]byte, error)
}

type MinIOClient struct {
	api    ObjectAPI
	bucket string
}

func NewMinIO(cfg config.MinIOConfig) (*MinIOClient, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}
	return &MinIOClient{api: client, bucket: cfg.Bucket}, nil
}

// NewMinIOWithAPI wraps an existing ObjectAPI.
func NewMinIOWithAPI(api ObjectAPI, bucket string) *MinIOClient {
	return &MinIOClient{api: api, bucket: bucket}
}

// EnsureBucket creates the tender bucket when it does not exist.
func (m *MinIOClient) EnsureBucket(ctx context.Context) error {
	exists, err := m.api.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", m.bucket, err)
	}
	if exists {
		return nil
	}
	if err := m.api.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", m.bucket, err)
	}
	return nil
}

func (m *MinIOClient) GetObjectBytes(ctx context.Context, key string) ([]byte, error) {
	obj, err := m.api.GetObject(ctx, m.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object %s: %w", key, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(io.LimitReader(obj, maxObjectSize+1))
	if err != nil {
		return nil, fmt.Errorf("read object %s: %w", key, err)
	}
	if len(data) > maxObjectSize {
		return nil, fmt.Errorf("object %s exceeds %d bytes", key, maxObjectSize)
	}
	return data, nil
}

// PutObjectBytes uploads data under key, used by bidctl to stage tender PDFs.
func (m *MinIOClient) PutObjectBytes(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := m.api.PutObject(ctx, m.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}
	return nil
}

func (m *MinIOClient) Bucket() string {
	return m.bucket
}
