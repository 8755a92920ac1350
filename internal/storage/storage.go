// Package storage keeps uploaded resume documents in S3-compatible object storage.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"resumescore/internal/config"
	"resumescore/internal/errors"
)

// ObjectStore stores uploaded documents.
type ObjectStore interface {
	PutDocument(ctx context.Context, userID, name, contentType string, data []byte) (string, error)
	GetDocument(ctx context.Context, objectName string) ([]byte, error)
}

var _ ObjectStore = (*MinIO)(nil)

// MinIO stores documents in one bucket under users/<user id>/.
type MinIO struct {
	client *minio.Client
	bucket string
	logger *errors.Logger
}

// NewMinIO connects to the endpoint and creates the bucket if it is missing.
func NewMinIO(ctx context.Context, cfg config.StorageConfig, logger *errors.Logger) (*MinIO, error) {
	if logger == nil {
		logger = errors.Discard()
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeObjectStorage, "failed to create object storage client", err)
	}

	m := &MinIO{client: client, bucket: cfg.Bucket, logger: logger}
	if err := m.ensureBucket(ctx, cfg.Region); err != nil {
		return nil, err
	}
	logger.Info("Object storage ready", "endpoint", cfg.Endpoint, "bucket", cfg.Bucket)
	return m, nil
}

func (m *MinIO) ensureBucket(ctx context.Context, region string) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return errors.NewStorageError(errors.ErrCodeObjectStorage, "failed to check bucket", err).
			WithContext("bucket", m.bucket)
	}
	if exists {
		return nil
	}
	if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{Region: region}); err != nil {
		return errors.NewStorageError(errors.ErrCodeObjectStorage, "failed to create bucket", err).
			WithContext("bucket", m.bucket)
	}
	m.logger.Info("Created object storage bucket", "bucket", m.bucket)
	return nil
}

// PutDocument uploads data and returns the object name.
func (m *MinIO) PutDocument(ctx context.Context, userID, name, contentType string, data []byte) (string, error) {
	object := ObjectName(userID, name)
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	info, err := m.client.PutObject(ctx, m.bucket, object, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{
			ContentType:  contentType,
			UserMetadata: map[string]string{"original-name": filepath.Base(name)},
		})
	if err != nil {
		return "", errors.NewStorageError(errors.ErrCodeObjectStorage, "failed to upload document", err).
			WithContext("object", object)
	}
	m.logger.Debug("Document stored", "object", object, "bytes", info.Size, "etag", info.ETag)
	return object, nil
}

func (m *MinIO) GetDocument(ctx context.Context, objectName string) ([]byte, error) {
	obj, err := m.client.GetObject(ctx, m.bucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, errors.NewStorageError(errors.ErrCodeObjectStorage, "failed to open document", err).
			WithContext("object", objectName)
	}
	defer obj.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(obj); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, errors.NewStorageError(errors.ErrCodeNotFound, "document not found", err).
				WithContext("object", objectName)
		}
		return nil, errors.NewStorageError(errors.ErrCodeObjectStorage, "failed to read document", err).
			WithContext("object", objectName)
	}
	return buf.Bytes(), nil
}

// ObjectName builds users/<user id>/<uuid><ext> with the lowercased extension of name.
func ObjectName(userID, name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	return fmt.Sprintf("users/%s/%s%s", userID, uuid.NewString(), ext)
}
