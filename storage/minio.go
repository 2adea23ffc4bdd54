// Package storage implements the blob store on MinIO. Uploaded audio lives
// as one object per upload id; playable references are presigned GET URLs.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"WaveFM/config"
	"WaveFM/logger"
	"WaveFM/model"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// objectPrefix keeps uploaded audio under one directory in the bucket.
const objectPrefix = "uploads/"

// MinioBlobStore implements store.BlobStore on a MinIO bucket.
type MinioBlobStore struct {
	client *minio.Client
	bucket string
}

// NewMinioBlobStore connects to MinIO and ensures the bucket exists.
func NewMinioBlobStore(cfg *config.Config) (*MinioBlobStore, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", cfg.MinioBucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{
			Region: cfg.MinioRegion,
		}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", cfg.MinioBucket, err)
		}
		logger.Info("created bucket", logger.String("bucket", cfg.MinioBucket))
	}

	return &MinioBlobStore{client: client, bucket: cfg.MinioBucket}, nil
}

func (m *MinioBlobStore) objectName(key string) string {
	return objectPrefix + key
}

// Put stores the audio bytes under key. Size may be -1 when unknown.
func (m *MinioBlobStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := m.client.PutObject(ctx, m.bucket, m.objectName(key), r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to put object %s: %w", key, err)
	}
	return nil
}

// Remove deletes the object under key. A missing object is not an error.
func (m *MinioBlobStore) Remove(ctx context.Context, key string) error {
	err := m.client.RemoveObject(ctx, m.bucket, m.objectName(key), minio.RemoveObjectOptions{})
	if err != nil {
		var respErr minio.ErrorResponse
		if errors.As(err, &respErr) && respErr.Code == "NoSuchKey" {
			return nil
		}
		return fmt.Errorf("failed to remove object %s: %w", key, err)
	}
	return nil
}

// PresignedURL returns a short-lived GET URL for the object under key, or
// model.ErrNotFound when no such object exists.
func (m *MinioBlobStore) PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	// Stat first so a removed upload surfaces as not-found instead of a
	// signed URL that 404s in the player.
	if _, err := m.client.StatObject(ctx, m.bucket, m.objectName(key), minio.StatObjectOptions{}); err != nil {
		var respErr minio.ErrorResponse
		if errors.As(err, &respErr) && respErr.Code == "NoSuchKey" {
			return "", fmt.Errorf("object %s: %w", key, model.ErrNotFound)
		}
		return "", fmt.Errorf("failed to stat object %s: %w", key, err)
	}

	reqParams := make(url.Values)
	u, err := m.client.PresignedGetObject(ctx, m.bucket, m.objectName(key), ttl, reqParams)
	if err != nil {
		return "", fmt.Errorf("failed to presign object %s: %w", key, err)
	}
	return u.String(), nil
}

// SelfTest verifies connectivity with a small write/read/delete cycle.
func (m *MinioBlobStore) SelfTest(ctx context.Context) error {
	testKey := "self-test"
	content := "MinIO connection check at " + time.Now().Format(time.RFC3339)

	if err := m.Put(ctx, testKey, strings.NewReader(content), int64(len(content)), "text/plain"); err != nil {
		return err
	}

	obj, err := m.client.GetObject(ctx, m.bucket, m.objectName(testKey), minio.GetObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to read self-test object: %w", err)
	}
	defer obj.Close()
	if _, err := io.ReadAll(obj); err != nil {
		return fmt.Errorf("failed to read self-test object: %w", err)
	}

	return m.Remove(ctx, testKey)
}
