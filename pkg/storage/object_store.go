// Package storage archives uploaded vehicle photos. Uploads are analyzed
// in-request; the archive exists so support can review what the vision model
// was shown when an identification is disputed.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// PhotoStore archives uploaded images and hands out review links.
type PhotoStore interface {
	// SavePhoto stores an uploaded image under the conversation and returns
	// the object key.
	SavePhoto(ctx context.Context, conversationID, photoID, contentType string, data []byte) (string, error)
	// ReviewURL generates a time-limited link to a stored photo.
	ReviewURL(ctx context.Context, key string, expiry time.Duration) (string, error)
	// DeletePhotos removes every photo archived for a conversation.
	DeletePhotos(ctx context.Context, conversationID string) error
}

// MinioStore implements PhotoStore on MinIO or any S3-compatible backend.
type MinioStore struct {
	client *minio.Client
	bucket string
}

// NewMinioStore connects to the backend and ensures the bucket exists.
func NewMinioStore(endpoint, accessKey, secretKey, bucket string, useSSL bool) (*MinioStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio client: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}
	return &MinioStore{client: client, bucket: bucket}, nil
}

func photoKey(conversationID, photoID, contentType string) string {
	ext := "bin"
	switch contentType {
	case "image/jpeg":
		ext = "jpg"
	case "image/png":
		ext = "png"
	case "image/webp":
		ext = "webp"
	case "image/heic":
		ext = "heic"
	}
	return fmt.Sprintf("photos/%s/%s.%s", conversationID, photoID, ext)
}

func (m *MinioStore) SavePhoto(ctx context.Context, conversationID, photoID, contentType string, data []byte) (string, error) {
	key := photoKey(conversationID, photoID, contentType)
	_, err := m.client.PutObject(ctx, m.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("save photo: %w", err)
	}
	return key, nil
}

func (m *MinioStore) ReviewURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	url, err := m.client.PresignedGetObject(ctx, m.bucket, key, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("presign photo: %w", err)
	}
	return url.String(), nil
}

func (m *MinioStore) DeletePhotos(ctx context.Context, conversationID string) error {
	prefix := fmt.Sprintf("photos/%s/", conversationID)
	for obj := range m.client.ListObjects(ctx, m.bucket, minio.ListObjectsOptions{Prefix: prefix}) {
		if obj.Err != nil {
			return fmt.Errorf("list photos: %w", obj.Err)
		}
		if err := m.client.RemoveObject(ctx, m.bucket, obj.Key, minio.RemoveObjectOptions{}); err != nil {
			return fmt.Errorf("delete photo %s: %w", obj.Key, err)
		}
	}
	return nil
}

// NoopStore satisfies PhotoStore for deployments without object storage.
// Photos are analyzed and discarded.
type NoopStore struct{}

func (NoopStore) SavePhoto(context.Context, string, string, string, []byte) (string, error) {
	return "", nil
}

func (NoopStore) ReviewURL(context.Context, string, time.Duration) (string, error) {
	return "", nil
}

func (NoopStore) DeletePhotos(context.Context, string) error { return nil }

var _ PhotoStore = (*MinioStore)(nil)
var _ PhotoStore = NoopStore{}
