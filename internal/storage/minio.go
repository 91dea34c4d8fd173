// internal/storage/minio.go
package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/selbekk/rotfest-crowdsource-app/internal/config"
)

// Purposes under which blobs are stored. Object names are
// "<purpose>/<record id>".
const (
	PurposeOriginal  = "original"
	PurposeProcessed = "processed"
)

type BlobStore struct {
	client  *minio.Client
	bucket  string
	baseURL string
}

// NewBlobStore connects to MinIO and makes sure the bucket exists.
func NewBlobStore(cfg *config.Config) (*BlobStore, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	ctx := context.Background()
	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return &BlobStore{
		client:  client,
		bucket:  cfg.MinioBucket,
		baseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
	}, nil
}

// ObjectName builds the bucket path for a record's blob.
func ObjectName(purpose, id string) string {
	return purpose + "/" + id
}

// Upload stores the object and returns its public URL. The object must
// be fully stored before any record referencing the URL is written.
func (b *BlobStore) Upload(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (string, error) {
	_, err := b.client.PutObject(ctx, b.bucket, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to MinIO: %w", err)
	}
	return b.URL(objectName), nil
}

// URL returns the public URL for a stored object.
func (b *BlobStore) URL(objectName string) string {
	return fmt.Sprintf("%s/%s/%s", b.baseURL, b.bucket, objectName)
}

// GetObject returns a reader for a stored object.
func (b *BlobStore) GetObject(ctx context.Context, objectName string) (*minio.Object, error) {
	object, err := b.client.GetObject(ctx, b.bucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object: %w", err)
	}
	return object, nil
}

// GetPresignedURL generates a time-limited download URL, for buckets
// that are not publicly readable.
func (b *BlobStore) GetPresignedURL(ctx context.Context, objectName string) (string, error) {
	url, err := b.client.PresignedGetObject(ctx, b.bucket, objectName, time.Hour, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}
	return url.String(), nil
}
