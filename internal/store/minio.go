package store

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type MinioClient struct {
	Client *minio.Client
	bucket string
}

// NewMinioClient initializes a new MinIO client that archives cards into bucket.
func NewMinioClient(endpoint, accessKeyID, secretAccessKey, bucket string, useSSL bool) (*MinioClient, error) {
	// Initialize a new MinIO client.
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKeyID, secretAccessKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, err
	}

	return &MinioClient{Client: client, bucket: bucket}, nil
}

// EnsureBucket creates the archive bucket if it does not exist yet.
func (mc *MinioClient) EnsureBucket(ctx context.Context) error {
	exists, err := mc.Client.BucketExists(ctx, mc.bucket)
	if err != nil {
		return fmt.Errorf("store: EnsureBucket - check bucket %q: %w", mc.bucket, err)
	}
	if exists {
		return nil
	}
	if err := mc.Client.MakeBucket(ctx, mc.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("store: EnsureBucket - create bucket %q: %w", mc.bucket, err)
	}
	return nil
}

// CardObjectKey is where a card of the given size is archived.
func CardObjectKey(username string, width, height int) string {
	return fmt.Sprintf("cards/%s/%dx%d.png", strings.ToLower(username), width, height)
}

// PutCard stores a rendered PNG card and returns its object key.
func (mc *MinioClient) PutCard(ctx context.Context, username string, width, height int, png []byte) (string, error) {
	key := CardObjectKey(username, width, height)
	_, err := mc.Client.PutObject(ctx, mc.bucket, key, bytes.NewReader(png), int64(len(png)), minio.PutObjectOptions{
		ContentType: "image/png",
	})
	if err != nil {
		return "", fmt.Errorf("store: PutCard - put %s/%s: %w", mc.bucket, key, err)
	}
	return key, nil
}
