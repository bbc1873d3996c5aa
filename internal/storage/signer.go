package storage

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Signer turns an object key carried by a media message into a fetchable URL.
// Upload mechanics live in the external media service; the messaging core only
// signs reads.
type Signer interface {
	SignGet(ctx context.Context, objectKey string, expiry time.Duration) (string, error)
}

// MinioSigner issues presigned GET URLs against an S3-compatible endpoint.
type MinioSigner struct {
	client *minio.Client
	bucket string
}

func NewMinioSigner(endpoint, accessKey, secretKey, bucket string, useSSL bool) (*MinioSigner, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	return &MinioSigner{client: client, bucket: bucket}, nil
}

func (s *MinioSigner) SignGet(ctx context.Context, objectKey string, expiry time.Duration) (string, error) {
	signed, err := s.client.PresignedGetObject(ctx, s.bucket, objectKey, expiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", objectKey, err)
	}
	return signed.String(), nil
}

// NoopSigner is used when no object storage is configured; media messages
// then expose the raw object key.
type NoopSigner struct{}

func (NoopSigner) SignGet(_ context.Context, objectKey string, _ time.Duration) (string, error) {
	return objectKey, nil
}
