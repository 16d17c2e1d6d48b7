package store

import (
	"bytes"
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ArchiveStore wraps a MinIO client holding snapshots of deleted articles.
type ArchiveStore struct {
	client *minio.Client
	bucket string
}

func NewArchiveStore(ctx context.Context, endpoint, accessKey, secretKey, bucket string, useSSL bool) (*ArchiveStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	if err := ensureArchiveBucket(ctx, client, bucket); err != nil {
		return nil, err
	}
	return &ArchiveStore{client: client, bucket: bucket}, nil
}

// bucketMaker is the part of *minio.Client used to prepare the archive.
type bucketMaker interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error
}

// ensureArchiveBucket creates the bucket that receives deleted-article
// snapshots when it does not exist yet.
func ensureArchiveBucket(ctx context.Context, mc bucketMaker, bucket string) error {
	exists, err := mc.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("archive bucket %s: %w", bucket, err)
	}
	if exists {
		return nil
	}
	if err := mc.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create archive bucket %s: %w", bucket, err)
	}
	return nil
}

// Upload stores bytes under the given object key.
func (s *ArchiveStore) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("minio put %s: %w", key, err)
	}
	return nil
}
