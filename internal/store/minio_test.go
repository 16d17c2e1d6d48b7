package store

import (
	"context"
	"errors"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockBuckets struct{ mock.Mock }

func (m *mockBuckets) BucketExists(ctx context.Context, bucket string) (bool, error) {
	args := m.Called(ctx, bucket)
	return args.Bool(0), args.Error(1)
}

func (m *mockBuckets) MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error {
	return m.Called(ctx, bucket, opts).Error(0)
}

func TestEnsureArchiveBucket_Creates(t *testing.T) {
	mc := &mockBuckets{}
	mc.On("BucketExists", mock.Anything, "bl-archive").Return(false, nil)
	mc.On("MakeBucket", mock.Anything, "bl-archive", minio.MakeBucketOptions{}).Return(nil)

	assert.NoError(t, ensureArchiveBucket(context.Background(), mc, "bl-archive"))
	mc.AssertExpectations(t)
}

func TestEnsureArchiveBucket_Exists(t *testing.T) {
	mc := &mockBuckets{}
	mc.On("BucketExists", mock.Anything, "bl-archive").Return(true, nil)

	assert.NoError(t, ensureArchiveBucket(context.Background(), mc, "bl-archive"))
	mc.AssertNotCalled(t, "MakeBucket", mock.Anything, mock.Anything, mock.Anything)
}

func TestEnsureArchiveBucket_Errors(t *testing.T) {
	boom := errors.New("boom")

	mc := &mockBuckets{}
	mc.On("BucketExists", mock.Anything, "bl-archive").Return(false, boom)
	err := ensureArchiveBucket(context.Background(), mc, "bl-archive")
	assert.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "archive bucket bl-archive")

	mc = &mockBuckets{}
	mc.On("BucketExists", mock.Anything, "bl-archive").Return(false, nil)
	mc.On("MakeBucket", mock.Anything, "bl-archive", mock.Anything).Return(boom)
	err = ensureArchiveBucket(context.Background(), mc, "bl-archive")
	assert.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "create archive bucket")
}
