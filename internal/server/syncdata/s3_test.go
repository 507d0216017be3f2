package syncdata

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trueheartapps/versesync/internal/common"
)

type fakeS3 struct {
	objects map[string][]byte
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string][]byte)}
}

func (f *fakeS3) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[*params.Key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(data)),
		ContentLength: aws.Int64(int64(len(data))),
	}, nil
}

func (f *fakeS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	f.objects[*params.Key] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	data, ok := f.objects[*params.Key]
	if !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{ContentLength: aws.Int64(int64(len(data)))}, nil
}

func TestS3SnapshotStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := &S3SnapshotStore{api: newFakeS3(), bucket: "snapshots"}

	_, err := store.Get(ctx, "u1", "jayaapp")
	require.ErrorIs(t, err, common.ErrorNotFound)

	exists, _, err := store.Stat(ctx, "u1", "jayaapp")
	require.NoError(t, err)
	assert.False(t, exists)

	rec := &SnapshotRecord{UserID: "u1", AppID: "jayaapp", Data: "ZGF0YQ==", SizeBytes: 8}
	require.NoError(t, store.Put(ctx, rec))

	got, err := store.Get(ctx, "u1", "jayaapp")
	require.NoError(t, err)
	assert.Equal(t, "ZGF0YQ==", got.Data)
	assert.Equal(t, int64(8), got.SizeBytes)

	exists, size, err := store.Stat(ctx, "u1", "jayaapp")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, int64(8), size)
}

func TestStorageKey_SeparatesUsersAndApps(t *testing.T) {
	assert.NotEqual(t, storageKey("u1", "a"), storageKey("u1", "b"))
	assert.NotEqual(t, storageKey("u1", "a"), storageKey("u2", "a"))
}
