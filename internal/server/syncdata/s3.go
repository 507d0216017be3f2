package syncdata

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/trueheartapps/versesync/internal/common"
	sc "github.com/trueheartapps/versesync/internal/server/config"
)

// s3API is the slice of the S3 client the store uses; tests inject a fake.
type s3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// S3SnapshotStore keeps snapshot blobs in S3-compatible object storage,
// one object per (user, app).
type S3SnapshotStore struct {
	api    s3API
	bucket string
}

func NewS3SnapshotStore(cfg *sc.Config) (*S3SnapshotStore, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3RootUser,
			cfg.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("s3 config error: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.S3BaseEndpoint)
		o.UsePathStyle = true
	})

	return &S3SnapshotStore{api: client, bucket: cfg.S3Bucket}, nil
}

func storageKey(userID, appID string) string {
	return fmt.Sprintf("snapshots/%s/%s.json", userID, appID)
}

func (r *S3SnapshotStore) Get(ctx context.Context, userID, appID string) (*SnapshotRecord, error) {
	key := storageKey(userID, appID)

	out, err := r.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &r.bucket,
		Key:    &key,
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("s3 get error: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("s3 read error: %w", err)
	}

	rec := &SnapshotRecord{
		UserID:    userID,
		AppID:     appID,
		Data:      string(data),
		SizeBytes: int64(len(data)),
	}
	if out.LastModified != nil {
		rec.UpdatedAt = *out.LastModified
	} else {
		rec.UpdatedAt = time.Now()
	}
	return rec, nil
}

func (r *S3SnapshotStore) Put(ctx context.Context, rec *SnapshotRecord) error {
	key := storageKey(rec.UserID, rec.AppID)

	_, err := r.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket: &r.bucket,
		Key:    &key,
		Body:   bytes.NewReader([]byte(rec.Data)),
	})
	if err != nil {
		return fmt.Errorf("s3 put error: %w", err)
	}
	return nil
}

func (r *S3SnapshotStore) Stat(ctx context.Context, userID, appID string) (bool, int64, error) {
	key := storageKey(userID, appID)

	out, err := r.api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: &r.bucket,
		Key:    &key,
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return false, 0, nil
		}
		return false, 0, fmt.Errorf("s3 head error: %w", err)
	}

	size := int64(0)
	if out.ContentLength != nil {
		size = *out.ContentLength
	}
	return true, size, nil
}
