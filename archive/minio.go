package archive

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinIO stores one CSV object per archived day in an S3 compatible bucket
type MinIO struct {
	mc       *minio.Client
	bucket   string
	basePath string
}

// NewMinIO creates an archiver; call EnsureBucket before the first Archive
func NewMinIO(endpoint, access, secret string, useTLS bool, bucket, basePath string) (*MinIO, error) {
	mc, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: useTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("creating minio client: %w", err)
	}
	if basePath == "" {
		basePath = "submissions"
	}
	return &MinIO{mc: mc, bucket: bucket, basePath: basePath}, nil
}

// EnsureBucket creates the bucket when missing
func (a *MinIO) EnsureBucket(ctx context.Context) error {
	exists, err := a.mc.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("checking bucket %s: %w", a.bucket, err)
	}
	if !exists {
		if err := a.mc.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("creating bucket %s: %w", a.bucket, err)
		}
	}
	return nil
}

// Archive uploads a day's CSV export
func (a *MinIO) Archive(ctx context.Context, day time.Time, csv []byte) error {
	name := BuildObjectPath(a.basePath, day, fmt.Sprintf("submissions-%s.csv", day.UTC().Format(time.DateOnly)))

	_, err := a.mc.PutObject(ctx, a.bucket, name, bytes.NewReader(csv), int64(len(csv)), minio.PutObjectOptions{
		ContentType: "text/csv",
	})
	if err != nil {
		return fmt.Errorf("uploading %s: %w", name, err)
	}
	return nil
}

// BuildObjectPath partitions objects by day: base/year=YYYY/month=MM/day=DD/file
func BuildObjectPath(basePath string, t time.Time, file string) string {
	return fmt.Sprintf("%s/year=%04d/month=%02d/day=%02d/%s",
		basePath, t.UTC().Year(), t.UTC().Month(), t.UTC().Day(), file)
}
