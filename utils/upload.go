package utils

import (
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ObjectUploader is the slice of the S3 upload manager avatars need.
type ObjectUploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

type AvatarUploader struct {
	uploader ObjectUploader
	bucket   string
	now      func() time.Time
}

func NewAvatarUploader(uploader ObjectUploader, bucket string) *AvatarUploader {
	return &AvatarUploader{uploader: uploader, bucket: bucket, now: time.Now}
}

// NewS3AvatarUploader builds the uploader from the default AWS credential
// chain.
func NewS3AvatarUploader(ctx context.Context, bucket string) (*AvatarUploader, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("error loading AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg)
	return NewAvatarUploader(manager.NewUploader(client), bucket), nil
}

// UploadAvatar stores body under a per-client key and returns its public URL.
func (u *AvatarUploader) UploadAvatar(ctx context.Context, clientID, filename, contentType string, body io.Reader) (string, error) {
	key := fmt.Sprintf("avatars/%s-%s-%s", clientID, u.now().Format("20060102150405"), path.Base(filename))

	result, err := u.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        body,
		ACL:         "public-read",
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload avatar: %w", err)
	}
	return result.Location, nil
}
