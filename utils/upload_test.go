package utils

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	input *s3.PutObjectInput
	body  string
	err   error
}

func (f *fakeS3) Upload(_ context.Context, input *s3.PutObjectInput, _ ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.input = input
	raw, _ := io.ReadAll(input.Body)
	f.body = string(raw)
	return &manager.UploadOutput{Location: "https://bucket.s3.amazonaws.com/" + aws.ToString(input.Key)}, nil
}

func TestUploadAvatar(t *testing.T) {
	s3fake := &fakeS3{}
	uploader := NewAvatarUploader(s3fake, "texasstore")
	uploader.now = func() time.Time { return time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC) }

	url, err := uploader.UploadAvatar(context.Background(), "c1", "../me.png", "image/png", strings.NewReader("png"))
	require.NoError(t, err)
	assert.Equal(t, "https://bucket.s3.amazonaws.com/avatars/c1-20240501100000-me.png", url)
	assert.Equal(t, "texasstore", aws.ToString(s3fake.input.Bucket))
	assert.Equal(t, "image/png", aws.ToString(s3fake.input.ContentType))
	assert.Equal(t, "png", s3fake.body)
}

func TestUploadAvatarError(t *testing.T) {
	uploader := NewAvatarUploader(&fakeS3{err: errors.New("access denied")}, "texasstore")
	_, err := uploader.UploadAvatar(context.Background(), "c1", "me.png", "image/png", strings.NewReader("png"))
	assert.ErrorContains(t, err, "access denied")
}
