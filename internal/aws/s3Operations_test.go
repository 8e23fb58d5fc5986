package aws

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeObjectAPI struct {
	objects map[string][]byte
	putErr  error
	puts    []*s3.PutObjectInput
	deleted []string
}

func (f *fakeObjectAPI) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[aws.ToString(params.Key)]
	if !ok {
		return nil, &types.NoSuchKey{Message: aws.String("missing")}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeObjectAPI) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	f.puts = append(f.puts, params)
	data, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(params.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeObjectAPI) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deleted = append(f.deleted, aws.ToString(params.Key))
	return &s3.DeleteObjectOutput{}, nil
}

type fakePresigner struct {
	expires time.Duration
}

func (f *fakePresigner) PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	opts := &s3.PresignOptions{}
	for _, fn := range optFns {
		fn(opts)
	}
	f.expires = opts.Expires
	return &v4.PresignedHTTPRequest{
		URL:    "https://" + aws.ToString(params.Bucket) + ".s3.test/" + aws.ToString(params.Key),
		Method: "GET",
	}, nil
}

func newTestService() (*S3Service, *fakeObjectAPI, *fakePresigner) {
	api := &fakeObjectAPI{objects: map[string][]byte{}}
	presigner := &fakePresigner{}
	return NewS3ServiceWithAPI(api, presigner, "scans"), api, presigner
}

func TestDownloadFromS3Object(t *testing.T) {
	svc, api, _ := newTestService()
	api.objects["raw/a.pdf"] = []byte("%PDF-1.4")

	data, err := svc.DownloadFromS3Object(context.Background(), "raw/a.pdf")
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4"), data)

	_, err = svc.DownloadFromS3Object(context.Background(), "raw/missing.pdf")
	require.Error(t, err)
	var noSuchKey *types.NoSuchKey
	assert.True(t, errors.As(err, &noSuchKey))
}

func TestUploadtoS3Object(t *testing.T) {
	svc, api, presigner := newTestService()

	url, err := svc.UploadtoS3Object(context.Background(), "processed/a.pdf", []byte("ocr"))
	require.NoError(t, err)

	assert.Equal(t, "https://scans.s3.test/processed/a.pdf", url)
	assert.Equal(t, 15*time.Minute, presigner.expires)
	assert.Equal(t, []byte("ocr"), api.objects["processed/a.pdf"])
	require.Len(t, api.puts, 1)
	assert.Equal(t, "application/pdf", aws.ToString(api.puts[0].ContentType))
	assert.Equal(t, types.ChecksumAlgorithmSha256, api.puts[0].ChecksumAlgorithm)
}

func TestUploadtoS3Object_PutError(t *testing.T) {
	svc, api, _ := newTestService()
	api.putErr = errors.New("throttled")

	_, err := svc.UploadtoS3Object(context.Background(), "processed/a.pdf", []byte("ocr"))
	assert.ErrorContains(t, err, "throttled")
}

func TestDeleteS3Object(t *testing.T) {
	svc, api, _ := newTestService()

	_, err := svc.DeleteS3Object(context.Background(), "")
	assert.Error(t, err)

	ok, err := svc.DeleteS3Object(context.Background(), "raw/a.pdf")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"raw/a.pdf"}, api.deleted)
	assert.Equal(t, "scans", svc.BucketName())
}
