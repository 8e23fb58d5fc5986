package aws

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog/log"
)

const (
	downloadTimeout = 1 * time.Minute
	uploadTimeout   = 1 * time.Minute
	presignExpiry   = 15 * time.Minute
)

// ObjectAPI is the part of *s3.Client the service uses.
type ObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Presigner is the part of *s3.PresignClient the service uses.
type Presigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

type S3Service struct {
	client     ObjectAPI
	presigner  Presigner
	bucketName string
}

func NewS3Service(client *s3.Client, bucketName string) *S3Service {
	return NewS3ServiceWithAPI(client, s3.NewPresignClient(client), bucketName)
}

func NewS3ServiceWithAPI(client ObjectAPI, presigner Presigner, bucketName string) *S3Service {
	return &S3Service{client: client, presigner: presigner, bucketName: bucketName}
}

func (service *S3Service) BucketName() string {
	return service.bucketName
}

// DownloadFromS3Object returns the full content of the object at key.
func (service *S3Service) DownloadFromS3Object(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, downloadTimeout)
	defer cancel()

	resp, err := service.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(service.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("couldn't download object with key: %s, AWS error: %w", key, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object data: %w", err)
	}
	log.Debug().Str("key", key).Int("size", len(data)).Msg("download success")
	return data, nil
}

// UploadtoS3Object stores data as a PDF under key and returns a presigned
// download URL valid for 15 minutes.
func (service *S3Service) UploadtoS3Object(parentCtx context.Context, key string, data []byte) (string, error) {
	ctx, cancel := context.WithTimeout(parentCtx, uploadTimeout)
	defer cancel()

	input := &s3.PutObjectInput{
		Bucket:            aws.String(service.bucketName),
		Key:               aws.String(key),
		Body:              bytes.NewReader(data),
		ContentType:       aws.String("application/pdf"),
		ChecksumAlgorithm: types.ChecksumAlgorithmSha256,
	}
	if _, err := service.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("failed to upload object %s: %w", key, err)
	}

	req, err := service.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(service.bucketName),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return "", fmt.Errorf("failed to presign url: %w", err)
	}
	return req.URL, nil
}

func (service *S3Service) DeleteS3Object(parentCtx context.Context, key string) (bool, error) {
	if key == "" {
		return false, errors.New("key cannot be empty")
	}

	ctx, cancel := context.WithTimeout(parentCtx, 1*time.Minute)
	defer cancel()

	deleteInput := &s3.DeleteObjectInput{
		Bucket: aws.String(service.bucketName),
		Key:    aws.String(key),
	}

	if _, err := service.client.DeleteObject(ctx, deleteInput); err != nil {
		return false, fmt.Errorf("failed to delete object %s: %w", key, err)
	}

	return true, nil
}
