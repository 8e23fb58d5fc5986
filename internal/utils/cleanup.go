package utils

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

// S3Deleter is the minimal interface we need from the s3 service.
type S3Deleter interface {
	DeleteS3Object(ctx context.Context, key string) (bool, error)
}

func DeleteS3Object(ctx context.Context, s3 S3Deleter, s3Key string) error {
	if _, err := s3.DeleteS3Object(ctx, s3Key); err != nil {
		return fmt.Errorf("delete s3 object %q: %w", s3Key, err)
	}
	log.Info().Str("key", s3Key).Msg("s3 object deleted")
	return nil
}
