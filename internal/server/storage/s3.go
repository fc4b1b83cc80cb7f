package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/isaiahsam/STDISCM-P3/internal/message"
)

// S3Config carries the settings for an S3-compatible backend (MinIO works
// with a BaseEndpoint pointing at the local deployment).
type S3Config struct {
	Bucket       string
	Region       string
	RootUser     string
	RootPassword string
	BaseEndpoint string
}

// S3Store persists payloads as objects keyed the same way the filesystem
// store names its files.
type S3Store struct {
	client *s3.Client
	bucket string
}

// NewS3Store builds the client from static credentials and verifies nothing;
// the first Save surfaces connectivity problems.
func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.RootUser,
			cfg.RootPassword,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Store{client: client, bucket: cfg.Bucket}, nil
}

// Save puts the payload under the message's storage key and returns the
// bucket-qualified location.
func (s *S3Store) Save(ctx context.Context, m *message.Message) (string, error) {
	key := m.StorageKey()
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(m.Payload),
		ContentLength: aws.Int64(int64(len(m.Payload))),
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}
	return s.bucket + "/" + key, nil
}
