package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	appconfig "github.com/ikkim/littlelemon-backend/config"
	"github.com/ikkim/littlelemon-backend/pkg/logger"
)

// S3Storage uploads menu images to a single bucket
type S3Storage struct {
	client  *s3.Client
	bucket  string
	baseURL string
}

func NewS3Storage(ctx context.Context, cfg appconfig.S3Config) (*S3Storage, error) {
	var awsCfg aws.Config
	var err error

	// Static credentials win; otherwise the default chain (env, shared file, IAM role)
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		awsCfg = aws.Config{
			Region:      cfg.Region,
			Credentials: credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		}
	} else {
		awsCfg, err = awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
		if err != nil {
			return nil, fmt.Errorf("loading aws config: %w", err)
		}
	}

	return &S3Storage{
		client:  s3.NewFromConfig(awsCfg),
		bucket:  cfg.Bucket,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
	}, nil
}

// Put stores body under key and returns its public URL
func (s *S3Storage) Put(ctx context.Context, key, contentType string, body []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(body))),
	})
	if err != nil {
		logger.Error("Failed to upload object", err, logger.Fields{"bucket": s.bucket, "key": key})
		return "", fmt.Errorf("failed to upload object: %w", err)
	}

	logger.Info("Object uploaded", logger.Fields{"bucket": s.bucket, "key": key, "size": len(body)})
	return ObjectURL(s.baseURL, s.bucket, s.client.Options().Region, key), nil
}

// ObjectURL prefers the configured CDN base over the bucket's S3 address
func ObjectURL(baseURL, bucket, region, key string) string {
	if baseURL != "" {
		return fmt.Sprintf("%s/%s", strings.TrimRight(baseURL, "/"), key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", bucket, region, key)
}
