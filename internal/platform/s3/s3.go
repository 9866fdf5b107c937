package s3

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"creditmemo/internal/platform"
)

type Config struct {
	// "http://127.0.0.1:9000"; empty means AWS itself.
	Endpoint     string
	Region       string
	AccessKey    string
	SecretKey    string
	UsePathStyle bool
}

// New connects to an S3-compatible endpoint with static credentials and makes
// sure bucket exists.
func New(ctx context.Context, cfg Config, bucket string) (*s3.Client, error) {
	client := s3.NewFromConfig(aws.Config{Region: cfg.Region}, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.Credentials = credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")
		o.UsePathStyle = cfg.UsePathStyle
	})

	missing := false
	err := platform.Ping(ctx, "object storage", func(ctx context.Context) error {
		_, err := client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)})
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			missing = true
			return nil
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	if missing {
		if _, err := client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(bucket)}); err != nil {
			return nil, fmt.Errorf("create bucket %s failed: %w", bucket, err)
		}
	}
	return client, nil
}
