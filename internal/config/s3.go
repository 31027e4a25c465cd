package config

import (
	"context"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config holds the event photo bucket settings.
type S3Config struct {
	Client        *s3.Client
	Bucket        string
	PublicBaseURL string
}

// NewS3Config builds an S3 client from AWS_* variables. Static credentials are
// used when both keys are set, otherwise the default provider chain applies.
// S3_ENDPOINT points the client at an S3-compatible store.
func NewS3Config(ctx context.Context) (*S3Config, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(getEnv("AWS_REGION", "eu-west-1")),
	}
	if key, secret := os.Getenv("AWS_ACCESS_KEY_ID"), os.Getenv("AWS_SECRET_ACCESS_KEY"); key != "" && secret != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(key, secret, ""),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}

	endpoint := os.Getenv("S3_ENDPOINT")
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	bucket := os.Getenv("S3_BUCKET_NAME")
	publicBaseURL := os.Getenv("S3_PUBLIC_BASE_URL")
	if publicBaseURL == "" && bucket != "" {
		publicBaseURL = "https://" + bucket + ".s3." + cfg.Region + ".amazonaws.com"
	}

	return &S3Config{
		Client:        client,
		Bucket:        bucket,
		PublicBaseURL: publicBaseURL,
	}, nil
}
