package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Options configures the S3 backend. Endpoint is set for S3-compatible
// servers such as MinIO and switches the client to path-style addressing.
type S3Options struct {
	Endpoint        string
	Region          string
	Bucket          string
	Prefix          string
	AccessKeyID     string
	SecretAccessKey string
}

// S3 stores uploads as objects in one bucket.
type S3 struct {
	client putObjectAPI
	bucket string
	prefix string
	logger *zap.Logger
}

// NewS3 builds an S3 client from opts. Static credentials are used when both
// keys are set; otherwise the default AWS credential chain applies.
func NewS3(ctx context.Context, opts S3Options, logger *zap.Logger) (*S3, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(opts.Region)}
	if opts.AccessKeyID != "" && opts.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})
	return newS3WithClient(client, opts.Bucket, opts.Prefix, logger), nil
}

func newS3WithClient(client putObjectAPI, bucket, prefix string, logger *zap.Logger) *S3 {
	return &S3{client: client, bucket: bucket, prefix: prefix, logger: logger}
}

// Put uploads body under the configured prefix.
func (s *S3) Put(ctx context.Context, name string, body io.Reader, size int64, contentType string) (Object, error) {
	key := joinKey(s.prefix, name)
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   body,
	}
	if size >= 0 {
		input.ContentLength = aws.Int64(size)
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		s.logger.Error("failed to upload object to s3", zap.String("bucket", s.bucket), zap.String("key", key), zap.Error(err))
		return Object{}, err
	}

	s.logger.Debug("object uploaded to s3", zap.String("key", key), zap.Int64("size", size))
	return Object{Location: "s3://" + s.bucket + "/" + key, Size: size}, nil
}

func joinKey(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return strings.TrimSuffix(prefix, "/") + "/" + name
}
