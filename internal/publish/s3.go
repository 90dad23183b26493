// Package publish uploads generated data files to object storage.
package publish

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"saarthi/internal/config"
)

// putObjectAPI is the subset of the S3 client the publisher uses.
type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Publisher uploads files to s3://Bucket/Prefix/<base name>.
type S3Publisher struct {
	client putObjectAPI
	bucket string
	prefix string
	log    *slog.Logger
}

// NewS3Publisher builds an S3 client from cfg. Static credentials are used
// when configured; otherwise the default AWS credential chain applies.
func NewS3Publisher(ctx context.Context, cfg config.Publish) (*S3Publisher, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.PathStyle
	})
	return newS3Publisher(client, cfg.S3Bucket, cfg.S3Prefix), nil
}

func newS3Publisher(client putObjectAPI, bucket, prefix string) *S3Publisher {
	return &S3Publisher{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		log:    slog.Default().With("component", "s3-publish"),
	}
}

// Key returns the object key a local file is uploaded to.
func (p *S3Publisher) Key(file string) string {
	if p.prefix == "" {
		return filepath.Base(file)
	}
	return path.Join(p.prefix, filepath.Base(file))
}

// Publish uploads each file in order and stops at the first failure.
func (p *S3Publisher) Publish(ctx context.Context, files ...string) error {
	for _, file := range files {
		if err := p.upload(ctx, file); err != nil {
			return err
		}
	}
	return nil
}

func (p *S3Publisher) upload(ctx context.Context, file string) error {
	f, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("opening %s: %w", file, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", file, err)
	}

	key := p.Key(file)
	input := &s3.PutObjectInput{
		Bucket:        aws.String(p.bucket),
		Key:           aws.String(key),
		Body:          f,
		ContentLength: aws.Int64(info.Size()),
		ContentType:   aws.String(contentType(file)),
	}
	if _, err := p.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("upload %s to s3://%s/%s: %w", file, p.bucket, key, err)
	}
	p.log.Info("uploaded", "file", file, "bucket", p.bucket, "key", key, "bytes", info.Size())
	return nil
}

func contentType(file string) string {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".json":
		return "application/json"
	default:
		return "application/octet-stream"
	}
}
