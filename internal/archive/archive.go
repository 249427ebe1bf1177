// Package archive uploads rendered digests to an S3-compatible object store
// (e.g. Cloudflare R2). Archiving is optional and best-effort.
package archive

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Archiver writes digest documents to one bucket.
type Archiver struct {
	client *s3.Client
	bucket string
}

// New connects to an S3-compatible endpoint with static credentials.
func New(ctx context.Context, endpoint, accessKey, secretKey, bucket string) (*Archiver, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion("auto"),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load object store config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})

	return &Archiver{client: client, bucket: bucket}, nil
}

// Put stores body under key.
func (a *Archiver) Put(ctx context.Context, key string, body []byte) error {
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("text/markdown; charset=utf-8"),
	})
	if err != nil {
		return fmt.Errorf("archive put %s: %w", key, err)
	}
	return nil
}
