// Package storage uploads PDF report artifacts to S3-compatible object
// storage and resolves webhook-supplied artifact references (inline base64
// or a fetchable URL) into stored public URLs.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	s3aws "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/visionpoint/assessment-api/internal/config"
)

// ErrObjectExists is returned when an upload would overwrite an existing
// object. Keys embed a timestamp and random suffix so this only happens if
// key generation collides; the bucket must never be silently overwritten.
var ErrObjectExists = errors.New("object already exists")

// Uploader stores an artifact and returns its public URL. The reports
// service depends on this interface, not on S3 directly.
type Uploader interface {
	Upload(ctx context.Context, key string, body []byte, contentType string) (string, error)
}

// S3Client is the subset of the AWS S3 client the uploader uses. Narrowing
// the interface keeps tests to a small mock instead of the full SDK surface.
type S3Client interface {
	PutObject(ctx context.Context, params *s3aws.PutObjectInput, optFns ...func(*s3aws.Options)) (*s3aws.PutObjectOutput, error)
}

// S3Uploader implements Uploader against Amazon S3 or an S3-compatible
// service (MinIO, Wasabi). Safe for concurrent use.
type S3Uploader struct {
	client  S3Client
	bucket  string
	region  string
	baseURL string
}

// S3Option configures an S3Uploader.
type S3Option func(*s3Options)

type s3Options struct {
	client S3Client
}

// WithS3Client sets a pre-configured client. Used by tests to inject mocks.
func WithS3Client(client S3Client) S3Option {
	return func(o *s3Options) {
		o.client = client
	}
}

// NewS3Uploader creates an uploader from storage configuration. Static
// credentials are used when provided; otherwise the SDK falls back to its
// default chain (IAM roles, env vars).
func NewS3Uploader(ctx context.Context, cfg config.StorageConfig, opts ...S3Option) (*S3Uploader, error) {
	if cfg.Bucket == "" || cfg.Region == "" {
		return nil, errors.New("storage: bucket and region are required")
	}

	options := &s3Options{}
	for _, opt := range opts {
		opt(options)
	}

	client := options.client
	if client == nil {
		awsOptions := []func(*awsconfig.LoadOptions) error{
			awsconfig.WithRegion(cfg.Region),
		}
		if cfg.AccessKeyID != "" && cfg.SecretKey != "" {
			awsOptions = append(awsOptions,
				awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
					cfg.AccessKeyID,
					cfg.SecretKey,
					"",
				)),
			)
		}

		awsConfig, err := awsconfig.LoadDefaultConfig(ctx, awsOptions...)
		if err != nil {
			return nil, fmt.Errorf("storage: loading AWS config: %w", err)
		}

		client = s3aws.NewFromConfig(awsConfig, func(o *s3aws.Options) {
			if cfg.Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.Endpoint)
				// S3-compatible services generally need path-style addressing.
				o.UsePathStyle = true
			}
		})
	}

	return &S3Uploader{
		client:  client,
		bucket:  cfg.Bucket,
		region:  cfg.Region,
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
	}, nil
}

// Upload stores body under key and returns the object's public URL.
// If-None-Match guards against overwriting: a key collision surfaces as
// ErrObjectExists instead of clobbering the stored artifact.
func (u *S3Uploader) Upload(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	key = strings.TrimPrefix(key, "/")
	if key == "" || strings.Contains(key, "..") {
		return "", fmt.Errorf("storage: invalid object key %q", key)
	}

	_, err := u.client.PutObject(ctx, &s3aws.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
		IfNoneMatch: aws.String("*"),
	})
	if err != nil {
		return "", classifyS3Error(err, key)
	}

	return u.PublicURL(key), nil
}

// PublicURL returns the public URL for an object key: the configured base
// URL when set, otherwise the standard virtual-hosted S3 URL.
func (u *S3Uploader) PublicURL(key string) string {
	key = strings.TrimPrefix(key, "/")
	if u.baseURL != "" {
		return u.baseURL + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", u.bucket, u.region, key)
}

// classifyS3Error maps SDK errors to domain errors. Context errors pass
// through for proper cancellation handling; a precondition failure means the
// key already exists.
func classifyS3Error(err error, key string) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		if apiErr.ErrorCode() == "PreconditionFailed" {
			return fmt.Errorf("%w: %s", ErrObjectExists, key)
		}
		return fmt.Errorf("storage: upload %s failed (code %s): %w", key, apiErr.ErrorCode(), err)
	}

	return fmt.Errorf("storage: upload %s failed: %w", key, err)
}
