// Package archive writes completed submissions to object storage for
// long-term retention, independent of webhook delivery.
//
// Objects are laid out hive-style so downstream batch tooling can
// partition-prune by form and day:
//
//	<prefix>/form_id=<id>/day=<YYYY-MM-DD>/submission_id=<uuid>.json
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/formstep-io/formstep/submit"
)

// Archiver persists submissions for retention.
type Archiver interface {
	// Archive stores one submission. Must respect context cancellation.
	Archive(ctx context.Context, sub *submit.Submission) error
}

// Config holds configuration for the S3 archive backend.
type Config struct {
	// Bucket is the S3 bucket name (required).
	Bucket string
	// Prefix is the key prefix within the bucket (optional).
	Prefix string
	// Region is the AWS region (optional, uses default chain if empty).
	Region string
	// Endpoint is a custom S3 endpoint URL for S3-compatible providers
	// (e.g. Cloudflare R2, MinIO). Empty uses the default AWS endpoint.
	Endpoint string
	// UsePathStyle forces path-style addressing (bucket in path, not
	// subdomain). Required by most S3-compatible providers.
	UsePathStyle bool
}

// Validate checks that required S3 configuration is present.
func (c *Config) Validate() error {
	if c.Bucket == "" {
		return errors.New("S3 bucket is required")
	}
	return nil
}

// objectPutter is the slice of the S3 API the archive uses.
type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Archive stores submissions as JSON objects in S3.
type S3Archive struct {
	client objectPutter
	config Config
}

// New creates an S3 archive using the AWS SDK default credential chain
// (env vars, shared config, IAM role).
func New(ctx context.Context, cfg Config) (*S3Archive, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var opts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}

	awsConfig, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		endpoint := cfg.Endpoint
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = &endpoint
		})
	}
	if cfg.UsePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}

	return NewWithClient(s3.NewFromConfig(awsConfig, s3Opts...), cfg)
}

// NewWithClient creates an S3 archive over an existing client. Intended
// for tests and hosts that manage their own AWS configuration.
func NewWithClient(client objectPutter, cfg Config) (*S3Archive, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &S3Archive{client: client, config: cfg}, nil
}

// Archive writes the submission as a JSON object under the hive key.
func (a *S3Archive) Archive(ctx context.Context, sub *submit.Submission) error {
	body, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("archive: marshal submission: %w", err)
	}

	key := a.Key(sub)
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.config.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("archive: put %s: %w", key, err)
	}
	return nil
}

// Key computes the object key for a submission.
func (a *S3Archive) Key(sub *submit.Submission) string {
	day := sub.SubmittedAt
	if t, err := time.Parse(time.RFC3339, sub.SubmittedAt); err == nil {
		day = t.UTC().Format("2006-01-02")
	}

	parts := []string{
		fmt.Sprintf("form_id=%s", sub.FormID),
		fmt.Sprintf("day=%s", day),
		fmt.Sprintf("submission_id=%s.json", sub.SubmissionID),
	}
	if a.config.Prefix != "" {
		parts = append([]string{strings.TrimSuffix(a.config.Prefix, "/")}, parts...)
	}
	return strings.Join(parts, "/")
}

// Verify S3Archive implements the archive interface.
var _ Archiver = (*S3Archive)(nil)
