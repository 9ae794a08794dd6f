package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"
)

// S3Store stores objects in an S3 bucket with public-read ACL.
type S3Store struct {
	bucket   string
	baseURL  string
	uploader s3manageriface.UploaderAPI
}

var _ Store = (*S3Store)(nil)

// NewS3Store creates a new S3Store. Static credentials are used when AccessKey is set,
// otherwise the default AWS credential chain.
func NewS3Store(cfg S3Config) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 storage: bucket is required")
	}
	awsCfg := &aws.Config{
		Region:           aws.String(cfg.Region),
		S3ForcePathStyle: aws.Bool(cfg.ForcePathStyle),
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
	}
	if cfg.AccessKey != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, "")
	}
	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}
	return newS3Store(cfg, s3manager.NewUploader(sess)), nil
}

func newS3Store(cfg S3Config, uploader s3manageriface.UploaderAPI) *S3Store {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}
	return &S3Store{
		bucket:   cfg.Bucket,
		baseURL:  strings.TrimRight(baseURL, "/"),
		uploader: uploader,
	}
}

// Put uploads body under key, replacing any existing object.
func (s *S3Store) Put(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	_, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(body),
		ContentType:  aws.String(contentType),
		CacheControl: aws.String("public, max-age=86400"),
		ACL:          aws.String("public-read"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s to S3: %w", key, err)
	}
	return s.PublicURL(key), nil
}

// PublicURL returns the public URL of key.
func (s *S3Store) PublicURL(key string) string {
	return s.baseURL + "/" + key
}
