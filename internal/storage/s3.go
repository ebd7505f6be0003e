package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"playbook/internal/media"
)

// S3Config configures an S3 uploader.
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string // optional S3-compatible endpoint, e.g. https://fsn1.your-objectstorage.com
	PublicHost      string // host used in public URLs; defaults to s3.{region}.amazonaws.com
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
	HTTPClient      *http.Client
}

// S3 uploads objects with single PutObject calls. Failed writes are not
// retried.
type S3 struct {
	client       *s3.Client
	bucket       string
	publicScheme string
	publicHost   string
	pathStyle    bool
}

// NewS3 creates an S3 uploader.
func NewS3(cfg S3Config) (*S3, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket is required")
	}
	if cfg.Region == "" {
		return nil, fmt.Errorf("region is required")
	}

	opts := s3.Options{
		Region:                     cfg.Region,
		UsePathStyle:               cfg.UsePathStyle,
		RetryMaxAttempts:           1,
		RequestChecksumCalculation: aws.RequestChecksumCalculationWhenRequired,
	}
	if cfg.AccessKeyID != "" {
		opts.Credentials = credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")
	}
	var endpointURL *url.URL
	if cfg.Endpoint != "" {
		endpoint := cfg.Endpoint
		if !strings.Contains(endpoint, "://") {
			endpoint = "https://" + endpoint
		}
		u, err := url.Parse(endpoint)
		if err != nil || u.Host == "" {
			return nil, fmt.Errorf("invalid endpoint %q", cfg.Endpoint)
		}
		endpointURL = u
		opts.BaseEndpoint = aws.String(endpoint)
	}
	if cfg.HTTPClient != nil {
		opts.HTTPClient = cfg.HTTPClient
	}

	up := &S3{
		client:       s3.New(opts),
		bucket:       cfg.Bucket,
		publicScheme: "https",
		publicHost:   cfg.PublicHost,
	}
	switch {
	case up.publicHost != "":
	case endpointURL != nil:
		// Objects are served from the configured backend, addressed the
		// same way the client writes them.
		up.publicScheme = endpointURL.Scheme
		up.publicHost = endpointURL.Host
		up.pathStyle = cfg.UsePathStyle
	default:
		up.publicHost = fmt.Sprintf("s3.%s.amazonaws.com", cfg.Region)
	}
	return up, nil
}

// Upload writes body to key. A rejected write is a *media.StorageUploadError
// carrying the HTTP status when one was received.
func (s *S3) Upload(ctx context.Context, body io.Reader, key, contentType string) (*media.UploadResult, error) {
	if contentType == "" {
		contentType = "video/mp4"
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		uerr := &media.StorageUploadError{Key: key, Err: err}
		var respErr *awshttp.ResponseError
		if errors.As(err, &respErr) {
			uerr.StatusCode = respErr.HTTPStatusCode()
		}
		return nil, uerr
	}

	return &media.UploadResult{URL: s.PublicURL(key), Key: key}, nil
}

// Delete removes key from the bucket. S3 reports success for missing keys.
func (s *S3) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("deleting %s: %w", key, err)
	}
	return nil
}

// PublicURL returns the public URL of key.
func (s *S3) PublicURL(key string) string {
	key = strings.TrimLeft(key, "/")
	if s.pathStyle {
		return fmt.Sprintf("%s://%s/%s/%s", s.publicScheme, s.publicHost, s.bucket, key)
	}
	return fmt.Sprintf("%s://%s.%s/%s", s.publicScheme, s.bucket, s.publicHost, key)
}
