// Package storage keeps job attachments in an S3-compatible bucket.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// DefaultMimeType is stored when the uploader does not declare a type.
const DefaultMimeType = "application/octet-stream"

// ObjectAPI is the subset of the S3 client the store needs.
type ObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Config locates the bucket.
type Config struct {
	Endpoint      string // empty for AWS; set for R2 or MinIO
	Region        string
	Bucket        string
	AccessKey     string
	SecretKey     string
	PublicBaseURL string
}

// Object describes a stored attachment.
type Object struct {
	Key      string `json:"key"`
	URL      string `json:"url"`
	Size     int64  `json:"size"`
	MimeType string `json:"type"`
}

// Store uploads, fetches and deletes attachment objects.
type Store struct {
	api        ObjectAPI
	bucket     string
	publicBase string
	now        func() time.Time
}

// New builds a Store backed by an S3 client for cfg.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("storage bucket is required")
	}
	region := cfg.Region
	if region == "" {
		region = "auto"
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load storage config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	publicBase := cfg.PublicBaseURL
	if publicBase == "" {
		if cfg.Endpoint != "" {
			publicBase = strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
		} else {
			publicBase = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, region)
		}
	}
	return NewWithAPI(client, cfg.Bucket, publicBase), nil
}

// NewWithAPI builds a Store over an existing client.
func NewWithAPI(api ObjectAPI, bucket, publicBaseURL string) *Store {
	return &Store{
		api:        api,
		bucket:     bucket,
		publicBase: strings.TrimRight(publicBaseURL, "/"),
		now:        time.Now,
	}
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SanitizeFilename reduces a client-supplied file name to a safe object key
// segment.
func SanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), `\`, "/"))
	name = unsafeFilenameChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, "_.")
	if name == "" {
		return "file"
	}
	return name
}

// ObjectKey returns the key for an upload:
// <jobID>/<unixMillis>-<objectID>-<name>. objectID keeps same-named files
// uploaded in the same millisecond apart.
func ObjectKey(jobID, objectID uuid.UUID, filename string, at time.Time) string {
	return fmt.Sprintf("%s/%d-%s-%s", jobID, at.UnixMilli(), objectID, SanitizeFilename(filename))
}

// PublicURL returns the public URL of key.
func (s *Store) PublicURL(key string) string {
	return s.publicBase + "/" + key
}

// KeyFromURL recovers the object key from a public URL produced by PublicURL.
func (s *Store) KeyFromURL(rawURL string) (string, error) {
	prefix := s.publicBase + "/"
	if !strings.HasPrefix(rawURL, prefix) {
		return "", &URLError{URL: rawURL, Message: "not under the storage base url"}
	}
	escaped := strings.TrimPrefix(rawURL, prefix)
	if i := strings.IndexAny(escaped, "?#"); i >= 0 {
		escaped = escaped[:i]
	}
	key, err := url.PathUnescape(escaped)
	if err != nil || key == "" {
		return "", &URLError{URL: rawURL, Message: "missing object key"}
	}
	return key, nil
}

// Upload stores body under a key derived from the job and objectID.
func (s *Store) Upload(ctx context.Context, jobID, objectID uuid.UUID, filename, mimeType string, body []byte) (*Object, error) {
	if mimeType == "" {
		mimeType = DefaultMimeType
	}
	key := ObjectKey(jobID, objectID, filename, s.now())

	_, err := s.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String(mimeType),
		ContentLength: aws.Int64(int64(len(body))),
	})
	if err != nil {
		return nil, &Error{Op: "upload", Key: key, Cause: err}
	}

	log.Printf("[storage] uploaded %s (%d bytes)", key, len(body))
	return &Object{
		Key:      key,
		URL:      s.PublicURL(key),
		Size:     int64(len(body)),
		MimeType: mimeType,
	}, nil
}

// Get downloads the object behind a public URL.
func (s *Store) Get(ctx context.Context, rawURL string) ([]byte, error) {
	key, err := s.KeyFromURL(rawURL)
	if err != nil {
		return nil, err
	}
	out, err := s.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, &Error{Op: "get", Key: key, Cause: err}
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, &Error{Op: "read", Key: key, Cause: err}
	}
	return data, nil
}

// Delete removes the object behind a public URL.
func (s *Store) Delete(ctx context.Context, rawURL string) error {
	key, err := s.KeyFromURL(rawURL)
	if err != nil {
		return err
	}
	_, err = s.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return &Error{Op: "delete", Key: key, Cause: err}
	}
	log.Printf("[storage] deleted %s", key)
	return nil
}
