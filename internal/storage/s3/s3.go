package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Media kinds stored per book.
const (
	KindCover       = "cover"
	KindAuthorPhoto = "author-photo"
)

var ErrUnsupportedType = errors.New("unsupported image type")

var imageExt = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

type Options struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	// PresignTTL defaults to 15 minutes.
	PresignTTL time.Duration
}

type S3Client struct {
	Client     *s3.Client
	Presigner  *s3.PresignClient
	Bucket     string
	presignTTL time.Duration
}

// NewClient initializes an S3-compatible client (AWS, R2, MinIO).
func NewClient(ctx context.Context, o Options) (*S3Client, error) {
	if o.Bucket == "" {
		return nil, errors.New("s3: bucket not configured")
	}
	opts := []func(*config.LoadOptions) error{config.WithRegion(o.Region)}
	if o.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(o.AccessKey, o.SecretKey, ""),
		))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(so *s3.Options) {
		if o.Endpoint != "" {
			so.BaseEndpoint = aws.String(o.Endpoint)
			so.UsePathStyle = true
		}
	})

	ttl := o.PresignTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &S3Client{
		Client:     client,
		Presigner:  s3.NewPresignClient(client),
		Bucket:     o.Bucket,
		presignTTL: ttl,
	}, nil
}

// ObjectKey names a new object for a book's media. Keys are never reused so
// a replaced image can be deleted after the row points elsewhere.
func ObjectKey(bookID int64, kind, contentType string, now time.Time) (string, error) {
	ext, ok := imageExt[strings.ToLower(strings.TrimSpace(contentType))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, contentType)
	}
	return fmt.Sprintf("books/%d/%s-%d.%s", bookID, kind, now.UnixNano(), ext), nil
}

// Put uploads body under objectKey. size must be known: R2 rejects chunked
// uploads without Content-Length.
func (s *S3Client) Put(ctx context.Context, objectKey, contentType string, body io.Reader, size int64) error {
	_, err := s.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.Bucket),
		Key:           aws.String(objectKey),
		Body:          body,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		return fmt.Errorf("s3: put object %s: %w", objectKey, err)
	}
	return nil
}

// PresignGet creates a presigned GET URL for downloading.
func (s *S3Client) PresignGet(ctx context.Context, objectKey string) (string, error) {
	req, err := s.Presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(objectKey),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = s.presignTTL
	})
	if err != nil {
		return "", fmt.Errorf("failed to presign download: %w", err)
	}
	return req.URL, nil
}

// Delete removes an object from the bucket (used for cleanup).
func (s *S3Client) Delete(ctx context.Context, objectKey string) error {
	_, err := s.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		return fmt.Errorf("s3: delete object %s: %w", objectKey, err)
	}
	return nil
}
