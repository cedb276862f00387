// Package storage keeps recipe images in S3-compatible object storage.
// Clients upload directly with presigned PUT requests; the API only stores
// the resulting image URLs.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/upb/recipe-hub/config"
	"github.com/upb/recipe-hub/models"
	"go.uber.org/zap"
)

var (
	// ErrUnsupportedContentType is returned for content types outside the image allowlist
	ErrUnsupportedContentType = errors.New("unsupported image content type")

	// ErrInvalidSize is returned for empty or oversized uploads
	ErrInvalidSize = errors.New("invalid image size")

	// ErrForeignImage is returned when deleting a bucket object outside the owner's prefix
	ErrForeignImage = errors.New("image belongs to another account")
)

var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}

	deleteObject = func(c *s3.Client, ctx context.Context, in *s3.DeleteObjectInput) error {
		_, err := c.DeleteObject(ctx, in)
		return err
	}
)

// S3ImageStore issues presigned uploads and deletes images in one bucket
type S3ImageStore struct {
	client        *s3.Client
	presign       *s3.PresignClient
	bucket        string
	publicBaseURL string
	expiry        time.Duration
	logger        *zap.Logger
	now           func() time.Time
}

// NewS3ImageStore builds the S3 clients for cfg. A custom endpoint (MinIO)
// switches to path-style addressing.
func NewS3ImageStore(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (*S3ImageStore, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("storage bucket is not configured")
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	expiry := cfg.UploadExpiry
	if expiry <= 0 {
		expiry = 15 * time.Minute
	}

	return &S3ImageStore{
		client:        client,
		presign:       newS3PresignClient(client),
		bucket:        cfg.Bucket,
		publicBaseURL: publicBaseURL(cfg),
		expiry:        expiry,
		logger:        logger,
		now:           time.Now,
	}, nil
}

// PresignUpload returns a presigned PUT for one image owned by ownerID. The
// content type and length are part of the signature, so the upload must match them.
func (s *S3ImageStore) PresignUpload(ctx context.Context, ownerID uuid.UUID, contentType string, size int64) (*models.ImageUpload, error) {
	ext, ok := models.ImageExtension(contentType)
	if !ok {
		return nil, ErrUnsupportedContentType
	}
	if size <= 0 || size > models.MaxImageBytes {
		return nil, ErrInvalidSize
	}

	now := s.now().UTC()
	key := ObjectKey(ownerID, now, ext)

	req, err := presignPutObject(s.presign, ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
	}, s3.WithPresignExpires(s.expiry))
	if err != nil {
		return nil, fmt.Errorf("failed to presign upload: %w", err)
	}

	headers := make(map[string]string, len(req.SignedHeader))
	for name, values := range req.SignedHeader {
		if strings.EqualFold(name, "host") || len(values) == 0 {
			continue
		}
		headers[name] = values[0]
	}

	s.logger.Debug("image upload presigned",
		zap.String("owner_id", ownerID.String()),
		zap.String("key", key))

	return &models.ImageUpload{
		UploadURL: req.URL,
		Method:    req.Method,
		Headers:   headers,
		Key:       key,
		ImageURL:  s.PublicURL(key),
		ExpiresAt: now.Add(s.expiry),
	}, nil
}

// Delete removes the object behind imageURL when it was uploaded by ownerID.
// URLs that do not point into this bucket are ignored.
func (s *S3ImageStore) Delete(ctx context.Context, ownerID uuid.UUID, imageURL string) error {
	key, ok := s.KeyFromURL(imageURL)
	if !ok {
		s.logger.Debug("skipping foreign image url", zap.String("url", imageURL))
		return nil
	}
	if !ownedKey(ownerID, key) {
		s.logger.Warn("refusing to delete another account's image",
			zap.String("owner_id", ownerID.String()),
			zap.String("key", key))
		return fmt.Errorf("%w: %s", ErrForeignImage, key)
	}

	if err := deleteObject(s.client, ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}); err != nil {
		return fmt.Errorf("failed to delete image %s: %w", key, err)
	}
	return nil
}

// PublicURL returns the URL an uploaded object is served from
func (s *S3ImageStore) PublicURL(key string) string {
	return s.publicBaseURL + "/" + key
}

// KeyFromURL extracts the object key from a URL produced by PublicURL
func (s *S3ImageStore) KeyFromURL(imageURL string) (string, bool) {
	prefix := s.publicBaseURL + "/"
	if !strings.HasPrefix(imageURL, prefix) {
		return "", false
	}
	key := strings.TrimPrefix(imageURL, prefix)
	return key, key != ""
}

// Owns reports whether imageURL is an object in this bucket uploaded by ownerID
func (s *S3ImageStore) Owns(ownerID uuid.UUID, imageURL string) bool {
	key, ok := s.KeyFromURL(imageURL)
	return ok && ownedKey(ownerID, key)
}

// ownedKey matches keys under recipes/<owner>/ that cannot escape the prefix
func ownedKey(ownerID uuid.UUID, key string) bool {
	if !strings.HasPrefix(key, ownerPrefix(ownerID)) || strings.ContainsAny(key, "?#%\\") {
		return false
	}
	for _, segment := range strings.Split(key, "/") {
		if segment == "" || segment == "." || segment == ".." {
			return false
		}
	}
	return true
}

func ownerPrefix(ownerID uuid.UUID) string {
	return "recipes/" + ownerID.String() + "/"
}

// ObjectKey builds recipes/<owner>/<yyyy>/<mm>/<dd>/<uuid>.<ext>
func ObjectKey(ownerID uuid.UUID, at time.Time, ext string) string {
	return fmt.Sprintf("%s%04d/%02d/%02d/%s.%s",
		ownerPrefix(ownerID), at.Year(), int(at.Month()), at.Day(), uuid.New(), ext)
}

func publicBaseURL(cfg config.StorageConfig) string {
	switch {
	case cfg.PublicBaseURL != "":
		return strings.TrimSuffix(cfg.PublicBaseURL, "/")
	case cfg.Endpoint != "":
		return strings.TrimSuffix(cfg.Endpoint, "/") + "/" + cfg.Bucket
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}
}
