package storage

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"gatherly/internal/domain"
)

// Allowed photo MIME types and extensions.
var (
	allowedPicTypes = map[string]string{
		"image/jpeg": ".jpg",
		"image/jpg":  ".jpg",
		"image/png":  ".png",
		"image/webp": ".webp",
		"image/gif":  ".gif",
	}
	allowedPicExtensions = map[string]string{
		".jpg":  "image/jpeg",
		".jpeg": "image/jpeg",
		".png":  "image/png",
		".webp": "image/webp",
		".gif":  "image/gif",
	}
)

// S3Config holds S3 client configuration.
type S3Config struct {
	Provider        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
}

// NewBlobStore creates a blob store from config. Provider "s3" uses AWS S3;
// "noop" or unknown uses a no-op store that returns a placeholder URL.
func NewBlobStore(cfg S3Config) (domain.BlobStore, error) {
	switch cfg.Provider {
	case "s3":
		awsCfg := aws.Config{
			Region: cfg.Region,
			Credentials: aws.NewCredentialsCache(
				credentials.NewStaticCredentialsProvider(
					cfg.AccessKeyID,
					cfg.SecretAccessKey,
					"",
				),
			),
		}
		return &s3Store{
			client: s3.NewFromConfig(awsCfg),
			bucket: cfg.Bucket,
			region: cfg.Region,
		}, nil
	case "noop":
		return &noopStore{}, nil
	default:
		log.Printf("[STORAGE] Unknown storage provider %q, using noop", cfg.Provider)
		return &noopStore{}, nil
	}
}

// ValidatePicType returns true if the content type and/or extension are allowed for photos.
func ValidatePicType(contentType, filename string) bool {
	if contentType != "" {
		if _, ok := allowedPicTypes[strings.ToLower(contentType)]; ok {
			return true
		}
	}
	ext := strings.ToLower(path.Ext(filename))
	if ext != "" {
		if _, ok := allowedPicExtensions[ext]; ok {
			return true
		}
	}
	return false
}

type s3Store struct {
	client *s3.Client
	bucket string
	region string
}

func (s *s3Store) Upload(ctx context.Context, key, contentType string, data []byte) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("upload: %w", err)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key), nil
}

type noopStore struct{}

func (n *noopStore) Upload(ctx context.Context, key, contentType string, data []byte) (string, error) {
	log.Println("[STORAGE] Object would be stored (noop)", "key", key)
	return "https://storage.invalid/" + key, nil
}
