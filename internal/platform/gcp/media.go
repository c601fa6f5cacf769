package gcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/storage"

	"github.com/learnpulse/learnpulse-backend/internal/platform/logger"
)

// MediaSigner turns lecture objects stored in GCS into time-limited GET URLs.
type MediaSigner struct {
	log    *logger.Logger
	client *storage.Client
}

func NewMediaSigner(ctx context.Context, log *logger.Logger) (*MediaSigner, error) {
	client, err := storage.NewClient(ctx, ClientOptionsFromEnv()...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &MediaSigner{log: log.With("service", "MediaSigner"), client: client}, nil
}

func (s *MediaSigner) SignedURL(ctx context.Context, bucket, object string, ttl time.Duration) (string, error) {
	bucket = strings.TrimSpace(bucket)
	object = strings.TrimLeft(strings.TrimSpace(object), "/")
	if bucket == "" || object == "" {
		return "", fmt.Errorf("bucket and object required")
	}
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	url, err := s.client.Bucket(bucket).SignedURL(object, &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  "GET",
		Expires: time.Now().Add(ttl),
	})
	if err != nil {
		s.log.Warn("sign media url failed", "bucket", bucket, "object", object, "error", err)
		return "", fmt.Errorf("sign url: %w", err)
	}
	return url, nil
}

func (s *MediaSigner) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}
