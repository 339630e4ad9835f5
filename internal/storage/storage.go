// Package storage is the gateway to the external object store. It is
// the only code that talks to the provider; callers see opaque handles
// and public URLs.
package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	appconfig "github.com/docvault/docvault/config"
	"github.com/docvault/docvault/internal/types"
)

// Store is an S3-compatible blob store. A Store constructed without
// credentials is disabled: Upload/Delete/Fetch fail fast with
// ErrStorageFailed instead of crashing the process at startup.
type Store struct {
	client     *s3.Client
	httpClient *http.Client
	logger     *slog.Logger
	cfg        appconfig.StorageConfig
	enabled    bool
}

func New(ctx context.Context, cfg appconfig.StorageConfig, logger *slog.Logger) (*Store, error) {
	s := &Store{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
		cfg:        cfg,
	}

	if cfg.AccessKey == "" || cfg.SecretKey == "" || cfg.Bucket == "" {
		logger.Warn("Object store credentials missing, storage gateway disabled",
			slog.Bool("access_key_set", cfg.AccessKey != ""),
			slog.Bool("secret_key_set", cfg.SecretKey != ""),
			slog.String("bucket", cfg.Bucket),
		)
		return s, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("failed to load storage config: %w", err)
	}

	s.client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = true
	})
	s.enabled = true
	return s, nil
}

// Enabled reports whether the gateway has usable provider credentials.
func (s *Store) Enabled() bool { return s.enabled }

// Host returns the host of the provider's public URL space. Document
// URLs on this host are proxied; others are returned as bare URLs.
func (s *Store) Host() string {
	u, err := url.Parse(s.cfg.PublicBaseURL)
	if err != nil {
		return ""
	}
	return u.Host
}

// Upload stores the payload under the given key and returns the opaque
// handle plus the public URL.
func (s *Store) Upload(ctx context.Context, key, contentType string, body io.Reader) (string, string, error) {
	if !s.enabled {
		return "", "", fmt.Errorf("storage gateway disabled: %w", types.ErrStorageFailed)
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", "", fmt.Errorf("put object %q: %v: %w", key, err, types.ErrStorageFailed)
	}

	publicURL := strings.TrimRight(s.cfg.PublicBaseURL, "/") + "/" + key
	return key, publicURL, nil
}

// Delete removes a previously uploaded blob. Used as the compensating
// action when the registry write after an upload fails.
func (s *Store) Delete(ctx context.Context, handle string) error {
	if !s.enabled {
		return fmt.Errorf("storage gateway disabled: %w", types.ErrStorageFailed)
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(handle),
	})
	if err != nil {
		return fmt.Errorf("delete object %q: %v: %w", handle, err, types.ErrStorageFailed)
	}
	return nil
}

// Fetch retrieves the raw bytes behind a provider URL using the stored
// credentials. The caller owns the returned body.
func (s *Store) Fetch(ctx context.Context, rawURL string) (io.ReadCloser, string, error) {
	if !s.enabled {
		return nil, "", fmt.Errorf("storage gateway disabled: %w", types.ErrStorageFailed)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build fetch request: %v: %w", err, types.ErrStorageFailed)
	}
	req.SetBasicAuth(s.cfg.AccessKey, s.cfg.SecretKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch %q: %v: %w", rawURL, err, types.ErrStorageFailed)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, "", fmt.Errorf("fetch %q: upstream status %d: %w", rawURL, resp.StatusCode, types.ErrStorageFailed)
	}

	return resp.Body, resp.Header.Get("Content-Type"), nil
}
