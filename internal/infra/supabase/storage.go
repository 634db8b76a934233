package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/veladigital/libro-api/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Storage — receipt uploads and signed URLs
// ============================================================

// Upload writes a voucher file to the receipts bucket. Uploads go through
// the bulkhead so a burst of large files cannot starve the HTTP pool.
func (c *Client) Upload(ctx context.Context, path string, file *domain.FileUpload) error {
	ctx, span := tracer.Start(ctx, "Supabase.Upload")
	defer span.End()
	span.SetAttributes(attribute.String("storage.path", path))

	if err := c.uploads.Acquire(ctx); err != nil {
		return &domain.ErrUpload{Bucket: c.bucket, Path: path, Err: err}
	}
	defer c.uploads.Release()

	url := fmt.Sprintf("%s/storage/v1/object/%s/%s", c.baseURL, c.bucket, escapePathSegments(path))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(file.Data))
	if err != nil {
		return &domain.ErrUpload{Bucket: c.bucket, Path: path, Err: err}
	}

	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.serviceRoleKey))
	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("supabase: upload failed",
			zap.String("path", path),
			zap.Error(err),
		)
		return &domain.ErrUpload{Bucket: c.bucket, Path: path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := readBody(resp)
		c.logger.Warn("supabase: upload non-2xx",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)),
		)
		return &domain.ErrUpload{
			Bucket: c.bucket,
			Path:   path,
			Err:    fmt.Errorf("storage returned %d: %s", resp.StatusCode, string(body)),
		}
	}

	c.logger.Info("supabase: receipt uploaded",
		zap.String("bucket", c.bucket),
		zap.String("path", path),
		zap.Int("bytes", len(file.Data)),
	)
	return nil
}

// SignedURL creates a time-limited download link for a stored receipt.
func (c *Client) SignedURL(ctx context.Context, path string, ttl time.Duration) (string, error) {
	ctx, span := tracer.Start(ctx, "Supabase.SignedURL")
	defer span.End()
	span.SetAttributes(attribute.String("storage.path", path))

	url := fmt.Sprintf("%s/storage/v1/object/sign/%s/%s", c.baseURL, c.bucket, escapePathSegments(path))
	payload, err := json.Marshal(map[string]any{"expiresIn": int(ttl.Seconds())})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}

	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.serviceRoleKey))
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("supabase: sign request failed",
			zap.String("path", path),
			zap.Error(err),
		)
		return "", &domain.ErrExternalService{Service: "supabase/storage", Err: err}
	}
	defer resp.Body.Close()

	body, err := readBody(resp)
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("supabase: sign non-2xx",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)),
		)
		return "", &domain.ErrExternalService{
			Service: "supabase/storage",
			Err:     fmt.Errorf("sign returned %d: %s", resp.StatusCode, string(body)),
		}
	}

	var signed struct {
		SignedURL string `json:"signedURL"`
	}
	if err := json.Unmarshal(body, &signed); err != nil {
		return "", fmt.Errorf("decode signed url: %w", err)
	}
	if signed.SignedURL == "" {
		return "", &domain.ErrExternalService{
			Service: "supabase/storage",
			Err:     fmt.Errorf("sign response missing signedURL"),
		}
	}

	return fmt.Sprintf("%s/storage/v1%s", c.baseURL, signed.SignedURL), nil
}
