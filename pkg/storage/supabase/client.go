// Package supabase uploads objects to Supabase Storage over its REST API.
package supabase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/weglobalmusic/wgme-backend/pkg/config"
)

var ErrNotConfigured = errors.New("supabase storage is not configured")

// Uploader is the storage surface the profile service depends on.
type Uploader interface {
	Upload(ctx context.Context, bucket, path, contentType string, body io.Reader) error
	PublicURL(bucket, path string) string
}

// Client talks to /storage/v1 with the service role key.
type Client struct {
	http    *resty.Client
	baseURL string
}

type storageError struct {
	StatusCode string `json:"statusCode"`
	Error      string `json:"error"`
	Message    string `json:"message"`
}

func NewClient(cfg config.StorageConfig) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.SupabaseURL), "/")
	if base == "" || strings.TrimSpace(cfg.ServiceKey) == "" {
		return nil, ErrNotConfigured
	}
	parsed, err := url.Parse(base)
	if err != nil || !parsed.IsAbs() {
		return nil, fmt.Errorf("invalid supabase url %q", cfg.SupabaseURL)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	httpClient := resty.New().
		SetBaseURL(base+"/storage/v1").
		SetTimeout(timeout).
		SetHeader("Authorization", "Bearer "+cfg.ServiceKey).
		SetHeader("apikey", cfg.ServiceKey).
		SetRetryCount(2).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= http.StatusInternalServerError
		})

	return &Client{http: httpClient, baseURL: base}, nil
}

// Upload writes body to bucket/path, replacing any existing object.
func (c *Client) Upload(ctx context.Context, bucket, path, contentType string, body io.Reader) error {
	if bucket == "" || path == "" {
		return errors.New("bucket and path are required")
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("read upload body: %w", err)
	}

	var apiErr storageError
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", contentType).
		SetHeader("x-upsert", "true").
		SetHeader("cache-control", "3600").
		SetBody(data).
		SetError(&apiErr).
		Post(objectPath(bucket, path))
	if err != nil {
		return fmt.Errorf("upload %s/%s: %w", bucket, path, err)
	}
	if resp.IsError() {
		msg := apiErr.Message
		if msg == "" {
			msg = strings.TrimSpace(resp.String())
		}
		return fmt.Errorf("upload %s/%s: status %d: %s", bucket, path, resp.StatusCode(), msg)
	}
	return nil
}

// PublicURL returns the unauthenticated URL for an object in a public bucket.
func (c *Client) PublicURL(bucket, path string) string {
	return c.baseURL + "/storage/v1/object/public/" + url.PathEscape(bucket) + "/" + escapePath(path)
}

func objectPath(bucket, path string) string {
	return "/object/" + url.PathEscape(bucket) + "/" + escapePath(path)
}

func escapePath(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
