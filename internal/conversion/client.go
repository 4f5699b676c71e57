// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package conversion talks to the remote style-conversion endpoint: one
// multipart POST per attempt, no automatic retries, and a strict mapping of
// responses onto ConversionRejected and transport failures onto NetworkError.
package conversion

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pdiddy/ghibli-studio/internal/httputil"
	"github.com/pdiddy/ghibli-studio/pkg/types"
)

const (
	// DefaultEndpoint is the hosted conversion service.
	DefaultEndpoint = "https://ghibli-backend-l3qt.onrender.com/api/ghibli/convert"
	// DefaultFieldName is the multipart field carrying the image bytes.
	DefaultFieldName = "image"

	defaultTimeout   = 60 * time.Second
	defaultUserAgent = "ghibli-studio/0.1"
)

// Client issues conversion requests against a fixed endpoint.
type Client struct {
	cfg        types.ConversionConfig
	httpClient *http.Client
	logger     zerolog.Logger
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithLogger sets the logger receiving transport failure detail.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// NewClient constructs a conversion client. Empty configuration fields fall
// back to the package defaults.
func NewClient(cfg types.ConversionConfig, opts ...Option) *Client {
	cfg.Endpoint = strings.TrimSpace(cfg.Endpoint)
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	cfg.FieldName = strings.TrimSpace(cfg.FieldName)
	if cfg.FieldName == "" {
		cfg.FieldName = DefaultFieldName
	}
	cfg.HealthURL = strings.TrimSpace(cfg.HealthURL)
	if cfg.HealthURL == "" {
		cfg.HealthURL = HealthURLFor(cfg.Endpoint)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if strings.TrimSpace(cfg.UserAgent) == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.MaxResponseBytes <= 0 {
		cfg.MaxResponseBytes = httputil.DefaultMaxBodyBytes
	}

	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the URL conversions are posted to.
func (c *Client) Endpoint() string {
	return c.cfg.Endpoint
}

// HealthURL returns the URL probed by Health.
func (c *Client) HealthURL() string {
	return c.cfg.HealthURL
}

// HealthURLFor derives the health URL from a conversion endpoint by
// replacing a trailing "/convert" path segment with "/health".
func HealthURLFor(endpoint string) string {
	trimmed := strings.TrimRight(endpoint, "/")
	if base, ok := strings.CutSuffix(trimmed, "/convert"); ok {
		return base + "/health"
	}
	return trimmed + "/health"
}

// convertResponse is the JSON body returned by the endpoint. Success is a
// pointer so a missing indicator can be told apart from false.
type convertResponse struct {
	Success        *bool  `json:"success"`
	ConvertedImage string `json:"converted_image"`
	Error          string `json:"error"`
	Message        string `json:"message"`
}

// Convert posts img to the endpoint and returns the converted image
// reference. The HTTP status code is not consulted: the body decides.
//
// Errors are *types.RejectedError when the body lacks success=true or the
// result field, and *types.NetworkError for transport failures and bodies
// that are not JSON.
func (c *Client) Convert(ctx context.Context, img types.StagedImage) (types.ConversionResult, error) {
	attempt := uuid.NewString()
	log := c.logger.With().
		Str("attempt", attempt).
		Str("endpoint", c.cfg.Endpoint).
		Str("image", img.Name).
		Logger()

	req, err := httputil.NewMultipartRequest(ctx, c.cfg.Endpoint, httputil.FilePart{
		Field:       c.cfg.FieldName,
		FileName:    img.Name,
		ContentType: img.MediaType,
		Data:        img.Data,
	})
	if err != nil {
		log.Error().Err(err).Msg("building conversion request")
		return "", &types.NetworkError{Op: "convert", Err: err}
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	start := time.Now()
	log.Debug().Int("bytes", img.Size()).Msg("posting image for conversion")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Error().Err(err).Dur("elapsed", time.Since(start)).Msg("conversion request failed")
		return "", &types.NetworkError{Op: "convert", Err: err}
	}
	defer resp.Body.Close()

	var body convertResponse
	if err := httputil.DecodeJSON(resp.Body, c.cfg.MaxResponseBytes, &body); err != nil {
		log.Error().Err(err).Int("status", resp.StatusCode).Msg("malformed conversion response")
		return "", &types.NetworkError{Op: "convert", Err: fmt.Errorf("HTTP %d: %w", resp.StatusCode, err)}
	}

	if body.Success == nil || !*body.Success {
		log.Warn().Int("status", resp.StatusCode).Str("server_error", body.Error).Msg("conversion rejected")
		return "", &types.RejectedError{Message: strings.TrimSpace(body.Error)}
	}
	result := strings.TrimSpace(body.ConvertedImage)
	if result == "" {
		log.Warn().Int("status", resp.StatusCode).Msg("conversion succeeded without a result")
		return "", &types.RejectedError{}
	}

	log.Info().Dur("elapsed", time.Since(start)).Str("server_message", body.Message).Msg("conversion succeeded")
	return types.ConversionResult(result), nil
}

// HealthReport is the body of the service health endpoint.
type HealthReport struct {
	Status  string `json:"status" yaml:"status"`
	Service string `json:"service" yaml:"service"`
}

// Healthy reports whether the service declared itself healthy.
func (h HealthReport) Healthy() bool {
	return strings.EqualFold(h.Status, "healthy")
}

// Health probes the service health endpoint. Any failure, including a
// non-2xx status, is a *types.NetworkError.
func (c *Client) Health(ctx context.Context) (HealthReport, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.HealthURL, nil)
	if err != nil {
		return HealthReport{}, &types.NetworkError{Op: "health", Err: err}
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("url", c.cfg.HealthURL).Msg("health request failed")
		return HealthReport{}, &types.NetworkError{Op: "health", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return HealthReport{}, &types.NetworkError{Op: "health", Err: fmt.Errorf("HTTP %d from %s", resp.StatusCode, c.cfg.HealthURL)}
	}

	var report HealthReport
	if err := httputil.DecodeJSON(resp.Body, c.cfg.MaxResponseBytes, &report); err != nil {
		return HealthReport{}, &types.NetworkError{Op: "health", Err: err}
	}
	return report, nil
}
