// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make network requests.
type HTTPConfig struct {
	// Timeout bounds a single request, including reading the response body.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "ghibli-studio/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// ConversionConfig holds settings for the remote conversion endpoint.
type ConversionConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Endpoint is the fixed URL receiving the multipart POST.
	Endpoint string `json:"endpoint" yaml:"endpoint" mapstructure:"endpoint"`

	// HealthURL is probed by the health command. When empty it is derived
	// from Endpoint by replacing a trailing "/convert" with "/health".
	HealthURL string `json:"health_url" yaml:"health_url" mapstructure:"health_url"`

	// FieldName is the multipart field carrying the image bytes (default "image").
	FieldName string `json:"field_name" yaml:"field_name" mapstructure:"field_name"`

	// MaxResponseBytes caps the JSON body read from the endpoint (default 32 MiB).
	MaxResponseBytes int64 `json:"max_response_bytes" yaml:"max_response_bytes" mapstructure:"max_response_bytes"`
}

// DownloadConfig holds settings for saving conversion results to disk.
type DownloadConfig struct {
	// OutputDir is the directory receiving the saved image.
	OutputDir string `json:"output_dir" yaml:"output_dir" mapstructure:"output_dir"`

	// FileName is the fixed output file name (default "ghibli-style-image.png").
	FileName string `json:"file_name" yaml:"file_name" mapstructure:"file_name"`
}

// ServeConfig holds settings for the local browser server.
type ServeConfig struct {
	// Addr is the listen address (default "127.0.0.1:8080").
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`

	// ShutdownTimeout bounds graceful shutdown after SIGINT/SIGTERM.
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`

	// MaxUploadBytes caps the multipart upload accepted from the browser.
	MaxUploadBytes int64 `json:"max_upload_bytes" yaml:"max_upload_bytes" mapstructure:"max_upload_bytes"`
}

// LogConfig selects the logger level and output format.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Format is "console" for human-readable output or "json".
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// Config groups all component configurations.
type Config struct {
	Conversion ConversionConfig `json:"conversion" yaml:"conversion" mapstructure:"conversion"`
	Download   DownloadConfig   `json:"download" yaml:"download" mapstructure:"download"`
	Serve      ServeConfig      `json:"serve" yaml:"serve" mapstructure:"serve"`
	Log        LogConfig        `json:"log" yaml:"log" mapstructure:"log"`
}
