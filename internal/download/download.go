// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package download saves a conversion result under the fixed output file
// name. A result is either a data URI, decoded locally, or an http(s) URL,
// fetched once per save.
package download

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/ghibli-studio/internal/datauri"
	"github.com/pdiddy/ghibli-studio/pkg/types"
)

// DefaultFileName is the file name every saved result is written under.
const DefaultFileName = "ghibli-style-image.png"

// Saver delivers a conversion result to the user. Implementations must not
// retain or mutate session state.
type Saver interface {
	Save(ctx context.Context, result types.ConversionResult) error
}

// FileSaver writes results into a directory on disk. Every call overwrites
// the same file, so repeated saves are idempotent in effect.
type FileSaver struct {
	dir      string
	fileName string
	client   *http.Client
}

// NewFileSaver creates a saver for cfg. A nil client uses http.DefaultClient
// for URL results.
func NewFileSaver(cfg types.DownloadConfig, client *http.Client) *FileSaver {
	dir := strings.TrimSpace(cfg.OutputDir)
	if dir == "" {
		dir = "."
	}
	name := strings.TrimSpace(cfg.FileName)
	if name == "" {
		name = DefaultFileName
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &FileSaver{dir: dir, fileName: filepath.Base(name), client: client}
}

// Path returns the destination path of saved results.
func (s *FileSaver) Path() string {
	return filepath.Join(s.dir, s.fileName)
}

// Save writes result to Path via a temporary file and rename.
func (s *FileSaver) Save(ctx context.Context, result types.ConversionResult) error {
	body, err := Open(ctx, s.client, result)
	if err != nil {
		return err
	}
	defer body.Close()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", s.dir, err)
	}

	tmpFile, err := os.CreateTemp(s.dir, ".download-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, copyErr := io.Copy(tmpFile, body)
	closeErr := tmpFile.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing download: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, s.Path()); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// AttachmentSaver streams results to a browser as a file attachment named
// with the fixed file name, triggering the browser's save-as.
type AttachmentSaver struct {
	w        http.ResponseWriter
	fileName string
	client   *http.Client
}

// NewAttachmentSaver creates a saver writing to w.
func NewAttachmentSaver(w http.ResponseWriter, fileName string, client *http.Client) *AttachmentSaver {
	if strings.TrimSpace(fileName) == "" {
		fileName = DefaultFileName
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &AttachmentSaver{w: w, fileName: filepath.Base(fileName), client: client}
}

// Save writes the result with a Content-Disposition attachment header.
func (s *AttachmentSaver) Save(ctx context.Context, result types.ConversionResult) error {
	body, err := Open(ctx, s.client, result)
	if err != nil {
		return err
	}
	defer body.Close()

	s.w.Header().Set("Content-Type", body.MediaType)
	s.w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, s.fileName))
	s.w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(s.w, body); err != nil {
		return fmt.Errorf("writing attachment: %w", err)
	}
	return nil
}

// defaultMediaType is reported when a result does not declare an image type.
const defaultMediaType = "image/png"

// Image is an opened conversion result and its media type.
type Image struct {
	// MediaType is the type declared by the data URI or the HTTP response,
	// or image/png when neither declares an image type.
	MediaType string
	io.ReadCloser
}

// Open returns a reader over the image referenced by result.
func Open(ctx context.Context, client *http.Client, result types.ConversionResult) (*Image, error) {
	ref := strings.TrimSpace(string(result))
	switch {
	case ref == "":
		return nil, errors.New("empty conversion result")
	case datauri.IsDataURI(ref):
		mediaType, data, err := datauri.Decode(ref)
		if err != nil {
			return nil, fmt.Errorf("decoding result: %w", err)
		}
		return &Image{MediaType: imageType(mediaType), ReadCloser: io.NopCloser(bytes.NewReader(data))}, nil
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		return fetch(ctx, client, ref)
	default:
		return nil, fmt.Errorf("unsupported result reference %.32q", ref)
	}
}

func fetch(ctx context.Context, client *http.Client, url string) (*Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "image/*")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
	}
	return &Image{MediaType: imageType(resp.Header.Get("Content-Type")), ReadCloser: resp.Body}, nil
}

func imageType(declared string) string {
	mt, _, err := mime.ParseMediaType(declared)
	if err != nil || !strings.HasPrefix(mt, "image/") {
		return defaultMediaType
	}
	return mt
}
