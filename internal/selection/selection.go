// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package selection validates and stages a locally chosen image file,
// producing an in-memory StagedImage with a previewable data URI.
package selection

import (
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/ghibli-studio/internal/datauri"
	"github.com/pdiddy/ghibli-studio/pkg/types"
)

// FileHandle is a user-chosen file as handed over by a file picker: a name,
// a declared media type, and a way to read its bytes.
type FileHandle interface {
	// Name returns the file name as declared by the picker.
	Name() string
	// MediaType returns the declared media type, possibly empty.
	MediaType() string
	// Open returns a reader over the file contents.
	Open() (io.ReadCloser, error)
}

// Manager stages selected files. The zero value is ready to use.
type Manager struct {
	// Now stamps StagedImage.SelectedAt. Defaults to time.Now.
	Now func() time.Time
}

// NewManager returns a Manager using the wall clock.
func NewManager() *Manager {
	return &Manager{Now: time.Now}
}

// IsImageType reports whether a declared media type denotes an image.
func IsImageType(mediaType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(mediaType)), "image/")
}

// Validate checks the declared media type of f without reading it.
func (m *Manager) Validate(f FileHandle) error {
	if f == nil {
		return fmt.Errorf("no file chosen: %w", types.ErrInvalidFileType)
	}
	if !IsImageType(f.MediaType()) {
		return fmt.Errorf("%s has media type %q: %w", f.Name(), f.MediaType(), types.ErrInvalidFileType)
	}
	return nil
}

// Decode validates f and reads it into a StagedImage. Reading honours ctx
// cancellation between the open and the read.
func (m *Manager) Decode(ctx context.Context, f FileHandle) (types.StagedImage, error) {
	if err := m.Validate(f); err != nil {
		return types.StagedImage{}, err
	}

	rc, err := f.Open()
	if err != nil {
		return types.StagedImage{}, fmt.Errorf("opening %s: %w: %w", f.Name(), types.ErrFileUnreadable, err)
	}
	defer rc.Close()

	if err := ctx.Err(); err != nil {
		return types.StagedImage{}, err
	}

	data, err := io.ReadAll(rc)
	if err != nil {
		return types.StagedImage{}, fmt.Errorf("reading %s: %w: %w", f.Name(), types.ErrFileUnreadable, err)
	}

	mediaType := strings.ToLower(strings.TrimSpace(f.MediaType()))
	now := time.Now
	if m.Now != nil {
		now = m.Now
	}
	return types.StagedImage{
		ID:             uuid.NewString(),
		Name:           f.Name(),
		MediaType:      mediaType,
		Data:           data,
		PreviewDataURI: datauri.Encode(mediaType, data),
		SelectedAt:     now().UTC(),
	}, nil
}

// LocalFile is a FileHandle backed by a path on disk. Its media type is
// declared from the file extension, the way browser file pickers do.
type LocalFile struct {
	path      string
	mediaType string
}

// OpenLocal returns a LocalFile for path. It fails if path does not exist or
// is a directory; the media type is not checked here.
func OpenLocal(path string) (*LocalFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	mt := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if base, _, err := mime.ParseMediaType(mt); err == nil {
		mt = base
	}
	return &LocalFile{path: path, mediaType: mt}, nil
}

func (l *LocalFile) Name() string      { return filepath.Base(l.path) }
func (l *LocalFile) MediaType() string { return l.mediaType }
func (l *LocalFile) Path() string      { return l.path }

func (l *LocalFile) Open() (io.ReadCloser, error) {
	return os.Open(l.path)
}

// Upload is a FileHandle backed by a multipart upload from a browser form.
// The declared media type is the part's Content-Type header.
type Upload struct {
	header *multipart.FileHeader
}

// NewUpload wraps a parsed multipart file header.
func NewUpload(h *multipart.FileHeader) *Upload {
	return &Upload{header: h}
}

func (u *Upload) Name() string { return u.header.Filename }

func (u *Upload) MediaType() string {
	mt := u.header.Header.Get("Content-Type")
	if base, _, err := mime.ParseMediaType(mt); err == nil {
		return base
	}
	return mt
}

func (u *Upload) Open() (io.ReadCloser, error) {
	return u.header.Open()
}
