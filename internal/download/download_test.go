// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package download

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/ghibli-studio/internal/datauri"
	"github.com/pdiddy/ghibli-studio/pkg/types"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\nfake")

func TestFileSaver_DataURI(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	s := NewFileSaver(types.DownloadConfig{OutputDir: dir}, nil)

	require.NoError(t, s.Save(context.Background(), types.ConversionResult(datauri.Encode("image/png", pngBytes))))

	assert.Equal(t, filepath.Join(dir, DefaultFileName), s.Path())
	got, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.Equal(t, pngBytes, got)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must not be left behind")
}

func TestFileSaver_RepeatedSaves(t *testing.T) {
	dir := t.TempDir()
	s := NewFileSaver(types.DownloadConfig{OutputDir: dir}, nil)
	result := types.ConversionResult(datauri.Encode("image/png", pngBytes))

	for i := 0; i < 3; i++ {
		require.NoError(t, os.RemoveAll(s.Path()))
		require.NoError(t, s.Save(context.Background(), result))
		_, err := os.Stat(s.Path())
		require.NoError(t, err, "save %d must write the file", i)
	}
}

func TestFileSaver_URL(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/result.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(pngBytes)
	}))
	defer ts.Close()

	dir := t.TempDir()
	s := NewFileSaver(types.DownloadConfig{OutputDir: dir, FileName: "custom.png"}, ts.Client())

	require.NoError(t, s.Save(context.Background(), types.ConversionResult(ts.URL+"/result.png")))
	got, err := os.ReadFile(filepath.Join(dir, "custom.png"))
	require.NoError(t, err)
	assert.Equal(t, pngBytes, got)

	err = s.Save(context.Background(), types.ConversionResult(ts.URL+"/missing.png"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 404")
}

func TestFileSaver_FileNameIsBaseOnly(t *testing.T) {
	dir := t.TempDir()
	s := NewFileSaver(types.DownloadConfig{OutputDir: dir, FileName: "../escape.png"}, nil)
	assert.Equal(t, filepath.Join(dir, "escape.png"), s.Path())
}

func TestOpen_MediaType(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/result.webp":
			w.Header().Set("Content-Type", "image/webp")
		case "/result.bin":
			w.Header().Set("Content-Type", "application/octet-stream")
		}
		w.Write(pngBytes)
	}))
	defer ts.Close()

	tests := []struct {
		name   string
		result types.ConversionResult
		want   string
	}{
		{"png data uri", types.ConversionResult(datauri.Encode("image/png", pngBytes)), "image/png"},
		{"jpeg data uri", types.ConversionResult(datauri.Encode("image/jpeg", pngBytes)), "image/jpeg"},
		{"data uri without image type", "data:;base64,aGVsbG8=", "image/png"},
		{"url declaring image type", types.ConversionResult(ts.URL + "/result.webp"), "image/webp"},
		{"url declaring other type", types.ConversionResult(ts.URL + "/result.bin"), "image/png"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := Open(context.Background(), ts.Client(), tt.result)
			require.NoError(t, err)
			defer img.Close()
			assert.Equal(t, tt.want, img.MediaType)
		})
	}
}

func TestOpen_Errors(t *testing.T) {
	tests := []struct {
		name   string
		result types.ConversionResult
		errMsg string
	}{
		{"empty", "", "empty conversion result"},
		{"bad data uri", "data:image/png;base64,!!!", "decoding result"},
		{"unsupported scheme", "ftp://example.com/a.png", "unsupported result reference"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Open(context.Background(), http.DefaultClient, tt.result)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestAttachmentSaver(t *testing.T) {
	rec := httptest.NewRecorder()
	s := NewAttachmentSaver(rec, "", nil)

	require.NoError(t, s.Save(context.Background(), types.ConversionResult(datauri.Encode("image/png", pngBytes))))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, fmt.Sprintf(`attachment; filename="%s"`, DefaultFileName), rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, pngBytes, rec.Body.Bytes())
}

func TestAttachmentSaver_DeclaredMediaType(t *testing.T) {
	rec := httptest.NewRecorder()
	s := NewAttachmentSaver(rec, "", nil)

	require.NoError(t, s.Save(context.Background(), types.ConversionResult(datauri.Encode("image/jpeg", pngBytes))))

	assert.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))
	assert.Equal(t, fmt.Sprintf(`attachment; filename="%s"`, DefaultFileName), rec.Header().Get("Content-Disposition"))
}
