// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/ghibli-studio/internal/datauri"
	"github.com/pdiddy/ghibli-studio/internal/download"
	"github.com/pdiddy/ghibli-studio/internal/logging"
	"github.com/pdiddy/ghibli-studio/pkg/types"
)

func testConfig(endpoint, outDir string) types.Config {
	return types.Config{
		Conversion: types.ConversionConfig{Endpoint: endpoint},
		Download:   types.DownloadConfig{OutputDir: outDir},
	}
}

func writeImage(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("image-bytes"), 0o644))
	return path
}

func TestConvertFile(t *testing.T) {
	png := []byte("\x89PNG styled")
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		fmt.Fprintf(w, `{"success": true, "converted_image": %q}`, datauri.Encode("image/png", png))
	}))
	defer ts.Close()

	outDir := t.TempDir()
	var out bytes.Buffer
	path, err := convertFile(context.Background(), testConfig(ts.URL+"/convert", outDir), writeImage(t, "photo.jpg"), &out, logging.Discard())
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(outDir, download.DefaultFileName), path)
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, png, got)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	log := out.String()
	assert.Contains(t, log, "selected:   photo.jpg (image/jpeg, 11 bytes)")
	assert.Contains(t, log, "converted:  photo.jpg")
	assert.Contains(t, log, "saved:      "+path)
}

func TestConvertFile_Failures(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		handler  http.HandlerFunc
		wantErr  error
		wantLine string
		wantCall int32
	}{
		{
			name:     "non-image file",
			file:     "notes.txt",
			wantErr:  types.ErrInvalidFileType,
			wantLine: types.MsgInvalidFileType,
		},
		{
			name: "rejected",
			file: "photo.png",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				fmt.Fprint(w, `{"error": "Failed to convert image using Gemini API."}`)
			},
			wantErr:  types.ErrConversionRejected,
			wantLine: "Failed to convert image using Gemini API.",
			wantCall: 1,
		},
		{
			name: "malformed",
			file: "photo.png",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, "<html>oops</html>")
			},
			wantErr:  types.ErrNetwork,
			wantLine: types.MsgNetwork,
			wantCall: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&calls, 1)
				if tt.handler != nil {
					tt.handler(w, r)
				}
			}))
			defer ts.Close()

			outDir := t.TempDir()
			var out bytes.Buffer
			_, err := convertFile(context.Background(), testConfig(ts.URL, outDir), writeImage(t, tt.file), &out, logging.Discard())
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Contains(t, out.String(), "failed:")
			assert.Contains(t, out.String(), tt.wantLine)
			assert.Equal(t, tt.wantCall, atomic.LoadInt32(&calls))

			_, statErr := os.Stat(filepath.Join(outDir, download.DefaultFileName))
			assert.True(t, os.IsNotExist(statErr), "nothing is saved on failure")
		})
	}
}

func TestConvertFile_MissingFile(t *testing.T) {
	var out bytes.Buffer
	_, err := convertFile(context.Background(), testConfig("http://127.0.0.1:1", t.TempDir()), filepath.Join(t.TempDir(), "nope.png"), &out, logging.Discard())
	require.Error(t, err)
	assert.Contains(t, out.String(), "failed:")
}
