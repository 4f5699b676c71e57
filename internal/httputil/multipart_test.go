// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMultipartRequest_RoundTrip(t *testing.T) {
	var (
		gotName string
		gotType string
		gotData []byte
	)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		f, hdr, err := r.FormFile("image")
		if !assert.NoError(t, err) {
			return
		}
		defer f.Close()
		gotName = hdr.Filename
		gotType = hdr.Header.Get("Content-Type")
		gotData, _ = io.ReadAll(f)
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	req, err := NewMultipartRequest(context.Background(), ts.URL, FilePart{
		Field:       "image",
		FileName:    "cat.png",
		ContentType: "image/png",
		Data:        []byte("png-bytes"),
	})
	require.NoError(t, err)
	assert.Positive(t, req.ContentLength)

	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "cat.png", gotName)
	assert.Equal(t, "image/png", gotType)
	assert.Equal(t, []byte("png-bytes"), gotData)
}

func TestNewMultipartRequest_Defaults(t *testing.T) {
	req, err := NewMultipartRequest(context.Background(), "http://example.invalid/convert", FilePart{Field: "image"})
	require.NoError(t, err)

	require.NoError(t, req.ParseMultipartForm(1<<20))
	_, hdr, err := req.FormFile("image")
	require.NoError(t, err)
	assert.Equal(t, "image", hdr.Filename)
	assert.Equal(t, "application/octet-stream", hdr.Header.Get("Content-Type"))
}

func TestNewMultipartRequest_RequiresField(t *testing.T) {
	_, err := NewMultipartRequest(context.Background(), "http://example.invalid", FilePart{})
	assert.Error(t, err)
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	tests := []struct {
		name    string
		body    string
		limit   int64
		want    payload
		wantErr string
	}{
		{name: "valid", body: `{"success":true}`, want: payload{Success: true}},
		{name: "default limit", body: `{"error":"x"}`, limit: 0, want: payload{Error: "x"}},
		{name: "empty", body: "  ", wantErr: "empty body"},
		{name: "malformed", body: "<html>", wantErr: "parsing JSON"},
		{name: "too large", body: `{"error":"0123456789"}`, limit: 5, wantErr: ErrBodyTooLarge.Error()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got payload
			err := DecodeJSON(strings.NewReader(tt.body), tt.limit, &got)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
