// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared by the conversion client.
package httputil

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
)

// DefaultMaxBodyBytes caps JSON bodies when the caller passes a zero limit.
const DefaultMaxBodyBytes int64 = 32 << 20

// ErrBodyTooLarge is returned by DecodeJSON when the body exceeds the limit.
var ErrBodyTooLarge = errors.New("response body exceeds limit")

// FilePart describes the single file carried by a multipart request.
type FilePart struct {
	// Field is the form field name (e.g. "image").
	Field string
	// FileName is sent in the part's Content-Disposition.
	FileName string
	// ContentType is the part's declared media type.
	ContentType string
	// Data is the file payload.
	Data []byte
}

// NewMultipartRequest builds a POST request whose body is a multipart/form-data
// document containing exactly one file part. The body is buffered so the
// request carries a Content-Length and can be replayed by http.Client on
// redirects.
func NewMultipartRequest(ctx context.Context, url string, part FilePart) (*http.Request, error) {
	if strings.TrimSpace(part.Field) == "" {
		return nil, errors.New("multipart field name required")
	}
	fileName := part.FileName
	if strings.TrimSpace(fileName) == "" {
		fileName = part.Field
	}
	contentType := part.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		escapeQuotes(part.Field), escapeQuotes(fileName)))
	h.Set("Content-Type", contentType)

	w, err := mw.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("creating multipart part: %w", err)
	}
	if _, err := w.Write(part.Data); err != nil {
		return nil, fmt.Errorf("writing multipart part: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("closing multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body.Bytes()))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// DecodeJSON reads at most maxBytes from r and decodes a single JSON value
// into v. A zero or negative maxBytes uses DefaultMaxBodyBytes.
func DecodeJSON(r io.Reader, maxBytes int64, v any) error {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodyBytes
	}
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return fmt.Errorf("reading body: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return ErrBodyTooLarge
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return errors.New("empty body")
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing JSON: %w", err)
	}
	return nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
