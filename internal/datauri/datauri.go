// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package datauri encodes and decodes base64 data URIs
// ("data:image/png;base64,...") used for image previews and results.
package datauri

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

const prefix = "data:"

// ErrNotDataURI is returned by Decode when the input lacks the "data:" scheme.
var ErrNotDataURI = errors.New("not a data URI")

// Encode returns data as a base64 data URI with the given media type.
func Encode(mediaType string, data []byte) string {
	mediaType = strings.TrimSpace(mediaType)
	if mediaType == "" {
		mediaType = "application/octet-stream"
	}
	return prefix + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// IsDataURI reports whether s uses the data: scheme.
func IsDataURI(s string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

// Decode parses a data URI and returns its media type and payload. Both
// base64 and percent-encoded payloads are accepted. A missing media type
// defaults to "text/plain" per RFC 2397.
func Decode(s string) (mediaType string, data []byte, err error) {
	if !IsDataURI(s) {
		return "", nil, ErrNotDataURI
	}
	header, payload, ok := strings.Cut(s[len(prefix):], ",")
	if !ok {
		return "", nil, fmt.Errorf("data URI missing ',' separator")
	}

	params := strings.Split(header, ";")
	mediaType = strings.TrimSpace(params[0])
	isBase64 := false
	for _, p := range params[1:] {
		if strings.EqualFold(strings.TrimSpace(p), "base64") {
			isBase64 = true
		}
	}
	if mediaType == "" {
		mediaType = "text/plain"
	}

	if isBase64 {
		data, err = base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
		if err != nil {
			// Some encoders omit padding.
			data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(strings.TrimSpace(payload), "="))
			if err != nil {
				return "", nil, fmt.Errorf("decoding base64 payload: %w", err)
			}
		}
		return mediaType, data, nil
	}

	unescaped, err := url.PathUnescape(payload)
	if err != nil {
		return "", nil, fmt.Errorf("decoding percent-encoded payload: %w", err)
	}
	return mediaType, []byte(unescaped), nil
}
