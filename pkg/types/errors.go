// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidFileType    = errors.New("invalid file type")
	ErrFileUnreadable     = errors.New("file unreadable")
	ErrImageTooLarge      = errors.New("image too large")
	ErrNoImageSelected    = errors.New("no image selected")
	ErrConversionInFlight = errors.New("conversion already in flight")
	ErrConversionRejected = errors.New("conversion rejected")
	ErrNetwork            = errors.New("network error")
)

// User-facing messages. Every error surfaced by a session maps to exactly
// one of these via UserMessage.
const (
	MsgInvalidFileType    = "Please select a valid image file."
	MsgFileUnreadable     = "Could not read the selected file."
	MsgImageTooLarge      = "The selected image is too large."
	MsgNoImageSelected    = "Please select an image first."
	MsgConversionInFlight = "A conversion is already in progress."
	MsgConversionFailed   = "Failed to convert image"
	MsgNetwork            = "Network error. Please try again."
	MsgUnknown            = "Something went wrong. Please try again."
)

// RejectedError reports a response from the conversion endpoint that did not
// indicate success. Message is the server-supplied text and may be empty.
type RejectedError struct {
	Message string
}

func (e *RejectedError) Error() string {
	if msg := strings.TrimSpace(e.Message); msg != "" {
		return fmt.Sprintf("%s: %s", ErrConversionRejected, msg)
	}
	return ErrConversionRejected.Error()
}

func (e *RejectedError) Unwrap() error {
	return ErrConversionRejected
}

// ImageTooLargeError reports an upload over the accepted size. Limit is the
// cap in bytes; zero when unknown.
type ImageTooLargeError struct {
	Limit int64
}

func (e *ImageTooLargeError) Error() string {
	if e.Limit <= 0 {
		return ErrImageTooLarge.Error()
	}
	return fmt.Sprintf("%s: limit %d bytes", ErrImageTooLarge, e.Limit)
}

func (e *ImageTooLargeError) Unwrap() error {
	return ErrImageTooLarge
}

// NetworkError reports a transport failure: timeout, refused connection, or
// a response that could not be decoded. The cause is kept for diagnostics
// and never shown to the user.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, ErrNetwork)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, ErrNetwork, e.Err)
}

// Unwrap exposes both the marker and the cause to errors.Is.
func (e *NetworkError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrNetwork}
	}
	return []error{ErrNetwork, e.Err}
}

// UserMessage maps err to the single message shown to the user. Network
// errors never leak server or transport detail.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var (
		rejected *RejectedError
		tooLarge *ImageTooLargeError
	)
	switch {
	case errors.Is(err, ErrNetwork):
		return MsgNetwork
	case errors.As(err, &rejected):
		if msg := strings.TrimSpace(rejected.Message); msg != "" {
			return msg
		}
		return MsgConversionFailed
	case errors.Is(err, ErrConversionRejected):
		return MsgConversionFailed
	case errors.Is(err, ErrInvalidFileType):
		return MsgInvalidFileType
	case errors.As(err, &tooLarge) && tooLarge.Limit > 0:
		return fmt.Sprintf("Image is larger than %s.", formatBytes(tooLarge.Limit))
	case errors.Is(err, ErrImageTooLarge):
		return MsgImageTooLarge
	case errors.Is(err, ErrFileUnreadable):
		return MsgFileUnreadable
	case errors.Is(err, ErrNoImageSelected):
		return MsgNoImageSelected
	case errors.Is(err, ErrConversionInFlight):
		return MsgConversionInFlight
	default:
		return MsgUnknown
	}
}

func formatBytes(n int64) string {
	switch {
	case n >= 1<<20 && n%(1<<20) == 0:
		return fmt.Sprintf("%d MB", n>>20)
	case n >= 1<<10 && n%(1<<10) == 0:
		return fmt.Sprintf("%d KB", n>>10)
	default:
		return fmt.Sprintf("%d bytes", n)
	}
}
