// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the data shared by the selection, conversion, and
// download stages of a ghibli-studio session: the staged image, the
// conversion result and status, configuration, and the error taxonomy.
package types

import "time"

// ConversionStatus is the state of the conversion request lifecycle. Exactly
// one value holds at any time; a failed status carries its message in
// SessionState.Error.
type ConversionStatus string

const (
	StatusIdle      ConversionStatus = "idle"
	StatusInFlight  ConversionStatus = "in_flight"
	StatusSucceeded ConversionStatus = "succeeded"
	StatusFailed    ConversionStatus = "failed"
)

// StagedImage is the currently selected, not-yet-converted image. It is
// replaced wholesale on every new selection.
type StagedImage struct {
	// ID uniquely identifies this selection within the session.
	ID string `json:"id" yaml:"id"`

	// Name is the file name as declared by the picker.
	Name string `json:"name" yaml:"name"`

	// MediaType is the declared media type (e.g. "image/png").
	MediaType string `json:"media_type" yaml:"media_type"`

	// Data holds the raw file bytes sent to the conversion endpoint.
	Data []byte `json:"-" yaml:"-"`

	// PreviewDataURI is the file encoded as a data URI for display.
	PreviewDataURI string `json:"-" yaml:"-"`

	// SelectedAt records when the decode completed.
	SelectedAt time.Time `json:"selected_at" yaml:"selected_at"`
}

// Size returns the number of raw bytes staged.
func (s StagedImage) Size() int {
	return len(s.Data)
}

// ConversionResult references the transformed image. It is either a data URI
// or an http(s) URL, usable both for rendering and for saving to disk.
type ConversionResult string

// IsZero reports whether no result is present.
func (r ConversionResult) IsZero() bool {
	return r == ""
}

// SessionState is a read-only snapshot of a session's state container.
type SessionState struct {
	Status ConversionStatus `json:"status"`
	Staged *StagedImage     `json:"staged,omitempty"`
	Result ConversionResult `json:"result,omitempty"`
	Error  string           `json:"error,omitempty"`
}

// HasImage reports whether an image is staged.
func (s SessionState) HasImage() bool {
	return s.Staged != nil
}

// CanConvert reports whether the convert action is currently enabled.
func (s SessionState) CanConvert() bool {
	return s.Staged != nil && s.Status != StatusInFlight
}

// CanDownload reports whether the download action is currently enabled.
func (s SessionState) CanDownload() bool {
	return s.Status == StatusSucceeded && !s.Result.IsZero()
}
