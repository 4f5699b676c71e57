// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package session holds the single state container of a conversion session:
// the staged image, the conversion status and result, and the user-visible
// error message. State changes only through SelectFile, Convert, and the
// completion of the requests they start.
//
// The two asynchronous steps (decoding a selected file and the network round
// trip) complete on their own goroutines. Each completion checks that the
// staged image it belongs to is still current before touching state, so a
// newer selection always wins over a stale outcome.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/pdiddy/ghibli-studio/internal/download"
	"github.com/pdiddy/ghibli-studio/internal/selection"
	"github.com/pdiddy/ghibli-studio/pkg/types"
)

// ErrSuperseded is returned by SelectFile when a newer selection started
// while this one was decoding. The decoded image is discarded.
var ErrSuperseded = errors.New("selection superseded by a newer one")

// Decoder validates and stages a selected file. *selection.Manager
// implements it.
type Decoder interface {
	Validate(f selection.FileHandle) error
	Decode(ctx context.Context, f selection.FileHandle) (types.StagedImage, error)
}

// Converter performs one conversion request.
type Converter interface {
	Convert(ctx context.Context, img types.StagedImage) (types.ConversionResult, error)
}

// Outcome is delivered once per Convert call after its request finishes.
type Outcome struct {
	// ImageID identifies the staged image the request was made for.
	ImageID string
	// Result is set on success.
	Result types.ConversionResult
	// Err is set on failure.
	Err error
	// Stale is true when the staged image changed while the request was in
	// flight; the outcome was not applied to the session.
	Stale bool
}

// Session is the state container. The zero value is not usable; call New.
type Session struct {
	decoder   Decoder
	converter Converter
	logger    zerolog.Logger

	mu     sync.Mutex
	staged *types.StagedImage
	status types.ConversionStatus
	result types.ConversionResult
	errMsg string

	// selectSeq increments on every accepted SelectFile call; a decode
	// applies only if no later call started meanwhile.
	selectSeq uint64
	// stagedGen increments every time a new image is staged; conversion
	// completions apply only if it is unchanged.
	stagedGen uint64

	wg sync.WaitGroup
}

// Option customizes a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Session) {
		s.logger = l
	}
}

// New creates an idle session with nothing staged.
func New(decoder Decoder, converter Converter, opts ...Option) *Session {
	s := &Session{
		decoder:   decoder,
		converter: converter,
		logger:    zerolog.Nop(),
		status:    types.StatusIdle,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns a snapshot of the container. The staged image is copied;
// its byte slices are shared and must not be modified.
func (s *Session) State() types.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := types.SessionState{
		Status: s.status,
		Result: s.result,
		Error:  s.errMsg,
	}
	if s.staged != nil {
		staged := *s.staged
		st.Staged = &staged
	}
	return st
}

// SelectFile validates f, decodes it, and stages it. A non-image file fails
// with types.ErrInvalidFileType and sets the error message; the staged
// image, status, and result are left untouched. On success the previous
// image, result, and error are replaced and the status resets to idle.
func (s *Session) SelectFile(ctx context.Context, f selection.FileHandle) (types.StagedImage, error) {
	if err := s.decoder.Validate(f); err != nil {
		s.Reject(err)
		return types.StagedImage{}, err
	}

	s.mu.Lock()
	s.selectSeq++
	seq := s.selectSeq
	s.mu.Unlock()

	img, err := s.decoder.Decode(ctx, f)

	s.mu.Lock()
	defer s.mu.Unlock()

	if seq != s.selectSeq {
		s.logger.Debug().Str("file", f.Name()).Msg("discarding superseded selection")
		return types.StagedImage{}, ErrSuperseded
	}
	if err != nil {
		if errors.Is(err, types.ErrInvalidFileType) || errors.Is(err, types.ErrFileUnreadable) {
			s.errMsg = types.UserMessage(err)
		}
		return types.StagedImage{}, err
	}

	s.staged = &img
	s.stagedGen++
	s.status = types.StatusIdle
	s.result = ""
	s.errMsg = ""
	s.logger.Info().Str("image", img.ID).Str("file", img.Name).Int("bytes", img.Size()).Msg("image staged")
	return img, nil
}

// Convert starts a conversion of the staged image and returns immediately.
// It fails synchronously, without any network call, with
// types.ErrNoImageSelected when nothing is staged and with
// types.ErrConversionInFlight while a request for the current image is
// pending.
//
// The request runs to completion even if ctx is cancelled. Its outcome is
// sent on the returned channel, which is closed afterwards.
func (s *Session) Convert(ctx context.Context) (<-chan Outcome, error) {
	s.mu.Lock()
	if s.staged == nil {
		s.errMsg = types.MsgNoImageSelected
		s.mu.Unlock()
		return nil, types.ErrNoImageSelected
	}
	if s.status == types.StatusInFlight {
		s.mu.Unlock()
		return nil, types.ErrConversionInFlight
	}
	img := *s.staged
	gen := s.stagedGen
	s.status = types.StatusInFlight
	s.result = ""
	s.errMsg = ""
	s.mu.Unlock()

	s.logger.Info().Str("image", img.ID).Msg("conversion started")

	out := make(chan Outcome, 1)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer close(out)
		out <- s.run(context.WithoutCancel(ctx), img, gen)
	}()
	return out, nil
}

// ConvertAndWait starts a conversion and blocks until its outcome arrives
// or ctx is done. The request itself is not cancelled by ctx.
func (s *Session) ConvertAndWait(ctx context.Context) (Outcome, error) {
	ch, err := s.Convert(ctx)
	if err != nil {
		return Outcome{}, err
	}
	select {
	case o := <-ch:
		return o, o.Err
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}

func (s *Session) run(ctx context.Context, img types.StagedImage, gen uint64) Outcome {
	result, err := s.converter.Convert(ctx, img)
	if err == nil && result.IsZero() {
		err = &types.RejectedError{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	o := Outcome{ImageID: img.ID, Result: result, Err: err}
	if gen != s.stagedGen {
		o.Stale = true
		s.logger.Debug().Str("image", img.ID).Msg("discarding stale conversion outcome")
		return o
	}

	if err != nil {
		s.status = types.StatusFailed
		s.result = ""
		s.errMsg = types.UserMessage(err)
		s.logger.Warn().Err(err).Str("image", img.ID).Msg("conversion failed")
		return o
	}
	s.status = types.StatusSucceeded
	s.result = result
	s.errMsg = ""
	s.logger.Info().Str("image", img.ID).Msg("conversion succeeded")
	return o
}

// Download hands the current result to saver. It is a no-op returning
// false unless the status is succeeded. State is never modified; saver
// failures are returned as-is.
func (s *Session) Download(ctx context.Context, saver download.Saver) (bool, error) {
	s.mu.Lock()
	ok := s.status == types.StatusSucceeded && !s.result.IsZero()
	result := s.result
	s.mu.Unlock()

	if !ok {
		return false, nil
	}
	if err := saver.Save(ctx, result); err != nil {
		s.logger.Warn().Err(err).Msg("download failed")
		return true, fmt.Errorf("saving result: %w", err)
	}
	return true, nil
}

// Wait blocks until every conversion started by Convert has finished.
func (s *Session) Wait() {
	s.wg.Wait()
}

// Reject records the user message for err without touching the staged
// image, status, or result. Boundaries call it for input they refuse before
// it reaches SelectFile, such as an oversized or empty upload.
func (s *Session) Reject(err error) {
	if err == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errMsg = types.UserMessage(err)
}
