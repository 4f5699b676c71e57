// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package web serves one conversion session to a browser: an upload form,
// a convert button, the staged preview, the result, and a download link.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/pdiddy/ghibli-studio/internal/datauri"
	"github.com/pdiddy/ghibli-studio/internal/download"
	"github.com/pdiddy/ghibli-studio/internal/logging"
	"github.com/pdiddy/ghibli-studio/internal/selection"
	"github.com/pdiddy/ghibli-studio/internal/session"
	"github.com/pdiddy/ghibli-studio/pkg/types"
)

const (
	defaultAddr            = "127.0.0.1:8080"
	defaultMaxUploadBytes  = 10 << 20
	defaultShutdownTimeout = 10 * time.Second
	uploadField            = "image"

	// formOverheadBytes covers multipart boundaries and part headers.
	formOverheadBytes = 64 << 10
)

// Server exposes a session over HTTP.
type Server struct {
	session  *session.Session
	serve    types.ServeConfig
	fileName string
	client   *http.Client
	logger   zerolog.Logger
	router   chi.Router
}

// NewServer wires the routes for sess. client fetches URL results for the
// preview and download routes; nil uses http.DefaultClient.
func NewServer(sess *session.Session, serve types.ServeConfig, dl types.DownloadConfig, client *http.Client, logger zerolog.Logger) *Server {
	if strings.TrimSpace(serve.Addr) == "" {
		serve.Addr = defaultAddr
	}
	if serve.MaxUploadBytes <= 0 {
		serve.MaxUploadBytes = defaultMaxUploadBytes
	}
	if serve.ShutdownTimeout <= 0 {
		serve.ShutdownTimeout = defaultShutdownTimeout
	}
	fileName := strings.TrimSpace(dl.FileName)
	if fileName == "" {
		fileName = download.DefaultFileName
	}
	if client == nil {
		client = http.DefaultClient
	}

	s := &Server{
		session:  sess,
		serve:    serve,
		fileName: fileName,
		client:   client,
		logger:   logger,
	}

	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.Recoverer,
		logging.Requests(logger),
	)
	r.Get("/", s.handleIndex)
	r.Get("/state", s.handleState)
	r.Post("/select", s.handleSelect)
	r.Post("/convert", s.handleConvert)
	r.Get("/preview", s.handlePreview)
	r.Get("/result", s.handleResult)
	r.Get("/download", s.handleDownload)
	s.router = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.serve.Addr
}

// ListenAndServe serves until ctx is done, then shuts down gracefully and
// waits for in-flight conversions to finish.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.serve.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.serve.Addr).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.serve.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	s.session.Wait()
	s.logger.Info().Msg("server stopped")
	return nil
}

// stateView is the JSON form of a session snapshot. Image bytes are served
// separately by /preview and /result.
type stateView struct {
	Status      types.ConversionStatus `json:"status"`
	Image       *imageView             `json:"image,omitempty"`
	HasResult   bool                   `json:"has_result"`
	Error       string                 `json:"error,omitempty"`
	CanConvert  bool                   `json:"can_convert"`
	CanDownload bool                   `json:"can_download"`
}

type imageView struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	MediaType string `json:"media_type"`
	Size      int    `json:"size"`
}

func newStateView(st types.SessionState) stateView {
	v := stateView{
		Status:      st.Status,
		HasResult:   !st.Result.IsZero(),
		Error:       st.Error,
		CanConvert:  st.CanConvert(),
		CanDownload: st.CanDownload(),
	}
	if st.Staged != nil {
		v.Image = &imageView{
			ID:        st.Staged.ID,
			Name:      st.Staged.Name,
			MediaType: st.Staged.MediaType,
			Size:      st.Staged.Size(),
		}
	}
	return v
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, newStateView(s.session.State()))
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	header, err := s.readUpload(w, r)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, types.ErrImageTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		s.session.Reject(err)
		s.respondError(w, r, status, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	if _, err := s.session.SelectFile(r.Context(), selection.NewUpload(header)); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, session.ErrSuperseded) {
			status = http.StatusConflict
		}
		s.respondError(w, r, status, err)
		return
	}
	s.respond(w, r, http.StatusOK)
}

// readUpload parses the multipart form and returns the image part. The
// image itself may use MaxUploadBytes; the form envelope gets a fixed
// allowance on top.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (*multipart.FileHeader, error) {
	limit := s.serve.MaxUploadBytes
	tooLarge := &types.ImageTooLargeError{Limit: limit}
	if r.ContentLength > limit+formOverheadBytes {
		return nil, tooLarge
	}

	r.Body = http.MaxBytesReader(w, r.Body, limit+formOverheadBytes)
	if err := r.ParseMultipartForm(limit); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, tooLarge
		}
		return nil, fmt.Errorf("parsing upload: %w: %w", types.ErrFileUnreadable, err)
	}

	_, header, err := r.FormFile(uploadField)
	if err != nil {
		r.MultipartForm.RemoveAll()
		return nil, fmt.Errorf("no %q file in upload: %w", uploadField, types.ErrNoImageSelected)
	}
	if header.Size > limit {
		r.MultipartForm.RemoveAll()
		return nil, tooLarge
	}
	return header, nil
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	if _, err := s.session.Convert(r.Context()); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, types.ErrConversionInFlight) {
			status = http.StatusConflict
		}
		s.respondError(w, r, status, err)
		return
	}
	s.respond(w, r, http.StatusAccepted)
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	st := s.session.State()
	if st.Staged == nil {
		http.NotFound(w, r)
		return
	}
	mediaType, data, err := datauri.Decode(st.Staged.PreviewDataURI)
	if err != nil {
		s.logger.Error().Err(err).Msg("decoding preview")
		http.Error(w, types.MsgUnknown, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", mediaType)
	w.Header().Set("Cache-Control", "no-store")
	if _, err := w.Write(data); err != nil {
		s.logger.Warn().Err(err).Msg("writing preview")
	}
}

func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	st := s.session.State()
	if !st.CanDownload() {
		http.NotFound(w, r)
		return
	}
	img, err := download.Open(r.Context(), s.client, st.Result)
	if err != nil {
		s.logger.Error().Err(err).Msg("opening result")
		http.Error(w, types.MsgUnknown, http.StatusBadGateway)
		return
	}
	defer img.Close()
	w.Header().Set("Content-Type", img.MediaType)
	w.Header().Set("Cache-Control", "no-store")
	if _, err := io.Copy(w, img); err != nil {
		s.logger.Warn().Err(err).Msg("writing result")
	}
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
	did, err := s.session.Download(r.Context(), download.NewAttachmentSaver(ww, s.fileName, s.client))
	if !did {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err == nil {
		return
	}
	if ww.Status() != 0 {
		// The attachment was already under way; the client sees a
		// truncated body.
		s.logger.Warn().Err(err).Int("bytes", ww.BytesWritten()).Msg("download interrupted")
		return
	}
	http.Error(w, types.MsgUnknown, http.StatusBadGateway)
}

// respond redirects browser form posts back to the page and answers API
// clients with the current state.
func (s *Server) respond(w http.ResponseWriter, r *http.Request, status int) {
	if wantsJSON(r) {
		s.writeJSON(w, status, newStateView(s.session.State()))
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) respondError(w http.ResponseWriter, r *http.Request, status int, err error) {
	s.logger.Debug().Err(err).Str("path", r.URL.Path).Msg("request rejected")
	if wantsJSON(r) {
		v := newStateView(s.session.State())
		v.Error = types.UserMessage(err)
		s.writeJSON(w, status, v)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		s.logger.Warn().Err(err).Msg("writing JSON response")
	}
}
