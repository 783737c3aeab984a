package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"Slidecast/logger"
	"Slidecast/model"
	"Slidecast/storage"
)

// SlideRenderer produces a narrated slide video.
type SlideRenderer interface {
	Synthesize(ctx context.Context, req model.SlideRequest) (*model.Artifact, error)
}

// VideoCombiner joins uploaded videos in order.
type VideoCombiner interface {
	Combine(ctx context.Context, req model.VideoCombineRequest) (*model.Artifact, error)
}

// multipartMemory is how much of an upload is buffered in memory before
// spilling to temporary files.
const multipartMemory = 32 << 20

var errBusy = errors.New("server is busy, please try again later")

// Handler serves the form page, the render endpoints and archived artifacts.
type Handler struct {
	slides      SlideRenderer
	combiner    VideoCombiner
	archive     Archive
	renderSlots chan struct{}
	maxUpload   int64

	checksMu sync.RWMutex
	checks   []readinessCheck
}

// NewHandler creates a Handler. maxConcurrent bounds simultaneous renders;
// values below one allow a single render at a time.
func NewHandler(slides SlideRenderer, combiner VideoCombiner, maxUploadBytes int64, maxConcurrent int) *Handler {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Handler{
		slides:      slides,
		combiner:    combiner,
		renderSlots: make(chan struct{}, maxConcurrent),
		maxUpload:   maxUploadBytes,
	}
}

// SetArchive enables archiving of every rendered artifact.
func (h *Handler) SetArchive(a Archive) {
	h.archive = a
}

// SlideHandler renders one narrated slide.
// Expected multipart form fields:
// - image: the slide image (JPG or PNG)
// - text: the narration
func (h *Handler) SlideHandler(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, model.ModeSlide)
}

// CombineHandler concatenates the repeated "videos" form files in the order
// they were sent.
func (h *Handler) CombineHandler(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, model.ModeCombine)
}

// RenderHandler dispatches a form post on "/" by its mode value.
func (h *Handler) RenderHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.parseUpload(w, r); err != nil {
		h.fail(w, r, model.ModeSlide, err)
		return
	}

	mode, err := model.ParseMode(formValue(r, "mode"))
	if err != nil {
		h.fail(w, r, model.ModeSlide, err)
		return
	}
	h.render(w, r, mode)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, mode model.Mode) {
	select {
	case h.renderSlots <- struct{}{}:
		defer func() { <-h.renderSlots }()
	default:
		logger.Warn("All render slots busy, rejecting request",
			logger.String("mode", string(mode)),
			logger.Int("slots", cap(h.renderSlots)))
		h.fail(w, r, mode, errBusy)
		return
	}

	if err := h.parseUpload(w, r); err != nil {
		h.fail(w, r, mode, err)
		return
	}

	var (
		art  *model.Artifact
		kind string
		err  error
	)
	switch mode {
	case model.ModeCombine:
		var req model.VideoCombineRequest
		if req, err = readCombineRequest(r.MultipartForm); err == nil {
			art, err = h.combiner.Combine(r.Context(), req)
		}
		kind = storage.KindCombined
	default:
		var req model.SlideRequest
		if req, err = readSlideRequest(r); err == nil {
			art, err = h.slides.Synthesize(r.Context(), req)
		}
		kind = storage.KindSlide
	}
	if err != nil {
		h.fail(w, r, mode, err)
		return
	}

	h.archiveArtifact(r.Context(), kind, art)

	if wantsPage(r) {
		renderPage(w, http.StatusOK, pageData{Mode: mode, Result: newResultView(art)})
		return
	}
	writeArtifact(w, art)
}

// parseUpload caps the body size and parses the multipart form once.
// Non-multipart bodies are accepted so that missing files surface as
// validation errors.
func (h *Handler) parseUpload(w http.ResponseWriter, r *http.Request) error {
	if r.MultipartForm != nil {
		return nil
	}
	if h.maxUpload > 0 {
		if r.ContentLength > h.maxUpload {
			return &http.MaxBytesError{Limit: h.maxUpload}
		}
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	}

	err := r.ParseMultipartForm(multipartMemory)
	if err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return err
	}
	return nil
}

func (h *Handler) archiveArtifact(ctx context.Context, kind string, art *model.Artifact) {
	if h.archive == nil {
		return
	}
	key, err := h.archive.Put(ctx, kind, art)
	if err != nil {
		logger.Warn("Failed to archive artifact", logger.String("kind", kind), logger.ErrorField(err))
		return
	}
	art.URL = "/artifacts/" + key
}

// formValue reads key from the already parsed form, or from the query when
// the body has not been parsed. It never reads the body itself.
func formValue(r *http.Request, key string) string {
	if r.Form != nil {
		return r.Form.Get(key)
	}
	return r.URL.Query().Get(key)
}

// wantsPage reports whether the caller asked for the HTML page instead of
// the raw video.
func wantsPage(r *http.Request) bool {
	if v := formValue(r, "inline"); v != "" {
		inline, _ := strconv.ParseBool(v)
		return inline
	}
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

func writeArtifact(w http.ResponseWriter, art *model.Artifact) {
	w.Header().Set("Content-Type", art.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", art.Name))
	w.Header().Set("Content-Length", strconv.Itoa(len(art.Data)))
	if art.URL != "" {
		w.Header().Set("X-Artifact-Url", art.URL)
	}
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(art.Data); err != nil {
		logger.Warn("Error writing artifact", logger.String("name", art.Name), logger.ErrorField(err))
	}
}

// statusFor maps an error kind onto an HTTP status.
func statusFor(err error) int {
	var maxErr *http.MaxBytesError
	switch {
	case errors.Is(err, errBusy):
		return http.StatusServiceUnavailable
	case errors.As(err, &maxErr):
		return http.StatusRequestEntityTooLarge
	case model.IsValidation(err):
		return http.StatusBadRequest
	case model.IsSynthesis(err):
		return http.StatusBadGateway
	case model.IsEncoding(err):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// userMessage is the text shown to the caller for err.
func userMessage(err error, status int) string {
	var encErr *model.EncodingError
	switch {
	case status == http.StatusRequestEntityTooLarge:
		return "Upload too large."
	case errors.As(err, &encErr):
		if encErr.Diagnostics != "" {
			return "Error running ffmpeg: " + encErr.Diagnostics
		}
		return "Error running ffmpeg: " + encErr.Err.Error()
	case status == http.StatusInternalServerError:
		return "Something went wrong while rendering. Please try again."
	default:
		return err.Error()
	}
}

// fail logs err once and writes it in the format the caller asked for.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, mode model.Mode, err error) {
	status := statusFor(err)
	fields := []logger.Field{
		logger.String("mode", string(mode)),
		logger.String("path", r.URL.Path),
		logger.Int("status", status),
		logger.ErrorField(err),
	}
	if status < http.StatusInternalServerError || status == http.StatusServiceUnavailable {
		logger.Warn("Render request rejected", fields...)
	} else {
		logger.Error("Render request failed", fields...)
	}

	msg := userMessage(err, status)
	if wantsPage(r) {
		renderPage(w, status, pageData{Mode: mode, Error: msg})
		return
	}
	http.Error(w, msg, status)
}
