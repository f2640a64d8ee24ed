package stt

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/seein-app/seein-backend/internal/platform/httpx"
	"github.com/seein-app/seein-backend/internal/shared"
)

// Handler wires the speech to text HTTP endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	authMW  func(http.Handler) http.Handler
	quotaMW func(http.Handler) http.Handler
}

// NewHandler constructs a Handler. authMW protects the transcription route and
// quotaMW, when set, budgets it.
func NewHandler(logger *slog.Logger, service *Service, authMW, quotaMW func(http.Handler) http.Handler) *Handler {
	return &Handler{logger: logger, service: service, authMW: authMW, quotaMW: quotaMW}
}

// MountRoutes registers stt routes on the provided router. The format listing
// is free metadata and stays outside the quota; the quota runs after auth so
// the budget keys on the token subject, not the client IP.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/supported-formats", h.handleSupportedFormats)
	r.Group(func(r chi.Router) {
		r.Use(h.authMW)
		if h.quotaMW != nil {
			r.Use(h.quotaMW)
		}
		r.Post("/transcribe", h.handleTranscribe)
	})
}

type transcribeResponse struct {
	Transcription string `json:"transcription"`
	Filename      string `json:"filename"`
	User          string `json:"user"`
}

func (h *Handler) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	subject := shared.SubjectFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes+1<<20)
	file, header, err := r.FormFile("file")
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			httpx.Error(w, http.StatusBadRequest, ErrTooLarge.Error())
			return
		}
		httpx.Error(w, http.StatusBadRequest, "audio upload required in field file")
		return
	}
	defer func() {
		_ = file.Close()
	}()

	audio, err := io.ReadAll(file)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "failed to read upload")
		return
	}

	transcription, err := h.service.Transcribe(r.Context(), header.Filename, audio)
	if err != nil {
		if errors.Is(err, ErrUnsupportedFormat) {
			httpx.Error(w, http.StatusBadRequest,
				"unsupported file format, allowed: "+strings.Join(SupportedExtensions(), ", "))
			return
		}
		if errors.Is(err, ErrTooLarge) {
			httpx.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("transcription failed", slog.Any("error", err))
		httpx.Error(w, http.StatusInternalServerError, "speech recognition failed: "+err.Error())
		return
	}

	httpx.JSON(w, http.StatusOK, transcribeResponse{
		Transcription: transcription,
		Filename:      header.Filename,
		User:          subject,
	})
}

type supportedFormatsResponse struct {
	SupportedFormats []string `json:"supported_formats"`
	MaxFileSize      string   `json:"max_file_size"`
}

func (h *Handler) handleSupportedFormats(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, supportedFormatsResponse{
		SupportedFormats: SupportedExtensions(),
		MaxFileSize:      "10MB",
	})
}
