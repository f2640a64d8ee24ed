package receipt

import (
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/seein-app/seein-backend/internal/platform/httpx"
)

// maxImageBytes bounds receipt image uploads.
const maxImageBytes = 10 << 20

var allowedFormats = map[string]string{
	".jpg":  "jpg",
	".jpeg": "jpg",
	".png":  "png",
}

// Handler wires the receipt analysis HTTP endpoint.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers receipt routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/analyze-receipt/", h.handleAnalyze)
}

func (h *Handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImageBytes)
	file, header, err := r.FormFile("image")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "image upload required in field image")
		return
	}
	defer func() {
		_ = file.Close()
	}()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	format, ok := allowedFormats[ext]
	if !ok {
		httpx.Error(w, http.StatusBadRequest, "unsupported image format, only jpg, jpeg and png are accepted")
		return
	}

	imageData, err := io.ReadAll(file)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "failed to read upload")
		return
	}

	info, err := h.service.Analyze(r.Context(), imageData, format)
	if err != nil {
		h.logger.Error("receipt analysis failed", slog.Any("error", err))
		httpx.JSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": err.Error()})
		return
	}
	httpx.JSON(w, http.StatusOK, info)
}
