package product

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/seein-app/seein-backend/internal/platform/httpx"
)

// maxImageBytes bounds product image uploads.
const maxImageBytes = 10 << 20

// Handler wires the product analysis HTTP endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		validator: validator.New(),
	}
}

// MountRoutes registers product routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/analyze-product/", h.handleAnalyze)
	r.Post("/recommend-product/", h.handleRecommend)
	r.Post("/analyze-and-recommend-product/", h.handleAnalyzeAndRecommend)
}

type analyzeResponse struct {
	Success bool   `json:"success"`
	Result  string `json:"result"`
}

func (h *Handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	imageData, ok := h.readUpload(w, r, "file")
	if !ok {
		return
	}
	result, err := h.service.AnalyzeImage(r.Context(), imageData)
	if err != nil {
		h.logger.Error("product analysis failed", slog.Any("error", err))
		httpx.JSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": err.Error()})
		return
	}
	httpx.JSON(w, http.StatusOK, analyzeResponse{Success: true, Result: result})
}

type recommendRequest struct {
	Name    string `json:"name" validate:"required"`
	Brand   string `json:"brand" validate:"required"`
	Summary string `json:"summary"`
}

type recommendResponse struct {
	Recommendation string `json:"recommendation"`
}

func (h *Handler) handleRecommend(w http.ResponseWriter, r *http.Request) {
	var req recommendRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	recommendation, err := h.service.Recommend(r.Context(), req.Name, req.Brand, req.Summary)
	if err != nil {
		h.logger.Error("recommendation failed", slog.Any("error", err))
		httpx.JSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": err.Error()})
		return
	}
	httpx.JSON(w, http.StatusOK, recommendResponse{Recommendation: recommendation})
}

func (h *Handler) handleAnalyzeAndRecommend(w http.ResponseWriter, r *http.Request) {
	imageData, ok := h.readUpload(w, r, "file")
	if !ok {
		return
	}
	result, err := h.service.AnalyzeAndRecommend(r.Context(), imageData)
	if err != nil {
		h.logger.Error("combined analysis failed", slog.Any("error", err))
		httpx.JSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": err.Error()})
		return
	}
	// Parse failures come back success=false with the raw model output.
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request, field string) ([]byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImageBytes)
	file, _, err := r.FormFile(field)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "image upload required in field "+field)
		return nil, false
	}
	defer func() {
		_ = file.Close()
	}()
	data, err := io.ReadAll(file)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "failed to read upload")
		return nil, false
	}
	return data, true
}
