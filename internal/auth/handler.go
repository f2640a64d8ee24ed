package auth

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/seein-app/seein-backend/internal/platform/httpx"
	"github.com/seein-app/seein-backend/internal/shared"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	issuer    *TokenIssuer
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, issuer *TokenIssuer) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		issuer:    issuer,
		validator: validator.New(),
	}
}

// MountRoutes registers auth routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/register", h.handleRegister)
	r.Post("/login", h.handleLogin)
	r.Group(func(r chi.Router) {
		r.Use(RequireBearer(h.issuer))
		r.Get("/me", h.handleMe)
		r.Put("/update", h.handleUpdate)
		r.Put("/change-password", h.handleChangePassword)
		r.Delete("/delete", h.handleDelete)
	})
}

type registerRequest struct {
	Email    string  `json:"email" validate:"required"`
	Password string  `json:"password" validate:"required,min=8"`
	Username *string `json:"username"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type updateRequest struct {
	Email    *string `json:"email"`
	Username *string `json:"username"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

type deleteRequest struct {
	Password string `json:"password" validate:"required"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	summary, err := h.service.Register(r.Context(), req.Email, req.Password, req.Username)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("user registered", slog.String("email", summary.Email))
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	token, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		// One generic message for unknown user and wrong password alike.
		httpx.Error(w, http.StatusUnauthorized, "email or password is incorrect")
		return
	}
	httpx.JSON(w, http.StatusOK, tokenResponse{AccessToken: token, TokenType: "bearer"})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	subject := shared.SubjectFromContext(r.Context())
	summary, err := h.service.CurrentUser(r.Context(), subject)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	subject := shared.SubjectFromContext(r.Context())
	var req updateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == nil && req.Username == nil {
		httpx.Error(w, http.StatusBadRequest, "nothing to update")
		return
	}
	summary, err := h.service.UpdateProfile(r.Context(), subject, ProfilePatch{
		Email:       req.Email,
		DisplayName: req.Username,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	subject := shared.SubjectFromContext(r.Context())
	var req changePasswordRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if !h.service.ChangePassword(r.Context(), subject, req.CurrentPassword, req.NewPassword) {
		// Deliberately silent about which check failed.
		httpx.Error(w, http.StatusBadRequest, "password change failed")
		return
	}
	httpx.JSON(w, http.StatusOK, messageResponse{Message: "password updated"})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	subject := shared.SubjectFromContext(r.Context())
	var req deleteRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if !h.service.DeleteAccount(r.Context(), subject, req.Password) {
		httpx.Error(w, http.StatusBadRequest, "account deletion failed")
		return
	}
	h.logger.Info("account deactivated", slog.String("email", subject))
	httpx.JSON(w, http.StatusOK, messageResponse{Message: "account deleted"})
}
