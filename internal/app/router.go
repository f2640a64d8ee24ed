package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/seein-app/seein-backend/internal/auth"
	"github.com/seein-app/seein-backend/internal/observability"
	"github.com/seein-app/seein-backend/internal/product"
	"github.com/seein-app/seein-backend/internal/quota"
	"github.com/seein-app/seein-backend/internal/receipt"
	"github.com/seein-app/seein-backend/internal/stt"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	AuthHandler    *auth.Handler
	ProductHandler *product.Handler
	ReceiptHandler *receipt.Handler
	STTHandler     *stt.Handler
	Quota          *quota.Limiter
	Metrics        *observability.Metrics
}

// NewRouter constructs the chi.Router with application defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)

	// Public AI passthrough routes share the upstream usage quota, keyed by
	// client IP. The stt handler applies the same quota itself, inside its
	// auth middleware, so transcription counts against the subject.
	r.Group(func(r chi.Router) {
		if params.Quota != nil {
			r.Use(params.Quota.Middleware)
		}
		params.ProductHandler.MountRoutes(r)
		params.ReceiptHandler.MountRoutes(r)
	})
	r.Route("/stt", params.STTHandler.MountRoutes)

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
