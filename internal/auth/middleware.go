package auth

import (
	"net/http"
	"strings"

	"github.com/seein-app/seein-backend/internal/platform/httpx"
	"github.com/seein-app/seein-backend/internal/shared"
)

// RequireBearer returns middleware that decodes the Authorization header and
// stores the token subject in the request context. Missing, malformed,
// invalid and expired tokens all answer 401.
func RequireBearer(issuer *TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				httpx.Error(w, http.StatusUnauthorized, "authorization header required")
				return
			}
			scheme, token, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
				httpx.Error(w, http.StatusUnauthorized, "invalid authorization format")
				return
			}
			subject, err := issuer.Decode(token)
			if err != nil {
				httpx.Error(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}
			ctx := shared.ContextWithSubject(r.Context(), subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
