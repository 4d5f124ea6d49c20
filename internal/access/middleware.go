package access

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/acu-erp/acu-erp/internal/platform/httpx"
)

// Middleware wires authentication and module authorization for HTTP handlers.
type Middleware struct {
	Verifier *TokenVerifier
	Service  *Service
	Logger   *slog.Logger
}

// Authenticate requires a valid bearer token. Websocket clients may pass the
// token in the access_token query parameter instead.
func (m Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing bearer token")
			return
		}
		p, err := m.Verifier.Verify(raw)
		if err != nil {
			if m.Logger != nil {
				m.Logger.Debug("access: reject token", slog.Any("error", err))
			}
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid token")
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), p)))
	})
}

// RequireModule ensures the caller's profile grants at least one of modules.
func (m Middleware) RequireModule(modules ...ModuleID) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFromContext(r.Context())
			if !ok {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
				return
			}
			profile, err := m.Service.Resolve(r.Context(), p)
			if err != nil {
				if m.Logger != nil {
					m.Logger.Error("access: resolve profile", slog.Any("error", err))
				}
				httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
				return
			}
			for _, module := range modules {
				if CanAccess(profile, module) {
					next.ServeHTTP(w, r)
					return
				}
			}
			httpx.Problem(w, http.StatusForbidden, "Forbidden", "module not accessible")
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if scheme, token, ok := strings.Cut(header, " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	return strings.TrimSpace(r.URL.Query().Get("access_token"))
}
