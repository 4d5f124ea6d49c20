package access

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/acu-erp/acu-erp/internal/platform/httpx"
)

// Handler exposes the caller's profile.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs the handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers profile routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.me)
}

type meResponse struct {
	Profile Profile  `json:"profile"`
	Modules []Module `json:"modules"`
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	profile, err := h.service.Resolve(r.Context(), p)
	if err != nil {
		h.logger.Error("access: me", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, meResponse{Profile: profile, Modules: AccessibleModules(profile)})
}
