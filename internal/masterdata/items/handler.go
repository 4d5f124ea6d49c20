package items

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/acu-erp/acu-erp/internal/access"
	"github.com/acu-erp/acu-erp/internal/platform/httpx"
)

// Handler serves the item master.
type Handler struct {
	logger  *slog.Logger
	service *Service
	access  access.Middleware
}

// NewHandler constructs the handler.
func NewHandler(logger *slog.Logger, service *Service, guard access.Middleware) *Handler {
	return &Handler{logger: logger, service: service, access: guard}
}

// MountRoutes registers item master routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Use(h.access.RequireModule(access.ModuleItemMaster))
	httpx.MountRecords(r, "/items", h.service, access.WorkspaceFromContext, h.logger)
}
