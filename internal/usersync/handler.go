package usersync

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/acu-erp/acu-erp/internal/access"
	"github.com/acu-erp/acu-erp/internal/platform/httpx"
)

// Handler lets a signed-in user start and stop syncing their workspace.
type Handler struct {
	logger  *slog.Logger
	manager *Manager
}

// NewHandler constructs the handler.
func NewHandler(logger *slog.Logger, manager *Manager) *Handler {
	return &Handler{logger: logger, manager: manager}
}

// MountRoutes registers sync routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/start", h.start)
	r.Post("/stop", h.stop)
	r.Get("/status", h.status)
}

type statusResponse struct {
	Running bool `json:"running"`
}

func (h *Handler) start(w http.ResponseWriter, r *http.Request) {
	uid, ok := access.WorkspaceFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	h.manager.Start(uid)
	httpx.JSON(w, http.StatusAccepted, statusResponse{Running: true})
}

func (h *Handler) stop(w http.ResponseWriter, r *http.Request) {
	uid, ok := access.WorkspaceFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	h.manager.Stop(uid)
	httpx.JSON(w, http.StatusOK, statusResponse{Running: false})
}

func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	uid, ok := access.WorkspaceFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	httpx.JSON(w, http.StatusOK, statusResponse{Running: h.manager.Running(uid)})
}
