package procurement

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/acu-erp/acu-erp/internal/access"
	"github.com/acu-erp/acu-erp/internal/platform/httpx"
)

// Handler serves the indent, purchase and PSIR modules.
type Handler struct {
	logger  *slog.Logger
	service *Service
	access  access.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard access.Middleware) *Handler {
	return &Handler{logger: logger, service: service, access: guard}
}

// MountIndentRoutes registers indent routes.
func (h *Handler) MountIndentRoutes(r chi.Router) {
	r.Use(h.access.RequireModule(access.ModuleIndent))
	httpx.MountRecords(r, "/indents", h.service.Indents, access.WorkspaceFromContext, h.logger)
}

// MountPurchaseRoutes registers purchase order and purchaseData routes.
func (h *Handler) MountPurchaseRoutes(r chi.Router) {
	r.Use(h.access.RequireModule(access.ModulePurchase))
	httpx.MountRecords(r, "/orders", h.service.Orders, access.WorkspaceFromContext, h.logger)
	r.Get("/data", h.listPurchaseData)
	r.Put("/data", h.replacePurchaseData)
}

// MountPSIRRoutes registers PSIR routes.
func (h *Handler) MountPSIRRoutes(r chi.Router) {
	r.Use(h.access.RequireModule(access.ModulePSIR))
	httpx.MountRecords(r, "/records", h.service.PSIRs, access.WorkspaceFromContext, h.logger)
	r.Post("/drafts", h.addDraft)
}

func (h *Handler) listPurchaseData(w http.ResponseWriter, r *http.Request) {
	ws, ok := access.WorkspaceFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	rows, err := h.service.Purchases.List(r.Context(), ws)
	if err != nil {
		h.logger.Error("purchase data list", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if rows == nil {
		rows = []json.RawMessage{}
	}
	httpx.JSON(w, http.StatusOK, rows)
}

func (h *Handler) replacePurchaseData(w http.ResponseWriter, r *http.Request) {
	ws, ok := access.WorkspaceFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	var rows []json.RawMessage
	if err := httpx.DecodeJSON(r, &rows); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Purchases.ReplaceAll(r.Context(), ws, rows); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) addDraft(w http.ResponseWriter, r *http.Request) {
	ws, ok := access.WorkspaceFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	var item PSIRItem
	if err := httpx.DecodeJSON(r, &item); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.AddDraft(r.Context(), ws, item); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}
