package inventory

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/singleflight"

	"github.com/acu-erp/acu-erp/internal/access"
	"github.com/acu-erp/acu-erp/internal/kv"
	"github.com/acu-erp/acu-erp/internal/platform/httpx"
)

// Handler wires HTTP endpoints for the stock ledger.
type Handler struct {
	logger  *slog.Logger
	service *Service
	access  access.Middleware
	reads   singleflight.Group
}

// NewHandler constructs the stock ledger handler.
func NewHandler(logger *slog.Logger, service *Service, guard access.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, access: guard}
}

// MountRoutes registers stock routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Use(h.access.RequireModule(access.ModuleStock))
	r.Get("/records", h.list)
	r.Get("/records/snapshots", h.listSnapshots)
	r.Post("/records", h.submit)
	r.Get("/records/{id}/edit", h.edit)
	r.Delete("/records/{id}", h.delete)
	r.Post("/preview", h.preview)
	r.Post("/breakdown", h.breakdown)
	r.Post("/resolve-item", h.resolveItem)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	ws, ok := access.WorkspaceFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	v, err, _ := h.reads.Do(ws, func() (any, error) {
		return h.service.List(r.Context(), ws)
	})
	if err != nil {
		h.respondError(w, "list stock records", err)
		return
	}
	rows := v.([]StockRecord)
	if rows == nil {
		rows = []StockRecord{}
	}
	httpx.JSON(w, http.StatusOK, rows)
}

func (h *Handler) listSnapshots(w http.ResponseWriter, r *http.Request) {
	ws, ok := access.WorkspaceFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	rows, err := h.service.ListSnapshots(r.Context(), ws)
	if err != nil {
		h.respondError(w, "list stock snapshots", err)
		return
	}
	httpx.JSON(w, http.StatusOK, rows)
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	ws, ok := access.WorkspaceFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	var in DraftInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	draft := in.Draft()
	rec, err := h.service.Submit(r.Context(), ws, draft)
	if err != nil {
		h.respondError(w, "submit stock record", err)
		return
	}
	status := http.StatusCreated
	if draft.ID != "" {
		status = http.StatusOK
	}
	httpx.JSON(w, status, rec)
}

func (h *Handler) edit(w http.ResponseWriter, r *http.Request) {
	ws, ok := access.WorkspaceFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	rec, err := h.service.Edit(r.Context(), ws, chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, "edit stock record", err)
		return
	}
	httpx.JSON(w, http.StatusOK, rec)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	ws, ok := access.WorkspaceFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	if err := h.service.Delete(r.Context(), ws, chi.URLParam(r, "id")); err != nil {
		h.respondError(w, "delete stock record", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) preview(w http.ResponseWriter, r *http.Request) {
	ws, ok := access.WorkspaceFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	var in DraftInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, h.service.Preview(r.Context(), ws, in.Draft()))
}

func (h *Handler) breakdown(w http.ResponseWriter, r *http.Request) {
	ws, ok := access.WorkspaceFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	var in DraftInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, h.service.Breakdown(r.Context(), ws, in.Draft()))
}

type resolveRequest struct {
	Draft    DraftInput `json:"draft"`
	ItemName string     `json:"itemName"`
}

func (h *Handler) resolveItem(w http.ResponseWriter, r *http.Request) {
	ws, ok := access.WorkspaceFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	var req resolveRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	draft, err := h.service.ResolveItem(r.Context(), ws, req.Draft.Draft(), req.ItemName)
	if err != nil {
		h.respondError(w, "resolve item", err)
		return
	}
	httpx.JSON(w, http.StatusOK, draft)
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrItemNameRequired):
		httpx.JSON(w, http.StatusBadRequest, httpx.ProblemDetail{
			Title:  "Validation Failed",
			Status: http.StatusBadRequest,
			Detail: ItemNameRequiredMessage,
			Fields: map[string]string{"itemName": ItemNameRequiredMessage},
		})
	case errors.Is(err, ErrRecordNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, kv.ErrMalformed):
		httpx.Problem(w, http.StatusConflict, "Conflict", "stock ledger is not a json array")
	default:
		h.logger.Error("inventory: "+op, slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}
