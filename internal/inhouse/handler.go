package inhouse

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/acu-erp/acu-erp/internal/access"
	"github.com/acu-erp/acu-erp/internal/platform/httpx"
)

// Handler serves the in-house issue module.
type Handler struct {
	logger  *slog.Logger
	service *Service
	access  access.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard access.Middleware) *Handler {
	return &Handler{logger: logger, service: service, access: guard}
}

// MountRoutes registers in-house issue routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Use(h.access.RequireModule(access.ModuleInHouseIssue))
	httpx.MountRecords(r, "/issues", h.service, access.WorkspaceFromContext, h.logger)
	r.Delete("/issues/{idx}/items/{item}", h.deleteItem)
	r.Get("/next-numbers", h.nextNumbers)
	r.Get("/batches", h.batches)
	r.Get("/vendors", h.vendors)
	r.Get("/vendors/{vendor}/batches", h.vendorBatches)
	r.Get("/req-no", h.reqNo)
	r.Post("/sync-purchase", h.syncPurchase)
}

func (h *Handler) deleteItem(w http.ResponseWriter, r *http.Request) {
	ws, ok := access.WorkspaceFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	issueIdx, err := httpx.IndexParam(r, "idx")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	itemIdx, err := httpx.IndexParam(r, "item")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.DeleteItem(r.Context(), ws, issueIdx, itemIdx); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) nextNumbers(w http.ResponseWriter, r *http.Request) {
	ws, ok := access.WorkspaceFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	next, err := h.service.NextNumbers(r.Context(), ws)
	if err != nil {
		h.fail(w, "next numbers", err)
		return
	}
	httpx.JSON(w, http.StatusOK, next)
}

func (h *Handler) batches(w http.ResponseWriter, r *http.Request) {
	ws, ok := access.WorkspaceFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	q := r.URL.Query()
	batches, err := h.service.BatchNumbers(r.Context(), ws, q.Get("itemCode"), TransactionType(q.Get("type")))
	if err != nil {
		h.fail(w, "batch numbers", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string][]string{"batchNos": batches})
}

func (h *Handler) vendors(w http.ResponseWriter, r *http.Request) {
	ws, ok := access.WorkspaceFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	vendors, err := h.service.Vendors(r.Context(), ws)
	if err != nil {
		h.fail(w, "vendors", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string][]string{"vendors": vendors})
}

func (h *Handler) vendorBatches(w http.ResponseWriter, r *http.Request) {
	ws, ok := access.WorkspaceFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	name, err := url.PathUnescape(chi.URLParam(r, "vendor"))
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	batches, err := h.service.VendorBatchNumbers(r.Context(), ws, name)
	if err != nil {
		h.fail(w, "vendor batch numbers", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string][]string{"batchNos": batches})
}

func (h *Handler) reqNo(w http.ResponseWriter, r *http.Request) {
	ws, ok := access.WorkspaceFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	reqNo, err := h.service.ReqNoFor(r.Context(), ws, r.URL.Query().Get("poNo"))
	if err != nil {
		h.fail(w, "req no", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"reqNo": reqNo})
}

func (h *Handler) syncPurchase(w http.ResponseWriter, r *http.Request) {
	ws, ok := access.WorkspaceFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	created, err := h.service.SyncPurchase(r.Context(), ws)
	if err != nil {
		h.fail(w, "sync purchase", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]int{"created": created})
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	h.logger.Error("inhouse: "+op, slog.Any("error", err))
	httpx.RespondError(w, err)
}
