package report

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/acu-erp/acu-erp/internal/inventory"
	"github.com/acu-erp/acu-erp/internal/platform/httpx"
)

// StockLister returns the recomputed stock ledger of a workspace.
type StockLister interface {
	List(ctx context.Context, workspace string) ([]inventory.StockRecord, error)
}

// Handler manages report endpoints.
type Handler struct {
	stock     StockLister
	workspace func(ctx context.Context) (string, bool)
	logger    *slog.Logger
	now       func() time.Time
}

// NewHandler creates a report handler.
func NewHandler(stock StockLister, workspace func(ctx context.Context) (string, bool), logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{stock: stock, workspace: workspace, logger: logger, now: time.Now}
}

// MountRoutes registers report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/report.pdf", h.stockLedger)
}

func (h *Handler) stockLedger(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	rows, err := h.stock.List(r.Context(), ws)
	if err != nil {
		h.logger.Error("load stock ledger for report", slog.String("workspace", ws), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	pdf, err := StockLedgerPDF(rows, h.now())
	if err != nil {
		h.logger.Error("render stock ledger pdf", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "inline; filename=stock-ledger.pdf")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}
