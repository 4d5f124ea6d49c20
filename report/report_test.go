package report

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/acu-erp/acu-erp/internal/inventory"
)

type stubLister struct {
	rows []inventory.StockRecord
	err  error
}

func (s stubLister) List(context.Context, string) ([]inventory.StockRecord, error) {
	return s.rows, s.err
}

func sampleRows(n int) []inventory.StockRecord {
	rows := make([]inventory.StockRecord, n)
	for i := range rows {
		rows[i] = inventory.StockRecord{
			ID:       "r",
			ItemName: "Bolt",
			ItemCode: "B-1",
			StockQty: 5,
			Derived:  inventory.Derived{PurStoreOkQty: 3, ClosingStock: 8},
		}
	}
	return rows
}

func TestStockLedgerPDF(t *testing.T) {
	for _, n := range []int{0, 1, 80} {
		out, err := StockLedgerPDF(sampleRows(n), time.Date(2026, 1, 2, 3, 4, 0, 0, time.UTC))
		require.NoError(t, err)
		require.True(t, bytes.HasPrefix(out, []byte("%PDF")))
	}
}

func TestStockLedgerRoute(t *testing.T) {
	ws := func(context.Context) (string, bool) { return "u1", true }

	r := chi.NewRouter()
	r.Route("/stock", NewHandler(stubLister{rows: sampleRows(2)}, ws, nil).MountRoutes)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stock/report.pdf", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	require.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))

	r = chi.NewRouter()
	r.Route("/stock", NewHandler(stubLister{err: errors.New("boom")}, ws, nil).MountRoutes)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stock/report.pdf", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}
