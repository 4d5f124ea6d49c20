package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/acu-erp/acu-erp/internal/access"
	"github.com/acu-erp/acu-erp/internal/inhouse"
	"github.com/acu-erp/acu-erp/internal/inventory"
	"github.com/acu-erp/acu-erp/internal/masterdata/items"
	"github.com/acu-erp/acu-erp/internal/observability"
	"github.com/acu-erp/acu-erp/internal/procurement"
	"github.com/acu-erp/acu-erp/internal/usersync"
	"github.com/acu-erp/acu-erp/internal/vendor"
	"github.com/acu-erp/acu-erp/jobs"
	"github.com/acu-erp/acu-erp/report"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger     *slog.Logger
	Config     *Config
	Services   *Services
	JobHandler *jobs.Handler
	Metrics    *observability.Metrics
}

// NewRouter constructs the chi.Router with the ledger routes mounted.
func NewRouter(params RouterParams) http.Handler {
	logger := params.Logger
	if logger == nil {
		logger = slog.Default()
	}
	svc := params.Services
	guard := svc.Guard()

	r := chi.NewRouter()
	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}
	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", params.Metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(guard.Authenticate)
		r.Handle("/events/ws", svc.Feed)

		r.Group(func(r chi.Router) {
			for _, mw := range APIMiddleware(params.Config) {
				r.Use(mw)
			}

			r.Route("/me", access.NewHandler(logger, svc.Access).MountRoutes)
			r.Route("/itemmaster", items.NewHandler(logger, svc.Items, guard).MountRoutes)

			procurementHandler := procurement.NewHandler(logger, svc.Procurement, guard)
			r.Route("/indent", procurementHandler.MountIndentRoutes)
			r.Route("/purchase", procurementHandler.MountPurchaseRoutes)
			r.Route("/psir", procurementHandler.MountPSIRRoutes)

			vendorHandler := vendor.NewHandler(logger, svc.Vendor, guard)
			r.Route("/vendordept", vendorHandler.MountDeptRoutes)
			r.Route("/vendorissue", vendorHandler.MountIssueRoutes)
			r.Route("/vsir", vendorHandler.MountVSIRRoutes)

			r.Route("/inhouse", inhouse.NewHandler(logger, svc.InHouse, guard).MountRoutes)

			stockHandler := inventory.NewHandler(logger, svc.Stock, guard)
			reportHandler := report.NewHandler(svc.Stock, access.WorkspaceFromContext, logger)
			r.Route("/stock", func(r chi.Router) {
				stockHandler.MountRoutes(r)
				reportHandler.MountRoutes(r)
			})

			if svc.Sync != nil {
				r.Route("/sync", usersync.NewHandler(logger, svc.Sync).MountRoutes)
			}
			if params.JobHandler != nil {
				r.Route("/jobs", params.JobHandler.MountRoutes)
			}
		})
	})

	return r
}
