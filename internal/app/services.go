package app

import (
	"context"
	"log/slog"

	"github.com/acu-erp/acu-erp/internal/access"
	"github.com/acu-erp/acu-erp/internal/backup"
	"github.com/acu-erp/acu-erp/internal/events"
	"github.com/acu-erp/acu-erp/internal/inhouse"
	"github.com/acu-erp/acu-erp/internal/inventory"
	"github.com/acu-erp/acu-erp/internal/kv"
	"github.com/acu-erp/acu-erp/internal/masterdata/items"
	"github.com/acu-erp/acu-erp/internal/observability"
	"github.com/acu-erp/acu-erp/internal/procurement"
	"github.com/acu-erp/acu-erp/internal/usersync"
	"github.com/acu-erp/acu-erp/internal/vendor"
)

// Backends are the storage and messaging ports the services run on. Documents
// and Uploader are optional; without them remote sync or backups are off.
type Backends struct {
	Store     kv.Store
	Bus       events.Bus
	Profiles  access.ProfileRepository
	Documents usersync.DocumentStore
	Uploader  backup.Uploader
}

// Services is the wired service graph shared by the API server and the worker.
type Services struct {
	Store       kv.Store
	Bus         events.Bus
	Watcher     *inventory.Watcher
	Verifier    *access.TokenVerifier
	Access      *access.Service
	Items       *items.Service
	Procurement *procurement.Service
	Vendor      *vendor.Service
	InHouse     *inhouse.Service
	Stock       *inventory.Service
	Sync        *usersync.Manager
	Backups     *backup.Service
	Feed        *events.Feed

	logger *slog.Logger
}

// NewServices wires every module on top of b. Writes made through the
// returned Store are announced on the bus.
func NewServices(cfg *Config, b Backends, logger *slog.Logger, metrics *observability.Metrics) *Services {
	if logger == nil {
		logger = slog.Default()
	}
	var (
		secret, issuer, admin string
		origins               []string
		interval              = usersync.DefaultInterval
	)
	if cfg != nil {
		secret, issuer, admin = cfg.AuthSecret, cfg.AuthIssuer, cfg.SeededAdminUID
		origins = cfg.CORSAllowedOrigins
		if cfg.SyncInterval > 0 {
			interval = cfg.SyncInterval
		}
	}

	store := kv.NewNotifyingStore(b.Store, b.Bus, logger)
	proc := procurement.NewService(store, b.Bus, logger)
	vend := vendor.NewService(store)
	inh := inhouse.NewService(store, proc, vend, logger)
	itemSvc := items.NewService(store)
	watcher := inventory.NewWatcher(logger)
	engine := inventory.NewEngine(inventory.ModuleSources{
		Procurement: proc,
		Vendor:      vend,
		InHouse:     inh,
	}, watcher, logger, metrics)

	s := &Services{
		Store:       store,
		Bus:         b.Bus,
		Watcher:     watcher,
		Verifier:    access.NewTokenVerifier(secret, issuer),
		Access:      access.NewService(b.Profiles, admin, logger),
		Items:       itemSvc,
		Procurement: proc,
		Vendor:      vend,
		InHouse:     inh,
		Stock:       inventory.NewService(engine, store, itemSvc, b.Bus, logger),
		Feed:        events.NewFeed(access.WorkspaceFromRequest, origins, logger),
		logger:      logger,
	}
	if b.Documents != nil {
		s.Sync = usersync.NewManager(store, b.Documents, interval, logger, metrics)
		if b.Uploader != nil {
			s.Backups = backup.NewService(b.Store, b.Documents, b.Uploader, logger)
		}
	}
	return s
}

// Guard returns the authentication and module access middleware.
func (s *Services) Guard() access.Middleware {
	return access.Middleware{Verifier: s.Verifier, Service: s.Access, Logger: s.logger}
}

// Run feeds bus messages to the watcher and forwards accepted signals and
// ledger updates to the websocket feed until ctx is done.
func (s *Services) Run(ctx context.Context) error {
	unsubscribe := s.Watcher.Subscribe(func(_ context.Context, sig inventory.Signal) {
		s.Feed.Broadcast(sig.Workspace, sig)
	})
	defer unsubscribe()

	if err := s.Watcher.Run(ctx, s.Bus); err != nil {
		return err
	}
	err := s.Bus.Subscribe(ctx, func(_ context.Context, msg events.Message) {
		if msg.Topic == events.TopicStockUpdated {
			s.Feed.Broadcast(msg.Workspace, msg)
		}
	})
	if err != nil {
		return err
	}
	<-ctx.Done()
	if s.Sync != nil {
		s.Sync.StopAll()
	}
	return nil
}
