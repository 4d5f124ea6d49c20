package inventory

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/acu-erp/acu-erp/internal/events"
	"github.com/acu-erp/acu-erp/internal/kv"
	"github.com/acu-erp/acu-erp/internal/procurement"
)

// SignalKind tags a change the ledger reacts to.
type SignalKind string

const (
	// SignalStorage is a write to one of the watched keys.
	SignalStorage SignalKind = "storage"
	// SignalPSIRDraft is an unsaved PSIR item added to the workspace's draft list.
	SignalPSIRDraft SignalKind = "psir.draft"
	// SignalPSIRPersisted carries a saved PSIR list; it clears the draft list.
	SignalPSIRPersisted SignalKind = "psir.persisted"
)

// Signal is one accepted change notification.
type Signal struct {
	Kind      SignalKind            `json:"kind"`
	Workspace string                `json:"workspace"`
	Key       string                `json:"key,omitempty"`
	DraftItem *procurement.PSIRItem `json:"draftItem,omitempty"`
}

// Observer is called after every accepted signal.
type Observer func(ctx context.Context, sig Signal)

var watchedKeys = map[string]struct{}{
	kv.KeyIndents:        {},
	kv.KeyPurchaseOrders: {},
	kv.KeyVendorDept:     {},
	kv.KeyPSIR:           {},
	kv.KeyInHouseIssues:  {},
	kv.KeyVendorIssues:   {},
	kv.KeyVSIR:           {},
	kv.KeyStockRecords:   {},
}

// Watcher turns bus messages into signals, keeps the per-workspace PSIR draft
// list and fans signals out to observers.
type Watcher struct {
	logger *slog.Logger

	mu        sync.Mutex
	drafts    map[string][]procurement.PSIRItem
	observers map[int]Observer
	nextID    int
}

// NewWatcher builds an idle watcher.
func NewWatcher(logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		logger:    logger,
		drafts:    make(map[string][]procurement.PSIRItem),
		observers: make(map[int]Observer),
	}
}

// Run subscribes the watcher to sub until ctx is done.
func (w *Watcher) Run(ctx context.Context, sub events.Subscriber) error {
	return sub.Subscribe(ctx, w.Handle)
}

// Subscribe registers fn and returns a function that removes it.
func (w *Watcher) Subscribe(fn Observer) func() {
	w.mu.Lock()
	id := w.nextID
	w.nextID++
	w.observers[id] = fn
	w.mu.Unlock()
	return func() {
		w.mu.Lock()
		delete(w.observers, id)
		w.mu.Unlock()
	}
}

// Drafts returns a copy of the workspace's unsaved PSIR items.
func (w *Watcher) Drafts(workspace string) []procurement.PSIRItem {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]procurement.PSIRItem(nil), w.drafts[workspace]...)
}

// Handle consumes one bus message.
func (w *Watcher) Handle(ctx context.Context, msg events.Message) {
	sig, ok := w.parse(msg)
	if !ok {
		return
	}
	w.mu.Lock()
	switch sig.Kind {
	case SignalPSIRDraft:
		w.drafts[sig.Workspace] = append(w.drafts[sig.Workspace], *sig.DraftItem)
	case SignalPSIRPersisted:
		delete(w.drafts, sig.Workspace)
	}
	observers := make([]Observer, 0, len(w.observers))
	for _, fn := range w.observers {
		observers = append(observers, fn)
	}
	w.mu.Unlock()

	for _, fn := range observers {
		fn(ctx, sig)
	}
}

func (w *Watcher) parse(msg events.Message) (Signal, bool) {
	switch msg.Topic {
	case events.TopicStorage:
		if _, ok := watchedKeys[msg.Key]; !ok {
			return Signal{}, false
		}
		return Signal{Kind: SignalStorage, Workspace: msg.Workspace, Key: msg.Key}, true
	case events.TopicPSIRUpdated:
		var payload struct {
			DraftItem json.RawMessage `json:"draftItem"`
			PSIRs     json.RawMessage `json:"psirs"`
		}
		if len(msg.Payload) > 0 {
			if err := json.Unmarshal(msg.Payload, &payload); err != nil {
				w.logger.Debug("inventory: psir.updated payload is not an object", slog.Any("error", err))
			}
		}
		if present(payload.DraftItem) {
			var item procurement.PSIRItem
			if err := json.Unmarshal(payload.DraftItem, &item); err != nil {
				w.logger.Debug("inventory: ignoring draft item", slog.Any("error", err))
				return Signal{}, false
			}
			return Signal{Kind: SignalPSIRDraft, Workspace: msg.Workspace, DraftItem: &item}, true
		}
		if present(payload.PSIRs) {
			return Signal{Kind: SignalPSIRPersisted, Workspace: msg.Workspace}, true
		}
		// Anything else only asks for a recompute.
		return Signal{Kind: SignalStorage, Workspace: msg.Workspace, Key: kv.KeyPSIR}, true
	default:
		return Signal{}, false
	}
}

func present(raw json.RawMessage) bool {
	return len(raw) > 0 && string(raw) != "null"
}
