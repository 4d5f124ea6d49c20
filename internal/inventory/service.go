package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/acu-erp/acu-erp/internal/events"
	"github.com/acu-erp/acu-erp/internal/kv"
)

// ItemLookup resolves item master codes by name.
type ItemLookup interface {
	CodeForName(ctx context.Context, workspace, name string) (string, error)
}

// Service runs the stock ledger lifecycle on top of the engine.
type Service struct {
	engine    *Engine
	ledger    kv.Collection[storedRecord]
	items     ItemLookup
	publisher events.Publisher
	logger    *slog.Logger
	newID     func() (string, error)
}

// NewService constructs the ledger service.
func NewService(engine *Engine, store kv.Store, items ItemLookup, publisher events.Publisher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		engine:    engine,
		ledger:    kv.NewCollection[storedRecord](store, kv.KeyStockRecords),
		items:     items,
		publisher: publisher,
		logger:    logger,
		newID:     newRecordID,
	}
}

func newRecordID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("inventory: generate id: %w", err)
	}
	return id.String(), nil
}

// Preview computes the derived columns of a draft without saving it.
func (s *Service) Preview(ctx context.Context, workspace string, draft Draft) StockRecord {
	return s.engine.Compute(ctx, workspace, draft)
}

// Breakdown returns the raw running totals behind a draft's derived columns.
func (s *Service) Breakdown(ctx context.Context, workspace string, draft Draft) Breakdown {
	return s.engine.Breakdown(ctx, workspace, draft.ItemName, draft.ItemCode)
}

// Submit recomputes the draft and saves it. A draft with an ID replaces that
// row and keeps the ID; otherwise a row with a new ID is appended.
func (s *Service) Submit(ctx context.Context, workspace string, draft Draft) (StockRecord, error) {
	if blank(draft.ItemName) {
		return StockRecord{}, ErrItemNameRequired
	}
	elems, err := s.ledger.Raw(ctx, workspace)
	if err != nil {
		return StockRecord{}, err
	}
	idx := -1
	if draft.ID != "" {
		if idx = indexOf(elems, draft.ID); idx < 0 {
			return StockRecord{}, ErrRecordNotFound
		}
	} else {
		if draft.ID, err = s.newID(); err != nil {
			return StockRecord{}, err
		}
	}

	rec := s.engine.Compute(ctx, workspace, draft)
	raw, err := json.Marshal(rec)
	if err != nil {
		return StockRecord{}, fmt.Errorf("inventory: marshal record: %w", err)
	}
	if idx >= 0 {
		elems[idx] = raw
	} else {
		elems = append(elems, raw)
	}
	if err := s.persist(ctx, workspace, elems); err != nil {
		return StockRecord{}, err
	}
	return rec, nil
}

// Edit loads a saved row as a draft with live derived columns.
func (s *Service) Edit(ctx context.Context, workspace, id string) (StockRecord, error) {
	elems, err := s.ledger.Raw(ctx, workspace)
	if err != nil {
		return StockRecord{}, err
	}
	idx := indexOf(elems, id)
	if idx < 0 {
		return StockRecord{}, ErrRecordNotFound
	}
	stored := decodeStored(elems[idx])
	return s.engine.Compute(ctx, workspace, stored.record().Draft()), nil
}

// Delete removes the row with id.
func (s *Service) Delete(ctx context.Context, workspace, id string) error {
	elems, err := s.ledger.Raw(ctx, workspace)
	if err != nil {
		return err
	}
	idx := indexOf(elems, id)
	if idx < 0 {
		return ErrRecordNotFound
	}
	return s.persist(ctx, workspace, append(elems[:idx], elems[idx+1:]...))
}

// List returns every saved row with its derived columns recomputed now.
func (s *Service) List(ctx context.Context, workspace string) ([]StockRecord, error) {
	snapshots, err := s.ListSnapshots(ctx, workspace)
	if err != nil {
		return nil, err
	}
	drafts := make([]Draft, len(snapshots))
	for i, rec := range snapshots {
		drafts[i] = rec.Draft()
	}
	return s.engine.computeAll(ctx, workspace, drafts), nil
}

// ListSnapshots returns the rows as they were saved.
func (s *Service) ListSnapshots(ctx context.Context, workspace string) ([]StockRecord, error) {
	stored, err := s.ledger.Load(ctx, workspace)
	if err != nil {
		return nil, err
	}
	out := make([]StockRecord, 0, len(stored))
	for _, rec := range stored {
		out = append(out, rec.record())
	}
	return out, nil
}

// RefreshSnapshots recomputes and saves every row, returning how many were written.
func (s *Service) RefreshSnapshots(ctx context.Context, workspace string) (int, error) {
	rows, err := s.List(ctx, workspace)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	elems := make([]json.RawMessage, 0, len(rows))
	for _, row := range rows {
		raw, err := json.Marshal(row)
		if err != nil {
			return 0, fmt.Errorf("inventory: marshal record: %w", err)
		}
		elems = append(elems, raw)
	}
	if err := s.persist(ctx, workspace, elems); err != nil {
		return 0, err
	}
	return len(rows), nil
}

// ResolveItem sets the draft's item name and fills the code from the item
// master entry with that name, clearing it when there is none.
func (s *Service) ResolveItem(ctx context.Context, workspace string, draft Draft, itemName string) (Draft, error) {
	code, err := s.items.CodeForName(ctx, workspace, itemName)
	if err != nil {
		return draft, err
	}
	draft.ItemName = itemName
	draft.ItemCode = code
	return draft, nil
}

func (s *Service) persist(ctx context.Context, workspace string, elems []json.RawMessage) error {
	if err := s.ledger.SaveRaw(ctx, workspace, elems); err != nil {
		return err
	}
	if elems == nil {
		elems = []json.RawMessage{}
	}
	msg, err := events.NewMessage(workspace, events.TopicStockUpdated, map[string]any{"records": elems})
	if err != nil {
		return err
	}
	if err := s.publisher.Publish(ctx, msg); err != nil {
		s.logger.Warn("inventory: publish stock.updated", slog.String("workspace", workspace), slog.Any("error", err))
	}
	return nil
}

func decodeStored(raw json.RawMessage) storedRecord {
	var rec storedRecord
	_ = json.Unmarshal(raw, &rec)
	return rec
}

func indexOf(elems []json.RawMessage, id string) int {
	id = strings.TrimSpace(id)
	if id == "" {
		return -1
	}
	for i, raw := range elems {
		if string(decodeStored(raw).ID) == id {
			return i
		}
	}
	return -1
}
