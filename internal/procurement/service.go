package procurement

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/acu-erp/acu-erp/internal/events"
	"github.com/acu-erp/acu-erp/internal/kv"
	"github.com/acu-erp/acu-erp/internal/platform/httpx"
	"github.com/acu-erp/acu-erp/internal/records"
)

// Service owns the indent, purchase order, purchaseData and PSIR arrays of a workspace.
type Service struct {
	Indents   *records.Set[Indent]
	Orders    *records.Set[PurchaseOrder]
	Purchases *records.Set[PurchaseRecord]
	PSIRs     *records.Set[PSIR]
	publisher events.Publisher
	logger    *slog.Logger
}

// NewService constructs the procurement service.
func NewService(store kv.Store, publisher events.Publisher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		Indents:   records.New[Indent](store, kv.KeyIndents),
		Orders:    records.New[PurchaseOrder](store, kv.KeyPurchaseOrders),
		Purchases: records.New[PurchaseRecord](store, kv.KeyPurchaseData),
		PSIRs:     records.New[PSIR](store, kv.KeyPSIR),
		publisher: publisher,
		logger:    logger,
	}
	s.PSIRs.OnWrite = s.announcePSIRs
	return s
}

// IndentList returns the decoded indents.
func (s *Service) IndentList(ctx context.Context, workspace string) ([]Indent, error) {
	return s.Indents.Load(ctx, workspace)
}

// PurchaseLines returns every purchase order line, nested or flattened.
func (s *Service) PurchaseLines(ctx context.Context, workspace string) ([]OrderLine, error) {
	orders, err := s.Orders.Load(ctx, workspace)
	if err != nil {
		return nil, err
	}
	return flattenPurchaseOrders(orders), nil
}

// PurchaseRecords returns the decoded purchaseData rows.
func (s *Service) PurchaseRecords(ctx context.Context, workspace string) ([]PurchaseRecord, error) {
	return s.Purchases.Load(ctx, workspace)
}

// PSIRList returns the decoded PSIRs.
func (s *Service) PSIRList(ctx context.Context, workspace string) ([]PSIR, error) {
	return s.PSIRs.Load(ctx, workspace)
}

// AddDraft announces a PSIR item that is being entered but not yet saved.
func (s *Service) AddDraft(ctx context.Context, workspace string, item PSIRItem) error {
	if trimmed(item.ItemCode) == "" && trimmed(item.Code) == "" && trimmed(item.CodeNo) == "" &&
		trimmed(item.ItemName) == "" && trimmed(item.Item) == "" {
		return httpx.FieldErrors{"itemCode": "is required"}
	}
	msg, err := events.NewMessage(workspace, events.TopicPSIRUpdated, DraftEvent{DraftItem: item})
	if err != nil {
		return err
	}
	if err := s.publisher.Publish(ctx, msg); err != nil {
		return fmt.Errorf("procurement: publish draft: %w", err)
	}
	return nil
}

func (s *Service) announcePSIRs(ctx context.Context, workspace string) error {
	list, err := s.PSIRs.List(ctx, workspace)
	if err != nil {
		return err
	}
	if list == nil {
		list = []json.RawMessage{}
	}
	msg, err := events.NewMessage(workspace, events.TopicPSIRUpdated, PersistedEvent{PSIRs: list})
	if err != nil {
		return err
	}
	if err := s.publisher.Publish(ctx, msg); err != nil {
		s.logger.Warn("procurement: publish psir list", slog.String("workspace", workspace), slog.Any("error", err))
	}
	return nil
}
