package inhouse

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/acu-erp/acu-erp/internal/kv"
	"github.com/acu-erp/acu-erp/internal/platform/httpx"
	"github.com/acu-erp/acu-erp/internal/procurement"
	"github.com/acu-erp/acu-erp/internal/records"
	"github.com/acu-erp/acu-erp/internal/vendor"
)

// PurchaseSource exposes the procurement arrays an issue is built from.
type PurchaseSource interface {
	PSIRList(ctx context.Context, workspace string) ([]procurement.PSIR, error)
	PurchaseRecords(ctx context.Context, workspace string) ([]procurement.PurchaseRecord, error)
}

// VendorSource exposes the vendor arrays an issue is built from.
type VendorSource interface {
	VSIRList(ctx context.Context, workspace string) ([]vendor.VSIR, error)
	DcNoForPO(ctx context.Context, workspace, poNo string) (string, error)
}

// Service owns the inHouseIssueData array.
type Service struct {
	*records.Set[Issue]
	purchases PurchaseSource
	vendors   VendorSource
	validate  *validator.Validate
	logger    *slog.Logger
}

// NewService constructs the in-house issue service.
func NewService(store kv.Store, purchases PurchaseSource, vendors VendorSource, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		Set:       records.New[Issue](store, kv.KeyInHouseIssues),
		purchases: purchases,
		vendors:   vendors,
		validate:  validator.New(),
		logger:    logger,
	}
}

// Issues returns the decoded issues.
func (s *Service) Issues(ctx context.Context, workspace string) ([]Issue, error) {
	return s.Load(ctx, workspace)
}

// Create validates a new issue, numbers it and appends it with its items in
// received-date order.
func (s *Service) Create(ctx context.Context, workspace string, record json.RawMessage) error {
	var issue Issue
	if err := json.Unmarshal(record, &issue); err != nil {
		return fmt.Errorf("%w: %v", httpx.ErrValidation, err)
	}
	if err := s.check(issue); err != nil {
		return err
	}
	existing, err := s.Load(ctx, workspace)
	if err != nil {
		return err
	}
	fields, err := objectFields(record)
	if err != nil {
		return err
	}
	issueNo, _ := json.Marshal(nextNumbers(existing).IssueNo)
	fields["issueNo"] = issueNo
	if err := sortItemsFIFO(fields); err != nil {
		return err
	}
	out, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	return s.Set.Create(ctx, workspace, out)
}

// Update replaces the issue at idx, reordering its items by received date.
func (s *Service) Update(ctx context.Context, workspace string, idx int, record json.RawMessage) error {
	fields, err := objectFields(record)
	if err != nil {
		return err
	}
	if err := sortItemsFIFO(fields); err != nil {
		return err
	}
	out, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	return s.Set.Update(ctx, workspace, idx, out)
}

// DeleteItem removes one item from an issue. An issue left without items is removed.
func (s *Service) DeleteItem(ctx context.Context, workspace string, issueIdx, itemIdx int) error {
	list, err := s.List(ctx, workspace)
	if err != nil {
		return err
	}
	if issueIdx < 0 || issueIdx >= len(list) {
		return fmt.Errorf("%w: issue %d", httpx.ErrNotFound, issueIdx)
	}
	fields, err := objectFields(list[issueIdx])
	if err != nil {
		return err
	}
	var items []json.RawMessage
	if raw, ok := fields["items"]; ok {
		_ = json.Unmarshal(raw, &items)
	}
	if itemIdx < 0 || itemIdx >= len(items) {
		return fmt.Errorf("%w: %w", httpx.ErrNotFound, ErrItemNotFound)
	}
	items = append(items[:itemIdx], items[itemIdx+1:]...)
	if len(items) == 0 {
		return s.Delete(ctx, workspace, issueIdx)
	}
	fields["items"], err = json.Marshal(items)
	if err != nil {
		return err
	}
	out, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	return s.Set.Update(ctx, workspace, issueIdx, out)
}

// NextNumbers returns the req and issue numbers a new issue would receive.
func (s *Service) NextNumbers(ctx context.Context, workspace string) (NextNumbers, error) {
	issues, err := s.Load(ctx, workspace)
	if err != nil {
		return NextNumbers{}, err
	}
	return nextNumbers(issues), nil
}

// BatchNumbers lists the batches an item can be issued from: PSIR batches for
// purchased stock, VSIR vendor batches for vendor stock.
func (s *Service) BatchNumbers(ctx context.Context, workspace, itemCode string, typ TransactionType) ([]string, error) {
	if strings.TrimSpace(itemCode) == "" {
		return []string{}, nil
	}
	var batches []string
	switch typ {
	case TypePurchase:
		psirs, err := s.purchases.PSIRList(ctx, workspace)
		if err != nil {
			return nil, err
		}
		for _, p := range psirs {
			for _, item := range p.Items {
				if item.HasCode(itemCode) {
					batches = append(batches, string(p.BatchNo))
					break
				}
			}
		}
	case TypeVendor:
		vsirs, err := s.vendors.VSIRList(ctx, workspace)
		if err != nil {
			return nil, err
		}
		for _, v := range vsirs {
			if string(v.ItemCode) == itemCode || string(v.Code) == itemCode {
				batches = append(batches, string(v.VendorBatchNo))
			}
		}
	}
	return sortedSet(batches), nil
}

// Vendors lists the distinct suppliers of purchaseData in first-seen order.
func (s *Service) Vendors(ctx context.Context, workspace string) ([]string, error) {
	rows, err := s.purchases.PurchaseRecords(ctx, workspace)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(rows))
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		name := string(row.SupplierName)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out, nil
}

// VendorBatchNumbers lists the vendor batch numbers of purchaseData rows from vendor.
func (s *Service) VendorBatchNumbers(ctx context.Context, workspace, vendorName string) ([]string, error) {
	rows, err := s.purchases.PurchaseRecords(ctx, workspace)
	if err != nil {
		return nil, err
	}
	var batches []string
	for _, row := range rows {
		if string(row.SupplierName) == vendorName {
			batches = append(batches, string(row.VendorBatchNo))
		}
	}
	return sortedSet(batches), nil
}

// ReqNoFor returns the requisition number for a PO: the vendor department DC
// number when one exists, else the reqNo of the purchaseData row.
func (s *Service) ReqNoFor(ctx context.Context, workspace, poNo string) (string, error) {
	if poNo == "" {
		return "", nil
	}
	dcNo, err := s.vendors.DcNoForPO(ctx, workspace, poNo)
	if err != nil {
		return "", err
	}
	if dcNo != "" {
		return dcNo, nil
	}
	rows, err := s.purchases.PurchaseRecords(ctx, workspace)
	if err != nil {
		return "", err
	}
	for _, row := range rows {
		if string(row.PONo) == poNo {
			return string(row.ReqNo), nil
		}
	}
	return "", nil
}

// SyncPurchase appends an issue for every purchaseData PO that has none yet and
// returns how many were created.
func (s *Service) SyncPurchase(ctx context.Context, workspace string) (int, error) {
	rows, err := s.purchases.PurchaseRecords(ctx, workspace)
	if err != nil {
		return 0, err
	}
	list, err := s.List(ctx, workspace)
	if err != nil {
		return 0, err
	}
	issues := kv.DecodeObjects[Issue](list)
	known := make(map[string]struct{}, len(issues))
	for _, is := range issues {
		known[string(is.PoNo)] = struct{}{}
	}

	created := 0
	for _, row := range rows {
		poNo := string(row.PONo)
		if poNo == "" {
			continue
		}
		if _, ok := known[poNo]; ok {
			continue
		}
		known[poNo] = struct{}{}
		issue := issueFromPurchase(row, nextNumbers(issues).IssueNo)
		raw, err := json.Marshal(issue)
		if err != nil {
			return 0, err
		}
		issues = append(issues, issue)
		list = append(list, raw)
		created++
	}
	if created == 0 {
		return 0, nil
	}
	if err := s.ReplaceAll(ctx, workspace, list); err != nil {
		return 0, err
	}
	s.logger.Info("inhouse: issues created from purchase data", slog.String("workspace", workspace), slog.Int("created", created))
	return created, nil
}

func issueFromPurchase(row procurement.PurchaseRecord, issueNo string) Issue {
	items := make(kv.Objects[IssueItem], 0, len(row.Items))
	for _, line := range row.Items {
		qty := line.Qty
		if !qty.Truthy() {
			qty = kv.NewNumber(0)
		}
		items = append(items, IssueItem{
			ItemName:        kv.Text(line.DisplayName()),
			ItemCode:        line.ItemCode,
			TransactionType: kv.Text(TypePurchase),
			BatchNo:         row.BatchNo,
			IssueQty:        qty,
			ReqBy:           line.ReqBy,
			InStock:         kv.NewNumber(0),
		})
	}
	return Issue{
		PoNo:            row.PONo,
		Vendor:          row.SupplierName,
		PurchaseBatchNo: row.BatchNo,
		VendorBatchNo:   row.VendorBatchNo,
		IssueNo:         kv.Text(issueNo),
		Items:           items,
	}
}

func (s *Service) check(issue Issue) error {
	form := IssueForm{
		ReqDate: strings.TrimSpace(string(issue.ReqDate)),
		PoNo:    strings.TrimSpace(string(issue.PoNo)),
		ReqNo:   strings.TrimSpace(string(issue.ReqNo)),
		Items:   make([]ItemForm, 0, len(issue.Items)),
	}
	for _, item := range issue.Items {
		form.Items = append(form.Items, ItemForm{
			ItemName: strings.TrimSpace(string(item.ItemName)),
			ItemCode: strings.TrimSpace(string(item.ItemCode)),
			ReqBy:    strings.TrimSpace(string(item.ReqBy)),
			IssueQty: item.IssueQty.Coerce(),
		})
	}
	return httpx.Validate(s.validate, form)
}

func objectFields(record json.RawMessage) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(record, &fields); err != nil || fields == nil {
		return nil, fmt.Errorf("%w: issue must be a json object", httpx.ErrValidation)
	}
	return fields, nil
}

// sortItemsFIFO orders the items array by received date, oldest first.
func sortItemsFIFO(fields map[string]json.RawMessage) error {
	raw, ok := fields["items"]
	if !ok {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	type keyed struct {
		raw   json.RawMessage
		at    time.Time
		dated bool
	}
	rows := make([]keyed, len(items))
	for i, item := range items {
		var decoded IssueItem
		_ = json.Unmarshal(item, &decoded)
		at := receivedAt(string(decoded.ReceivedDate))
		rows[i] = keyed{raw: item, at: at, dated: !at.IsZero()}
	}
	sort.SliceStable(rows, func(a, b int) bool {
		if rows[a].dated != rows[b].dated {
			return !rows[a].dated
		}
		return rows[a].at.Before(rows[b].at)
	})
	for i := range rows {
		items[i] = rows[i].raw
	}
	sorted, err := json.Marshal(items)
	if err != nil {
		return err
	}
	fields["items"] = sorted
	return nil
}
