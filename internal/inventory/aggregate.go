package inventory

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/acu-erp/acu-erp/internal/inhouse"
	"github.com/acu-erp/acu-erp/internal/kv"
	"github.com/acu-erp/acu-erp/internal/procurement"
	"github.com/acu-erp/acu-erp/internal/vendor"
)

// anyType matches every in-house transaction type.
const anyType inhouse.TransactionType = "*"

// inputs is one read of every upstream repository. A repository that failed to
// load is empty.
type inputs struct {
	indents  []procurement.Indent
	lines    []procurement.OrderLine
	psirs    []procurement.PSIR
	drafts   []procurement.PSIRItem
	dept     []vendor.DeptOrder
	issues   []vendor.Issue
	vsirs    []vendor.VSIR
	inHouse  []inhouse.Issue
	degraded []string
}

func (e *Engine) load(ctx context.Context, workspace string) inputs {
	var in inputs
	var err error
	if in.indents, err = e.sources.Indents(ctx, workspace); err != nil {
		e.degrade(&in, kv.KeyIndents, workspace, err)
	}
	if in.lines, err = e.sources.PurchaseLines(ctx, workspace); err != nil {
		e.degrade(&in, kv.KeyPurchaseOrders, workspace, err)
	}
	if in.psirs, err = e.sources.PSIRs(ctx, workspace); err != nil {
		e.degrade(&in, kv.KeyPSIR, workspace, err)
	}
	if in.dept, err = e.sources.VendorDeptOrders(ctx, workspace); err != nil {
		e.degrade(&in, kv.KeyVendorDept, workspace, err)
	}
	if in.issues, err = e.sources.VendorIssues(ctx, workspace); err != nil {
		e.degrade(&in, kv.KeyVendorIssues, workspace, err)
	}
	if in.vsirs, err = e.sources.VSIRs(ctx, workspace); err != nil {
		e.degrade(&in, kv.KeyVSIR, workspace, err)
	}
	if in.inHouse, err = e.sources.InHouseIssues(ctx, workspace); err != nil {
		e.degrade(&in, kv.KeyInHouseIssues, workspace, err)
	}
	in.drafts = e.drafts.Drafts(workspace)
	return in
}

func (e *Engine) degrade(in *inputs, source, workspace string, err error) {
	in.degraded = append(in.degraded, source)
	e.logger.Debug("inventory: source unavailable, counting as zero",
		slog.String("source", source),
		slog.String("workspace", workspace),
		slog.Any("error", err),
	)
	e.metrics.Degraded(source)
}

func (in inputs) breakdown(itemName, itemCode string) Breakdown {
	return Breakdown{
		ItemName:              itemName,
		ItemCode:              itemCode,
		IndentQty:             in.indentQty(itemCode),
		PurchaseQty:           in.purchaseQty(itemCode),
		PSIROkQty:             in.psirOkQty(itemName, itemCode),
		InHouseIssuedPurchase: in.inHouseByType(itemCode, inhouse.TypePurchase),
		InHouseIssuedVendor:   in.inHouseByType(itemCode, inhouse.TypeVendor),
		InHouseIssuedStock:    in.inHouseByNameOrCode(itemName, itemCode, true),
		InHouseIssuedAll:      in.inHouseByNameOrCode(itemName, itemCode, false),
		InHouseIssuedByCode:   in.inHouseByType(itemCode, anyType),
		VendorIssuedTotal:     in.vendorIssued(itemCode),
		VSIRReceived:          in.vsirReceived(itemCode),
		VendorDeptSent:        in.vendorDeptSent(itemCode),
		VendorDeptOkQty:       in.vendorDeptOk(itemCode),
		Degraded:              in.degraded,
	}
}

// total accumulates quantities without float drift.
type total struct {
	d decimal.Decimal
}

func (t *total) add(v float64) {
	t.d = t.d.Add(decimal.NewFromFloat(v))
}

func (t total) value() float64 {
	return t.d.InexactFloat64()
}

// addNumeric adds n only when it is a JSON number.
func (t *total) addNumeric(n kv.Number) {
	if v, ok := n.Numeric(); ok {
		t.add(v)
	}
}

func (in inputs) indentQty(code string) float64 {
	var t total
	for _, indent := range in.indents {
		for _, item := range indent.Items {
			if sameCode(string(item.ItemCode), code) {
				t.addNumeric(item.Qty)
			}
		}
	}
	return t.value()
}

func (in inputs) purchaseQty(code string) float64 {
	var t total
	for _, line := range in.lines {
		if sameCode(string(line.ItemCode), code) {
			t.addNumeric(line.Qty)
		}
	}
	return t.value()
}

func (in inputs) vendorDeptSent(code string) float64 {
	var t total
	for _, order := range in.dept {
		for _, item := range order.Items {
			if sameCode(string(item.ItemCode), code) {
				t.addNumeric(item.Qty)
			}
		}
	}
	return t.value()
}

func (in inputs) vendorDeptOk(code string) float64 {
	var t total
	for _, order := range in.dept {
		for _, item := range order.Items {
			if sameCode(string(item.ItemCode), code) {
				t.addNumeric(item.OkQty)
			}
		}
	}
	return t.value()
}

func (in inputs) vendorIssued(code string) float64 {
	var t total
	for _, issue := range in.issues {
		for _, item := range issue.Items {
			if sameCode(string(item.ItemCode), code) {
				t.addNumeric(item.Qty)
			}
		}
	}
	return t.value()
}

func (in inputs) vsirReceived(code string) float64 {
	var t total
	for _, rec := range in.vsirs {
		if sameCode(rec.ResolvedCode(), code) {
			t.add(rec.ReceivedQty())
		}
	}
	return t.value()
}

func (in inputs) inHouseByType(code string, typ inhouse.TransactionType) float64 {
	var t total
	for _, issue := range in.inHouse {
		for _, item := range issue.Items {
			if !sameCode(string(item.ItemCode), code) {
				continue
			}
			if typ != anyType && item.Type() != typ {
				continue
			}
			t.add(item.IssuedQty())
		}
	}
	return t.value()
}

func (in inputs) inHouseByNameOrCode(name, code string, stockOnly bool) float64 {
	m := newMatcher(name, code)
	var t total
	for _, issue := range in.inHouse {
		for _, item := range issue.Items {
			if stockOnly && item.Type() != inhouse.TypeStock {
				continue
			}
			if m.match(string(item.ItemName), string(item.ItemCode)) {
				t.add(item.IssuedQty())
			}
		}
	}
	return t.value()
}

func (in inputs) psirOkQty(name, code string) float64 {
	m := newMatcher(name, code)
	var t total
	for _, psir := range in.psirs {
		for _, item := range psir.Items {
			if m.match(item.ResolvedName(), item.ResolvedCode()) {
				t.add(item.AcceptedQty())
			}
		}
	}
	for _, item := range in.drafts {
		if m.match(item.ResolvedName(), item.ResolvedCode()) {
			t.add(item.AcceptedQty())
		}
	}
	return t.value()
}

// sameCode reports an exact code match. A blank code matches nothing, so
// lines without a code never count toward an uncoded row.
func sameCode(have, want string) bool {
	return want != "" && have == want
}

// matcher compares names and codes trimmed and lowercased. A blank target
// matches nothing.
type matcher struct {
	name string
	code string
}

func newMatcher(name, code string) matcher {
	return matcher{name: normalize(name), code: normalize(code)}
}

func (m matcher) match(name, code string) bool {
	if m.name != "" && normalize(name) == m.name {
		return true
	}
	return m.code != "" && normalize(code) == m.code
}

func normalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return cases.Lower(language.Und).String(s)
}
