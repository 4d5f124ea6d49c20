package procurement

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/acu-erp/acu-erp/internal/kv"
)

// Indent is a stored indent request.
type Indent struct {
	Items kv.Objects[IndentItem] `json:"items"`
}

// IndentItem is one requested line of an indent.
type IndentItem struct {
	ItemCode kv.Text   `json:"itemCode"`
	Qty      kv.Number `json:"qty"`
}

// OrderLine is a purchase order line after flattening.
type OrderLine struct {
	ItemCode kv.Text   `json:"itemCode"`
	Qty      kv.Number `json:"qty"`
}

// PurchaseOrder is a stored purchase order entry. Older clients wrote one
// object per line instead of a nested items array; both shapes decode.
type PurchaseOrder struct {
	Items  []OrderLine
	Nested bool
	Flat   OrderLine
}

// UnmarshalJSON accepts {items:[...]} and the flattened {itemCode, qty}.
func (o *PurchaseOrder) UnmarshalJSON(data []byte) error {
	var probe struct {
		Items    json.RawMessage `json:"items"`
		ItemCode kv.Text         `json:"itemCode"`
		Qty      kv.Number       `json:"qty"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	*o = PurchaseOrder{}
	items := bytes.TrimSpace(probe.Items)
	if len(items) > 0 && items[0] == '[' {
		var elems []json.RawMessage
		if err := json.Unmarshal(items, &elems); err == nil {
			o.Nested = true
			o.Items = kv.DecodeObjects[OrderLine](elems)
			return nil
		}
	}
	o.Flat = OrderLine{ItemCode: probe.ItemCode, Qty: probe.Qty}
	return nil
}

// Lines returns the order lines that count toward purchase totals. A flattened
// entry counts only with a code and a numeric qty.
func (o PurchaseOrder) Lines() []OrderLine {
	if o.Nested {
		return o.Items
	}
	if o.Flat.ItemCode == "" {
		return nil
	}
	if _, ok := o.Flat.Qty.Numeric(); !ok {
		return nil
	}
	return []OrderLine{o.Flat}
}

func flattenPurchaseOrders(orders []PurchaseOrder) []OrderLine {
	var out []OrderLine
	for _, o := range orders {
		out = append(out, o.Lines()...)
	}
	return out
}

// PurchaseRecord is a purchaseData row, consumed by in-house issues.
type PurchaseRecord struct {
	PONo          kv.Text                  `json:"poNo"`
	SupplierName  kv.Text                  `json:"supplierName"`
	VendorBatchNo kv.Text                  `json:"vendorBatchNo"`
	BatchNo       kv.Text                  `json:"batchNo"`
	ReqNo         kv.Text                  `json:"reqNo"`
	Items         kv.Objects[PurchaseLine] `json:"items"`
}

// PurchaseLine is one item of a purchaseData row.
type PurchaseLine struct {
	ItemName kv.Text   `json:"itemName"`
	Model    kv.Text   `json:"model"`
	ItemCode kv.Text   `json:"itemCode"`
	Qty      kv.Number `json:"qty"`
	ReqBy    kv.Text   `json:"reqBy"`
}

// DisplayName is the item name, falling back to the model.
func (l PurchaseLine) DisplayName() string {
	return firstText(l.ItemName, l.Model)
}

// PSIR is a purchase store inspection report.
type PSIR struct {
	BatchNo kv.Text              `json:"batchNo"`
	Items   kv.Objects[PSIRItem] `json:"items"`
}

// PSIRItem is one inspected item. Clients have written the code under three
// names and the name under two.
type PSIRItem struct {
	ItemCode    kv.Text   `json:"itemCode,omitempty"`
	Code        kv.Text   `json:"Code,omitempty"`
	CodeNo      kv.Text   `json:"CodeNo,omitempty"`
	ItemName    kv.Text   `json:"itemName,omitempty"`
	Item        kv.Text   `json:"Item,omitempty"`
	OkQty       kv.Number `json:"okQty,omitzero"`
	QtyReceived kv.Number `json:"qtyReceived,omitzero"`
}

// ResolvedCode returns itemCode, Code or CodeNo, whichever is set first.
func (i PSIRItem) ResolvedCode() string {
	return firstText(i.ItemCode, i.Code, i.CodeNo)
}

// ResolvedName returns itemName or Item.
func (i PSIRItem) ResolvedName() string {
	return firstText(i.ItemName, i.Item)
}

// AcceptedQty is the inspected OK quantity, or the received quantity when no
// positive OK quantity was recorded.
func (i PSIRItem) AcceptedQty() float64 {
	return acceptedQty(i.OkQty, i.QtyReceived)
}

// HasCode reports whether the item carries code under itemCode or Code.
func (i PSIRItem) HasCode(code string) bool {
	if code == "" {
		return false
	}
	return string(i.ItemCode) == code || string(i.Code) == code
}

func acceptedQty(ok, received kv.Number) float64 {
	if v := ok.Coerce(); v > 0 {
		return v
	}
	return received.Coerce()
}

func firstText(values ...kv.Text) string {
	for _, v := range values {
		if v != "" {
			return string(v)
		}
	}
	return ""
}

// DraftEvent is the psir.updated payload announcing an unsaved PSIR item.
type DraftEvent struct {
	DraftItem PSIRItem `json:"draftItem"`
}

// PersistedEvent is the psir.updated payload sent after the PSIR list is written.
type PersistedEvent struct {
	PSIRs []json.RawMessage `json:"psirs"`
}

func trimmed(t kv.Text) string {
	return strings.TrimSpace(string(t))
}
