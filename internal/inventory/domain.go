package inventory

import (
	"errors"
	"strings"

	"github.com/acu-erp/acu-erp/internal/kv"
)

// ErrItemNameRequired blocks a stock row without an item name.
var ErrItemNameRequired = errors.New("inventory: item name is required")

// ErrRecordNotFound reports an id that is not in the stock ledger.
var ErrRecordNotFound = errors.New("inventory: stock record not found")

// ItemNameRequiredMessage is shown to the user when ErrItemNameRequired blocks a save.
const ItemNameRequiredMessage = "Item Name is required."

// Derived holds the computed columns of a stock row.
type Derived struct {
	IndentQty        float64 `json:"indentQty"`
	PurchaseQty      float64 `json:"purchaseQty"`
	VendorQty        float64 `json:"vendorQty"`
	PurStoreOkQty    float64 `json:"purStoreOkQty"`
	VendorOkQty      float64 `json:"vendorOkQty"`
	InHouseIssuedQty float64 `json:"inHouseIssuedQty"`
	VendorIssuedQty  float64 `json:"vendorIssuedQty"`
	ClosingStock     float64 `json:"closingStock"`
}

// StockRecord is one row of the stock ledger. StockQty is entered by the user;
// Derived is recomputed from the other modules.
type StockRecord struct {
	ID       string  `json:"id"`
	ItemName string  `json:"itemName"`
	ItemCode string  `json:"itemCode"`
	BatchNo  string  `json:"batchNo"`
	StockQty float64 `json:"stockQty"`
	Derived
}

// Draft is the user-entered part of a stock row. A non-empty ID edits that row.
type Draft struct {
	ID       string  `json:"id,omitempty"`
	ItemName string  `json:"itemName"`
	ItemCode string  `json:"itemCode"`
	BatchNo  string  `json:"batchNo"`
	StockQty float64 `json:"stockQty"`
}

// Draft returns the user-entered part of the row.
func (r StockRecord) Draft() Draft {
	return Draft{ID: r.ID, ItemName: r.ItemName, ItemCode: r.ItemCode, BatchNo: r.BatchNo, StockQty: r.StockQty}
}

// Breakdown is the set of raw running totals the derived columns are netted from.
type Breakdown struct {
	ItemName              string   `json:"itemName"`
	ItemCode              string   `json:"itemCode"`
	IndentQty             float64  `json:"indentQty"`
	PurchaseQty           float64  `json:"purchaseQty"`
	PSIROkQty             float64  `json:"psirOkQty"`
	InHouseIssuedPurchase float64  `json:"inHouseIssuedPurchase"`
	InHouseIssuedVendor   float64  `json:"inHouseIssuedVendor"`
	InHouseIssuedStock    float64  `json:"inHouseIssuedStock"`
	InHouseIssuedAll      float64  `json:"inHouseIssuedAll"`
	InHouseIssuedByCode   float64  `json:"inHouseIssuedByCode"`
	VendorIssuedTotal     float64  `json:"vendorIssuedTotal"`
	VSIRReceived          float64  `json:"vsirReceived"`
	VendorDeptSent        float64  `json:"vendorDeptSent"`
	VendorDeptOkQty       float64  `json:"vendorDeptOkQty"`
	Degraded              []string `json:"degraded,omitempty"`
}

// storedRecord reads a persisted row written by any client version.
type storedRecord struct {
	ID               kv.Text   `json:"id"`
	ItemName         kv.Text   `json:"itemName"`
	ItemCode         kv.Text   `json:"itemCode"`
	BatchNo          kv.Text   `json:"batchNo"`
	StockQty         kv.Number `json:"stockQty"`
	IndentQty        kv.Number `json:"indentQty"`
	PurchaseQty      kv.Number `json:"purchaseQty"`
	VendorQty        kv.Number `json:"vendorQty"`
	PurStoreOkQty    kv.Number `json:"purStoreOkQty"`
	VendorOkQty      kv.Number `json:"vendorOkQty"`
	InHouseIssuedQty kv.Number `json:"inHouseIssuedQty"`
	VendorIssuedQty  kv.Number `json:"vendorIssuedQty"`
	ClosingStock     kv.Number `json:"closingStock"`
}

func (s storedRecord) record() StockRecord {
	return StockRecord{
		ID:       string(s.ID),
		ItemName: string(s.ItemName),
		ItemCode: string(s.ItemCode),
		BatchNo:  string(s.BatchNo),
		StockQty: s.StockQty.Coerce(),
		Derived: Derived{
			IndentQty:        s.IndentQty.Coerce(),
			PurchaseQty:      s.PurchaseQty.Coerce(),
			VendorQty:        s.VendorQty.Coerce(),
			PurStoreOkQty:    s.PurStoreOkQty.Coerce(),
			VendorOkQty:      s.VendorOkQty.Coerce(),
			InHouseIssuedQty: s.InHouseIssuedQty.Coerce(),
			VendorIssuedQty:  s.VendorIssuedQty.Coerce(),
			ClosingStock:     s.ClosingStock.Coerce(),
		},
	}
}

// DraftInput is a draft as posted by a form; quantities may arrive as text.
type DraftInput struct {
	ID       kv.Text   `json:"id"`
	ItemName kv.Text   `json:"itemName"`
	ItemCode kv.Text   `json:"itemCode"`
	BatchNo  kv.Text   `json:"batchNo"`
	StockQty kv.Number `json:"stockQty"`
}

// Draft converts the input, coercing stockQty like a form field.
func (in DraftInput) Draft() Draft {
	return Draft{
		ID:       strings.TrimSpace(string(in.ID)),
		ItemName: string(in.ItemName),
		ItemCode: string(in.ItemCode),
		BatchNo:  string(in.BatchNo),
		StockQty: in.StockQty.Coerce(),
	}
}
