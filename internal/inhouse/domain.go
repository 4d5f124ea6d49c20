// Package inhouse manages issues of material from stores to production.
package inhouse

import (
	"errors"

	"github.com/acu-erp/acu-erp/internal/kv"
)

// TransactionType says which stock an issued item was drawn from.
type TransactionType string

const (
	TypePurchase TransactionType = "Purchase"
	TypeVendor   TransactionType = "Vendor"
	TypeStock    TransactionType = "Stock"
)

// ErrItemNotFound reports an item index outside an issue.
var ErrItemNotFound = errors.New("inhouse: item not found")

// Issue is a stored in-house issue.
type Issue struct {
	ReqNo           kv.Text               `json:"reqNo"`
	ReqDate         kv.Text               `json:"reqDate"`
	OaNo            kv.Text               `json:"oaNo"`
	PoNo            kv.Text               `json:"poNo"`
	Vendor          kv.Text               `json:"vendor"`
	PurchaseBatchNo kv.Text               `json:"purchaseBatchNo"`
	VendorBatchNo   kv.Text               `json:"vendorBatchNo"`
	IssueNo         kv.Text               `json:"issueNo"`
	Items           kv.Objects[IssueItem] `json:"items"`
}

// IssueItem is one issued line.
type IssueItem struct {
	ItemName        kv.Text   `json:"itemName"`
	ItemCode        kv.Text   `json:"itemCode"`
	TransactionType kv.Text   `json:"transactionType"`
	BatchNo         kv.Text   `json:"batchNo"`
	IssueQty        kv.Number `json:"issueQty"`
	Qty             kv.Number `json:"qty,omitzero"`
	ReqBy           kv.Text   `json:"reqBy"`
	InStock         kv.Number `json:"inStock"`
	ReqClosed       kv.Flag   `json:"reqClosed"`
	ReceivedDate    kv.Text   `json:"receivedDate,omitempty"`
}

// Type returns the transaction type.
func (i IssueItem) Type() TransactionType {
	return TransactionType(i.TransactionType)
}

// IssuedQty is issueQty when set, else the legacy qty. Only JSON numbers count.
func (i IssueItem) IssuedQty() float64 {
	q := i.Qty
	if i.IssueQty.Truthy() {
		q = i.IssueQty
	} else if !q.Truthy() {
		return 0
	}
	v, ok := q.Numeric()
	if !ok {
		return 0
	}
	return v
}

// IssueForm is the validated shape of a new issue.
type IssueForm struct {
	ReqDate string     `validate:"required"`
	PoNo    string     `validate:"required"`
	ReqNo   string     `validate:"required"`
	Items   []ItemForm `validate:"min=1,dive"`
}

// ItemForm is the validated shape of an issued line.
type ItemForm struct {
	ItemName string  `validate:"required"`
	ItemCode string  `validate:"required"`
	ReqBy    string  `validate:"required"`
	IssueQty float64 `validate:"gt=0"`
}

// NextNumbers are the numbers a new issue would receive.
type NextNumbers struct {
	ReqNo   string `json:"reqNo"`
	IssueNo string `json:"issueNo"`
}
