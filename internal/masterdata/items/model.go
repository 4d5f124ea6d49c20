package items

import "github.com/acu-erp/acu-erp/internal/kv"

// Item is one item master entry.
type Item struct {
	ItemName kv.Text `json:"itemName"`
	ItemCode kv.Text `json:"itemCode"`
}

// ItemForm is the validated shape of a create or update request.
type ItemForm struct {
	ItemName string `json:"itemName" validate:"required"`
	ItemCode string `json:"itemCode" validate:"required"`
}
