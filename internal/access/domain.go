package access

import (
	"errors"
	"time"
)

// Role is the coarse grant stored on a profile.
type Role string

const (
	// RoleAdmin sees every module.
	RoleAdmin Role = "admin"
	// RoleViewer is assigned to profiles created on first sign-in.
	RoleViewer Role = "viewer"
)

// ModuleID identifies a guarded area of the application.
type ModuleID string

const (
	ModulePurchase     ModuleID = "purchase"
	ModuleIndent       ModuleID = "indent"
	ModuleVendorDept   ModuleID = "vendorDept"
	ModuleVendorIssue  ModuleID = "vendorIssue"
	ModuleInHouseIssue ModuleID = "inHouseIssue"
	ModulePSIR         ModuleID = "psir"
	ModuleVSIR         ModuleID = "vsir"
	ModuleStock        ModuleID = "stock"
	ModuleItemMaster   ModuleID = "itemMaster"
)

// Module describes one entry of the module catalogue.
type Module struct {
	ID          ModuleID `json:"id"`
	Label       string   `json:"label"`
	Description string   `json:"description"`
}

// Modules is the catalogue in display order.
var Modules = []Module{
	{ID: ModulePurchase, Label: "Purchase", Description: "Purchase orders and purchase data"},
	{ID: ModuleIndent, Label: "Indent", Description: "Material indents"},
	{ID: ModuleVendorDept, Label: "Vendor Dept", Description: "Material sent to vendors"},
	{ID: ModuleVendorIssue, Label: "Vendor Issue", Description: "Issues to vendors"},
	{ID: ModuleInHouseIssue, Label: "In-House Issue", Description: "Issues from stores to production"},
	{ID: ModulePSIR, Label: "PSIR", Description: "Purchase store inspection reports"},
	{ID: ModuleVSIR, Label: "VSIR", Description: "Vendor store inspection reports"},
	{ID: ModuleStock, Label: "Stock", Description: "Stock ledger and closing stock"},
	{ID: ModuleItemMaster, Label: "Item Master", Description: "Item names and codes"},
}

// Principal is a verified caller identity.
type Principal struct {
	UID   string
	Email string
	Name  string
}

// Profile is the stored role and permission record of a user.
type Profile struct {
	UID         string     `json:"uid"`
	Email       string     `json:"email"`
	Role        Role       `json:"role"`
	Permissions []ModuleID `json:"permissions"`
	DisplayName string     `json:"displayName"`
	CreatedAt   time.Time  `json:"createdAt"`
}

var (
	// ErrProfileNotFound reports a uid without a stored profile.
	ErrProfileNotFound = errors.New("access: profile not found")
	// ErrProfileExists reports a concurrent profile creation.
	ErrProfileExists = errors.New("access: profile already exists")
	// ErrInvalidToken reports a bearer token that failed verification.
	ErrInvalidToken = errors.New("access: invalid token")
)
