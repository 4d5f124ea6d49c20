package inventory

import (
	"context"

	"github.com/acu-erp/acu-erp/internal/inhouse"
	"github.com/acu-erp/acu-erp/internal/procurement"
	"github.com/acu-erp/acu-erp/internal/vendor"
)

// Sources is the set of upstream repositories the ledger is derived from.
type Sources interface {
	Indents(ctx context.Context, workspace string) ([]procurement.Indent, error)
	PurchaseLines(ctx context.Context, workspace string) ([]procurement.OrderLine, error)
	PSIRs(ctx context.Context, workspace string) ([]procurement.PSIR, error)
	VendorDeptOrders(ctx context.Context, workspace string) ([]vendor.DeptOrder, error)
	VendorIssues(ctx context.Context, workspace string) ([]vendor.Issue, error)
	VSIRs(ctx context.Context, workspace string) ([]vendor.VSIR, error)
	InHouseIssues(ctx context.Context, workspace string) ([]inhouse.Issue, error)
}

// DraftSource returns the PSIR items announced but not yet saved in a workspace.
type DraftSource interface {
	Drafts(workspace string) []procurement.PSIRItem
}

// ModuleSources reads the upstream repositories through their module services.
type ModuleSources struct {
	Procurement *procurement.Service
	Vendor      *vendor.Service
	InHouse     *inhouse.Service
}

func (m ModuleSources) Indents(ctx context.Context, workspace string) ([]procurement.Indent, error) {
	return m.Procurement.IndentList(ctx, workspace)
}

func (m ModuleSources) PurchaseLines(ctx context.Context, workspace string) ([]procurement.OrderLine, error) {
	return m.Procurement.PurchaseLines(ctx, workspace)
}

func (m ModuleSources) PSIRs(ctx context.Context, workspace string) ([]procurement.PSIR, error) {
	return m.Procurement.PSIRList(ctx, workspace)
}

func (m ModuleSources) VendorDeptOrders(ctx context.Context, workspace string) ([]vendor.DeptOrder, error) {
	return m.Vendor.DeptOrders(ctx, workspace)
}

func (m ModuleSources) VendorIssues(ctx context.Context, workspace string) ([]vendor.Issue, error) {
	return m.Vendor.IssueList(ctx, workspace)
}

func (m ModuleSources) VSIRs(ctx context.Context, workspace string) ([]vendor.VSIR, error) {
	return m.Vendor.VSIRList(ctx, workspace)
}

func (m ModuleSources) InHouseIssues(ctx context.Context, workspace string) ([]inhouse.Issue, error) {
	return m.InHouse.Issues(ctx, workspace)
}

type noDrafts struct{}

func (noDrafts) Drafts(string) []procurement.PSIRItem { return nil }
