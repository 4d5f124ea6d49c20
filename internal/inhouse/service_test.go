package inhouse

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/acu-erp/acu-erp/internal/events"
	"github.com/acu-erp/acu-erp/internal/kv"
	"github.com/acu-erp/acu-erp/internal/platform/httpx"
	"github.com/acu-erp/acu-erp/internal/procurement"
	"github.com/acu-erp/acu-erp/internal/vendor"
)

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, events.Message) error { return nil }

func newTestService(t *testing.T) (*Service, kv.Store) {
	t.Helper()
	store := kv.NewMemoryStore()
	purchases := procurement.NewService(store, nopPublisher{}, nil)
	return NewService(store, purchases, vendor.NewService(store), nil), store
}

func seed(t *testing.T, store kv.Store, key, value string) {
	t.Helper()
	require.NoError(t, store.Bucket("u1").Set(context.Background(), key, []byte(value)))
}

func TestNextNumber(t *testing.T) {
	require.Equal(t, "Req-No-01", nextNumber(reqNoPrefix, reqNoPattern, nil))
	require.Equal(t, "Req-No-08", nextNumber(reqNoPrefix, reqNoPattern, []string{"Req-No-07", "junk", "Req-No-3", ""}))
	require.Equal(t, "IH-ISS-121", nextNumber(issueNoPrefix, issueNoPattern, []string{"IH-ISS-120"}))
}

func TestIssuedQty(t *testing.T) {
	cases := map[string]float64{
		`{"issueQty":4,"qty":9}`:   4,
		`{"issueQty":0,"qty":9}`:   9,
		`{"qty":"9"}`:              0,
		`{"issueQty":"4","qty":9}`: 0,
		`{}`:                       0,
	}
	for in, want := range cases {
		var item IssueItem
		require.NoError(t, json.Unmarshal([]byte(in), &item))
		require.Equal(t, want, item.IssuedQty(), in)
	}
}

func TestCreateValidatesAndNumbers(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	err := svc.Create(ctx, "u1", json.RawMessage(`{"poNo":"PO-1","reqNo":"Req-No-01","items":[]}`))
	var fields httpx.FieldErrors
	require.ErrorAs(t, err, &fields)
	require.Contains(t, fields, "ReqDate")
	require.Contains(t, fields, "Items")

	err = svc.Create(ctx, "u1", json.RawMessage(`{"reqDate":"2026-01-01","poNo":"PO-1","reqNo":"Req-No-01",
		"items":[{"itemName":"Bolt","itemCode":"X-1","reqBy":"HKG","issueQty":0}]}`))
	require.ErrorAs(t, err, &fields)
	require.Contains(t, fields, "IssueQty")

	require.NoError(t, svc.Create(ctx, "u1", json.RawMessage(`{"reqDate":"2026-01-01","poNo":"PO-1","reqNo":"Req-No-01","note":"keep","issueNo":"ignored",
		"items":[
			{"itemName":"Bolt","itemCode":"X-1","reqBy":"HKG","issueQty":1,"receivedDate":"2026-03-01"},
			{"itemName":"Nut","itemCode":"X-2","reqBy":"HKG","issueQty":2},
			{"itemName":"Pin","itemCode":"X-3","reqBy":"NGR","issueQty":3,"receivedDate":"2026-01-15"}
		]}`)))

	list, err := svc.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	var stored map[string]any
	require.NoError(t, json.Unmarshal(list[0], &stored))
	require.Equal(t, "keep", stored["note"])
	require.Equal(t, "IH-ISS-01", stored["issueNo"])

	issues, err := svc.Issues(ctx, "u1")
	require.NoError(t, err)
	codes := []kv.Text{}
	for _, item := range issues[0].Items {
		codes = append(codes, item.ItemCode)
	}
	require.Equal(t, []kv.Text{"X-2", "X-3", "X-1"}, codes)

	next, err := svc.NextNumbers(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, NextNumbers{ReqNo: "Req-No-02", IssueNo: "IH-ISS-02"}, next)
}

func TestDeleteItemDropsEmptyIssue(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)
	seed(t, store, kv.KeyInHouseIssues, `[{"poNo":"PO-1","items":[{"itemCode":"X-1"},{"itemCode":"X-2"}]}]`)

	require.ErrorIs(t, svc.DeleteItem(ctx, "u1", 0, 5), httpx.ErrNotFound)
	require.ErrorIs(t, svc.DeleteItem(ctx, "u1", 3, 0), httpx.ErrNotFound)

	require.NoError(t, svc.DeleteItem(ctx, "u1", 0, 0))
	issues, err := svc.Issues(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, issues, 1)
	require.Len(t, issues[0].Items, 1)
	require.Equal(t, kv.Text("X-2"), issues[0].Items[0].ItemCode)

	require.NoError(t, svc.DeleteItem(ctx, "u1", 0, 0))
	issues, err = svc.Issues(ctx, "u1")
	require.NoError(t, err)
	require.Empty(t, issues)
}

func TestSyncPurchaseCreatesMissingIssues(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)
	seed(t, store, kv.KeyPurchaseData, `[
		{"poNo":"PO-1","supplierName":"Acme","batchNo":"B1","vendorBatchNo":"VB1","items":[{"model":"M8","itemCode":"X-1","qty":5,"reqBy":"HKG"},{"itemName":"Nut","itemCode":"X-2"}]},
		{"poNo":"PO-1","supplierName":"Acme"},
		{"poNo":"PO-2","supplierName":"Beta"},
		{"poNo":"","supplierName":"Gamma"}
	]`)
	seed(t, store, kv.KeyInHouseIssues, `[{"poNo":"PO-2","issueNo":"IH-ISS-04","items":[]}]`)

	created, err := svc.SyncPurchase(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, 1, created)

	issues, err := svc.Issues(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, issues, 2)
	got := issues[1]
	require.Equal(t, kv.Text("PO-1"), got.PoNo)
	require.Equal(t, kv.Text("IH-ISS-05"), got.IssueNo)
	require.Equal(t, kv.Text("Acme"), got.Vendor)
	require.Equal(t, kv.Text("B1"), got.PurchaseBatchNo)
	require.Equal(t, kv.Text("VB1"), got.VendorBatchNo)
	require.Len(t, got.Items, 2)
	require.Equal(t, kv.Text("M8"), got.Items[0].ItemName)
	require.Equal(t, TypePurchase, got.Items[0].Type())
	require.Equal(t, kv.Text("B1"), got.Items[0].BatchNo)
	require.Equal(t, 5.0, got.Items[0].IssuedQty())
	require.Zero(t, got.Items[1].IssuedQty())

	created, err = svc.SyncPurchase(ctx, "u1")
	require.NoError(t, err)
	require.Zero(t, created)
}

func TestLookups(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)
	seed(t, store, kv.KeyPSIR, `[
		{"batchNo":"B2","items":[{"itemCode":"X-1"}]},
		{"batchNo":"B1","items":[{"Code":"X-1"}]},
		{"batchNo":"B3","items":[{"CodeNo":"X-1"}]},
		{"batchNo":"  ","items":[{"itemCode":"X-1"}]},
		{"batchNo":"B1","items":[{"itemCode":"X-1"}]}
	]`)
	seed(t, store, kv.KeyVSIR, `[{"itemCode":"X-1","vendorBatchNo":"V2"},{"Code":"X-1","vendorBatchNo":"V1"},{"itemCode":"X-2","vendorBatchNo":"V9"}]`)
	seed(t, store, kv.KeyPurchaseData, `[
		{"poNo":"PO-1","supplierName":"Beta","vendorBatchNo":"VB2","reqNo":"R-1"},
		{"poNo":"PO-2","supplierName":"Acme","vendorBatchNo":"VB1"},
		{"poNo":"PO-3","supplierName":"Beta","vendorBatchNo":"VB0"}
	]`)
	seed(t, store, kv.KeyVendorDept, `[{"materialPurchasePoNo":"PO-2","dcNo":"DC-9","items":[]}]`)

	batches, err := svc.BatchNumbers(ctx, "u1", "X-1", TypePurchase)
	require.NoError(t, err)
	require.Equal(t, []string{"B1", "B2"}, batches)

	batches, err = svc.BatchNumbers(ctx, "u1", "X-1", TypeVendor)
	require.NoError(t, err)
	require.Equal(t, []string{"V1", "V2"}, batches)

	batches, err = svc.BatchNumbers(ctx, "u1", "X-1", TypeStock)
	require.NoError(t, err)
	require.Empty(t, batches)

	vendors, err := svc.Vendors(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, []string{"Beta", "Acme"}, vendors)

	batches, err = svc.VendorBatchNumbers(ctx, "u1", "Beta")
	require.NoError(t, err)
	require.Equal(t, []string{"VB0", "VB2"}, batches)

	reqNo, err := svc.ReqNoFor(ctx, "u1", "PO-2")
	require.NoError(t, err)
	require.Equal(t, "DC-9", reqNo)

	reqNo, err = svc.ReqNoFor(ctx, "u1", "PO-1")
	require.NoError(t, err)
	require.Equal(t, "R-1", reqNo)

	reqNo, err = svc.ReqNoFor(ctx, "u1", "PO-404")
	require.NoError(t, err)
	require.Empty(t, reqNo)
}
