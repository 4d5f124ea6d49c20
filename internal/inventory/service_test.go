package inventory

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/acu-erp/acu-erp/internal/events"
	"github.com/acu-erp/acu-erp/internal/inhouse"
	"github.com/acu-erp/acu-erp/internal/kv"
	"github.com/acu-erp/acu-erp/internal/masterdata/items"
	"github.com/acu-erp/acu-erp/internal/procurement"
	"github.com/acu-erp/acu-erp/internal/vendor"
)

type countingRecorder struct {
	mu         sync.Mutex
	recomputed int
	degraded   map[string]int
}

func (r *countingRecorder) Recomputed(rows int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recomputed += rows
}

func (r *countingRecorder) Degraded(source string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.degraded == nil {
		r.degraded = make(map[string]int)
	}
	r.degraded[source]++
}

type fixture struct {
	store   *kv.MemoryStore
	bus     *events.LocalBus
	watcher *Watcher
	metrics *countingRecorder
	service *Service
	items   *items.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := kv.NewMemoryStore()
	bus := events.NewLocalBus()
	proc := procurement.NewService(store, bus, nil)
	vend := vendor.NewService(store)
	sources := ModuleSources{
		Procurement: proc,
		Vendor:      vend,
		InHouse:     inhouse.NewService(store, proc, vend, nil),
	}
	watcher := NewWatcher(nil)
	metrics := &countingRecorder{}
	itemSvc := items.NewService(store)
	engine := NewEngine(sources, watcher, nil, metrics)
	return &fixture{
		store:   store,
		bus:     bus,
		watcher: watcher,
		metrics: metrics,
		service: NewService(engine, store, itemSvc, bus, nil),
		items:   itemSvc,
	}
}

func (f *fixture) seed(t *testing.T, key, value string) {
	t.Helper()
	require.NoError(t, f.store.Bucket("u1").Set(context.Background(), key, []byte(value)))
}

func TestVendorDeptWithoutIssues(t *testing.T) {
	f := newFixture(t)
	f.seed(t, kv.KeyVendorDept, `[{"items":[{"itemCode":"X-1","qty":10,"okQty":8}]}]`)

	rec := f.service.Preview(context.Background(), "u1", Draft{ItemName: "Bolt", ItemCode: "X-1"})
	require.Equal(t, 10.0, rec.VendorQty)
	require.Equal(t, 8.0, rec.VendorOkQty)
}

func TestVendorOkQtyNetsVendorInHouseIssues(t *testing.T) {
	f := newFixture(t)
	f.seed(t, kv.KeyVendorDept, `[{"items":[{"itemCode":"X-1","qty":10,"okQty":8}]}]`)
	f.seed(t, kv.KeyInHouseIssues, `[{"items":[{"itemCode":"X-1","transactionType":"Vendor","issueQty":3}]}]`)

	rec := f.service.Preview(context.Background(), "u1", Draft{ItemName: "Bolt", ItemCode: "X-1"})
	require.Equal(t, 5.0, rec.VendorOkQty)
}

func TestPSIRFallsBackToReceivedQty(t *testing.T) {
	f := newFixture(t)
	f.seed(t, kv.KeyPSIR, `[{"batchNo":"B1","items":[{"itemCode":"X-1","okQty":0,"qtyReceived":20}]}]`)

	b := f.service.Breakdown(context.Background(), "u1", Draft{ItemCode: "X-1"})
	require.Equal(t, 20.0, b.PSIROkQty)
}

func TestVendorIssuedNetsVSIRReceipts(t *testing.T) {
	f := newFixture(t)
	f.seed(t, kv.KeyVendorIssues, `[{"items":[{"itemCode":"X-1","qty":15}]}]`)
	f.seed(t, kv.KeyVSIR, `[{"itemCode":"X-1","okQty":5,"reworkQty":2,"rejectQty":1}]`)

	rec := f.service.Preview(context.Background(), "u1", Draft{ItemName: "Bolt", ItemCode: "X-1"})
	require.Equal(t, 7.0, rec.VendorIssuedQty)
}

func TestUnknownItemIsAllZero(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, kv.KeyVendorDept, `[{"items":[{"itemCode":"X-1","qty":10,"okQty":8}]}]`)

	rec, err := f.service.Submit(ctx, "u1", Draft{ItemName: "Washer", ItemCode: "X-9", StockQty: 4})
	require.NoError(t, err)
	require.NotEmpty(t, rec.ID)
	require.Equal(t, Derived{ClosingStock: 4}, rec.Derived)
}

func TestNettingAcrossModules(t *testing.T) {
	f := newFixture(t)
	f.seed(t, kv.KeyIndents, `[{"items":[{"itemCode":"X-1","qty":12},{"itemCode":"X-1","qty":"3"}]}]`)
	f.seed(t, kv.KeyPurchaseOrders, `[{"items":[{"itemCode":"X-1","qty":6}]},{"itemCode":"X-1","qty":4}]`)
	f.seed(t, kv.KeyVendorDept, `[{"items":[{"itemCode":"X-1","qty":10,"okQty":8}]}]`)
	f.seed(t, kv.KeyPSIR, `[{"batchNo":"B1","items":[{"Item":"bolt","okQty":"20"}]}]`)
	f.seed(t, kv.KeyVendorIssues, `[{"items":[{"itemCode":"X-1","qty":15}]}]`)
	f.seed(t, kv.KeyVSIR, `[{"Code":"X-1","okQty":8}]`)
	f.seed(t, kv.KeyInHouseIssues, `[{"items":[
		{"itemCode":"X-1","transactionType":"Vendor","issueQty":3},
		{"itemCode":"X-1","transactionType":"Purchase","issueQty":0,"qty":2},
		{"itemName":" BOLT ","transactionType":"Stock","issueQty":1}
	]}]`)

	rec := f.service.Preview(context.Background(), "u1", Draft{ItemName: "Bolt", ItemCode: "X-1", StockQty: 4})
	require.Equal(t, Derived{
		IndentQty:        12,
		PurchaseQty:      10,
		VendorQty:        0,
		PurStoreOkQty:    3,
		VendorOkQty:      5,
		InHouseIssuedQty: 6,
		VendorIssuedQty:  7,
		ClosingStock:     11,
	}, rec.Derived)

	b := f.service.Breakdown(context.Background(), "u1", Draft{ItemName: "Bolt", ItemCode: "X-1"})
	require.Equal(t, 5.0, b.InHouseIssuedByCode)
	require.Equal(t, 1.0, b.InHouseIssuedStock)
	require.Empty(t, b.Degraded)
}

func TestNetClampsAtZero(t *testing.T) {
	d := Net(Breakdown{
		PSIROkQty:           1,
		VendorIssuedTotal:   4,
		VSIRReceived:        9,
		VendorDeptSent:      2,
		VendorDeptOkQty:     1,
		InHouseIssuedVendor: 5,
		InHouseIssuedStock:  50,
	}, 3)
	require.Zero(t, d.VendorQty)
	require.Zero(t, d.VendorIssuedQty)
	require.Zero(t, d.PurStoreOkQty)
	require.Zero(t, d.VendorOkQty)
	require.Zero(t, d.ClosingStock)
}

func TestNetAvoidsFloatDrift(t *testing.T) {
	d := Net(Breakdown{PSIROkQty: 0.3, InHouseIssuedPurchase: 0.1}, 0)
	require.Equal(t, 0.2, d.PurStoreOkQty)
}

func TestAggregatesAreIdempotent(t *testing.T) {
	f := newFixture(t)
	f.seed(t, kv.KeyVendorDept, `[{"items":[{"itemCode":"X-1","qty":10,"okQty":8}]}]`)
	f.seed(t, kv.KeyPSIR, `[{"batchNo":"B1","items":[{"itemCode":"X-1","okQty":4}]}]`)

	draft := Draft{ItemName: "Bolt", ItemCode: "X-1", StockQty: 2}
	first := f.service.Preview(context.Background(), "u1", draft)
	second := f.service.Preview(context.Background(), "u1", draft)
	require.Equal(t, first, second)
	require.Equal(t, 2, f.metrics.recomputed)
}

func TestMalformedKeyOnlyZeroesItsSource(t *testing.T) {
	f := newFixture(t)
	f.seed(t, kv.KeyVendorDept, `[{"items":[{"itemCode":"X-1","qty":10,"okQty":8}]}]`)
	f.seed(t, kv.KeyVendorIssues, `{"items":"not an array"}`)
	f.seed(t, kv.KeyIndents, `[{"items":[{"itemCode":"X-1","qty":2}]}, 7, "x"]`)

	b := f.service.Breakdown(context.Background(), "u1", Draft{ItemCode: "X-1"})
	require.Equal(t, 10.0, b.VendorDeptSent)
	require.Equal(t, 2.0, b.IndentQty)
	require.Zero(t, b.VendorIssuedTotal)
	require.Equal(t, []string{kv.KeyVendorIssues}, b.Degraded)
	require.Equal(t, 1, f.metrics.degraded[kv.KeyVendorIssues])
}

func TestDraftPSIRItemsCountUntilPersisted(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.bus.Subscribe(ctx, f.watcher.Handle))
	proc := procurement.NewService(f.store, f.bus, nil)

	var mu sync.Mutex
	var seen []SignalKind
	stop := f.watcher.Subscribe(func(_ context.Context, sig Signal) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, sig.Kind)
	})
	defer stop()

	require.NoError(t, proc.AddDraft(ctx, "u1", procurement.PSIRItem{ItemCode: "X-1", OkQty: kv.NewNumber(5)}))
	require.Equal(t, 5.0, f.service.Breakdown(ctx, "u1", Draft{ItemCode: "X-1"}).PSIROkQty)
	require.Zero(t, f.service.Breakdown(ctx, "u2", Draft{ItemCode: "X-1"}).PSIROkQty)

	require.NoError(t, proc.PSIRs.Create(ctx, "u1", json.RawMessage(`{"batchNo":"B1","items":[{"itemCode":"X-1","okQty":5}]}`)))
	require.Equal(t, 5.0, f.service.Breakdown(ctx, "u1", Draft{ItemCode: "X-1"}).PSIROkQty)
	require.Empty(t, f.watcher.Drafts("u1"))

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []SignalKind{SignalPSIRDraft, SignalPSIRPersisted}, seen)
}

func TestWatcherIgnoresUnwatchedKeys(t *testing.T) {
	w := NewWatcher(nil)
	calls := 0
	w.Subscribe(func(context.Context, Signal) { calls++ })

	w.Handle(context.Background(), events.Message{Workspace: "u1", Topic: events.TopicStorage, Key: kv.KeyItemMaster})
	w.Handle(context.Background(), events.Message{Workspace: "u1", Topic: events.TopicStockUpdated})
	require.Zero(t, calls)

	w.Handle(context.Background(), events.Message{Workspace: "u1", Topic: events.TopicStorage, Key: kv.KeyVSIR})
	require.Equal(t, 1, calls)
}

func TestLedgerLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, kv.KeyVendorDept, `[{"items":[{"itemCode":"X-1","qty":10,"okQty":8}]}]`)

	var published []events.Message
	require.NoError(t, f.bus.Subscribe(ctx, func(_ context.Context, msg events.Message) {
		if msg.Topic == events.TopicStockUpdated {
			published = append(published, msg)
		}
	}))

	_, err := f.service.Submit(ctx, "u1", Draft{ItemName: "  ", ItemCode: "X-1"})
	require.ErrorIs(t, err, ErrItemNameRequired)
	_, err = f.service.Submit(ctx, "u1", Draft{ID: "missing", ItemName: "Bolt"})
	require.ErrorIs(t, err, ErrRecordNotFound)
	require.Empty(t, published)

	created, err := f.service.Submit(ctx, "u1", Draft{ItemName: "Bolt", ItemCode: "X-1", BatchNo: "B1", StockQty: 4})
	require.NoError(t, err)
	require.Equal(t, 12.0, created.ClosingStock)
	require.Len(t, published, 1)

	snapshots, err := f.service.ListSnapshots(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, snapshots, 1)
	require.Equal(t, created, snapshots[0])

	f.seed(t, kv.KeyInHouseIssues, `[{"items":[{"itemCode":"X-1","transactionType":"Vendor","issueQty":3}]}]`)

	live, err := f.service.List(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, 9.0, live[0].ClosingStock)
	snapshots, err = f.service.ListSnapshots(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, 12.0, snapshots[0].ClosingStock)

	editing, err := f.service.Edit(ctx, "u1", created.ID)
	require.NoError(t, err)
	require.Equal(t, created.ID, editing.ID)
	require.Equal(t, 5.0, editing.VendorOkQty)

	draft := editing.Draft()
	draft.StockQty = 6
	updated, err := f.service.Submit(ctx, "u1", draft)
	require.NoError(t, err)
	require.Equal(t, created.ID, updated.ID)
	require.Equal(t, 11.0, updated.ClosingStock)

	snapshots, err = f.service.ListSnapshots(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, snapshots, 1)
	require.Equal(t, 6.0, snapshots[0].StockQty)

	var payload struct {
		Records []StockRecord `json:"records"`
	}
	require.NoError(t, json.Unmarshal(published[len(published)-1].Payload, &payload))
	require.Equal(t, snapshots, payload.Records)

	require.ErrorIs(t, f.service.Delete(ctx, "u1", "missing"), ErrRecordNotFound)
	require.NoError(t, f.service.Delete(ctx, "u1", created.ID))
	snapshots, err = f.service.ListSnapshots(ctx, "u1")
	require.NoError(t, err)
	require.Empty(t, snapshots)
}

func TestLegacyRowsAreReadable(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, kv.KeyStockRecords, `[{"id":1700000000000,"itemName":"Bolt","itemCode":"X-1","stockQty":"4","closingStock":99}, "junk"]`)

	rows, err := f.service.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "1700000000000", rows[0].ID)
	require.Equal(t, 4.0, rows[0].StockQty)
	require.Equal(t, 4.0, rows[0].ClosingStock)

	refreshed, err := f.service.RefreshSnapshots(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, 1, refreshed)

	snapshots, err := f.service.ListSnapshots(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, 4.0, snapshots[0].ClosingStock)

	rec, err := f.service.Edit(ctx, "u1", "1700000000000")
	require.NoError(t, err)
	require.Equal(t, "Bolt", rec.ItemName)
}

func TestResolveItemFromMaster(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.items.Create(ctx, "u1", json.RawMessage(`{"itemName":"Bolt","itemCode":"X-1"}`)))

	draft, err := f.service.ResolveItem(ctx, "u1", Draft{ItemCode: "OLD", StockQty: 3}, "Bolt")
	require.NoError(t, err)
	require.Equal(t, Draft{ItemName: "Bolt", ItemCode: "X-1", StockQty: 3}, draft)

	draft, err = f.service.ResolveItem(ctx, "u1", draft, "Unknown")
	require.NoError(t, err)
	require.Equal(t, "Unknown", draft.ItemName)
	require.Empty(t, draft.ItemCode)
}

func TestBlankCodeIgnoresUncodedLines(t *testing.T) {
	cases := map[string]string{
		"missing": ``,
		"null":    `"itemCode":null,`,
		"empty":   `"itemCode":"",`,
		"object":  `"itemCode":{"v":1},`,
	}
	for name, code := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			f.seed(t, kv.KeyIndents, `[{"items":[{`+code+`"qty":7}]}]`)
			f.seed(t, kv.KeyPurchaseOrders, `[{"items":[{`+code+`"qty":6}]}]`)
			f.seed(t, kv.KeyVendorDept, `[{"items":[{`+code+`"qty":10,"okQty":8}]}]`)
			f.seed(t, kv.KeyVendorIssues, `[{"items":[{`+code+`"qty":4}]}]`)
			f.seed(t, kv.KeyVSIR, `[{`+code+`"okQty":1}]`)
			f.seed(t, kv.KeyPSIR, `[{"items":[{`+code+`"itemName":"Nut","okQty":5}]}]`)
			f.seed(t, kv.KeyInHouseIssues, `[{"items":[{`+code+`"itemName":"Other","transactionType":"Vendor","issueQty":3}]}]`)

			rec := f.service.Preview(context.Background(), "u1", Draft{ItemName: "Bolt"})
			require.Equal(t, Derived{}, rec.Derived)

			b := f.service.Breakdown(context.Background(), "u1", Draft{ItemName: "Bolt"})
			require.Empty(t, b.Degraded)
			b.Degraded = nil
			require.Equal(t, Breakdown{ItemName: "Bolt"}, b)
		})
	}
}

func TestItemMissingFromMasterStaysUnmatched(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.items.Create(ctx, "u1", json.RawMessage(`{"itemName":"Bolt","itemCode":"X-1"}`)))
	f.seed(t, kv.KeyIndents, `[{"items":[{"itemCode":"X-1","qty":12},{"qty":7}]}]`)
	f.seed(t, kv.KeyVendorDept, `[{"items":[{"qty":10,"okQty":8}]}]`)

	draft, err := f.service.ResolveItem(ctx, "u1", Draft{ItemCode: "X-1", StockQty: 2}, "Washer")
	require.NoError(t, err)
	require.Empty(t, draft.ItemCode)

	rec, err := f.service.Submit(ctx, "u1", draft)
	require.NoError(t, err)
	require.Equal(t, Derived{ClosingStock: 2}, rec.Derived)

	bolt := f.service.Preview(ctx, "u1", Draft{ItemName: "Bolt", ItemCode: "X-1"})
	require.Equal(t, 12.0, bolt.IndentQty)
}

func TestPSIRUpdateWithoutListKeepsDrafts(t *testing.T) {
	ctx := context.Background()
	w := NewWatcher(nil)
	var seen []SignalKind
	w.Subscribe(func(_ context.Context, sig Signal) { seen = append(seen, sig.Kind) })

	w.Handle(ctx, events.Message{Workspace: "u1", Topic: events.TopicPSIRUpdated, Payload: json.RawMessage(`{"draftItem":{"itemCode":"X-1","okQty":2}}`)})
	w.Handle(ctx, events.Message{Workspace: "u1", Topic: events.TopicPSIRUpdated, Payload: json.RawMessage(`{}`)})
	w.Handle(ctx, events.Message{Workspace: "u1", Topic: events.TopicPSIRUpdated})
	require.Len(t, w.Drafts("u1"), 1)

	w.Handle(ctx, events.Message{Workspace: "u1", Topic: events.TopicPSIRUpdated, Payload: json.RawMessage(`{"psirs":[]}`)})
	require.Empty(t, w.Drafts("u1"))
	require.Equal(t, []SignalKind{SignalPSIRDraft, SignalStorage, SignalStorage, SignalPSIRPersisted}, seen)
}

func TestNameMatchUsesSimpleLowercase(t *testing.T) {
	require.True(t, newMatcher(" BOLT ", "").match("bolt", ""))
	require.False(t, newMatcher("STRASSE", "").match("straße", ""))
}
