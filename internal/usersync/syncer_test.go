package usersync

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/acu-erp/acu-erp/internal/kv"
)

type countingDocs struct {
	*MemoryDocumentStore
	mu     sync.Mutex
	puts   int
	putErr error
}

func (c *countingDocs) Put(ctx context.Context, uid string, doc Document) error {
	c.mu.Lock()
	c.puts++
	err := c.putErr
	c.mu.Unlock()
	if err != nil {
		return err
	}
	return c.MemoryDocumentStore.Put(ctx, uid, doc)
}

func (c *countingDocs) putCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.puts
}

func newSyncer(store kv.Store, docs DocumentStore) *Syncer {
	return &Syncer{
		uid:      "u1",
		bucket:   store.Bucket("u1"),
		docs:     docs,
		interval: time.Hour,
		logger:   slog.Default(),
		metrics:  nopRecorder{},
	}
}

func TestLoadCreatesRemoteFromLocal(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	b := store.Bucket("u1")
	require.NoError(t, b.Set(ctx, kv.KeyPSIR, []byte(`[{"batchNo":"B1"}]`)))
	require.NoError(t, b.Set(ctx, "theme", []byte(`dark`)))
	docs := &countingDocs{MemoryDocumentStore: NewMemoryDocumentStore()}

	s := newSyncer(store, docs)
	require.NoError(t, s.load(ctx))
	require.Equal(t, 1, docs.putCount())

	remote, err := docs.Get(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, []string{kv.KeyPSIR, "theme"}, remote.Keys())
	require.JSONEq(t, `[{"batchNo":"B1"}]`, string(remote[kv.KeyPSIR]))
	require.Equal(t, `"dark"`, string(remote["theme"]))

	require.NoError(t, s.checkAndSave(ctx))
	require.Equal(t, 1, docs.putCount())
}

func TestLoadAppliesExistingRemote(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	b := store.Bucket("u1")
	require.NoError(t, b.Set(ctx, kv.KeyVSIR, []byte(`[{"itemCode":"OLD"}]`)))
	docs := &countingDocs{MemoryDocumentStore: NewMemoryDocumentStore()}
	require.NoError(t, docs.MemoryDocumentStore.Put(ctx, "u1", Document{
		kv.KeyVSIR: json.RawMessage(`[{"itemCode":"X-1"}]`),
	}))

	s := newSyncer(store, docs)
	require.NoError(t, s.load(ctx))
	require.Zero(t, docs.putCount())

	raw, err := b.Get(ctx, kv.KeyVSIR)
	require.NoError(t, err)
	require.JSONEq(t, `[{"itemCode":"X-1"}]`, string(raw))

	require.NoError(t, s.checkAndSave(ctx))
	require.Zero(t, docs.putCount())

	require.NoError(t, b.Set(ctx, kv.KeyStockRecords, []byte(`[]`)))
	require.NoError(t, s.checkAndSave(ctx))
	require.Equal(t, 1, docs.putCount())
	remote, err := docs.Get(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, []string{kv.KeyStockRecords, kv.KeyVSIR}, remote.Keys())
}

func TestFailedSaveIsRetried(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	docs := &countingDocs{MemoryDocumentStore: NewMemoryDocumentStore()}
	s := newSyncer(store, docs)
	require.NoError(t, s.load(ctx))

	require.NoError(t, store.Bucket("u1").Set(ctx, kv.KeyIndents, []byte(`[{"items":[]}]`)))
	docs.putErr = errors.New("offline")
	require.Error(t, s.checkAndSave(ctx))

	docs.putErr = nil
	require.NoError(t, s.checkAndSave(ctx))
	remote, err := docs.Get(ctx, "u1")
	require.NoError(t, err)
	require.Contains(t, remote, kv.KeyIndents)
}

func TestFingerprintIgnoresLayout(t *testing.T) {
	a, err := fingerprint(Document{"b": json.RawMessage(`[1, 2]`), "a": json.RawMessage(`{"x": 1}`)})
	require.NoError(t, err)
	b, err := fingerprint(Document{"a": json.RawMessage(`{"x":1}`), "b": json.RawMessage(`[1,2]`)})
	require.NoError(t, err)
	require.Equal(t, a, b)

	c, err := fingerprint(Document{"a": json.RawMessage(`{"x":2}`), "b": json.RawMessage(`[1,2]`)})
	require.NoError(t, err)
	require.NotEqual(t, a, c)
}

func TestManagerMirrorsBothWays(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	docs := NewMemoryDocumentStore()
	m := NewManager(store, docs, 10*time.Millisecond, nil, nil)

	require.True(t, m.Start("u1"))
	require.False(t, m.Start("u1"))
	require.True(t, m.Running("u1"))

	require.Eventually(t, func() bool {
		docs.mu.Lock()
		defer docs.mu.Unlock()
		return len(docs.subs["u1"]) > 0
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, store.Bucket("u1").Set(ctx, kv.KeyItemMaster, []byte(`[{"itemName":"Bolt"}]`)))
	require.Eventually(t, func() bool {
		doc, err := docs.Get(ctx, "u1")
		return err == nil && doc[kv.KeyItemMaster] != nil
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, docs.Put(ctx, "u1", Document{kv.KeyItemMaster: json.RawMessage(`[{"itemName":"Nut"}]`)}))
	raw, err := store.Bucket("u1").Get(ctx, kv.KeyItemMaster)
	require.NoError(t, err)
	require.JSONEq(t, `[{"itemName":"Nut"}]`, string(raw))

	require.True(t, m.Stop("u1"))
	require.False(t, m.Stop("u1"))
	require.False(t, m.Running("u1"))
	m.StopAll()
}
