// Package usersync mirrors a workspace bucket to a remote per-user document.
package usersync

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"golang.org/x/crypto/blake2b"

	"github.com/acu-erp/acu-erp/internal/kv"
)

// ErrDocumentNotFound reports a user without a remote document.
var ErrDocumentNotFound = errors.New("usersync: document not found")

// Document maps workspace keys to their JSON values.
type Document map[string]json.RawMessage

// Keys returns the document keys in sorted order.
func (d Document) Keys() []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// DocumentStore keeps one document per user.
type DocumentStore interface {
	Get(ctx context.Context, uid string) (Document, error)
	Put(ctx context.Context, uid string, doc Document) error
	// Subscribe calls fn with every document written for uid until ctx is
	// cancelled. It returns once the subscription is in place.
	Subscribe(ctx context.Context, uid string, fn func(Document)) error
}

// collect reads keys from the bucket. Missing keys are left out; a value that
// is not valid JSON is carried as a JSON string.
func collect(ctx context.Context, b kv.Bucket, keys []string) (Document, error) {
	doc := make(Document, len(keys))
	for _, key := range keys {
		raw, err := b.Get(ctx, key)
		if errors.Is(err, kv.ErrKeyNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("usersync: read %s: %w", key, err)
		}
		if json.Valid(raw) {
			doc[key] = json.RawMessage(bytes.TrimSpace(raw))
			continue
		}
		quoted, err := json.Marshal(string(raw))
		if err != nil {
			return nil, err
		}
		doc[key] = quoted
	}
	return doc, nil
}

// apply writes every key of doc into the bucket.
func apply(ctx context.Context, b kv.Bucket, doc Document) error {
	for _, key := range doc.Keys() {
		if err := b.Set(ctx, key, doc[key]); err != nil {
			return fmt.Errorf("usersync: write %s: %w", key, err)
		}
	}
	return nil
}

// fingerprint hashes the canonical encoding of doc.
func fingerprint(doc Document) (string, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range doc.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(key)
		if err != nil {
			return "", err
		}
		buf.Write(name)
		buf.WriteByte(':')
		if err := json.Compact(&buf, doc[key]); err != nil {
			return "", fmt.Errorf("usersync: encode %s: %w", key, err)
		}
	}
	buf.WriteByte('}')
	sum := blake2b.Sum256(buf.Bytes())
	return hex.EncodeToString(sum[:]), nil
}

// syncKeys merges the default keys with the keys present in the bucket.
func syncKeys(ctx context.Context, b kv.Bucket) ([]string, error) {
	present, err := b.Keys(ctx)
	if err != nil {
		return nil, fmt.Errorf("usersync: list keys: %w", err)
	}
	seen := make(map[string]struct{}, len(kv.SyncKeys)+len(present))
	keys := make([]string, 0, len(kv.SyncKeys)+len(present))
	for _, k := range append(append([]string(nil), kv.SyncKeys...), present...) {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	return keys, nil
}
