// Package kv stores per-workspace JSON blobs keyed by module name.
package kv

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrKeyNotFound reports a key that has never been written.
	ErrKeyNotFound = errors.New("kv: key not found")
	// ErrMalformed reports a value that is not a JSON array.
	ErrMalformed = errors.New("kv: value is not a json array")
	// ErrIndexOutOfRange reports an element index outside the stored array.
	ErrIndexOutOfRange = errors.New("kv: index out of range")
)

// Store hands out buckets, one per workspace.
type Store interface {
	Bucket(workspace string) Bucket
	Workspaces(ctx context.Context) ([]string, error)
}

// Bucket is a flat string to JSON map. Writes to different keys are independent.
type Bucket interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
}

// LoadArray returns the elements stored under key. A missing key is an empty array.
func LoadArray(ctx context.Context, b Bucket, key string) ([]json.RawMessage, error) {
	raw, err := b.Get(ctx, key)
	if errors.Is(err, ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, fmt.Errorf("%w: %s", ErrMalformed, key)
	}
	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, key, err)
	}
	return items, nil
}

// SaveJSON marshals v and writes it under key.
func SaveJSON(ctx context.Context, b Bucket, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("kv: marshal %s: %w", key, err)
	}
	return b.Set(ctx, key, data)
}

func isObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}
