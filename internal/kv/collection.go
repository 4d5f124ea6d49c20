package kv

import (
	"context"
	"encoding/json"
)

// Collection is a typed view over the array stored under one key. Reads decode
// leniently into T; writes go through raw elements so fields T does not model
// survive an edit.
type Collection[T any] struct {
	store Store
	key   string
}

// NewCollection binds a collection to key.
func NewCollection[T any](store Store, key string) Collection[T] {
	return Collection[T]{store: store, key: key}
}

// Key returns the storage key.
func (c Collection[T]) Key() string {
	return c.key
}

// Load decodes every object element of the array.
func (c Collection[T]) Load(ctx context.Context, workspace string) ([]T, error) {
	elems, err := c.Raw(ctx, workspace)
	if err != nil {
		return nil, err
	}
	return DecodeObjects[T](elems), nil
}

// Raw returns the stored elements untouched.
func (c Collection[T]) Raw(ctx context.Context, workspace string) ([]json.RawMessage, error) {
	return LoadArray(ctx, c.store.Bucket(workspace), c.key)
}

// SaveAll replaces the array with items.
func (c Collection[T]) SaveAll(ctx context.Context, workspace string, items []T) error {
	if items == nil {
		items = []T{}
	}
	return SaveJSON(ctx, c.store.Bucket(workspace), c.key, items)
}

// SaveRaw replaces the array with elems.
func (c Collection[T]) SaveRaw(ctx context.Context, workspace string, elems []json.RawMessage) error {
	if elems == nil {
		elems = []json.RawMessage{}
	}
	return SaveJSON(ctx, c.store.Bucket(workspace), c.key, elems)
}

// Append adds record at the end of the array.
func (c Collection[T]) Append(ctx context.Context, workspace string, record json.RawMessage) error {
	elems, err := c.Raw(ctx, workspace)
	if err != nil {
		return err
	}
	return c.SaveRaw(ctx, workspace, append(elems, record))
}

// Replace overwrites the element at idx.
func (c Collection[T]) Replace(ctx context.Context, workspace string, idx int, record json.RawMessage) error {
	elems, err := c.Raw(ctx, workspace)
	if err != nil {
		return err
	}
	if idx < 0 || idx >= len(elems) {
		return ErrIndexOutOfRange
	}
	elems[idx] = record
	return c.SaveRaw(ctx, workspace, elems)
}

// Remove deletes the element at idx.
func (c Collection[T]) Remove(ctx context.Context, workspace string, idx int) error {
	elems, err := c.Raw(ctx, workspace)
	if err != nil {
		return err
	}
	if idx < 0 || idx >= len(elems) {
		return ErrIndexOutOfRange
	}
	return c.SaveRaw(ctx, workspace, append(elems[:idx], elems[idx+1:]...))
}
