// Package records provides validated, index-addressed editing of one workspace array.
package records

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/acu-erp/acu-erp/internal/kv"
	"github.com/acu-erp/acu-erp/internal/platform/httpx"
)

// Set edits the array stored under one key. Check validates a record before it
// is written; OnWrite runs after every successful write.
type Set[T any] struct {
	coll    kv.Collection[T]
	Check   func(T) error
	OnWrite func(ctx context.Context, workspace string) error
}

// New binds a set to key.
func New[T any](store kv.Store, key string) *Set[T] {
	return &Set[T]{coll: kv.NewCollection[T](store, key)}
}

// Key returns the storage key.
func (s *Set[T]) Key() string {
	return s.coll.Key()
}

// Load returns the decoded records.
func (s *Set[T]) Load(ctx context.Context, workspace string) ([]T, error) {
	return s.coll.Load(ctx, workspace)
}

// List returns the records as stored.
func (s *Set[T]) List(ctx context.Context, workspace string) ([]json.RawMessage, error) {
	return s.coll.Raw(ctx, workspace)
}

// Create appends record.
func (s *Set[T]) Create(ctx context.Context, workspace string, record json.RawMessage) error {
	if err := s.check(record); err != nil {
		return err
	}
	if err := s.coll.Append(ctx, workspace, record); err != nil {
		return mapErr(err)
	}
	return s.written(ctx, workspace)
}

// Update replaces the record at idx.
func (s *Set[T]) Update(ctx context.Context, workspace string, idx int, record json.RawMessage) error {
	if err := s.check(record); err != nil {
		return err
	}
	if err := s.coll.Replace(ctx, workspace, idx, record); err != nil {
		return mapErr(err)
	}
	return s.written(ctx, workspace)
}

// Delete removes the record at idx.
func (s *Set[T]) Delete(ctx context.Context, workspace string, idx int) error {
	if err := s.coll.Remove(ctx, workspace, idx); err != nil {
		return mapErr(err)
	}
	return s.written(ctx, workspace)
}

// ReplaceAll overwrites the whole array.
func (s *Set[T]) ReplaceAll(ctx context.Context, workspace string, records []json.RawMessage) error {
	for _, rec := range records {
		if err := s.check(rec); err != nil {
			return err
		}
	}
	if err := s.coll.SaveRaw(ctx, workspace, records); err != nil {
		return err
	}
	return s.written(ctx, workspace)
}

// SaveAll overwrites the whole array with typed records, skipping Check.
func (s *Set[T]) SaveAll(ctx context.Context, workspace string, items []T) error {
	if err := s.coll.SaveAll(ctx, workspace, items); err != nil {
		return err
	}
	return s.written(ctx, workspace)
}

func (s *Set[T]) check(record json.RawMessage) error {
	var v T
	if err := json.Unmarshal(record, &v); err != nil {
		return fmt.Errorf("%w: %v", httpx.ErrValidation, err)
	}
	if s.Check == nil {
		return nil
	}
	return s.Check(v)
}

func (s *Set[T]) written(ctx context.Context, workspace string) error {
	if s.OnWrite == nil {
		return nil
	}
	return s.OnWrite(ctx, workspace)
}

func mapErr(err error) error {
	if errors.Is(err, kv.ErrIndexOutOfRange) {
		return fmt.Errorf("%w: %v", httpx.ErrNotFound, err)
	}
	if errors.Is(err, kv.ErrMalformed) {
		return fmt.Errorf("%w: %v", httpx.ErrConflict, err)
	}
	return err
}
