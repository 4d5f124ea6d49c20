package kv

import (
	"context"
	"log/slog"

	"github.com/acu-erp/acu-erp/internal/events"
)

// NotifyingStore announces every write on the bus as a storage message naming the key.
type NotifyingStore struct {
	inner  Store
	pub    events.Publisher
	logger *slog.Logger
}

// NewNotifyingStore decorates inner.
func NewNotifyingStore(inner Store, pub events.Publisher, logger *slog.Logger) *NotifyingStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &NotifyingStore{inner: inner, pub: pub, logger: logger}
}

// Bucket returns a bucket whose writes are announced.
func (s *NotifyingStore) Bucket(workspace string) Bucket {
	return &notifyingBucket{Bucket: s.inner.Bucket(workspace), workspace: workspace, store: s}
}

// Workspaces delegates to the wrapped store.
func (s *NotifyingStore) Workspaces(ctx context.Context) ([]string, error) {
	return s.inner.Workspaces(ctx)
}

func (s *NotifyingStore) announce(ctx context.Context, workspace, key string) {
	if s.pub == nil {
		return
	}
	msg := events.Message{Workspace: workspace, Topic: events.TopicStorage, Key: key}
	if err := s.pub.Publish(ctx, msg); err != nil {
		s.logger.Warn("kv: announce change", slog.String("workspace", workspace), slog.String("key", key), slog.Any("error", err))
	}
}

type notifyingBucket struct {
	Bucket
	workspace string
	store     *NotifyingStore
}

func (b *notifyingBucket) Set(ctx context.Context, key string, value []byte) error {
	if err := b.Bucket.Set(ctx, key, value); err != nil {
		return err
	}
	b.store.announce(ctx, b.workspace, key)
	return nil
}

func (b *notifyingBucket) Delete(ctx context.Context, key string) error {
	if err := b.Bucket.Delete(ctx, key); err != nil {
		return err
	}
	b.store.announce(ctx, b.workspace, key)
	return nil
}
