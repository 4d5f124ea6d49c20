package events

import (
	"context"
	"sync"
)

// LocalBus delivers messages synchronously to in-process subscribers.
type LocalBus struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[int]Handler
}

// NewLocalBus builds an empty LocalBus.
func NewLocalBus() *LocalBus {
	return &LocalBus{handlers: make(map[int]Handler)}
}

// Publish calls every subscriber in the caller's goroutine.
func (b *LocalBus) Publish(ctx context.Context, msg Message) error {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.handlers))
	for _, h := range b.handlers {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()
	for _, h := range handlers {
		h(ctx, msg)
	}
	return nil
}

// Subscribe registers h until ctx is done.
func (b *LocalBus) Subscribe(ctx context.Context, h Handler) error {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.handlers[id] = h
	b.mu.Unlock()
	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.handlers, id)
		b.mu.Unlock()
	}()
	return nil
}
