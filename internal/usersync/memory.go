package usersync

import (
	"context"
	"encoding/json"
	"sync"
)

// MemoryDocumentStore keeps documents in process memory. Subscribers are
// called synchronously from Put.
type MemoryDocumentStore struct {
	mu     sync.Mutex
	docs   map[string]Document
	subs   map[string]map[int]func(Document)
	nextID int
}

// NewMemoryDocumentStore builds an empty store.
func NewMemoryDocumentStore() *MemoryDocumentStore {
	return &MemoryDocumentStore{
		docs: make(map[string]Document),
		subs: make(map[string]map[int]func(Document)),
	}
}

func (s *MemoryDocumentStore) Get(_ context.Context, uid string) (Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[uid]
	if !ok {
		return nil, ErrDocumentNotFound
	}
	return cloneDocument(doc), nil
}

func (s *MemoryDocumentStore) Put(_ context.Context, uid string, doc Document) error {
	s.mu.Lock()
	s.docs[uid] = cloneDocument(doc)
	fns := make([]func(Document), 0, len(s.subs[uid]))
	for _, fn := range s.subs[uid] {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(cloneDocument(doc))
	}
	return nil
}

func (s *MemoryDocumentStore) Subscribe(ctx context.Context, uid string, fn func(Document)) error {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	if s.subs[uid] == nil {
		s.subs[uid] = make(map[int]func(Document))
	}
	s.subs[uid][id] = fn
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.subs[uid], id)
		s.mu.Unlock()
	}()
	return nil
}

func cloneDocument(doc Document) Document {
	out := make(Document, len(doc))
	for k, v := range doc {
		out[k] = append(json.RawMessage(nil), v...)
	}
	return out
}
