package access

import (
	"context"
	"sync"
)

// MemoryProfileRepository keeps profiles in process. It backs test mode.
type MemoryProfileRepository struct {
	mu       sync.RWMutex
	profiles map[string]Profile
}

// NewMemoryProfileRepository builds an empty repository.
func NewMemoryProfileRepository() *MemoryProfileRepository {
	return &MemoryProfileRepository{profiles: make(map[string]Profile)}
}

// Get returns the profile for uid.
func (r *MemoryProfileRepository) Get(_ context.Context, uid string) (Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.profiles[uid]
	if !ok {
		return Profile{}, ErrProfileNotFound
	}
	return p, nil
}

// Create stores p unless a profile for its uid exists.
func (r *MemoryProfileRepository) Create(_ context.Context, p Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.profiles[p.UID]; ok {
		return ErrProfileExists
	}
	r.profiles[p.UID] = p
	return nil
}
