package catalog

import (
	"context"
	"fmt"
	"sync"
)

// MemoryRepository is the default catalog backend when no database DSN is
// configured.
type MemoryRepository struct {
	mu      sync.Mutex
	uploads []*Upload
	byID    map[string]struct{}
}

// NewMemoryRepository returns an empty in-memory catalog.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byID: make(map[string]struct{})}
}

func (r *MemoryRepository) Record(_ context.Context, u *Upload) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[u.ID]; ok {
		return fmt.Errorf("upload %s already recorded", u.ID)
	}
	clone := *u
	r.byID[u.ID] = struct{}{}
	r.uploads = append(r.uploads, &clone)
	return nil
}

func (r *MemoryRepository) List(_ context.Context, limit int) ([]*Upload, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if limit <= 0 || limit > len(r.uploads) {
		limit = len(r.uploads)
	}
	// Newest first.
	result := make([]*Upload, 0, limit)
	for i := len(r.uploads) - 1; i >= 0 && len(result) < limit; i-- {
		clone := *r.uploads[i]
		result = append(result, &clone)
	}
	return result, nil
}
