package dedup

import (
	"context"
	"sync"

	"github.com/isaiahsam/STDISCM-P3/internal/fingerprint"
)

// MemoryIndex keeps admitted fingerprints in process memory. History does not
// survive a restart; that is the documented behavior, not a defect.
type MemoryIndex struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewMemoryIndex returns an empty in-memory index.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{seen: make(map[string]struct{})}
}

func (i *MemoryIndex) Contains(_ context.Context, fp []byte) (bool, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	_, ok := i.seen[fingerprint.Hex(fp)]
	return ok, nil
}

func (i *MemoryIndex) TryMark(_ context.Context, fp []byte) (bool, error) {
	key := fingerprint.Hex(fp)
	i.mu.Lock()
	defer i.mu.Unlock()
	if _, ok := i.seen[key]; ok {
		return false, nil
	}
	i.seen[key] = struct{}{}
	return true, nil
}

func (i *MemoryIndex) Unmark(_ context.Context, fp []byte) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	delete(i.seen, fingerprint.Hex(fp))
	return nil
}

// Len reports the number of marked fingerprints.
func (i *MemoryIndex) Len() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.seen)
}
