// Package transit holds submission bundles while their cases are under
// review. The transit store is strictly non-durable: artifacts exist only
// between ingestion and terminal disposition, and nothing is archived.
package transit

import (
	"context"
	"fmt"
	"sync"

	"github.com/telcobench/transit/internal/domain/model"
)

// Store is the contract for transit artifact storage.
type Store interface {
	// Put stores (or replaces) the bundle for a case.
	Put(ctx context.Context, caseID string, b model.Bundle) error

	// Get returns the bundle for a case.
	Get(ctx context.Context, caseID string) (model.Bundle, error)

	// Discard releases the artifact. Discarding an unknown case is a no-op
	// so disposition retries stay safe.
	Discard(ctx context.Context, caseID string) error

	// Count returns the number of artifacts currently held.
	Count(ctx context.Context) int
}

// MemoryStore implements Store with a locked map.
type MemoryStore struct {
	mu      sync.RWMutex
	bundles map[string]model.Bundle
}

// NewMemoryStore creates an empty transit store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{bundles: make(map[string]model.Bundle)}
}

// Put stores the bundle for a case, replacing any previous revision.
func (s *MemoryStore) Put(ctx context.Context, caseID string, b model.Bundle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bundles[caseID] = b
	return nil
}

// Get returns the bundle for a case.
func (s *MemoryStore) Get(ctx context.Context, caseID string) (model.Bundle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bundles[caseID]
	if !ok {
		return model.Bundle{}, fmt.Errorf("case %s: %w", caseID, ErrNotFound)
	}
	return b, nil
}

// Discard releases the artifact for a case.
func (s *MemoryStore) Discard(ctx context.Context, caseID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.bundles, caseID)
	return nil
}

// Count returns the number of artifacts currently held.
func (s *MemoryStore) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.bundles)
}
