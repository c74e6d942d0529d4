// Package store provides lookup of safety policies by id. The gating core
// only consumes the Store interface; policy authoring and CRUD live outside
// this repository.
package store

import (
	"context"
	"sync"

	"github.com/openvault/openvault/internal/policy"
)

// Store resolves active safety policies by id.
type Store interface {
	// ActiveByID returns the active policy with the given id, or nil when the
	// id is unknown or the policy is inactive. A nil policy is not an error;
	// callers fall back to the unmodified analyzer verdict.
	ActiveByID(ctx context.Context, id string) (*policy.SafetyPolicy, error)
}

// MemoryStore is an in-memory Store, used in tests and for statically
// configured deployments.
type MemoryStore struct {
	mu       sync.RWMutex
	policies map[string]*policy.SafetyPolicy
}

// NewMemoryStore creates a MemoryStore holding the given policies.
func NewMemoryStore(policies ...*policy.SafetyPolicy) *MemoryStore {
	s := &MemoryStore{
		policies: make(map[string]*policy.SafetyPolicy, len(policies)),
	}
	for _, p := range policies {
		s.policies[p.ID] = p
	}
	return s
}

// Put adds or replaces a policy.
func (s *MemoryStore) Put(p *policy.SafetyPolicy) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.policies[p.ID] = p
}

// ActiveByID returns the active policy with the given id, or nil.
func (s *MemoryStore) ActiveByID(ctx context.Context, id string) (*policy.SafetyPolicy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.policies[id]
	if !ok || !p.IsActive {
		return nil, nil
	}
	return p, nil
}
