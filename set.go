package gocrdt

import "sync"

// GrowOnlySet is a union-semilattice CRDT over an abstract SetContainer: a
// set that only ever grows, converging by union. Elements are typically
// the payload of a Leaf (spec.md §4.4 calls the leaf "the identity element
// of the CRDT composition: it serves as the element type inside sets") —
// this type stores the leaf's wrapped value directly rather than the Leaf
// itself, since the set's own convergence (equality/ordering of elements)
// has to operate on the payload, not on a pointer to a wrapper around it.
type GrowOnlySet[T any] struct {
	mu        sync.RWMutex
	container SetContainer[T]
	cache     *SequenceCache[T]
}

// NewGrowOnlySet wraps container in an unbound GrowOnlySet.
func NewGrowOnlySet[T any](container SetContainer[T]) *GrowOnlySet[T] {
	return &GrowOnlySet[T]{
		container: container,
		cache:     NewSequenceCache[T](),
	}
}

// Insert adds value to the set. If the container reports it as genuinely
// new, the insertion is dispatched as an operation; a duplicate insert is a
// silent no-op, which is what keeps Apply idempotent on replay.
func (s *GrowOnlySet[T]) Insert(value T) bool {
	s.mu.Lock()
	isNew := s.container.Insert(value)
	s.mu.Unlock()

	if isNew {
		s.cache.Dispatch(value)
	}
	return isNew
}

// Contains reports whether value is a member of the set.
func (s *GrowOnlySet[T]) Contains(value T) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.container.Contains(value)
}

// Values returns every member currently in the set.
func (s *GrowOnlySet[T]) Values() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.container.Values()
}

// Apply integrates a remote insertion. Duplicates are silently absorbed by
// the underlying container.
func (s *GrowOnlySet[T]) Apply(_ Actor, op T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.container.Insert(op)
	return nil
}

// Merge unions state into the set.
func (s *GrowOnlySet[T]) Merge(state []T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.container.Extend(state)
	return nil
}

// Fetch returns every member currently in the set.
func (s *GrowOnlySet[T]) Fetch() []T {
	return s.Values()
}

// Prepare binds the set to a replicant handle and flushes buffered
// insertions. A set never stores anything under the invalid actor — its
// operations carry no shard of their own — so there is nothing to rebind
// beyond the cache flush itself.
func (s *GrowOnlySet[T]) Prepare(handle Handle[T]) {
	s.cache.Prepare(handle)
}

var _ Replicative[string, []string] = (*GrowOnlySet[string])(nil)
