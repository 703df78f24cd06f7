package gocrdt

import (
	"cmp"
	"slices"
)

// SetContainer is the abstract set capability a GrowOnlySet is generic
// over: insert (reporting whether the value was previously absent),
// contains, remove, bulk extend, plus Values and Len. Construction is left
// to each implementation's own constructor. Mirrors
// _examples/original_source/src/set/mod.rs's Set trait over BTreeSet and
// HashSet.
type SetContainer[T any] interface {
	Insert(value T) bool
	Contains(value T) bool
	Remove(value T) bool
	Extend(values []T)
	Values() []T
	Len() int
}

// MapSetContainer is a SetContainer backed by a Go map, the equivalent of
// the original's HashSet<T> implementation — O(1) membership, no ordering
// guarantee on Values().
type MapSetContainer[T comparable] struct {
	data map[T]struct{}
}

// NewMapSetContainer returns an empty map-backed set container.
func NewMapSetContainer[T comparable]() *MapSetContainer[T] {
	return &MapSetContainer[T]{data: make(map[T]struct{})}
}

func (s *MapSetContainer[T]) Insert(value T) bool {
	if _, exists := s.data[value]; exists {
		return false
	}
	s.data[value] = struct{}{}
	return true
}

func (s *MapSetContainer[T]) Contains(value T) bool {
	_, ok := s.data[value]
	return ok
}

func (s *MapSetContainer[T]) Remove(value T) bool {
	if _, ok := s.data[value]; !ok {
		return false
	}
	delete(s.data, value)
	return true
}

func (s *MapSetContainer[T]) Extend(values []T) {
	for _, value := range values {
		s.data[value] = struct{}{}
	}
}

func (s *MapSetContainer[T]) Values() []T {
	values := make([]T, 0, len(s.data))
	for value := range s.data {
		values = append(values, value)
	}
	return values
}

func (s *MapSetContainer[T]) Len() int {
	return len(s.data)
}

// OrderedSetContainer is a SetContainer backed by a sorted slice, the
// equivalent of the original's BTreeSet<T: Ord> implementation: Values()
// returns elements in sorted order, which gives operations like the
// register's deterministic actor-ordering a natural analogue for set
// elements too.
type OrderedSetContainer[T cmp.Ordered] struct {
	data []T
}

// NewOrderedSetContainer returns an empty sorted-slice-backed set
// container.
func NewOrderedSetContainer[T cmp.Ordered]() *OrderedSetContainer[T] {
	return &OrderedSetContainer[T]{}
}

func (s *OrderedSetContainer[T]) Insert(value T) bool {
	idx, found := slices.BinarySearch(s.data, value)
	if found {
		return false
	}
	s.data = slices.Insert(s.data, idx, value)
	return true
}

func (s *OrderedSetContainer[T]) Contains(value T) bool {
	_, found := slices.BinarySearch(s.data, value)
	return found
}

func (s *OrderedSetContainer[T]) Remove(value T) bool {
	idx, found := slices.BinarySearch(s.data, value)
	if !found {
		return false
	}
	s.data = slices.Delete(s.data, idx, idx+1)
	return true
}

func (s *OrderedSetContainer[T]) Extend(values []T) {
	for _, value := range values {
		s.Insert(value)
	}
}

func (s *OrderedSetContainer[T]) Values() []T {
	out := make([]T, len(s.data))
	copy(out, s.data)
	return out
}

func (s *OrderedSetContainer[T]) Len() int {
	return len(s.data)
}

var (
	_ SetContainer[string] = (*MapSetContainer[string])(nil)
	_ SetContainer[string] = (*OrderedSetContainer[string])(nil)
)
