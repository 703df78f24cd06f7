package gocrdt

// LeafOp is the operation type of Leaf. The package never constructs one:
// Leaf has no mutator that could produce one, so Leaf never dispatches an
// operation. It is the closest Go gets to the original Rust
// implementation's uninhabited Void operation type; unlike Void, a caller
// can still build LeafOp{}, and Apply accepts it as a no-op.
type LeafOp struct{}

// Leaf is an immutable wrapper around a value of type T. It is the identity
// element of the CRDT composition: replication never changes it, which
// makes it the natural element type inside a GrowOnlySet.
type Leaf[T any] struct {
	data T
}

// NewLeaf wraps data in a Leaf.
func NewLeaf[T any](data T) *Leaf[T] {
	return &Leaf[T]{data: data}
}

// Get returns the wrapped value.
func (l *Leaf[T]) Get() T {
	return l.data
}

// Apply is vacuously satisfied: LeafOp is never constructed, so this is
// never actually called with a meaningful operation.
func (l *Leaf[T]) Apply(_ Actor, _ LeafOp) error {
	return nil
}

// Merge always fails: a leaf cannot be mutated by a remote snapshot.
func (l *Leaf[T]) Merge(_ T) error {
	return ErrCannotMutateLeaf
}

// Fetch returns the wrapped value.
func (l *Leaf[T]) Fetch() T {
	return l.data
}

// Prepare is a no-op: a leaf never emits operations, so it has nothing to
// bind.
func (l *Leaf[T]) Prepare(_ Handle[LeafOp]) {}

var _ Replicative[LeafOp, string] = (*Leaf[string])(nil)
