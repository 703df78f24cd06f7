package gocrdt

// PNNumeric restricts PNCounter to the signed integer widths: a PN counter
// must be able to represent decrements, so unsigned widths (which
// Incrementable otherwise allows for the grow-only counter) are excluded
// here.
type PNNumeric interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64
}

// PNCounterState is the pair of grow-only counter states a PNCounter merges
// and fetches.
type PNCounterState[T PNNumeric] struct {
	P map[Actor]T
	N map[Actor]T
}

// PNCounter is a positive-negative counter CRDT: a pair of grow-only
// counters, one tracking increments (P) and one tracking decrements (N).
// Its public value is P − N. Its operation type is T itself: a signed delta,
// positive for an increment, negative for a decrement.
type PNCounter[T PNNumeric] struct {
	p *GrowOnlyCounter[T]
	n *GrowOnlyCounter[T]
}

// NewPNCounter constructs an unbound PNCounter at zero.
func NewPNCounter[T PNNumeric]() *PNCounter[T] {
	return &PNCounter[T]{
		p: NewGrowOnlyCounter[T](0),
		n: NewGrowOnlyCounter[T](0),
	}
}

// Get returns the counter's current value, P.Get() − N.Get().
func (c *PNCounter[T]) Get() T {
	return c.p.Get() - c.n.Get()
}

// Add routes by to the P counter if positive, or −by to the N counter if
// negative. Zero is a no-op dispatched to P for consistency with the
// original's "non-negative goes to P" rule.
func (c *PNCounter[T]) Add(by T) error {
	if by < 0 {
		return c.n.Increment(-by)
	}
	return c.p.Increment(by)
}

// Sub is shorthand for Add(-by).
func (c *PNCounter[T]) Sub(by T) error {
	return c.Add(-by)
}

// Apply integrates a remote delta originated at origin, routing by sign
// exactly as Add does locally.
func (c *PNCounter[T]) Apply(origin Actor, op T) error {
	if op < 0 {
		return c.n.Apply(origin, -op)
	}
	return c.p.Apply(origin, op)
}

// Merge merges state into the counter, pointwise per underlying counter.
func (c *PNCounter[T]) Merge(state PNCounterState[T]) error {
	if err := c.p.Merge(state.P); err != nil {
		return err
	}
	return c.n.Merge(state.N)
}

// Fetch returns the pair of underlying counter states.
func (c *PNCounter[T]) Fetch() PNCounterState[T] {
	return PNCounterState[T]{P: c.p.Fetch(), N: c.n.Fetch()}
}

// Prepare binds both underlying counters to handle. P dispatches its
// magnitudes unchanged; N is wrapped in a negatingHandle so that a decrement
// of magnitude m reaches the wire as the signed delta -m, letting a peer's
// Apply recover the sign with the same by-sign routing Add uses locally.
func (c *PNCounter[T]) Prepare(handle Handle[T]) {
	c.p.Prepare(handle)
	c.n.Prepare(negatingHandle[T]{inner: handle})
}

// negatingHandle forwards Dispatch calls to inner with the operation
// negated, and is otherwise a transparent passthrough.
type negatingHandle[T PNNumeric] struct {
	inner Handle[T]
}

func (h negatingHandle[T]) This() Reference {
	return h.inner.This()
}

func (h negatingHandle[T]) Dispatch(op T) {
	h.inner.Dispatch(-op)
}

var _ Replicative[int64, PNCounterState[int64]] = (*PNCounter[int64])(nil)
