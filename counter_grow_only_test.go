package gocrdt

import (
	"errors"
	"testing"
)

func TestGrowOnlyCounterIncrementAccumulatesLocally(t *testing.T) {
	c := NewGrowOnlyCounter[int64](0)
	c.Prepare(NewHandle[int64](func(Action) {}, Reference{Actor: 1, Object: RootObject}))

	if err := c.Increment(3); err != nil {
		t.Fatalf("Increment() error = %v", err)
	}
	if err := c.Increment(4); err != nil {
		t.Fatalf("Increment() error = %v", err)
	}

	if got := c.Get(); got != 7 {
		t.Fatalf("Get() = %v, want 7", got)
	}
}

func TestGrowOnlyCounterRejectsNegativeIncrement(t *testing.T) {
	c := NewGrowOnlyCounter[int64](0)

	err := c.Increment(-1)
	if !errors.Is(err, ErrNegativeIncrement) {
		t.Fatalf("Increment(-1) error = %v, want ErrNegativeIncrement", err)
	}
}

func TestGrowOnlyCounterApplyRejectsNegativeOperand(t *testing.T) {
	c := NewGrowOnlyCounter[int64](0)

	err := c.Apply(Actor(2), -5)
	if !errors.Is(err, ErrNegativeIncrement) {
		t.Fatalf("Apply() error = %v, want ErrNegativeIncrement", err)
	}
}

func TestGrowOnlyCounterApplyReaddsDeltaUnderDuplicateDelivery(t *testing.T) {
	c := NewGrowOnlyCounter[int64](0)
	_ = c.Apply(Actor(2), 5)
	_ = c.Apply(Actor(2), 5)

	// Apply re-adds the same delta on replay, since a grow-only counter's
	// wire operation carries no shard identity of its own to de-duplicate
	// by; convergence across replicas instead relies on Merge, which is
	// the idempotent path (see the next test).
	if got := c.Get(); got != 10 {
		t.Fatalf("Get() = %v, want 10 after two applies of the same delta", got)
	}
}

func TestGrowOnlyCounterMergeIsIdempotent(t *testing.T) {
	a := NewGrowOnlyCounter[int64](0)
	_ = a.Apply(Actor(1), 3)
	_ = a.Apply(Actor(2), 5)

	snapshot := a.Fetch()

	if err := a.Merge(snapshot); err != nil {
		t.Fatalf("Merge() error = %v", err)
	}

	if got := a.Get(); got != 8 {
		t.Fatalf("Get() = %v after merging own snapshot, want unchanged 8", got)
	}
}

func TestGrowOnlyCounterMergeIsCommutativeAndAssociative(t *testing.T) {
	base := func() *GrowOnlyCounter[int64] {
		c := NewGrowOnlyCounter[int64](0)
		_ = c.Apply(Actor(1), 2)
		return c
	}

	stateB := map[Actor]int64{2: 7}
	stateC := map[Actor]int64{3: 11}

	ab := base()
	_ = ab.Merge(stateB)
	_ = ab.Merge(stateC)

	ba := base()
	_ = ba.Merge(stateC)
	_ = ba.Merge(stateB)

	if ab.Get() != ba.Get() {
		t.Fatalf("merge order changed result: %v vs %v", ab.Get(), ba.Get())
	}
}

func TestGrowOnlyCounterPrepareRebindsInvalidActorEntry(t *testing.T) {
	c := NewGrowOnlyCounter[int64](5)

	var dispatched []Action
	handle := NewHandle[int64](func(a Action) { dispatched = append(dispatched, a) }, Reference{Actor: 9, Object: RootObject})

	_ = c.Increment(1) // buffered before binding

	c.Prepare(handle)

	if got := c.Get(); got != 6 {
		t.Fatalf("Get() = %v after rebind, want 6 (5 initial + 1 buffered increment)", got)
	}
	if len(dispatched) != 1 {
		t.Fatalf("expected the buffered increment to flush on Prepare, got %v", dispatched)
	}
}
