package gocrdt

import "testing"

func TestRegisterSetAndGet(t *testing.T) {
	r := NewRegister("initial")

	var dispatched []Action
	handle := NewHandle[RegisterOp[string]](func(a Action) { dispatched = append(dispatched, a) }, Reference{Actor: 1, Object: RootObject})
	r.Prepare(handle)

	r.Set("updated")

	if got := r.Get(); got != "updated" {
		t.Fatalf("Get() = %q, want %q", got, "updated")
	}
	if len(dispatched) != 1 {
		t.Fatalf("expected exactly one dispatched Set, got %v", dispatched)
	}
}

func TestRegisterConcurrentSetsProduceMultiValue(t *testing.T) {
	// Two replicas both Set concurrently from the same starting content;
	// neither has observed the other's shard, so after exchanging
	// operations both values should survive as concurrent branches.
	a := NewRegister("seed")
	b := NewRegister("seed")

	var opFromA, opFromB RegisterOp[string]
	a.Prepare(NewHandle[RegisterOp[string]](func(action Action) {
		opFromA = action.Payload.(RegisterOp[string])
	}, Reference{Actor: 1, Object: RootObject}))
	b.Prepare(NewHandle[RegisterOp[string]](func(action Action) {
		opFromB = action.Payload.(RegisterOp[string])
	}, Reference{Actor: 2, Object: RootObject}))

	a.Set("from-a")
	b.Set("from-b")

	if err := a.Apply(Actor(2), opFromB); err != nil {
		t.Fatalf("a.Apply() error = %v", err)
	}
	if err := b.Apply(Actor(1), opFromA); err != nil {
		t.Fatalf("b.Apply() error = %v", err)
	}

	contentA := a.Content()
	contentB := b.Content()

	if len(contentA) != 2 {
		t.Fatalf("a.Content() = %v, want two concurrent branches", contentA)
	}
	if len(contentB) != 2 {
		t.Fatalf("b.Content() = %v, want two concurrent branches", contentB)
	}
	if contentA[Actor(1)] != "from-a" || contentA[Actor(2)] != "from-b" {
		t.Fatalf("a.Content() = %v, want {1:from-a, 2:from-b}", contentA)
	}
}

func TestRegisterSubsequentSetResolvesConcurrentBranches(t *testing.T) {
	a := NewRegister("seed")
	b := NewRegister("seed")

	var opFromA, opFromB RegisterOp[string]
	a.Prepare(NewHandle[RegisterOp[string]](func(action Action) {
		opFromA = action.Payload.(RegisterOp[string])
	}, Reference{Actor: 1, Object: RootObject}))
	b.Prepare(NewHandle[RegisterOp[string]](func(action Action) {
		opFromB = action.Payload.(RegisterOp[string])
	}, Reference{Actor: 2, Object: RootObject}))

	a.Set("from-a")
	b.Set("from-b")

	_ = a.Apply(Actor(2), opFromB)
	_ = b.Apply(Actor(1), opFromA)

	// a now observes both branches; a fresh local Set should remove them
	// both, leaving a single resolved value.
	var opResolve RegisterOp[string]
	a.Prepare(NewHandle[RegisterOp[string]](func(action Action) {
		opResolve = action.Payload.(RegisterOp[string])
	}, Reference{Actor: 1, Object: RootObject}))
	a.Set("resolved")

	if got := a.Content(); len(got) != 1 || got[Actor(1)] != "resolved" {
		t.Fatalf("a.Content() = %v, want a single resolved branch", got)
	}

	if err := b.Apply(Actor(1), opResolve); err != nil {
		t.Fatalf("b.Apply() error = %v", err)
	}
	if got := b.Content(); len(got) != 1 || got[Actor(1)] != "resolved" {
		t.Fatalf("b.Content() = %v, want the resolution to remove b's own branch too", got)
	}
}

func TestRegisterApplyIsIdempotent(t *testing.T) {
	a := NewRegister("seed")
	var op RegisterOp[string]
	a.Prepare(NewHandle[RegisterOp[string]](func(action Action) {
		op = action.Payload.(RegisterOp[string])
	}, Reference{Actor: 1, Object: RootObject}))
	a.Set("value")

	b := NewRegister("seed")
	b.Prepare(NewHandle[RegisterOp[string]](func(Action) {}, Reference{Actor: 2, Object: RootObject}))

	_ = b.Apply(Actor(1), op)
	_ = b.Apply(Actor(1), op)

	if got := b.Get(); got != "value" {
		t.Fatalf("Get() = %q, want %q after duplicate apply", got, "value")
	}
	// a's op removes nothing (a never observed b's seed), so b holds a's
	// branch beside its own; the duplicate apply must not add a third.
	if got := b.Content(); len(got) != 2 || got[Actor(1)] != "value" || got[Actor(2)] != "seed" {
		t.Fatalf("Content() = %v, want {1:value, 2:seed} after duplicate apply", got)
	}
}

func TestRegisterMergeIsIdempotent(t *testing.T) {
	a := NewRegister("seed")
	a.Prepare(NewHandle[RegisterOp[string]](func(Action) {}, Reference{Actor: 1, Object: RootObject}))
	a.Set("value")

	snapshot := a.Fetch()
	if err := a.Merge(snapshot); err != nil {
		t.Fatalf("Merge() error = %v", err)
	}

	if got := a.Get(); got != "value" {
		t.Fatalf("Get() = %q after merging own snapshot, want unchanged %q", got, "value")
	}
}

func TestRegisterPrepareFlushesBufferedSet(t *testing.T) {
	r := NewRegister("seed")
	r.Set("buffered") // before binding

	var dispatched []Action
	handle := NewHandle[RegisterOp[string]](func(a Action) { dispatched = append(dispatched, a) }, Reference{Actor: 4, Object: RootObject})
	r.Prepare(handle)

	if len(dispatched) != 1 {
		t.Fatalf("expected the buffered Set to flush on Prepare, got %v", dispatched)
	}
	if dispatched[0].Payload.(RegisterOp[string]).Shard.Actor != Actor(4) {
		t.Fatalf("expected the flushed op's shard actor to be rebound to 4, got %+v", dispatched[0].Payload)
	}
}

// TestRegisterThreeSetsBeforeBindingCollapseToOne mirrors spec.md's
// "set three times before binding" scenario: the register's single-slot
// cache means only the latest Set survives to flush once bound.
func TestRegisterThreeSetsBeforeBindingCollapseToOne(t *testing.T) {
	r := NewRegister("seed")
	r.Set("p")
	r.Set("q")
	r.Set("p")

	var dispatched []Action
	handle := NewHandle[RegisterOp[string]](func(a Action) { dispatched = append(dispatched, a) }, Reference{Actor: 7, Object: RootObject})
	r.Prepare(handle)

	if len(dispatched) != 1 {
		t.Fatalf("expected exactly one flushed action, got %d: %v", len(dispatched), dispatched)
	}
	op := dispatched[0].Payload.(RegisterOp[string])
	if op.Shard.Actor != Actor(7) {
		t.Fatalf("op.Shard.Actor = %v, want 7", op.Shard.Actor)
	}
	if op.Data != "p" {
		t.Fatalf("op.Data = %q, want the latest value %q", op.Data, "p")
	}
}
