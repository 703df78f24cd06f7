package gocrdt

import (
	"sort"
	"sync"
)

// RegisterOp is what a Register dispatches on every local Set: the freshly
// minted shard, the new data, and the set of shards displaced by this set
// (the "removal set" from spec.md §4.8).
type RegisterOp[T any] struct {
	Shard   Shard
	Data    T
	Removed []Shard
}

type registerValue[T any] struct {
	data   T
	latest Moment
}

// Register is a multi-value last-writer-wins register: a per-actor map of
// values with causal removals, tolerant of concurrent Set calls on
// different replicas (spec.md §4.8).
type Register[T any] struct {
	mu      sync.RWMutex
	content map[Actor]registerValue[T]
	clock   *Clock
	local   Actor
	cache   *SingleCache[RegisterOp[T]]
}

// NewRegister constructs an unbound register holding data under the invalid
// actor.
func NewRegister[T any](data T) *Register[T] {
	clock := NewClock()
	latest := clock.Mint(InvalidActor).Moment
	return &Register[T]{
		content: map[Actor]registerValue[T]{
			InvalidActor: {data: data, latest: latest},
		},
		clock: clock,
		local: InvalidActor,
		cache: NewSingleCache[RegisterOp[T]](),
	}
}

// Get returns one of the register's current values, deterministically: the
// entry belonging to the lowest-numbered actor. When only one branch is
// live (the common case once concurrent writes have converged) this is
// simply that branch's value.
func (r *Register[T]) Get() T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.content[r.firstActorLocked()].data
}

// Content returns every surviving concurrent value, keyed by the actor that
// wrote it — the defining multi-value property of this register (spec.md
// §4.8's "Rationale").
func (r *Register[T]) Content() map[Actor]T {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[Actor]T, len(r.content))
	for actor, value := range r.content {
		out[actor] = value.data
	}
	return out
}

func (r *Register[T]) firstActorLocked() Actor {
	var first Actor
	have := false
	for actor := range r.content {
		if !have || actor < first {
			first = actor
			have = true
		}
	}
	return first
}

// Set performs a local mutation: mints a fresh shard, replaces content with
// the singleton {local: data}, and dispatches an operation carrying the
// shards of every value it displaced as a removal set.
func (r *Register[T]) Set(data T) {
	r.mu.Lock()
	shard := r.clock.Mint(r.local)

	removed := make([]Shard, 0, len(r.content))
	for actor, value := range r.content {
		if actor == r.local {
			continue
		}
		removed = append(removed, Shard{Actor: actor, Moment: value.latest})
	}
	sort.Slice(removed, func(i, j int) bool { return removed[i].Actor < removed[j].Actor })

	r.content = map[Actor]registerValue[T]{
		r.local: {data: data, latest: shard.Moment},
	}
	r.mu.Unlock()

	r.cache.Dispatch(RegisterOp[T]{Shard: shard, Data: data, Removed: removed})
}

// Apply integrates a remote Set. Every shard in op.Removed whose local
// value hasn't advanced past it is dropped (a newer local or concurrent
// observation always wins over a removal); op.Shard itself is recorded in
// the clock and installed unless the existing entry for that actor is
// already at least as new.
func (r *Register[T]) Apply(_ Actor, op RegisterOp[T]) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, removedShard := range op.Removed {
		if existing, ok := r.content[removedShard.Actor]; ok && existing.latest <= removedShard.Moment {
			delete(r.content, removedShard.Actor)
		}
	}

	r.clock.Insert(op.Shard)

	candidate := registerValue[T]{data: op.Data, latest: op.Shard.Moment}
	if existing, ok := r.content[op.Shard.Actor]; !ok || existing.latest < op.Shard.Moment {
		r.content[op.Shard.Actor] = candidate
	}
	return nil
}

// RegisterState is the snapshot exchanged by Merge/Fetch: one value per
// actor, the latest moment it was written at.
type RegisterState[T any] map[Actor]registerEntry[T]

type registerEntry[T any] struct {
	Data   T
	Latest Moment
}

// Merge performs the conservative pointwise-by-actor reconciliation named in
// spec.md §9's open question on register merge: for each actor, keep
// whichever of the local/remote entry has the higher latest moment. Both
// sides key an entry by the actor that wrote it, so a genuine tie (same
// actor, same moment) can only arise from the same shard observed twice —
// the data must already be identical, making "ties broken by actor id"
// moot; the existing entry is kept as a harmless, deterministic default.
// Register.Merge never actually fails in this implementation; it returns
// error only to satisfy the Replicative contract's shape for callers that
// branch on err != nil.
func (r *Register[T]) Merge(state RegisterState[T]) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for actor, remote := range state {
		if existing, ok := r.content[actor]; !ok || existing.latest < remote.Latest {
			r.content[actor] = registerValue[T]{data: remote.Data, latest: remote.Latest}
		}
		r.clock.Insert(Shard{Actor: actor, Moment: remote.Latest})
	}
	return nil
}

// Fetch returns the register's full multi-value state.
func (r *Register[T]) Fetch() RegisterState[T] {
	r.mu.RLock()
	defer r.mu.RUnlock()

	state := make(RegisterState[T], len(r.content))
	for actor, value := range r.content {
		state[actor] = registerEntry[T]{Data: value.data, Latest: value.latest}
	}
	return state
}

// Prepare binds the register to a replicant handle: rewrites the local
// actor, rebinds the clock and any invalid-actor content entry, and flushes
// the cache (which rewrites a buffered Set's shard actor too).
func (r *Register[T]) Prepare(handle Handle[RegisterOp[T]]) {
	r.mu.Lock()
	this := handle.This().Actor
	r.local = this
	r.clock.Rebind(this)
	if value, ok := r.content[InvalidActor]; ok {
		delete(r.content, InvalidActor)
		r.content[this] = value
	}
	r.mu.Unlock()

	r.cache.Prepare(rebindingHandle[RegisterOp[T]]{
		inner:  handle,
		rebind: func(op RegisterOp[T]) RegisterOp[T] {
			if op.Shard.Actor == InvalidActor {
				op.Shard.Actor = this
			}
			return op
		},
	})
}

// rebindingHandle forwards Dispatch through inner after applying rebind to
// the operation — used by Register.Prepare to rewrite a cached Set's
// invalid-actor shard at flush time, per spec.md §4.2's "rewriting each
// operation's shard actor from invalid to the handle's actor" rule.
type rebindingHandle[Op any] struct {
	inner  Handle[Op]
	rebind func(Op) Op
}

func (h rebindingHandle[Op]) This() Reference {
	return h.inner.This()
}

func (h rebindingHandle[Op]) Dispatch(op Op) {
	h.inner.Dispatch(h.rebind(op))
}

var _ Replicative[RegisterOp[string], RegisterState[string]] = (*Register[string])(nil)
