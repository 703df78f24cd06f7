// Package gocrdt provides a suite of Conflict-free Replicated Data Types
// (CRDTs) — a last-writer-wins register, grow-only and positive-negative
// counters, a grow-only set, and an immutable leaf — together with a small
// replication runtime that wires them to a network of peers through typed
// operation streams.
//
// Every CRDT in this package satisfies Replicative: apply an operation,
// merge a remote snapshot, fetch the current state, and prepare (bind) to a
// replicant. Values are fully usable before binding — mutations simply
// accumulate in a pre-attachment cache until a Replicant claims them.
package gocrdt

import (
	"fmt"

	"golang.org/x/xerrors"
)

// Object is a 32-bit identifier scoped to a replicant, naming an individual
// CRDT instance within a process.
type Object uint32

// RootObject is the object id assigned to the first CRDT bound by a
// replicant.
const RootObject Object = 1

// Reference is the network-wide address of a specific CRDT instance on a
// specific replica.
type Reference struct {
	Actor  Actor
	Object Object
}

// String implements fmt.Stringer.
func (r Reference) String() string {
	return fmt.Sprintf("ref(%s, object(%d))", r.Actor, uint32(r.Object))
}

// Action is the unit of inter-replicant traffic: an operation addressed to a
// target CRDT instance. Payload is an opaque carrier of some CRDT's Op type;
// the runtime recovers its concrete type by matching on Target.
type Action struct {
	Target  Reference
	Payload any
}

// Replicative is the capability set every CRDT in this package satisfies.
// Op is the type apply consumes; State is the type merge/fetch exchange.
//
//   - Apply must be deterministic and commutative across operations from
//     distinct shards, and idempotent when the shard is already known.
//   - Merge must be commutative, associative, and idempotent (a semilattice
//     join).
//   - Fetch must be a pure query.
//   - Prepare binds the value to a replicant handle, flushing any operations
//     buffered before binding.
type Replicative[Op any, State any] interface {
	Apply(origin Actor, op Op) error
	Merge(state State) error
	Fetch() State
	Prepare(handle Handle[Op])
}

// Handle is held by a bound CRDT and forwards every mutation it produces to
// the replicant that owns it. It is an interface rather than a concrete
// type so that a composite CRDT (PNCounter) can wrap one in an adapter that
// transforms an operation before it reaches the real channel — the same
// role the original Rust crate's generic "H: Handle<T>" trait bound played.
type Handle[Op any] interface {
	// This returns the reference this handle dispatches on behalf of.
	This() Reference

	// Dispatch enqueues op as an Action addressed to This(). It never
	// blocks: the underlying outbound channel is unbounded for the
	// lifetime of the replicant that owns it.
	Dispatch(op Op)
}

// channelHandle is the concrete Handle a Replicant mints: a non-blocking
// send onto its outbound queue.
type channelHandle[Op any] struct {
	send func(Action)
	ref  Reference
}

// NewHandle constructs a Handle that dispatches by calling send, addressed
// to ref. send must not block — a Replicant passes the enqueue side of its
// unbounded outbound channel here.
func NewHandle[Op any](send func(Action), ref Reference) Handle[Op] {
	return channelHandle[Op]{send: send, ref: ref}
}

func (h channelHandle[Op]) This() Reference {
	return h.ref
}

func (h channelHandle[Op]) Dispatch(op Op) {
	h.send(Action{Target: h.ref, Payload: op})
}

// Error sentinels for the domain-rule-violation error kind (spec.md §7).
// Declared with golang.org/x/xerrors and returned unwrapped, so callers can
// match them with the standard library's errors.Is.
var (
	// ErrCannotMutateLeaf is returned by Leaf.Merge; a leaf is the identity
	// element of the CRDT composition and can never be mutated remotely.
	ErrCannotMutateLeaf = xerrors.New("gocrdt: cannot mutate leaf")

	// ErrNegativeIncrement is returned when a grow-only counter is asked to
	// increment by a negative amount.
	ErrNegativeIncrement = xerrors.New("gocrdt: cannot decrement grow-only counter")

	// ErrIncompatibleMerge names the case of two CRDT states that cannot be
	// reconciled. No CRDT in this package returns it: every Merge here
	// succeeds, except Leaf.Merge, which fails with ErrCannotMutateLeaf.
	ErrIncompatibleMerge = xerrors.New("gocrdt: incompatible merge")

	// ErrUnknownReference is the routing-failure error kind: an inbound
	// action addressed a Reference with no registered channel.
	ErrUnknownReference = xerrors.New("gocrdt: unknown reference")
)
