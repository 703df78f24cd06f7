package gocrdt

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// defaultInboundBuffer is the per-reference inbound queue capacity used when
// a Replicant is constructed without WithInboundBuffer.
const defaultInboundBuffer = 64

// replicantConfig collects the optional knobs a Replicant can be built with.
type replicantConfig struct {
	logger        *zap.Logger
	inboundBuffer int
}

func defaultReplicantConfig() *replicantConfig {
	return &replicantConfig{
		logger:        zap.NewNop(),
		inboundBuffer: defaultInboundBuffer,
	}
}

// Option configures a Replicant at construction time.
type Option func(*replicantConfig)

// WithLogger sets the structured logger a Replicant reports routing
// failures and failed inbound applies to. The default is a no-op logger; a
// nil logger leaves the default in place.
func WithLogger(logger *zap.Logger) Option {
	return func(c *replicantConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithInboundBuffer sets the per-reference inbound queue capacity. The
// default is 64.
func WithInboundBuffer(n int) Option {
	return func(c *replicantConfig) { c.inboundBuffer = n }
}

// Replicant binds one CRDT to a network identity (spec.md §4.9): it owns the
// unbounded outbound stream the bound CRDT's handle dispatches onto, an
// inbound channel per known Reference (its own, plus one per connected
// peer), and a background task per inbound channel that downcasts each
// delivered Action's payload and applies it to the bound CRDT.
//
// A Reference's Actor component doubles as the origin passed to Apply: the
// routing table is keyed by "whose operations arrive here", not merely "what
// object do they address", so wiring a peer in registers an inbound channel
// under that peer's own Reference rather than this replicant's.
type Replicant[Op any] struct {
	self          Reference
	logger        *zap.Logger
	inboundBuffer int

	enqueue  func(Action)
	outRecv  <-chan Action
	closeOut func()

	mu      sync.Mutex
	inbound map[Reference]chan Action

	group  *errgroup.Group
	ctx    context.Context
	cancel context.CancelFunc

	applyFn func(origin Actor, payload any) error

	closeOnce sync.Once
}

// New binds crdt to a freshly minted Replicant for actor, following spec.md
// §4.9's construction sequence: build the outbound channel, register an
// inbound channel under this replicant's own Reference, spawn the
// background task servicing it, then call crdt.Prepare so buffered
// mutations flush onto the new handle.
func New[Op, State any](crdt Replicative[Op, State], actor Actor, opts ...Option) *Replicant[Op] {
	cfg := defaultReplicantConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	self := Reference{Actor: actor, Object: RootObject}
	enqueue, outRecv, closeOut := newUnboundedActionChannel()
	ctx, cancel := context.WithCancel(context.Background())
	group, gctx := errgroup.WithContext(ctx)

	r := &Replicant[Op]{
		self:          self,
		logger:        cfg.logger,
		inboundBuffer: cfg.inboundBuffer,
		enqueue:       enqueue,
		outRecv:       outRecv,
		closeOut:      closeOut,
		inbound:       make(map[Reference]chan Action),
		group:         group,
		ctx:           gctx,
		cancel:        cancel,
		applyFn: func(origin Actor, payload any) error {
			op, ok := payload.(Op)
			if !ok {
				return fmt.Errorf("gocrdt: payload type %T does not match operation type", payload)
			}
			return crdt.Apply(origin, op)
		},
	}

	r.registerInbound(self, cfg.inboundBuffer)

	handle := NewHandle[Op](enqueue, self)
	crdt.Prepare(handle)

	return r
}

// Reference returns the address this replicant's bound CRDT is reachable
// at.
func (r *Replicant[Op]) Reference() Reference {
	return r.self
}

// Actions returns the stream of outbound operations produced by the bound
// CRDT. It closes once Close is called and every queued Action has drained.
func (r *Replicant[Op]) Actions() <-chan Action {
	return r.outRecv
}

// registerInbound adds an inbound queue keyed by ref and spawns the
// background task that applies everything delivered to it, treating ref's
// Actor as the origin of every operation it carries.
func (r *Replicant[Op]) registerInbound(ref Reference, buffer int) {
	ch := make(chan Action, buffer)

	r.mu.Lock()
	r.inbound[ref] = ch
	r.mu.Unlock()

	r.group.Go(func() error {
		origin := ref.Actor
		for {
			select {
			case <-r.ctx.Done():
				return nil
			case action, ok := <-ch:
				if !ok {
					return nil
				}
				if err := r.applyFn(origin, action.Payload); err != nil {
					r.logger.Warn("gocrdt: failed to apply inbound action",
						zap.Stringer("target", action.Target),
						zap.Error(err))
				}
			}
		}
	})
}

// Send is this replicant's sink: it routes action to the inbound queue
// registered under action.Target, applying backpressure from that queue's
// buffer and respecting ctx's cancellation. If no channel is registered for
// the target — the peer hasn't been connected, or addresses an object this
// replicant never bound — it logs and returns ErrUnknownReference, per
// spec.md §7's "transports should log and drop" guidance for routing
// failures.
func (r *Replicant[Op]) Send(ctx context.Context, action Action) error {
	r.mu.Lock()
	ch, ok := r.inbound[action.Target]
	r.mu.Unlock()

	if !ok {
		r.logger.Warn("gocrdt: dropping action addressed to unknown reference",
			zap.Stringer("target", action.Target))
		return ErrUnknownReference
	}

	select {
	case ch <- action:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-r.ctx.Done():
		return r.ctx.Err()
	}
}

// Connect wires two replicants bidirectionally: each registers an inbound
// channel under the other's Reference, then a forwarding goroutine per
// direction pipes one's Actions() into the other's Send. This is the
// primitive behind spec.md §6's "transport code connects two replicants by
// piping each one's stream into the other's sink" — the wire format and
// actual network transport remain out of this package's scope.
//
// Each side's peer channel is sized with that side's own WithInboundBuffer
// setting (the replicant applying backpressure owns the buffer it applies
// it through), not a hard-coded default — a caller who tunes
// WithInboundBuffer gets that capacity on every inbound channel the
// replicant owns, its own reference and every connected peer alike.
func Connect[OpA, OpB any](a *Replicant[OpA], b *Replicant[OpB]) {
	a.registerInbound(b.Reference(), a.inboundBuffer)
	b.registerInbound(a.Reference(), b.inboundBuffer)

	a.group.Go(func() error { return forward(a.ctx, a.Actions(), b) })
	b.group.Go(func() error { return forward(b.ctx, b.Actions(), a) })
}

func forward[Op any](ctx context.Context, actions <-chan Action, dest *Replicant[Op]) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case action, ok := <-actions:
			if !ok {
				return nil
			}
			if err := dest.Send(ctx, action); err != nil && !errors.Is(err, ErrUnknownReference) {
				return err
			}
		}
	}
}

// Close shuts the replicant down: cancels every background task, closes the
// outbound queue, and waits for the background tasks to exit.
func (r *Replicant[Op]) Close() error {
	var err error
	r.closeOnce.Do(func() {
		r.cancel()
		r.closeOut()
		err = r.group.Wait()
	})
	return err
}
