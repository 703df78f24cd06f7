package gocrdt

import "sync"

// unboundedActionChannel adapts an arbitrarily large, growable backing queue
// to a receive channel, so that dispatching an operation is always a
// non-blocking enqueue (spec.md §4.9: "Handle.dispatch(op) — non-blocking
// enqueue ... onto the outbound sender") regardless of how far behind a
// slow consumer has fallen. Go has no unbounded-channel primitive in the
// standard library; this is the standard two-goroutine pattern for
// emulating one, not a third-party concern anything in the pack wires a
// dependency for.
type unboundedActionChannel struct {
	mu     sync.Mutex
	cond   *sync.Cond
	buffer []Action
	closed bool
	out    chan Action
}

func newUnboundedActionChannel() (send func(Action), recv <-chan Action, closeFn func()) {
	c := &unboundedActionChannel{out: make(chan Action)}
	c.cond = sync.NewCond(&c.mu)

	go c.pump()

	return c.send, c.out, c.close
}

func (c *unboundedActionChannel) send(action Action) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.buffer = append(c.buffer, action)
	c.cond.Signal()
}

func (c *unboundedActionChannel) close() {
	c.mu.Lock()
	c.closed = true
	c.cond.Signal()
	c.mu.Unlock()
}

func (c *unboundedActionChannel) pump() {
	defer close(c.out)
	for {
		c.mu.Lock()
		for len(c.buffer) == 0 && !c.closed {
			c.cond.Wait()
		}
		if len(c.buffer) == 0 && c.closed {
			c.mu.Unlock()
			return
		}
		action := c.buffer[0]
		c.buffer = c.buffer[1:]
		c.mu.Unlock()

		c.out <- action
	}
}
