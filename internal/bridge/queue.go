package bridge

import "sync"

// callQueue is a thread-safe FIFO queue of submitted descriptors.
//
// The queue is unbounded so a burst of async submissions never blocks the
// submitting goroutines; backpressure is applied downstream by the single
// execution gate, not here.
//
// The queue uses a channel for signaling so worker loops can wait without
// spinning and still observe shutdown promptly.
type callQueue struct {
	mu     sync.Mutex
	items  []*callDescriptor
	closed bool
	signal chan struct{} // Signals item availability (buffered, size 1)
}

func newCallQueue() *callQueue {
	return &callQueue{
		items:  make([]*callDescriptor, 0, 16),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue adds a descriptor to the back of the queue.
// Thread-safe: may be called from any goroutine.
// Returns false if the queue is closed.
func (q *callQueue) Enqueue(d *callDescriptor) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	d.state = StateQueued
	q.items = append(q.items, d)

	// Non-blocking: a buffer of one coalesces multiple signals.
	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// TryDequeue attempts to dequeue without blocking.
// Returns (nil, false) if the queue is empty.
func (q *callQueue) TryDequeue() (*callDescriptor, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return nil, false
	}
	d := q.items[0]

	// Nil out the slot so the backing array does not retain the
	// descriptor after it leaves the queue.
	q.items[0] = nil
	if len(q.items) == 1 {
		q.items = q.items[:0]
	} else {
		q.items = q.items[1:]
	}
	return d, true
}

// Wait returns the availability signal channel, for use in a select
// alongside shutdown.
func (q *callQueue) Wait() <-chan struct{} {
	return q.signal
}

// Drain dequeues every remaining descriptor. Used at shutdown to fail
// pending calls instead of leaving their callers blocked.
func (q *callQueue) Drain() []*callDescriptor {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]*callDescriptor, len(q.items))
	copy(out, q.items)
	q.items = q.items[:0]
	return out
}

// Close marks the queue closed and wakes all waiters.
func (q *callQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}

// Len returns the current queue length.
func (q *callQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
