package bridge

import (
	"sync"
	"sync/atomic"
)

// Gate is the single mutual-exclusion primitive guarding the engine's
// non-reentrant call channel. Exactly one call may be inside the
// Executing state at any instant process-wide; the engine retains
// routine-link state, error state, and an interrupt trap between calls,
// so interleaved execution would corrupt it.
//
// The gate is created by the bridge at startup and passed by reference
// into the dispatcher, not held as ambient global state. The executing
// counter exists so tests can observe the invariant directly.
type Gate struct {
	mu        sync.Mutex
	executing atomic.Int32
}

// NewGate creates an unlocked gate.
func NewGate() *Gate {
	return &Gate{}
}

// Acquire blocks until the gate is free, then marks one call executing.
func (g *Gate) Acquire() {
	g.mu.Lock()
	g.executing.Add(1)
}

// Release marks the call finished and frees the gate. Must be called on
// every exit path, success or failure.
func (g *Gate) Release() {
	g.executing.Add(-1)
	g.mu.Unlock()
}

// Executing returns the number of calls currently inside the gate.
// Always 0 or 1; anything else is a bridge bug.
func (g *Gate) Executing() int32 {
	return g.executing.Load()
}
