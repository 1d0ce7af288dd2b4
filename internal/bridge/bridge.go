package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"sort"
	"sync/atomic"

	"github.com/mbridge/mbridge/internal/engine"
)

// Bridge is the host-facing entry point: it encodes typed requests,
// queues them, and serializes their execution against a single engine
// channel. A Bridge is safe for concurrent use from any number of
// goroutines.
type Bridge struct {
	ch    engine.Channel
	gate  *Gate
	disp  *dispatcher
	caps  Capabilities
	log   *slog.Logger
	lvl   *slog.LevelVar
	debug DebugLevel

	workers int
	closed  atomic.Bool
}

// Option configures a Bridge at construction.
type Option func(*Bridge)

// WithWorkers sets the dispatch worker count. More workers shorten the
// queue-to-gate latency under load; they never execute concurrently
// against the engine.
func WithWorkers(n int) Option {
	return func(b *Bridge) {
		if n > 0 {
			b.workers = n
		}
	}
}

// WithLogger supplies the bridge's logger. The default logs text to
// stderr at the level implied by the debug setting.
func WithLogger(log *slog.Logger) Option {
	return func(b *Bridge) { b.log = log }
}

// WithDebug sets the initial dispatch-tracing level.
func WithDebug(level DebugLevel) Option {
	return func(b *Bridge) { b.debug = level }
}

// New connects a bridge to an engine channel. Capabilities are probed
// once here, before any call is accepted, so dispatch never needs to
// trap unknown-feature statuses to learn what the engine supports.
func New(ch engine.Channel, opts ...Option) *Bridge {
	b := &Bridge{
		ch:      ch,
		gate:    NewGate(),
		lvl:     new(slog.LevelVar),
		workers: 1,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.lvl.Set(b.debug.slogLevel())
	if b.log == nil {
		b.log = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: b.lvl}))
	}

	b.caps = probeCapabilities(b.ch, b.gate)
	b.log.Debug("engine capabilities probed",
		"version", b.caps.Version, "previous_node", b.caps.PreviousNode)

	b.disp = newDispatcher(b.ch, b.gate, b.caps, b.workers, b.log)
	return b
}

// Capabilities returns the probed engine capability set.
func (b *Bridge) Capabilities() Capabilities {
	return b.caps
}

// SetDebug changes the dispatch-tracing level at runtime. It only
// adjusts the default logger's threshold; a logger supplied via
// WithLogger keeps its own.
func (b *Bridge) SetDebug(level DebugLevel) {
	b.debug = level
	b.lvl.Set(level.slogLevel())
}

// Do executes one operation synchronously. The context bounds the wait
// for the result, not the engine call itself: an abandoned call still
// runs to completion inside the gate.
func (b *Bridge) Do(ctx context.Context, op Operation, req Request) (json.RawMessage, error) {
	done, err := b.submit(op, req)
	if err != nil {
		return nil, err
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case c := <-done:
		return c.Result, c.Err
	}
}

// DoAsync executes one operation asynchronously. The returned channel
// delivers exactly one completion; encoding failures are delivered the
// same way so callers have a single result path.
func (b *Bridge) DoAsync(op Operation, req Request) <-chan Completion {
	done, err := b.submit(op, req)
	if err != nil {
		ch := make(chan Completion, 1)
		ch <- Completion{Err: err}
		close(ch)
		return ch
	}
	return done
}

func (b *Bridge) submit(op Operation, req Request) (<-chan Completion, error) {
	if b.closed.Load() {
		return nil, &BridgeError{Code: ErrCodeClosed, Op: op.String(), Message: "bridge is closed"}
	}
	// Locally answered operations: help lists the table, open reports the
	// connection established at New, close tears the bridge down.
	switch op {
	case OpHelp:
		return localCompletion(helpResult()), nil
	case OpOpen:
		return localCompletion(json.RawMessage(`{"result":1}`)), nil
	case OpClose:
		if err := b.Close(); err != nil {
			return nil, &BridgeError{Code: ErrCodeClosed, Op: op.String(), Message: err.Error()}
		}
		return localCompletion(json.RawMessage(`{"result":1}`)), nil
	}

	d, err := encodeRequest(op, req)
	if err != nil {
		return nil, err
	}
	if b.debug >= DebugMedium {
		b.log.Debug("call encoded", "request", d.id, "op", d.op.String(),
			"entry", d.entry, "args", d.args)
	} else if b.debug >= DebugLow {
		b.log.Debug("call submitted", "request", d.id, "op", d.op.String())
	}
	if !b.disp.submit(d) {
		return nil, &BridgeError{Code: ErrCodeClosed, Op: op.String(), Message: "bridge is closed"}
	}
	return d.done, nil
}

// Close stops accepting calls, fails everything still queued, and
// closes the engine channel. Safe to call more than once.
func (b *Bridge) Close() error {
	if b.closed.Swap(true) {
		return nil
	}
	b.disp.shutdown()
	return b.ch.Close()
}

// Data reports whether a node holds data and/or descendants.
func (b *Bridge) Data(ctx context.Context, req Request) (json.RawMessage, error) {
	return b.Do(ctx, OpData, req)
}

// Get retrieves a node's value together with its defined flag.
func (b *Bridge) Get(ctx context.Context, req Request) (json.RawMessage, error) {
	return b.Do(ctx, OpGet, req)
}

// Set stores a value at a node.
func (b *Bridge) Set(ctx context.Context, req Request) (json.RawMessage, error) {
	return b.Do(ctx, OpSet, req)
}

// Kill deletes a node and its entire subtree, or all locals when no
// name is given.
func (b *Bridge) Kill(ctx context.Context, req Request) (json.RawMessage, error) {
	return b.Do(ctx, OpKill, req)
}

// Order returns the next sibling subscript at the reference's level.
func (b *Bridge) Order(ctx context.Context, req Request) (json.RawMessage, error) {
	return b.Do(ctx, OpOrder, req)
}

// Previous returns the previous sibling subscript at the reference's
// level.
func (b *Bridge) Previous(ctx context.Context, req Request) (json.RawMessage, error) {
	return b.Do(ctx, OpPrevious, req)
}

// NextNode returns the next defined node in depth-first order.
func (b *Bridge) NextNode(ctx context.Context, req Request) (json.RawMessage, error) {
	return b.Do(ctx, OpNextNode, req)
}

// PreviousNode returns the previous defined node in depth-first order.
// On engine builds without reverse traversal the result is the
// not-yet-implemented downgrade, not an error.
func (b *Bridge) PreviousNode(ctx context.Context, req Request) (json.RawMessage, error) {
	return b.Do(ctx, OpPreviousNode, req)
}

// Lock acquires a named lock, waiting up to req.Timeout seconds.
func (b *Bridge) Lock(ctx context.Context, req Request) (json.RawMessage, error) {
	return b.Do(ctx, OpLock, req)
}

// Unlock releases a named lock, or every lock held when no name is
// given.
func (b *Bridge) Unlock(ctx context.Context, req Request) (json.RawMessage, error) {
	return b.Do(ctx, OpUnlock, req)
}

// Merge copies a subtree from one reference to another.
func (b *Bridge) Merge(ctx context.Context, req Request) (json.RawMessage, error) {
	return b.Do(ctx, OpMerge, req)
}

// Increment atomically adds a delta (default 1) to a node and returns
// the new value.
func (b *Bridge) Increment(ctx context.Context, req Request) (json.RawMessage, error) {
	return b.Do(ctx, OpIncrement, req)
}

// Function calls an extrinsic function and returns its result.
func (b *Bridge) Function(ctx context.Context, req Request) (json.RawMessage, error) {
	return b.Do(ctx, OpFunction, req)
}

// Procedure calls a subroutine; it produces no result value.
func (b *Bridge) Procedure(ctx context.Context, req Request) (json.RawMessage, error) {
	return b.Do(ctx, OpProcedure, req)
}

// GlobalDirectory lists global names, optionally bounded and capped.
func (b *Bridge) GlobalDirectory(ctx context.Context, req Request) (json.RawMessage, error) {
	return b.Do(ctx, OpGlobalDirectory, req)
}

// LocalDirectory lists local names, optionally bounded and capped.
func (b *Bridge) LocalDirectory(ctx context.Context, req Request) (json.RawMessage, error) {
	return b.Do(ctx, OpLocalDirectory, req)
}

// Version returns the engine's version string.
func (b *Bridge) Version(ctx context.Context) (json.RawMessage, error) {
	return b.Do(ctx, OpVersion, Request{})
}

// Help lists the supported operation names. Answered locally, without
// an engine call.
func (b *Bridge) Help(ctx context.Context) (json.RawMessage, error) {
	return b.Do(ctx, OpHelp, Request{})
}

func localCompletion(result json.RawMessage) <-chan Completion {
	ch := make(chan Completion, 1)
	ch <- Completion{Result: result}
	close(ch)
	return ch
}

func helpResult() json.RawMessage {
	names := make([]string, 0, len(opNames))
	for _, name := range opNames {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	buf.WriteString(`{"result":[`)
	for i, name := range names {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('"')
		buf.WriteString(name)
		buf.WriteByte('"')
	}
	buf.WriteString(`]}`)
	return buf.Bytes()
}
