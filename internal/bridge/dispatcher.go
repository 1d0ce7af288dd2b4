package bridge

import (
	"log/slog"
	"sync"

	"github.com/mbridge/mbridge/internal/engine"
)

// dispatcher owns the worker pool and the execution gate. Workers pull
// descriptors from the queue; the gate serializes the actual engine call
// so that exactly one descriptor is ever Executing, no matter how many
// workers run.
type dispatcher struct {
	ch    engine.Channel
	gate  *Gate
	queue *callQueue
	caps  Capabilities
	log   *slog.Logger

	stop chan struct{}
	wg   sync.WaitGroup
}

// newDispatcher starts the worker pool. The gate is created by the
// bridge and passed by reference; its lifetime is tied to bridge
// startup/shutdown.
func newDispatcher(ch engine.Channel, gate *Gate, caps Capabilities, workers int, log *slog.Logger) *dispatcher {
	if workers < 1 {
		workers = 1
	}
	disp := &dispatcher{
		ch:    ch,
		gate:  gate,
		queue: newCallQueue(),
		caps:  caps,
		log:   log,
		stop:  make(chan struct{}),
	}
	disp.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go disp.worker()
	}
	return disp
}

// submit hands a descriptor to the pool. Returns false after shutdown.
func (disp *dispatcher) submit(d *callDescriptor) bool {
	return disp.queue.Enqueue(d)
}

// shutdown stops the workers and fails every descriptor still queued so
// no caller stays blocked.
func (disp *dispatcher) shutdown() {
	close(disp.stop)
	disp.queue.Close()
	disp.wg.Wait()
	for _, d := range disp.queue.Drain() {
		d.complete(nil, &BridgeError{Code: ErrCodeClosed, Op: d.op.String(), Message: "bridge shut down before call executed"})
	}
}

func (disp *dispatcher) worker() {
	defer disp.wg.Done()
	for {
		d, ok := disp.queue.TryDequeue()
		if !ok {
			select {
			case <-disp.stop:
				return
			case <-disp.queue.Wait():
				continue
			}
		}
		disp.execute(d)
	}
}

// execute runs one descriptor against the engine. The gate is held for
// the duration of the engine call only and is released on every exit
// path.
func (disp *dispatcher) execute(d *callDescriptor) {
	// Operations the engine build lacks complete with the synthesized
	// downgrade result instead of a hard failure.
	if d.op == OpPreviousNode && !disp.caps.PreviousNode {
		disp.log.Debug("downgrading unsupported operation",
			"op", d.op.String(), "request", d.id, "engine", disp.caps.Version)
		d.complete(notImplementedResult, nil)
		return
	}

	d.state = StateExecuting
	disp.gate.Acquire()
	status, out := disp.ch.Call(d.entry, d.args)
	disp.gate.Release()

	switch {
	case status == engine.StatusOK:
		result, err := buildResult(d.op, d.mode, out)
		if err != nil {
			d.complete(nil, err)
			return
		}
		d.complete(result, nil)

	case status == engine.StatusUnknownFeature:
		// The capability probe should prevent this; if an engine still
		// reports an unknown feature, downgrade rather than fail.
		disp.log.Debug("engine reported unknown feature",
			"op", d.op.String(), "request", d.id)
		d.complete(notImplementedResult, nil)

	default:
		msg := out
		if len(msg) > MaxMessageSize {
			d.complete(nil, NewCapacityError(d.op.String(), "error message", len(msg), MaxMessageSize))
			return
		}
		d.complete(nil, NewEngineError(d.op.String(), status, msg))
	}
}
