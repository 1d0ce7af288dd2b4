package engine

// Status is an engine status code. Zero is success; any other value is an
// engine-defined error accompanied by a message in the output buffer.
type Status int

const (
	// StatusOK indicates a successful call.
	StatusOK Status = 0

	// StatusBadRequest indicates a malformed entry-point argument list or
	// an unparseable reference literal.
	StatusBadRequest Status = 1

	// StatusNoRoutine indicates a function or procedure call naming a
	// routine the engine does not know.
	StatusNoRoutine Status = 2

	// StatusInterrupt indicates the call was interrupted. The engine traps
	// the interrupt and completes the call normally with this status
	// instead of terminating the process.
	StatusInterrupt Status = 3

	// StatusStorage indicates the write-through persistence layer failed.
	// In-memory state and the node database may diverge until the next
	// successful write.
	StatusStorage Status = 4

	// StatusUnknownFeature indicates an entry point this engine build does
	// not implement. Older engine versions return it for previous_node and
	// some version introspection edge cases; the bridge downgrades it to a
	// synthesized "not yet implemented" result.
	StatusUnknownFeature Status = 150373074
)

// Entry-point names accepted by Channel.Call. These form the engine's
// complete call surface; anything else is StatusBadRequest.
const (
	OpData          = "data"
	OpGet           = "get"
	OpSet           = "set"
	OpKill          = "kill"
	OpOrder         = "order"
	OpPrevious      = "previous"
	OpNextNode      = "next_node"
	OpPreviousNode  = "previous_node"
	OpLock          = "lock"
	OpUnlock        = "unlock"
	OpMerge         = "merge"
	OpIncrement     = "increment"
	OpFunction      = "function"
	OpProcedure     = "procedure"
	OpGlobalDir     = "global_directory"
	OpLocalDir      = "local_directory"
	OpVersion       = "version"
)

// Channel is the engine's synchronous, non-reentrant native call surface.
//
// CRITICAL: the channel is single-threaded and stateful between calls. Two
// overlapping calls from different goroutines corrupt shared engine state;
// callers must serialize every Call through one mutual-exclusion gate.
// The dispatch bridge owns that gate.
type Channel interface {
	// Call invokes the named entry point. On success the string holds the
	// call output; on a nonzero status it holds the engine's error message.
	Call(name string, args []string) (Status, string)

	// Close releases the channel. No Call may follow Close.
	Close() error
}
