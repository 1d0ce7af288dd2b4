package bridge

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/mbridge/mbridge/internal/codec"
	"github.com/mbridge/mbridge/internal/token"
)

// Operation identifies one bridge operation from the fixed enumeration.
type Operation int

const (
	OpData Operation = iota + 1
	OpGet
	OpSet
	OpKill
	OpOrder
	OpPrevious
	OpNextNode
	OpPreviousNode
	OpLock
	OpUnlock
	OpMerge
	OpIncrement
	OpFunction
	OpProcedure
	OpGlobalDirectory
	OpLocalDirectory
	OpVersion
	OpHelp
	OpOpen
	OpClose
)

var opNames = map[Operation]string{
	OpData:            "data",
	OpGet:             "get",
	OpSet:             "set",
	OpKill:            "kill",
	OpOrder:           "order",
	OpPrevious:        "previous",
	OpNextNode:        "next_node",
	OpPreviousNode:    "previous_node",
	OpLock:            "lock",
	OpUnlock:          "unlock",
	OpMerge:           "merge",
	OpIncrement:       "increment",
	OpFunction:        "function",
	OpProcedure:       "procedure",
	OpGlobalDirectory: "global_directory",
	OpLocalDirectory:  "local_directory",
	OpVersion:         "version",
	OpHelp:            "help",
	OpOpen:            "open",
	OpClose:           "close",
}

// String returns the operation's wire name.
func (op Operation) String() string {
	if s, ok := opNames[op]; ok {
		return s
	}
	return "unknown"
}

// ParseOperation resolves a wire name back to its operation.
func ParseOperation(name string) (Operation, error) {
	for op, s := range opNames {
		if s == name {
			return op, nil
		}
	}
	return 0, fmt.Errorf("unknown operation %q", name)
}

// State tracks a descriptor through its life cycle. Terminal states are
// never re-entered; a descriptor is single-use.
type State int

const (
	StateCreated State = iota + 1
	StateQueued
	StateExecuting
	StateCompleted
	StateFailed
)

// Buffer ceilings. The engine interface itself is fixed-capacity, so the
// bridge keeps these as explicit documented bounds with a checked-write
// discipline: anything over the ceiling is a reportable error, never a
// silent truncation.
const (
	// MaxMessageSize bounds engine error message text.
	MaxMessageSize = 2048
	// MaxResultSize bounds call payloads and engine output.
	MaxResultSize = 1 << 20
)

// Request is the typed form of one bridge operation: operation fields
// instead of a command string. Construct one, hand it to the bridge, and
// the dispatcher matches on the operation tag through a fixed handler
// table.
type Request struct {
	// Name is the fully qualified global, local, intrinsic-special,
	// function, or subroutine name.
	Name string

	// Subscripts or call arguments, in order. May be empty.
	Subscripts token.List

	// Value is the data payload for set; the delta for increment
	// (default 1); unused otherwise.
	Value string

	// Mode selects strict or canonical encoding for every data-bearing
	// token of this call.
	Mode codec.Mode

	// Timeout is the lock wait in seconds; negative waits forever.
	// Lock only.
	Timeout float64

	// To is the target reference for merge.
	To struct {
		Name       string
		Subscripts token.List
	}

	// Directory listing bounds: Max caps the listing (0 = unlimited),
	// Lo and Hi bound the name range.
	Max int
	Lo  string
	Hi  string
}

// Completion delivers an asynchronous call result back to the original
// caller context.
type Completion struct {
	Result json.RawMessage
	Err    error
}

// callDescriptor is the per-request unit of work flowing through the
// dispatch bridge. It is owned exclusively by the caller until submitted,
// then by the dispatcher until completion, then handed back; it never has
// two owners at once and is never reused.
type callDescriptor struct {
	id   string
	op   Operation
	mode codec.Mode

	// Engine call, fully encoded before dispatch.
	entry string
	args  []string

	state State

	// done carries exactly one completion and is then closed.
	done chan Completion
}

// newDescriptor creates a descriptor in StateCreated with a fresh UUIDv7
// request ID for log correlation.
func newDescriptor(op Operation, mode codec.Mode, entry string, args []string) *callDescriptor {
	return &callDescriptor{
		id:    uuid.Must(uuid.NewV7()).String(),
		op:    op,
		mode:  mode,
		entry: entry,
		args:  args,
		state: StateCreated,
		done:  make(chan Completion, 1),
	}
}

// complete moves the descriptor to a terminal state and delivers the
// result. Exactly one of result/err is meaningful.
func (d *callDescriptor) complete(result json.RawMessage, err error) {
	if err != nil {
		d.state = StateFailed
	} else {
		d.state = StateCompleted
	}
	d.done <- Completion{Result: result, Err: err}
	close(d.done)
}
