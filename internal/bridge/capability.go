package bridge

import (
	"strconv"
	"strings"

	"github.com/mbridge/mbridge/internal/engine"
)

// Capabilities records what the connected engine build supports. The
// probe runs once at bridge startup and the result is cached; per-call
// trap-and-recover is never used for feature detection.
type Capabilities struct {
	// Version is the engine's version string, or "unknown" when even
	// version introspection is unavailable.
	Version string

	// PreviousNode reports whether the engine implements reverse
	// depth-first traversal. Engine builds before 1.0 do not.
	PreviousNode bool
}

// probeCapabilities queries the engine version through the gate and
// derives the capability set. An unknown-feature status from the version
// call itself is the introspection edge case: the bridge assumes the
// oldest feature set rather than failing startup.
func probeCapabilities(ch engine.Channel, gate *Gate) Capabilities {
	gate.Acquire()
	status, out := ch.Call(engine.OpVersion, nil)
	gate.Release()

	if status == engine.StatusUnknownFeature {
		return Capabilities{Version: "unknown", PreviousNode: false}
	}
	if status != engine.StatusOK {
		return Capabilities{Version: "unknown", PreviousNode: false}
	}
	return Capabilities{
		Version:      out,
		PreviousNode: versionAtLeast(out, 1.0),
	}
}

// versionAtLeast parses the trailing numeric field of a version string
// ("rdb 1.2" -> 1.2) and compares it against min. Unparseable versions
// report false: missing capabilities degrade, they never crash.
func versionAtLeast(version string, min float64) bool {
	fields := strings.Fields(version)
	if len(fields) == 0 {
		return false
	}
	v, err := strconv.ParseFloat(fields[len(fields)-1], 64)
	if err != nil {
		return false
	}
	return v >= min
}
