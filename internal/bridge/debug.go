package bridge

import (
	"fmt"
	"log/slog"
	"strings"
)

// DebugLevel selects how much dispatch tracing the bridge logs.
type DebugLevel int

const (
	// DebugOff logs warnings and errors only.
	DebugOff DebugLevel = iota
	// DebugLow adds per-call lifecycle events.
	DebugLow
	// DebugMedium adds encoded engine arguments.
	DebugMedium
	// DebugHigh adds raw engine output buffers.
	DebugHigh
)

var debugNames = map[DebugLevel]string{
	DebugOff:    "off",
	DebugLow:    "low",
	DebugMedium: "medium",
	DebugHigh:   "high",
}

func (l DebugLevel) String() string {
	if s, ok := debugNames[l]; ok {
		return s
	}
	return "off"
}

// ParseDebug parses a debug level name. Numeric forms 0..3 are accepted
// as well, matching the levels in order.
func ParseDebug(s string) (DebugLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "off", "0", "false":
		return DebugOff, nil
	case "low", "1", "true":
		return DebugLow, nil
	case "medium", "2":
		return DebugMedium, nil
	case "high", "3":
		return DebugHigh, nil
	}
	return DebugOff, fmt.Errorf("unknown debug level %q", s)
}

// slogLevel maps a debug level onto the handler threshold. Low and above
// all enable debug records; the level itself gates how much detail the
// dispatcher attaches.
func (l DebugLevel) slogLevel() slog.Level {
	if l >= DebugLow {
		return slog.LevelDebug
	}
	return slog.LevelWarn
}
