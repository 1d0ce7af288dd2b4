// Package bridge dispatches typed host requests against a single
// hierarchical-engine call channel.
//
// The engine interface is non-reentrant: it keeps routine-link state and
// error state between calls, so only one call may execute at a time.
// The bridge enforces that with one explicit gate while still letting
// any number of goroutines submit work. Each request becomes a call
// descriptor that moves Created -> Queued -> Executing -> Completed (or
// Failed); results are delivered as JSON objects whose shape depends on
// the operation.
//
// Engine capabilities are probed once at startup. Operations the
// connected build lacks complete with a synthesized downgrade result
// instead of an error, so host code written against a newer engine
// keeps working against an older one.
package bridge
