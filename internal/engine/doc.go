// Package engine defines the synchronous, non-reentrant call surface of
// the hierarchical sparse-array database engine, and provides a reference
// implementation of it: an in-process store with engine subscript
// collation, write-through SQLite persistence, a lock table, and a
// routine registry.
//
// The Channel interface is the whole boundary: call(name, args...) ->
// (status, buffer). Everything above it (encoding, dispatch, result
// shaping) belongs to the bridge; everything below it is engine-private.
package engine
