package engine

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/mbridge/mbridge/internal/pack"
	"github.com/mbridge/mbridge/internal/token"
)

// EngineVersion is the version string reported by the current engine
// build. Minor versions below 1.0 predate the reverse depth-first
// traversal entry point.
const EngineVersion = "rdb 1.2"

// legacyVersion mimics an older engine build without previous_node
// support. Used to exercise the bridge's capability downgrade path.
const legacyVersion = "rdb 0.9"

// Routine is a callable registered on the engine's function/procedure
// surface. Arguments arrive raw (decoded); the returned string is the
// function result, ignored for procedures.
type Routine func(args []string) (string, error)

// DB is the reference engine: an in-process hierarchical sparse-array
// store with engine collation, write-through SQLite persistence, a lock
// table, and a routine registry.
//
// DB implements Channel. Like the native engine it models, it is NOT
// thread-safe: the caller must serialize Call invocations.
type DB struct {
	trees    map[string]*tree
	locks    map[string]int
	routines map[string]Routine
	store    *store
	legacy   bool
	closed   bool
}

// Option configures a DB at open time.
type Option func(*DB)

// WithLegacyVersion makes the engine report a pre-1.0 version and reject
// previous_node with StatusUnknownFeature, matching older engine builds.
func WithLegacyVersion() Option {
	return func(d *DB) { d.legacy = true }
}

// WithRoutine registers a callable on the function/procedure surface.
func WithRoutine(name string, fn Routine) Option {
	return func(d *DB) { d.routines[name] = fn }
}

// Open creates a reference engine. An empty path keeps all state in
// memory; otherwise nodes persist write-through to a SQLite database at
// the given path and are reloaded on the next Open.
func Open(path string, opts ...Option) (*DB, error) {
	d := &DB{
		trees:    make(map[string]*tree),
		locks:    make(map[string]int),
		routines: make(map[string]Routine),
	}
	for _, opt := range opts {
		opt(d)
	}
	if path != "" {
		st, err := openStore(path)
		if err != nil {
			return nil, fmt.Errorf("open engine store: %w", err)
		}
		d.store = st
		if err := st.loadAll(func(name, packedPath, value string) error {
			subs, err := pack.Unpack(packedPath, packedPath == "0#")
			if err != nil {
				return fmt.Errorf("node %s %q: %w", name, packedPath, err)
			}
			d.tree(name).set([]string(subs), value)
			return nil
		}); err != nil {
			st.close()
			return nil, fmt.Errorf("load engine store: %w", err)
		}
	}
	return d, nil
}

// Close releases the persistence layer. The DB must not be used after.
func (d *DB) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	if d.store != nil {
		return d.store.close()
	}
	return nil
}

func (d *DB) tree(name string) *tree {
	t, ok := d.trees[name]
	if !ok {
		t = &tree{}
		d.trees[name] = t
	}
	return t
}

// Call implements Channel. See the Op* constants for the entry-point
// argument conventions.
func (d *DB) Call(name string, args []string) (Status, string) {
	if d.closed {
		return StatusBadRequest, "engine channel is closed"
	}
	switch name {
	case OpData:
		return d.withRef(args, func(n string, subs []string) (Status, string) {
			return StatusOK, strconv.Itoa(d.tree(n).data(subs))
		})
	case OpGet:
		return d.withRef(args, func(n string, subs []string) (Status, string) {
			value, defined := d.tree(n).get(subs)
			flag := "0"
			if defined {
				flag = "1"
			}
			wire, _ := pack.Pack(token.List{flag, value})
			return StatusOK, wire
		})
	case OpSet:
		if len(args) < 2 {
			return StatusBadRequest, "set requires a reference and a value"
		}
		value := args[1]
		return d.withRefSpill(args[0], args[2:], func(n string, subs []string) (Status, string) {
			if err := checkStoreSubs(subs); err != nil {
				return StatusBadRequest, err.Error()
			}
			d.tree(n).set(subs, value)
			if err := d.persistSet(n, subs, value); err != nil {
				return StatusStorage, err.Error()
			}
			return StatusOK, ""
		})
	case OpKill:
		return d.withRef(args, func(n string, subs []string) (Status, string) {
			removed := d.tree(n).subtree(subs)
			d.tree(n).kill(subs)
			if err := d.persistKill(n, subs, removed); err != nil {
				return StatusStorage, err.Error()
			}
			return StatusOK, ""
		})
	case OpOrder, OpPrevious:
		return d.withRef(args, func(n string, subs []string) (Status, string) {
			if len(subs) == 0 {
				return StatusBadRequest, "order requires at least one subscript"
			}
			return StatusOK, d.tree(n).order(subs, name == OpOrder)
		})
	case OpNextNode:
		return d.withRef(args, d.nodeTraversal(true))
	case OpPreviousNode:
		if d.legacy {
			return StatusUnknownFeature, "previous_node not available in this engine version"
		}
		return d.withRef(args, d.nodeTraversal(false))
	case OpLock:
		return d.lock(args)
	case OpUnlock:
		return d.unlock(args)
	case OpMerge:
		return d.merge(args)
	case OpIncrement:
		return d.increment(args)
	case OpFunction, OpProcedure:
		return d.call(name, args)
	case OpGlobalDir:
		return d.directory(args, true)
	case OpLocalDir:
		return d.directory(args, false)
	case OpVersion:
		if d.legacy {
			return StatusOK, legacyVersion
		}
		return StatusOK, EngineVersion
	default:
		return StatusBadRequest, fmt.Sprintf("unknown entry point %q", name)
	}
}

// withRef parses args[0] as a reference literal with args[1:] as spill
// values and invokes fn.
func (d *DB) withRef(args []string, fn func(name string, subs []string) (Status, string)) (Status, string) {
	if len(args) < 1 {
		return StatusBadRequest, "missing reference"
	}
	return d.withRefSpill(args[0], args[1:], fn)
}

func (d *DB) withRefSpill(literal string, spill []string, fn func(name string, subs []string) (Status, string)) (Status, string) {
	name, subs, err := parseReference(literal, spill)
	if err != nil {
		return StatusBadRequest, err.Error()
	}
	return fn(name, subs)
}

// nodeTraversal packs a depth-first step result as
// [defined, value, sub1, ..., subN].
func (d *DB) nodeTraversal(forward bool) func(string, []string) (Status, string) {
	return func(n string, subs []string) (Status, string) {
		t := d.tree(n)
		var (
			next  []string
			value string
			ok    bool
		)
		if forward {
			next, value, ok = t.nextNode(subs)
		} else {
			next, value, ok = t.previousNode(subs)
		}
		if !ok {
			wire, _ := pack.Pack(token.List{"0"})
			return StatusOK, wire
		}
		out := append(token.List{"1", value}, next...)
		wire, _ := pack.Pack(out)
		return StatusOK, wire
	}
}

// lock args: [literal, timeoutSeconds, spill...]. The reference engine is
// single-owner, so acquisition always succeeds; the count model still
// applies (nested locks must be released the same number of times).
func (d *DB) lock(args []string) (Status, string) {
	if len(args) < 2 {
		return StatusBadRequest, "lock requires a reference and a timeout"
	}
	if _, err := strconv.ParseFloat(args[1], 64); err != nil {
		return StatusBadRequest, fmt.Sprintf("bad lock timeout %q", args[1])
	}
	return d.withRefSpill(args[0], args[2:], func(n string, subs []string) (Status, string) {
		d.locks[lockKey(n, subs)]++
		return StatusOK, "1"
	})
}

// unlock args: [literal, spill...] releases one nesting level of one
// lock; no args releases everything.
func (d *DB) unlock(args []string) (Status, string) {
	if len(args) == 0 {
		d.locks = make(map[string]int)
		return StatusOK, ""
	}
	return d.withRefSpill(args[0], args[1:], func(n string, subs []string) (Status, string) {
		key := lockKey(n, subs)
		if d.locks[key] > 0 {
			d.locks[key]--
			if d.locks[key] == 0 {
				delete(d.locks, key)
			}
		}
		return StatusOK, ""
	})
}

// checkStoreSubs rejects empty subscripts on write paths. An empty
// subscript is legal as a traversal cursor (order from the start) but a
// stored node path must be fully named, or its persisted packed form
// would collide with the zero-subscript root.
func checkStoreSubs(subs []string) error {
	for _, s := range subs {
		if s == "" {
			return fmt.Errorf("empty subscripts cannot be stored")
		}
	}
	return nil
}

func lockKey(name string, subs []string) string {
	wire, _ := pack.Pack(token.List(subs))
	return name + "\x00" + wire
}

// merge args: [fromLiteral, toLiteral, spill...]. Both references resolve
// their slots against the one shared spill list. Copies the source node
// and its entire subtree onto the target.
func (d *DB) merge(args []string) (Status, string) {
	if len(args) < 2 {
		return StatusBadRequest, "merge requires source and target references"
	}
	spill := args[2:]
	fromName, fromSubs, err := parseReference(args[0], spill)
	if err != nil {
		return StatusBadRequest, err.Error()
	}
	toName, toSubs, err := parseReference(args[1], spill)
	if err != nil {
		return StatusBadRequest, err.Error()
	}
	if err := checkStoreSubs(toSubs); err != nil {
		return StatusBadRequest, err.Error()
	}
	for _, e := range d.tree(fromName).subtree(fromSubs) {
		target := append(append([]string{}, toSubs...), e.subs...)
		d.tree(toName).set(target, e.value)
		if err := d.persistSet(toName, target, e.value); err != nil {
			return StatusStorage, err.Error()
		}
	}
	return StatusOK, ""
}

// increment args: [literal, delta, spill...]. Applies forced numeric
// coercion to the stored value, adds delta, stores and returns the
// canonical result.
func (d *DB) increment(args []string) (Status, string) {
	if len(args) < 2 {
		return StatusBadRequest, "increment requires a reference and a delta"
	}
	delta, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return StatusBadRequest, fmt.Sprintf("bad increment delta %q", args[1])
	}
	return d.withRefSpill(args[0], args[2:], func(n string, subs []string) (Status, string) {
		if err := checkStoreSubs(subs); err != nil {
			return StatusBadRequest, err.Error()
		}
		cur, _ := d.tree(n).get(subs)
		next := formatNumber(numericValue(cur) + delta)
		d.tree(n).set(subs, next)
		if err := d.persistSet(n, subs, next); err != nil {
			return StatusStorage, err.Error()
		}
		return StatusOK, next
	})
}

// call args: [literal, spill...]. The literal names a registered routine
// with its arguments; procedures discard the result.
func (d *DB) call(op string, args []string) (Status, string) {
	if len(args) < 1 {
		return StatusBadRequest, "missing routine reference"
	}
	name, callArgs, err := parseReference(args[0], args[1:])
	if err != nil {
		return StatusBadRequest, err.Error()
	}
	fn, ok := d.routines[name]
	if !ok {
		return StatusNoRoutine, fmt.Sprintf("no routine %q", name)
	}
	out, err := fn(callArgs)
	if err != nil {
		return StatusBadRequest, fmt.Sprintf("routine %q: %v", name, err)
	}
	if op == OpProcedure {
		return StatusOK, ""
	}
	return StatusOK, out
}

// directory args: [max, lo, hi]. Lists global (leading '^') or local
// names, bytewise sorted, optionally bounded and capped. The spill array
// never appears in listings. Output is a packed name list; an empty
// listing is an empty buffer.
func (d *DB) directory(args []string, global bool) (Status, string) {
	var max int
	var lo, hi string
	if len(args) > 0 && args[0] != "" {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 0 {
			return StatusBadRequest, fmt.Sprintf("bad directory max %q", args[0])
		}
		max = n
	}
	if len(args) > 1 {
		lo = args[1]
	}
	if len(args) > 2 {
		hi = args[2]
	}

	var names []string
	for name, t := range d.trees {
		if len(t.entries) == 0 {
			continue
		}
		if strings.HasPrefix(name, "^") != global {
			continue
		}
		if name == pack.SpillArray {
			continue
		}
		if lo != "" && name < lo {
			continue
		}
		if hi != "" && name > hi {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	if max > 0 && len(names) > max {
		names = names[:max]
	}
	if len(names) == 0 {
		return StatusOK, ""
	}
	wire, _ := pack.Pack(token.List(names))
	return StatusOK, wire
}

func (d *DB) persistSet(name string, subs []string, value string) error {
	if d.store == nil {
		return nil
	}
	wire, _ := pack.Pack(token.List(subs))
	if err := d.store.upsert(name, wire, value); err != nil {
		return fmt.Errorf("persist %s: %w", name, err)
	}
	return nil
}

func (d *DB) persistKill(name string, subs []string, removed []entry) error {
	if d.store == nil {
		return nil
	}
	for _, e := range removed {
		full := append(append([]string{}, subs...), e.subs...)
		wire, _ := pack.Pack(token.List(full))
		if err := d.store.delete(name, wire); err != nil {
			return fmt.Errorf("persist %s: %w", name, err)
		}
	}
	return nil
}
