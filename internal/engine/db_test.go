package engine

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbridge/mbridge/internal/pack"
	"github.com/mbridge/mbridge/internal/token"
)

func openTestDB(t *testing.T, opts ...Option) *DB {
	t.Helper()
	d, err := Open("", opts...)
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	return d
}

func mustCall(t *testing.T, d *DB, name string, args ...string) string {
	t.Helper()
	st, out := d.Call(name, args)
	require.Equal(t, StatusOK, st, "call %s %v: %s", name, args, out)
	return out
}

func TestDB_SetGetData(t *testing.T) {
	d := openTestDB(t)

	mustCall(t, d, OpSet, `^greeting("en")`, "hello")
	out := mustCall(t, d, OpGet, `^greeting("en")`)

	fields, err := pack.Unpack(out, false)
	require.NoError(t, err)
	assert.Equal(t, token.List{"1", "hello"}, fields)

	assert.Equal(t, "1", mustCall(t, d, OpData, `^greeting("en")`))
	assert.Equal(t, "10", mustCall(t, d, OpData, "^greeting"))
	assert.Equal(t, "0", mustCall(t, d, OpData, "^missing"))
}

func TestDB_GetUndefined(t *testing.T) {
	d := openTestDB(t)

	out := mustCall(t, d, OpGet, "^nothing")
	fields, err := pack.Unpack(out, false)
	require.NoError(t, err)
	assert.Equal(t, token.List{"0", ""}, fields)
}

func TestDB_KillSubtree(t *testing.T) {
	d := openTestDB(t)

	mustCall(t, d, OpSet, `^a(1)`, "x")
	mustCall(t, d, OpSet, `^a(1,2)`, "y")
	mustCall(t, d, OpSet, `^a(2)`, "z")
	mustCall(t, d, OpKill, `^a(1)`)

	assert.Equal(t, "0", mustCall(t, d, OpData, `^a(1)`))
	assert.Equal(t, "1", mustCall(t, d, OpData, `^a(2)`))
}

func TestDB_OrderBothDirections(t *testing.T) {
	d := openTestDB(t)
	for _, s := range []string{`^l("b")`, `^l(2)`, `^l(10)`, `^l("a")`} {
		mustCall(t, d, OpSet, s, "v")
	}

	assert.Equal(t, "2", mustCall(t, d, OpOrder, `^l("")`))
	assert.Equal(t, "10", mustCall(t, d, OpOrder, `^l(2)`))
	assert.Equal(t, "a", mustCall(t, d, OpOrder, `^l(10)`))
	assert.Equal(t, "", mustCall(t, d, OpOrder, `^l("b")`))

	assert.Equal(t, "b", mustCall(t, d, OpPrevious, `^l("")`))
	assert.Equal(t, "2", mustCall(t, d, OpPrevious, `^l(10)`))
}

func TestDB_NextNode(t *testing.T) {
	d := openTestDB(t)
	mustCall(t, d, OpSet, `^n(1)`, "a")
	mustCall(t, d, OpSet, `^n(1,1)`, "b")

	out := mustCall(t, d, OpNextNode, "^n")
	fields, err := pack.Unpack(out, false)
	require.NoError(t, err)
	assert.Equal(t, token.List{"1", "a", "1"}, fields)

	out = mustCall(t, d, OpNextNode, `^n(1,1)`)
	fields, err = pack.Unpack(out, false)
	require.NoError(t, err)
	assert.Equal(t, token.List{"0"}, fields)
}

func TestDB_PreviousNode_Legacy(t *testing.T) {
	d := openTestDB(t, WithLegacyVersion())

	st, msg := d.Call(OpPreviousNode, []string{"^n"})
	assert.Equal(t, StatusUnknownFeature, st)
	assert.Contains(t, msg, "not available")

	assert.Equal(t, legacyVersion, mustCall(t, d, OpVersion))
}

func TestDB_Increment(t *testing.T) {
	d := openTestDB(t)

	assert.Equal(t, "1", mustCall(t, d, OpIncrement, "^counter", "1"))
	assert.Equal(t, "3.5", mustCall(t, d, OpIncrement, "^counter", "2.5"))

	// Forced numeric coercion on a non-numeric stored value.
	mustCall(t, d, OpSet, "^counter", "7abc")
	assert.Equal(t, "8", mustCall(t, d, OpIncrement, "^counter", "1"))
}

func TestDB_Merge(t *testing.T) {
	d := openTestDB(t)
	mustCall(t, d, OpSet, `^src`, "root")
	mustCall(t, d, OpSet, `^src(1)`, "one")
	mustCall(t, d, OpMerge, "^src", `^dst("copy")`)

	out := mustCall(t, d, OpGet, `^dst("copy")`)
	fields, _ := pack.Unpack(out, false)
	assert.Equal(t, token.List{"1", "root"}, fields)

	out = mustCall(t, d, OpGet, `^dst("copy",1)`)
	fields, _ = pack.Unpack(out, false)
	assert.Equal(t, token.List{"1", "one"}, fields)
}

func TestDB_MergeSharedSpill(t *testing.T) {
	d := openTestDB(t)
	mustCall(t, d, OpSet, `^src("k")`, "v")

	// Source takes slot 1, target slot 2, out of one spill list.
	from := "^src(" + pack.SpillArray + "(1))"
	to := "^dst(" + pack.SpillArray + "(2))"
	mustCall(t, d, OpMerge, from, to, `"k"`, `"c"`)

	out := mustCall(t, d, OpGet, `^dst("c")`)
	fields, _ := pack.Unpack(out, false)
	assert.Equal(t, token.List{"1", "v"}, fields)
}

func TestDB_LockUnlock(t *testing.T) {
	d := openTestDB(t)

	assert.Equal(t, "1", mustCall(t, d, OpLock, `^res(1)`, "5"))
	assert.Equal(t, "1", mustCall(t, d, OpLock, `^res(1)`, "-1"))
	assert.Len(t, d.locks, 1)

	mustCall(t, d, OpUnlock, `^res(1)`)
	assert.Len(t, d.locks, 1) // one nesting level remains
	mustCall(t, d, OpUnlock, `^res(1)`)
	assert.Empty(t, d.locks)

	mustCall(t, d, OpLock, `^res(2)`, "0")
	mustCall(t, d, OpUnlock) // no args releases everything
	assert.Empty(t, d.locks)
}

func TestDB_Routines(t *testing.T) {
	d := openTestDB(t, WithRoutine("sum", func(args []string) (string, error) {
		if len(args) != 2 {
			return "", errors.New("want two args")
		}
		return formatNumber(numericValue(args[0]) + numericValue(args[1])), nil
	}))

	assert.Equal(t, "5", mustCall(t, d, OpFunction, "sum(2,3)"))

	// Procedures discard the result.
	assert.Equal(t, "", mustCall(t, d, OpProcedure, "sum(2,3)"))

	st, msg := d.Call(OpFunction, []string{"nope(1)"})
	assert.Equal(t, StatusNoRoutine, st)
	assert.Contains(t, msg, "nope")
}

func TestDB_Directories(t *testing.T) {
	d := openTestDB(t)
	mustCall(t, d, OpSet, "^alpha", "1")
	mustCall(t, d, OpSet, "^beta", "1")
	mustCall(t, d, OpSet, "scratch", "1")

	out := mustCall(t, d, OpGlobalDir, "", "", "")
	names, err := pack.Unpack(out, false)
	require.NoError(t, err)
	assert.Equal(t, token.List{"^alpha", "^beta"}, names)

	out = mustCall(t, d, OpLocalDir, "", "", "")
	names, _ = pack.Unpack(out, false)
	assert.Equal(t, token.List{"scratch"}, names)

	// max caps the listing; lo/hi bound it.
	out = mustCall(t, d, OpGlobalDir, "1", "", "")
	names, _ = pack.Unpack(out, false)
	assert.Equal(t, token.List{"^alpha"}, names)

	out = mustCall(t, d, OpGlobalDir, "", "^b", "")
	names, _ = pack.Unpack(out, false)
	assert.Equal(t, token.List{"^beta"}, names)

	// Empty listing is an empty buffer.
	assert.Equal(t, "", mustCall(t, d, OpGlobalDir, "", "^z", ""))
}

func TestDB_SpilledReference(t *testing.T) {
	d := openTestDB(t)
	literal := "^big(" + pack.SpillArray + "(1))"

	mustCall(t, d, OpSet, literal, "stored", `"key"`)
	out := mustCall(t, d, OpGet, `^big("key")`)
	fields, _ := pack.Unpack(out, false)
	assert.Equal(t, token.List{"1", "stored"}, fields)
}

func TestDB_Persistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nodes.db")

	d, err := Open(path)
	require.NoError(t, err)
	mustCall(t, d, OpSet, `^persist("k")`, "v")
	mustCall(t, d, OpSet, "^persist", "root")
	mustCall(t, d, OpSet, "^gone", "x")
	mustCall(t, d, OpKill, "^gone")
	require.NoError(t, d.Close())

	d2, err := Open(path)
	require.NoError(t, err)
	defer d2.Close()

	out := mustCall(t, d2, OpGet, `^persist("k")`)
	fields, _ := pack.Unpack(out, false)
	assert.Equal(t, token.List{"1", "v"}, fields)

	out = mustCall(t, d2, OpGet, "^persist")
	fields, _ = pack.Unpack(out, false)
	assert.Equal(t, token.List{"1", "root"}, fields)

	assert.Equal(t, "0", mustCall(t, d2, OpData, "^gone"))
}

func TestDB_StoreFailureSurfaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nodes.db")
	d, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })

	mustCall(t, d, OpSet, "^p", "v")

	// Closing the backing database forces every write-through to fail.
	require.NoError(t, d.store.db.Close())

	st, msg := d.Call(OpSet, []string{"^p", "w"})
	assert.Equal(t, StatusStorage, st)
	assert.Contains(t, msg, "persist")

	st, _ = d.Call(OpKill, []string{"^p"})
	assert.Equal(t, StatusStorage, st)

	st, _ = d.Call(OpIncrement, []string{"^p", "1"})
	assert.Equal(t, StatusStorage, st)
}

func TestDB_RejectsEmptySubscriptWrites(t *testing.T) {
	d := openTestDB(t)

	st, msg := d.Call(OpSet, []string{`^a("")`, "v"})
	assert.Equal(t, StatusBadRequest, st)
	assert.Contains(t, msg, "empty subscript")

	st, _ = d.Call(OpIncrement, []string{`^a("")`, "1"})
	assert.Equal(t, StatusBadRequest, st)
}

func TestDB_UnknownEntryPoint(t *testing.T) {
	d := openTestDB(t)
	st, msg := d.Call("bogus", nil)
	assert.Equal(t, StatusBadRequest, st)
	assert.Contains(t, msg, "bogus")
}

func TestDB_ClosedChannel(t *testing.T) {
	d := openTestDB(t)
	require.NoError(t, d.Close())

	st, _ := d.Call(OpGet, []string{"^x"})
	assert.Equal(t, StatusBadRequest, st)
}
