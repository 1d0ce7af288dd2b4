package bridge

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"github.com/mbridge/mbridge/internal/codec"
	"github.com/mbridge/mbridge/internal/engine"
	"github.com/mbridge/mbridge/internal/token"
)

// TestSessionTraceGolden runs a scripted session against the reference
// engine and snapshots every operation's result JSON. The trace pins the
// exact result shapes, field order included, so accidental changes to
// the host-facing format show up as a golden diff.
func TestSessionTraceGolden(t *testing.T) {
	db, err := engine.Open("")
	require.NoError(t, err)
	b := New(db)
	defer b.Close()

	ctx := context.Background()
	var trace bytes.Buffer

	step := func(op Operation, req Request) {
		t.Helper()
		req.Mode = codec.Canonical
		result, err := b.Do(ctx, op, req)
		require.NoError(t, err, "op %s", op)
		fmt.Fprintf(&trace, "%s %s\n", op, result)
	}

	sub := func(subs ...string) token.List { return token.List(subs) }

	step(OpSet, Request{Name: "^inv", Subscripts: sub("fruit", "1"), Value: "42"})
	step(OpSet, Request{Name: "^inv", Subscripts: sub("fruit", "2"), Value: "pear"})
	step(OpSet, Request{Name: "^inv", Subscripts: sub("fruit", "2", "kind"), Value: "0.5"})
	step(OpData, Request{Name: "^inv", Subscripts: sub("fruit", "2")})
	step(OpGet, Request{Name: "^inv", Subscripts: sub("fruit", "1")})
	step(OpGet, Request{Name: "^inv", Subscripts: sub("missing")})
	step(OpOrder, Request{Name: "^inv", Subscripts: sub("fruit", "1")})
	step(OpNextNode, Request{Name: "^inv"})
	step(OpPreviousNode, Request{Name: "^inv", Subscripts: sub("fruit", "2")})
	step(OpIncrement, Request{Name: "^inv", Subscripts: sub("fruit", "1")})
	step(OpLock, Request{Name: "^inv"})
	step(OpUnlock, Request{Name: "^inv"})
	step(OpGlobalDirectory, Request{})
	step(OpKill, Request{Name: "^inv", Subscripts: sub("fruit", "2")})
	step(OpData, Request{Name: "^inv", Subscripts: sub("fruit", "2")})
	step(OpVersion, Request{})

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "session_trace", trace.Bytes())
}
