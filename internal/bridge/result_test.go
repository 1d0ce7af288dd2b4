package bridge

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbridge/mbridge/internal/codec"
	"github.com/mbridge/mbridge/internal/pack"
	"github.com/mbridge/mbridge/internal/token"
)

func TestBuildResultGet(t *testing.T) {
	wire, _ := pack.Pack(token.List{"1", "apple"})

	result, err := buildResult(OpGet, codec.Canonical, wire)
	require.NoError(t, err)
	assert.JSONEq(t, `{"defined":1,"data":"apple"}`, string(result))

	result, err = buildResult(OpGet, codec.Strict, wire)
	require.NoError(t, err)
	assert.JSONEq(t, `{"defined":1,"data":"apple"}`, string(result))
}

func TestBuildResultGetNumeric(t *testing.T) {
	wire, _ := pack.Pack(token.List{"1", ".5"})

	result, err := buildResult(OpGet, codec.Canonical, wire)
	require.NoError(t, err)
	// Canonical decoding restores the host leading zero.
	assert.JSONEq(t, `{"defined":1,"data":0.5}`, string(result))

	result, err = buildResult(OpGet, codec.Strict, wire)
	require.NoError(t, err)
	assert.JSONEq(t, `{"defined":1,"data":".5"}`, string(result))
}

func TestBuildResultGetMalformed(t *testing.T) {
	_, err := buildResult(OpGet, codec.Canonical, "zzz")
	require.Error(t, err)
	assert.True(t, IsEncodingError(err))
}

func TestBuildResultTraversal(t *testing.T) {
	wire, _ := pack.Pack(token.List{"1", "val", "1", "apple"})

	result, err := buildResult(OpNextNode, codec.Canonical, wire)
	require.NoError(t, err)
	assert.JSONEq(t, `{"defined":1,"subscripts":[1,"apple"],"data":"val"}`, string(result))

	end, _ := pack.Pack(token.List{"0"})
	result, err = buildResult(OpPreviousNode, codec.Canonical, end)
	require.NoError(t, err)
	assert.JSONEq(t, `{"defined":0}`, string(result))
}

func TestBuildResultControlCharactersEscaped(t *testing.T) {
	wire, _ := pack.Pack(token.List{"1", "line1\nline2"})

	result, err := buildResult(OpGet, codec.Canonical, wire)
	require.NoError(t, err)
	assert.JSONEq(t, "{\"defined\":1,\"data\":\"line1\\nline2\"}", string(result))
}

func TestBuildResultVoidOps(t *testing.T) {
	for _, op := range []Operation{OpSet, OpKill, OpUnlock, OpMerge, OpProcedure} {
		result, err := buildResult(op, codec.Canonical, "")
		require.NoError(t, err)
		assert.JSONEq(t, `{}`, string(result), "op %s", op)
	}
}

func TestBuildResultDirectory(t *testing.T) {
	wire, _ := pack.Pack(token.List{"^a", "^b"})

	result, err := buildResult(OpGlobalDirectory, codec.Canonical, wire)
	require.NoError(t, err)
	assert.JSONEq(t, `{"result":["^a","^b"]}`, string(result))

	result, err = buildResult(OpLocalDirectory, codec.Canonical, "")
	require.NoError(t, err)
	assert.JSONEq(t, `{"result":[]}`, string(result))
}

func TestBuildResultOversizedOutput(t *testing.T) {
	_, err := buildResult(OpGet, codec.Canonical, strings.Repeat("x", MaxResultSize+1))
	require.Error(t, err)
	assert.True(t, IsCapacityError(err))
}
