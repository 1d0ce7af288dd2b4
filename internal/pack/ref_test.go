package pack

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbridge/mbridge/internal/token"
)

func TestBuildReference_Bare(t *testing.T) {
	ref, err := BuildReference("^greeting", nil)
	require.NoError(t, err)
	assert.Equal(t, "^greeting", ref.Literal)
	assert.False(t, ref.Indirect())
}

func TestBuildReference_WithTokens(t *testing.T) {
	ref, err := BuildReference("^orders", token.List{`"cust42"`, "7"})
	require.NoError(t, err)
	assert.Equal(t, `^orders("cust42",7)`, ref.Literal)
	assert.False(t, ref.Indirect())
}

func TestBuildReference_SpillFallback(t *testing.T) {
	big := `"` + strings.Repeat("x", MaxIndirection) + `"`
	toks := token.List{big, "7"}

	ref, err := BuildReference("^orders", toks)
	require.NoError(t, err)
	assert.True(t, ref.Indirect())
	assert.Equal(t, fmt.Sprintf("^orders(%s(1),%s(2))", SpillArray, SpillArray), ref.Literal)
	assert.True(t, toks.Equal(ref.Spill))
	assert.LessOrEqual(t, len(ref.Literal), MaxIndirection)
}

func TestBuildReferenceBase_SlotOffset(t *testing.T) {
	big := `"` + strings.Repeat("x", MaxIndirection) + `"`
	toks := token.List{big, "7"}

	ref, err := BuildReferenceBase("^dst", toks, 3)
	require.NoError(t, err)
	assert.True(t, ref.Indirect())
	assert.Equal(t, fmt.Sprintf("^dst(%s(4),%s(5))", SpillArray, SpillArray), ref.Literal)
}

func TestBuildReference_SpillIsACopy(t *testing.T) {
	big := `"` + strings.Repeat("x", MaxIndirection) + `"`
	toks := token.List{big}

	ref, err := BuildReference("^g", toks)
	require.NoError(t, err)

	toks[0] = "mutated"
	assert.Equal(t, big, ref.Spill[0])
}

func TestBuildReference_UnrecoverablyLong(t *testing.T) {
	// Enough subscripts that even the spill-slot form exceeds the limit.
	toks := make(token.List, MaxIndirection)
	for i := range toks {
		toks[i] = "1"
	}
	_, err := BuildReference("^g", toks)
	assert.Error(t, err)
}

func TestValidateName(t *testing.T) {
	valid := []string{"x", "abc", "ABC9", "%util", "^global", "^%sys", "$order"}
	for _, name := range valid {
		assert.NoError(t, ValidateName(name), "name %q", name)
	}

	invalid := []string{"", "^", "$", "9abc", "^9", "a-b", "a b", "a.b", "^glo^bal"}
	for _, name := range invalid {
		assert.Error(t, ValidateName(name), "name %q", name)
	}
}
