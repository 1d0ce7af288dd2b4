package engine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbridge/mbridge/internal/pack"
)

func TestParseReference_Bare(t *testing.T) {
	name, subs, err := parseReference("^greeting", nil)
	require.NoError(t, err)
	assert.Equal(t, "^greeting", name)
	assert.Nil(t, subs)
}

func TestParseReference_Tokens(t *testing.T) {
	name, subs, err := parseReference(`^orders("cust42",7,-.5)`, nil)
	require.NoError(t, err)
	assert.Equal(t, "^orders", name)
	assert.Equal(t, []string{"cust42", "7", "-.5"}, subs)
}

func TestParseReference_QuotedCommaAndDoubledQuote(t *testing.T) {
	name, subs, err := parseReference(`^g("a,b","say ""hi""")`, nil)
	require.NoError(t, err)
	assert.Equal(t, "^g", name)
	assert.Equal(t, []string{"a,b", `say "hi"`}, subs)
}

func TestParseReference_Spill(t *testing.T) {
	literal := fmt.Sprintf("^g(%s(1),%s(2))", pack.SpillArray, pack.SpillArray)
	name, subs, err := parseReference(literal, []string{`"hello"`, "42"})
	require.NoError(t, err)
	assert.Equal(t, "^g", name)
	assert.Equal(t, []string{"hello", "42"}, subs)
}

func TestParseReference_SpillSlotOutOfRange(t *testing.T) {
	literal := fmt.Sprintf("^g(%s(3))", pack.SpillArray)
	_, _, err := parseReference(literal, []string{"only"})
	assert.Error(t, err)
}

func TestParseReference_Malformed(t *testing.T) {
	cases := []string{
		"",
		"^g(1",
		`^g("unterminated)`,
		"9bad(1)",
		"^(1)",
	}
	for _, literal := range cases {
		_, _, err := parseReference(literal, nil)
		assert.Error(t, err, "literal %q", literal)
	}
}
