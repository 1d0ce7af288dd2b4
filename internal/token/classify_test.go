package token

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify_AlreadyQuoted(t *testing.T) {
	assert.Equal(t, AlreadyQuoted, Classify(`"hello"`, Input))
	assert.Equal(t, AlreadyQuoted, Classify(`"hello"`, Output))
	assert.Equal(t, AlreadyQuoted, Classify(`""`, Input))

	// A lone quote is not a matching pair.
	assert.Equal(t, QuotedString, Classify(`"`, Input))
}

func TestClassify_Numbers_Input(t *testing.T) {
	tests := []struct {
		tok  string
		want Class
	}{
		{"0", Number},
		{"42", Number},
		{"-42", Number},
		{"0.5", Number},
		{".5", Number},
		{"-.5", Number},
		{"123.456", Number},
		{"-", QuotedString},
		{".", QuotedString},
		{"1.2.3", QuotedString},
		{"1e5", QuotedString},  // exponent is not input grammar
		{"+5", QuotedString},   // leading plus not accepted
		{" 5", QuotedString},   // whitespace not accepted
		{"", QuotedString},     // empty is never a number
		{"abc", QuotedString},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.tok, Input), "token %q", tt.tok)
	}
}

func TestClassify_ExponentMarker_InputOnly(t *testing.T) {
	// Host exponent notation the engine cannot parse as a number.
	assert.Equal(t, QuotedString, Classify("1e+21", Input))

	// Output direction has no e+ rule, but a lower-case e still fails the
	// output numeric grammar.
	assert.Equal(t, QuotedString, Classify("1e+21", Output))
}

func TestClassify_Output_ForcedCoercion(t *testing.T) {
	assert.Equal(t, Number, Classify("42", Output))
	assert.Equal(t, Number, Classify("-3.25", Output))
	assert.Equal(t, Number, Classify(".5", Output))
	assert.Equal(t, QuotedString, Classify("42abc", Output))
	assert.Equal(t, QuotedString, Classify("", Output))
}

func TestClassify_Output_RejectsNonJSONNumerics(t *testing.T) {
	// Spellings a float parser would coerce but that are not valid JSON
	// number literals must travel quoted.
	rejected := []string{
		"NaN", "nan", "Inf", "+Inf", "Infinity",
		"+5", "5.", "-5.", ".",
		"0x1p4", "00.5", "007",
		"1e5", "1E5",
	}
	for _, tok := range rejected {
		assert.Equal(t, QuotedString, Classify(tok, Output), "token %q", tok)
	}

	accepted := []string{"0", "-0", "42", "0.5", ".5", "-.5", "1.50", "123.456"}
	for _, tok := range accepted {
		assert.Equal(t, Number, Classify(tok, Output), "token %q", tok)
	}
}

func TestClassify_FifteenCharBoundary(t *testing.T) {
	num15 := strings.Repeat("9", 15)
	num16 := strings.Repeat("9", 16)

	assert.Equal(t, Number, Classify(num15, Input))
	assert.Equal(t, Number, Classify(num15, Output))
	assert.Equal(t, QuotedString, Classify(num16, Input))
	assert.Equal(t, QuotedString, Classify(num16, Output))
}

func TestList_Equal(t *testing.T) {
	assert.True(t, List{"a", "b"}.Equal(List{"a", "b"}))
	assert.True(t, List{}.Equal(List{}))
	assert.True(t, List(nil).Equal(List{}))
	assert.False(t, List{"a"}.Equal(List{"a", "b"}))
	assert.False(t, List{"a", "b"}.Equal(List{"b", "a"}))
	assert.True(t, List{""}.Equal(List{""}))
}

func TestList_Clone(t *testing.T) {
	orig := List{"a", "b"}
	cl := orig.Clone()
	cl[0] = "z"
	assert.Equal(t, "a", orig[0])
	assert.Nil(t, List(nil).Clone())
}
