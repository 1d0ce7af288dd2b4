package codec

import (
	"strings"

	"github.com/mbridge/mbridge/internal/token"
)

// Mode selects how value types travel across the bridge.
type Mode int

const (
	// Strict mode: tokens travel as literal JSON values, ambiguity resolved
	// by the caller's explicit typing. No numeric heuristics are applied.
	Strict Mode = 0
	// Canonical mode: tokens travel as bare strings with type inferred
	// heuristically by the classifier.
	Canonical Mode = 1
)

// String returns the mode name for diagnostics.
func (m Mode) String() string {
	if m == Strict {
		return "strict"
	}
	return "canonical"
}

// EncodeInput converts a single host token to the engine's canonical form.
//
// isDataValue marks tokens that carry node data (the payload of set, the
// delta of increment) as opposed to subscripts and call arguments: data
// values are stored raw by the engine, so quoted data has exactly one
// quote layer stripped, while non-data tokens are quote-wrapped so the
// engine's string-literal grammar accepts them inside a reference.
//
// The codec never invents a value. It only reshapes delimiters and
// leading-zero conventions.
func EncodeInput(tok token.Token, mode Mode, isDataValue bool) token.Token {
	if mode == Strict {
		// Explicit typing: anything not already a quoted literal is wrapped.
		if token.IsQuoted(tok) {
			if isDataValue {
				return unwrapQuotes(tok)
			}
			return tok
		}
		if isDataValue || tok == "" {
			return tok
		}
		return wrapQuotes(tok)
	}

	switch token.Classify(tok, token.Input) {
	case token.Number:
		return canonicalNumber(tok)
	case token.AlreadyQuoted:
		if isDataValue {
			return unwrapQuotes(tok)
		}
		return tok
	default:
		if isDataValue || tok == "" {
			// Empty token in canonical mode is the empty string, never 0.
			return tok
		}
		return wrapQuotes(tok)
	}
}

// DecodeOutput converts a single engine token to the host's JSON-literal
// form. In canonical mode, numbers get their leading zero restored and
// everything else becomes a quoted, transport-escaped JSON string literal.
// In strict mode the engine token is trusted as already correct.
func DecodeOutput(tok token.Token, mode Mode) token.Token {
	if mode == Strict {
		return tok
	}
	switch token.Classify(tok, token.Output) {
	case token.Number:
		return hostNumber(tok)
	case token.AlreadyQuoted:
		return tok
	default:
		return `"` + EscapeForTransport(tok) + `"`
	}
}

// canonicalNumber normalizes host leading-zero conventions to the engine's
// canonical decimal form: "0.5" -> ".5", "-0.5" -> "-.5".
func canonicalNumber(tok token.Token) token.Token {
	if strings.HasPrefix(tok, "0.") {
		return tok[1:]
	}
	if strings.HasPrefix(tok, "-0.") {
		return "-" + tok[2:]
	}
	return tok
}

// hostNumber is the inverse of canonicalNumber: ".5" -> "0.5",
// "-.5" -> "-0.5".
func hostNumber(tok token.Token) token.Token {
	if strings.HasPrefix(tok, ".") {
		return "0" + tok
	}
	if strings.HasPrefix(tok, "-.") {
		return "-0" + tok[1:]
	}
	return tok
}

// wrapQuotes wraps a bare token in quotes, doubling internal quotes so the
// engine's string-literal grammar accepts it unchanged.
func wrapQuotes(tok token.Token) token.Token {
	return `"` + DoubleQuotes(tok) + `"`
}

// unwrapQuotes strips exactly one layer of surrounding quotes.
func unwrapQuotes(tok token.Token) token.Token {
	if token.IsQuoted(tok) {
		return tok[1 : len(tok)-1]
	}
	return tok
}
