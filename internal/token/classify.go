package token

import (
	"strings"
)

// Class is the semantic classification of a token.
type Class int

const (
	// Number means the token matches the numeric grammar for its direction
	// and may travel as a bare numeric literal.
	Number Class = iota + 1
	// QuotedString means the token must travel wrapped in quotes.
	QuotedString
	// AlreadyQuoted means the token arrived already delimited by a matching
	// quote pair and must not be re-wrapped.
	AlreadyQuoted
)

// String returns the class name for diagnostics.
func (c Class) String() string {
	switch c {
	case Number:
		return "number"
	case QuotedString:
		return "string"
	case AlreadyQuoted:
		return "quoted"
	default:
		return "unknown"
	}
}

// Direction distinguishes host-to-engine (input) from engine-to-host
// (output) classification. The numeric grammar differs per direction.
type Direction int

const (
	// Input classifies tokens travelling from the host toward the engine.
	Input Direction = iota + 1
	// Output classifies tokens travelling from the engine toward the host.
	Output
)

// MaxNumericLen is the longest token the classifier will ever call a
// number. The engine carries ~18 significant digits with a ~47-digit
// overflow ceiling; the host runtime carries ~16 digits and switches to
// exponent notation near 21. Fifteen characters is the conservative bound
// under both ceilings: anything longer cannot be trusted to round-trip
// without silent precision loss, so it travels as a string.
//
// Callers depend on this exact boundary for round-trip fidelity. Do not
// adjust it.
const MaxNumericLen = 15

// Classify decides whether a token should be treated as a number or a
// quoted string for the given direction.
//
// Rules, in order:
//  1. Already delimited by a matching quote pair -> AlreadyQuoted.
//  2. Longer than MaxNumericLen -> QuotedString.
//  3. Input only: contains a lower-case exponent marker ("e+") ->
//     QuotedString (the engine cannot parse host exponent notation).
//  4. Matches the direction's numeric grammar -> Number.
//  5. Otherwise -> QuotedString.
func Classify(tok Token, dir Direction) Class {
	if IsQuoted(tok) {
		return AlreadyQuoted
	}
	if len(tok) > MaxNumericLen {
		return QuotedString
	}
	if dir == Input && strings.Contains(tok, "e+") {
		return QuotedString
	}
	if isNumeric(tok, dir) {
		return Number
	}
	return QuotedString
}

// IsQuoted reports whether the token is delimited by a matching quote pair
// at both ends.
func IsQuoted(tok Token) bool {
	return len(tok) >= 2 && tok[0] == '"' && tok[len(tok)-1] == '"'
}

// isNumeric applies the direction-specific numeric grammar.
//
// Input grammar: optional leading '-', then digits with at most one
// decimal point and at least one digit. No exponent, no leading '+',
// no whitespace.
//
// Output grammar: the engine emits canonical numerics, so the check is
// membership in the canonical numeric grammar. Every token it accepts is
// a valid JSON number literal once the leading zero is restored.
func isNumeric(tok Token, dir Direction) bool {
	if tok == "" {
		return false
	}
	if dir == Output {
		return isCanonicalNumber(tok)
	}

	s := tok
	if s[0] == '-' {
		s = s[1:]
	}
	if s == "" {
		return false
	}
	dot := false
	digits := 0
	for i := 0; i < len(s); i++ {
		switch {
		case s[i] >= '0' && s[i] <= '9':
			digits++
		case s[i] == '.':
			if dot {
				return false
			}
			dot = true
		default:
			return false
		}
	}
	return digits > 0
}

// isCanonicalNumber matches the engine's canonical numeric grammar:
// optional leading '-', then either a bare ".digits" fraction or an
// integer part with no redundant leading zero and an optional ".digits"
// fraction. Exponent forms, NaN/infinity spellings, a leading '+', hex
// floats, and a trailing '.' all fall outside the grammar and travel as
// strings.
func isCanonicalNumber(tok Token) bool {
	s := tok
	if s[0] == '-' {
		s = s[1:]
	}
	if s == "" {
		return false
	}
	if s[0] == '.' {
		return allDigits(s[1:])
	}
	intPart := s
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart = s[:i]
		if !allDigits(s[i+1:]) {
			return false
		}
	}
	if !allDigits(intPart) {
		return false
	}
	if len(intPart) > 1 && intPart[0] == '0' {
		return false
	}
	return true
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
