package pack

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mbridge/mbridge/internal/token"
)

// lenDelim terminates the decimal length prefix of each packed token.
// A non-digit byte keeps the prefix self-delimiting even when the token
// itself begins with digits.
const lenDelim = '#'

// ErrMalformed reports a packed string that does not follow the
// <decimal-length>#<token-bytes> grammar.
var ErrMalformed = errors.New("malformed packed string")

// Pack serializes an ordered token list into one transport string:
// each token is prefixed by its decimal byte length and the length
// delimiter, entries back-to-back with no separators.
//
// An empty list packs to a single empty-string token; the returned empty
// flag distinguishes "zero subscripts" from an explicit single
// empty-string subscript. The flag must travel alongside the wire string.
func Pack(list token.List) (wire string, empty bool) {
	if len(list) == 0 {
		return "0#", true
	}
	var b strings.Builder
	for _, tok := range list {
		b.WriteString(strconv.Itoa(len(tok)))
		b.WriteByte(lenDelim)
		b.WriteString(tok)
	}
	return b.String(), false
}

// Unpack parses a packed string back into its token list. The empty flag
// must be the one produced by Pack; when set, the single empty token is
// interpreted as the zero-subscript list.
//
// Packing then unpacking reproduces the original list exactly, including
// empty tokens.
func Unpack(wire string, empty bool) (token.List, error) {
	if empty {
		if wire != "0#" {
			return nil, fmt.Errorf("%w: empty flag set but wire is %q", ErrMalformed, wire)
		}
		return token.List{}, nil
	}
	list := token.List{}
	pos := 0
	for pos < len(wire) {
		length, next, err := readLength(wire, pos)
		if err != nil {
			return nil, err
		}
		// Compared this way round so a length prefix near the integer
		// ceiling cannot overflow the bound check.
		if length > len(wire)-next {
			return nil, fmt.Errorf("%w: length %d at offset %d overruns input", ErrMalformed, length, pos)
		}
		list = append(list, wire[next:next+length])
		pos = next + length
	}
	return list, nil
}

// DropLast removes the final packed token from the wire form, returning
// the shortened wire string and the removed token. Merge needs this: the
// last packed element of a target is dropped before reference
// construction.
func DropLast(wire string) (string, token.Token, error) {
	list, err := Unpack(wire, false)
	if err != nil {
		return "", "", err
	}
	if len(list) == 0 {
		return "", "", fmt.Errorf("%w: no tokens to drop", ErrMalformed)
	}
	last := list[len(list)-1]
	shortened, _ := Pack(list[:len(list)-1])
	if len(list) == 1 {
		// Dropping the only token yields the zero-subscript form.
		shortened = "0#"
	}
	return shortened, last, nil
}

// readLength consumes the decimal run starting at pos and its delimiter,
// returning the parsed length and the offset of the first token byte.
func readLength(wire string, pos int) (length, next int, err error) {
	i := pos
	for i < len(wire) && wire[i] >= '0' && wire[i] <= '9' {
		i++
	}
	if i == pos {
		return 0, 0, fmt.Errorf("%w: expected length digits at offset %d", ErrMalformed, pos)
	}
	if i >= len(wire) || wire[i] != lenDelim {
		return 0, 0, fmt.Errorf("%w: missing length delimiter at offset %d", ErrMalformed, i)
	}
	n, err := strconv.Atoi(wire[pos:i])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: length at offset %d: %v", ErrMalformed, pos, err)
	}
	return n, i + 1, nil
}
