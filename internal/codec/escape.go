package codec

import (
	"fmt"
	"strconv"
	"strings"
)

// needsEscape reports whether a token contains a quote, a backslash, or a
// single-byte control/non-printable character.
func needsEscape(s string) bool {
	for i := 0; i < len(s); i++ {
		b := s[i]
		if b == '"' || b == '\\' || b < 0x20 || b == 0x7f {
			return true
		}
	}
	return false
}

// EscapeForTransport rewrites a token so it survives embedding in a JSON
// string literal regardless of mode: every backslash and quote gains a
// preceding backslash, and every single-byte control character at or below
// 0x7f becomes a \u00hh escape with two lower-case hex digits. All other
// bytes pass through unchanged.
//
// Escaping is only ever applied to string/data tokens, never to numbers.
func EscapeForTransport(s string) string {
	if !needsEscape(s) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 8)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\\':
			b.WriteString(`\\`)
		case c == '"':
			b.WriteString(`\"`)
		case c < 0x20 || c == 0x7f:
			fmt.Fprintf(&b, `\u00%02x`, c)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// UnescapeTransport is the exact inverse of EscapeForTransport. It fails
// on truncated or malformed escape sequences rather than guessing.
func UnescapeTransport(s string) (string, error) {
	if !strings.ContainsRune(s, '\\') {
		return s, nil
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		if i+1 >= len(s) {
			return "", fmt.Errorf("truncated escape at offset %d", i)
		}
		i++
		switch s[i] {
		case '\\':
			b.WriteByte('\\')
		case '"':
			b.WriteByte('"')
		case 'u':
			if i+4 >= len(s) {
				return "", fmt.Errorf("truncated \\u escape at offset %d", i-1)
			}
			n, err := strconv.ParseUint(s[i+1:i+5], 16, 16)
			if err != nil {
				return "", fmt.Errorf("malformed \\u escape %q: %w", s[i-1:i+5], err)
			}
			if n > 0x7f {
				return "", fmt.Errorf("escape %q outside single-byte range", s[i-1:i+5])
			}
			b.WriteByte(byte(n))
			i += 4
		default:
			return "", fmt.Errorf("unknown escape \\%c at offset %d", s[i], i-1)
		}
	}
	return b.String(), nil
}

// DoubleQuotes doubles every internal quote character so the engine's own
// string-literal grammar accepts the token unchanged. Engine-bound strings
// only.
func DoubleQuotes(s string) string {
	return strings.ReplaceAll(s, `"`, `""`)
}

// UndoubleQuotes is the inverse of DoubleQuotes.
func UndoubleQuotes(s string) string {
	return strings.ReplaceAll(s, `""`, `"`)
}
