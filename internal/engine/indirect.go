package engine

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mbridge/mbridge/internal/pack"
)

// parseReference resolves a reference literal of the form name(tok1,...)
// or bare name into the name and its raw subscript values. This is the
// engine's indirection mechanism: tokens arrive engine-encoded (quoted
// strings with doubled internal quotes, or canonical numerics) and spill
// slots of the form %bridgeTmp(n) are resolved from the supplied spill
// values.
func parseReference(literal string, spill []string) (string, []string, error) {
	if len(literal) > pack.MaxIndirection {
		return "", nil, fmt.Errorf("indirection string exceeds %d bytes", pack.MaxIndirection)
	}
	open := strings.IndexByte(literal, '(')
	if open < 0 {
		if err := pack.ValidateName(literal); err != nil {
			return "", nil, err
		}
		return literal, nil, nil
	}
	if literal[len(literal)-1] != ')' {
		return "", nil, fmt.Errorf("unbalanced reference %q", literal)
	}
	name := literal[:open]
	if err := pack.ValidateName(name); err != nil {
		return "", nil, err
	}

	raw, err := splitTokens(literal[open+1 : len(literal)-1])
	if err != nil {
		return "", nil, fmt.Errorf("reference %q: %w", literal, err)
	}
	subs := make([]string, len(raw))
	for i, tok := range raw {
		dec, err := decodeToken(tok, spill)
		if err != nil {
			return "", nil, fmt.Errorf("reference %q subscript %d: %w", literal, i+1, err)
		}
		subs[i] = dec
	}
	return name, subs, nil
}

// splitTokens splits a comma-separated token list at the top level,
// honoring the string-literal grammar: commas inside quotes do not split,
// and a doubled quote inside a quoted token is a literal quote.
func splitTokens(inner string) ([]string, error) {
	if inner == "" {
		return nil, nil
	}
	var toks []string
	var cur strings.Builder
	inQuote := false
	for i := 0; i < len(inner); i++ {
		c := inner[i]
		switch {
		case c == '"':
			if inQuote && i+1 < len(inner) && inner[i+1] == '"' {
				cur.WriteString(`""`)
				i++
				continue
			}
			inQuote = !inQuote
			cur.WriteByte(c)
		case c == ',' && !inQuote:
			toks = append(toks, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	if inQuote {
		return nil, fmt.Errorf("unterminated string literal")
	}
	toks = append(toks, cur.String())
	return toks, nil
}

// decodeToken converts one engine-encoded token to its raw value. Spill
// placeholders are resolved first, then quoted tokens lose their
// delimiters and quote doubling; anything else is a canonical numeric and
// passes through.
func decodeToken(tok string, spill []string) (string, error) {
	if slot, ok := spillSlot(tok); ok {
		if slot < 1 || slot > len(spill) {
			return "", fmt.Errorf("spill slot %d out of range (have %d)", slot, len(spill))
		}
		return decodeToken(spill[slot-1], nil)
	}
	if len(tok) >= 2 && tok[0] == '"' && tok[len(tok)-1] == '"' {
		return strings.ReplaceAll(tok[1:len(tok)-1], `""`, `"`), nil
	}
	return tok, nil
}

// spillSlot recognizes the %bridgeTmp(n) placeholder form.
func spillSlot(tok string) (int, bool) {
	prefix := pack.SpillArray + "("
	if !strings.HasPrefix(tok, prefix) || !strings.HasSuffix(tok, ")") {
		return 0, false
	}
	n, err := strconv.Atoi(tok[len(prefix) : len(tok)-1])
	if err != nil {
		return 0, false
	}
	return n, true
}
