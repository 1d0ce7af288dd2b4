package pack

import (
	"fmt"
	"strings"

	"github.com/mbridge/mbridge/internal/token"
)

// MaxIndirection is the longest literal the engine's indirection mechanism
// accepts. References over this limit are rebuilt in indirect form via the
// spill array.
const MaxIndirection = 8192

// SpillArray is the auxiliary temporary array used for the indirect
// reference form. Each oversized reference assigns its tokens to numbered
// slots of this array; the literal then names the slots instead of the
// token text, keeping the indirection string short regardless of total
// argument size.
const SpillArray = "%bridgeTmp"

// Reference is a fully qualified name plus zero or more encoded tokens,
// rendered in the literal form the engine's indirection mechanism accepts.
type Reference struct {
	// Literal is the indirection string, either name(tok1,tok2,...) or the
	// spill-slot form name(%bridgeTmp(1),...).
	Literal string

	// Spill holds the token values for the numbered slots, in slot order.
	// Nil when the direct literal fit under MaxIndirection.
	Spill token.List
}

// Indirect reports whether the reference uses the spill-array form.
func (r Reference) Indirect() bool {
	return r.Spill != nil
}

// BuildReference renders name(tok1,tok2,...) or bare name when the token
// list is empty. Tokens must already be engine-encoded (canonical numbers
// or quote-wrapped strings).
//
// If the direct literal would exceed MaxIndirection, the reference falls
// back to the spill-array form. If even that form exceeds the limit the
// reference is unbuildable and an error is returned; this is surfaced to
// the caller before any engine call is attempted.
func BuildReference(name string, toks token.List) (Reference, error) {
	return BuildReferenceBase(name, toks, 0)
}

// BuildReferenceBase is BuildReference with spill slots numbered from
// base+1. Operations carrying two references in one call share a single
// spill list; the second reference's slots continue where the first
// reference's stopped.
func BuildReferenceBase(name string, toks token.List, base int) (Reference, error) {
	if err := ValidateName(name); err != nil {
		return Reference{}, err
	}
	if len(toks) == 0 {
		return Reference{Literal: name}, nil
	}

	direct := name + "(" + strings.Join(toks, ",") + ")"
	if len(direct) <= MaxIndirection {
		return Reference{Literal: direct}, nil
	}

	var b strings.Builder
	b.WriteString(name)
	b.WriteByte('(')
	for i := range toks {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%s(%d)", SpillArray, base+i+1)
	}
	b.WriteByte(')')
	indirect := b.String()
	if len(indirect) > MaxIndirection {
		return Reference{}, fmt.Errorf("reference %q with %d subscripts exceeds indirection limit even in spill form", name, len(toks))
	}
	return Reference{Literal: indirect, Spill: toks.Clone()}, nil
}

// ValidateName checks a global, local, intrinsic-special, function, or
// subroutine name against the engine's naming grammar: an optional leading
// '^' (global) or '$' (intrinsic), then '%' or a letter, then letters and
// digits.
func ValidateName(name string) error {
	s := name
	if s == "" {
		return fmt.Errorf("empty name")
	}
	if s[0] == '^' || s[0] == '$' {
		s = s[1:]
	}
	if s == "" {
		return fmt.Errorf("invalid name %q", name)
	}
	if !(s[0] == '%' || isAlpha(s[0])) {
		return fmt.Errorf("invalid name %q", name)
	}
	for i := 1; i < len(s); i++ {
		if !isAlpha(s[i]) && !(s[i] >= '0' && s[i] <= '9') {
			return fmt.Errorf("invalid name %q", name)
		}
	}
	return nil
}

func isAlpha(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
