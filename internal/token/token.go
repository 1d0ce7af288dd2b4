package token

// Token is a single scalar unit of data flowing across the bridge: a
// subscript, a call argument, or a stored data value. Tokens are plain
// strings; their semantic class (number vs quoted string) is decided by
// Classify at the encoding boundary, never stored alongside the bytes.
type Token = string

// List is an ordered sequence of tokens: the subscripts of a node or the
// arguments of a call. Order is significant and preserved end-to-end.
// The empty list is a distinct, representable state (a global-level node
// with zero subscripts).
type List []Token

// Equal reports whether two lists contain the same tokens in the same order.
func (l List) Equal(other List) bool {
	if len(l) != len(other) {
		return false
	}
	for i := range l {
		if l[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of the list.
func (l List) Clone() List {
	if l == nil {
		return nil
	}
	out := make(List, len(l))
	copy(out, l)
	return out
}
