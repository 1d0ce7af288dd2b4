package engine

import (
	"sort"
	"strconv"
	"strings"
)

// entry is one stored node: a subscript path and its value. Only nodes
// that hold a value are materialized; intermediate nodes exist implicitly
// as prefixes.
type entry struct {
	subs  []string
	value string
}

// tree is the hierarchical sparse-array store for one name. Entries are
// kept sorted in depth-first order under the engine's subscript collation:
// canonical numerics sort before strings and among themselves by value,
// strings sort bytewise, and a prefix precedes its extensions.
type tree struct {
	entries []entry
}

// isCanonicalNum reports whether a subscript collates numerically:
// optional leading '-', digits with at most one decimal point, at least
// one digit, no exponent.
func isCanonicalNum(s string) bool {
	if s == "" {
		return false
	}
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

// compareSub orders two sibling subscripts under engine collation.
func compareSub(a, b string) int {
	an, bn := isCanonicalNum(a), isCanonicalNum(b)
	switch {
	case an && !bn:
		return -1
	case !an && bn:
		return 1
	case an && bn:
		af, _ := strconv.ParseFloat(a, 64)
		bf, _ := strconv.ParseFloat(b, 64)
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	default:
		return strings.Compare(a, b)
	}
}

// comparePath orders two subscript paths element-wise, shorter prefix
// first. This is exactly depth-first node order.
func comparePath(a, b []string) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if c := compareSub(a[i], b[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

// hasPrefix reports whether path starts with prefix (element-wise).
func hasPrefix(path, prefix []string) bool {
	if len(path) < len(prefix) {
		return false
	}
	for i := range prefix {
		if path[i] != prefix[i] {
			return false
		}
	}
	return true
}

// search returns the insertion index for subs and whether an exact entry
// exists there.
func (t *tree) search(subs []string) (int, bool) {
	i := sort.Search(len(t.entries), func(i int) bool {
		return comparePath(t.entries[i].subs, subs) >= 0
	})
	if i < len(t.entries) && comparePath(t.entries[i].subs, subs) == 0 {
		return i, true
	}
	return i, false
}

func (t *tree) set(subs []string, value string) {
	i, found := t.search(subs)
	if found {
		t.entries[i].value = value
		return
	}
	cp := make([]string, len(subs))
	copy(cp, subs)
	t.entries = append(t.entries, entry{})
	copy(t.entries[i+1:], t.entries[i:])
	t.entries[i] = entry{subs: cp, value: value}
}

func (t *tree) get(subs []string) (string, bool) {
	i, found := t.search(subs)
	if !found {
		return "", false
	}
	return t.entries[i].value, true
}

// kill removes the node and its entire subtree. Empty subs kills the
// whole tree.
func (t *tree) kill(subs []string) {
	i, _ := t.search(subs)
	j := i
	for j < len(t.entries) && hasPrefix(t.entries[j].subs, subs) {
		j++
	}
	t.entries = append(t.entries[:i], t.entries[j:]...)
}

// data reports node state: 0 no value and no children, 1 value only,
// 10 children only, 11 both.
func (t *tree) data(subs []string) int {
	i, found := t.search(subs)
	d := 0
	if found {
		d = 1
		i++
	}
	if i < len(t.entries) && hasPrefix(t.entries[i].subs, subs) && len(t.entries[i].subs) > len(subs) {
		d += 10
	}
	return d
}

// order returns the next (forward) or previous (reverse) sibling
// subscript at the level of the last subscript in subs, or "" when the
// traversal is exhausted. An empty last subscript starts from the
// beginning (forward) or the end (reverse).
func (t *tree) order(subs []string, forward bool) string {
	if len(subs) == 0 {
		return ""
	}
	n := len(subs)
	parent := subs[:n-1]
	from := subs[n-1]

	var siblings []string
	seen := map[string]bool{}
	for _, e := range t.entries {
		if len(e.subs) < n || !hasPrefix(e.subs, parent) {
			continue
		}
		s := e.subs[n-1]
		if !seen[s] {
			seen[s] = true
			siblings = append(siblings, s)
		}
	}
	sort.Slice(siblings, func(i, j int) bool { return compareSub(siblings[i], siblings[j]) < 0 })

	if forward {
		for _, s := range siblings {
			if from == "" || compareSub(s, from) > 0 {
				return s
			}
		}
		return ""
	}
	for i := len(siblings) - 1; i >= 0; i-- {
		if from == "" || compareSub(siblings[i], from) < 0 {
			return siblings[i]
		}
	}
	return ""
}

// nextNode returns the subscripts and value of the node that follows subs
// in depth-first order, visiting only nodes that hold a value.
func (t *tree) nextNode(subs []string) ([]string, string, bool) {
	i, found := t.search(subs)
	if found {
		i++
	}
	if i >= len(t.entries) {
		return nil, "", false
	}
	return t.entries[i].subs, t.entries[i].value, true
}

// previousNode is the reverse traversal counterpart of nextNode.
func (t *tree) previousNode(subs []string) ([]string, string, bool) {
	i, _ := t.search(subs)
	if i == 0 {
		return nil, "", false
	}
	return t.entries[i-1].subs, t.entries[i-1].value, true
}

// subtree returns every entry at or under subs, with paths relative to it.
func (t *tree) subtree(subs []string) []entry {
	var out []entry
	for _, e := range t.entries {
		if !hasPrefix(e.subs, subs) {
			continue
		}
		rel := make([]string, len(e.subs)-len(subs))
		copy(rel, e.subs[len(subs):])
		out = append(out, entry{subs: rel, value: e.value})
	}
	return out
}

// numericValue applies the engine's forced numeric coercion: the longest
// leading numeric prefix, or 0 when there is none.
func numericValue(s string) float64 {
	end := 0
	dot := false
	for end < len(s) {
		c := s[end]
		if c == '-' && end == 0 {
			end++
			continue
		}
		if c == '.' && !dot {
			dot = true
			end++
			continue
		}
		if c >= '0' && c <= '9' {
			end++
			continue
		}
		break
	}
	v, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return 0
	}
	return v
}

// formatNumber renders a float in the engine's canonical decimal form:
// no exponent, no trailing zeros, no redundant leading zero.
func formatNumber(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if strings.HasPrefix(s, "0.") {
		return s[1:]
	}
	if strings.HasPrefix(s, "-0.") {
		return "-" + s[2:]
	}
	return s
}
