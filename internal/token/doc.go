// Package token defines the scalar token model shared by the codec and
// the packer, and the classifier that decides whether a token travels as
// a bare number or a quoted string.
//
// The classifier exists because the engine and the host runtime disagree
// on numeric precision and overflow thresholds. The 15-character cutoff
// and the lower-case exponent check are pragmatic compatibility bounds,
// not derived rules; callers depend on the exact boundary.
package token
