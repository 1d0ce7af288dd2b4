// Package pack serializes ordered token lists into the engine's
// length-prefixed packed wire format and builds fully qualified reference
// literals for the engine's indirection mechanism, spilling to an
// auxiliary temporary array when a literal would exceed the indirection
// ceiling.
//
// Wire format: <decimal-length>#<token-bytes> per token, entries
// back-to-back with no separators. The format is stable and round-trips
// byte-for-byte.
package pack
