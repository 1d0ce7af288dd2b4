// Package codec converts single tokens between the engine's canonical
// string form and the host's JSON-literal form, in both directions and in
// both encoding modes (strict and canonical). It also provides the
// transport escaper that makes string tokens safe to embed in delimited
// and JSON contexts.
package codec
