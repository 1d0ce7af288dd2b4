package codec

import (
	"bytes"
	"encoding/json"

	"golang.org/x/text/unicode/norm"
)

// JSONString produces a JSON string literal for host-facing results.
//
// Strings are NFC normalized at the serialization boundary and HTML
// escaping is disabled (< > & pass through), so the same engine bytes
// always serialize to the same host literal.
func JSONString(s string) ([]byte, error) {
	normalized := norm.NFC.String(s)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(normalized); err != nil {
		return nil, err
	}

	// json.Encoder adds a trailing newline, remove it.
	result := buf.Bytes()
	if len(result) > 0 && result[len(result)-1] == '\n' {
		result = result[:len(result)-1]
	}
	return result, nil
}
