package utils

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"
)

var ErrInvalidJSON = errors.New("invalid json")

// CanonicalJSON returns the compact form of raw in which the keys of every
// object, at any depth, are sorted by code point. Array order, strings and
// number literals are kept as they are. Applying it twice is a no-op.
func CanonicalJSON(raw []byte) (json.RawMessage, error) {
	if !utf8.Valid(raw) {
		return nil, fmt.Errorf("%w: not valid utf-8", ErrInvalidJSON)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var value any
	if err := dec.Decode(&value); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidJSON, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after top-level value", ErrInvalidJSON)
	}
	return MarshalCanonical(value)
}

// MarshalCanonical encodes v compactly with sorted object keys and without
// HTML escaping. Maps are emitted in key order by encoding/json, so any value
// decoded into generic containers comes out canonical.
func MarshalCanonical(v any) (json.RawMessage, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	// Encoder always terminates the value with a newline
	return bytes.TrimSuffix(buf.Bytes(), []byte{'\n'}), nil
}
