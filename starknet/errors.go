package starknet

import (
	"errors"
	"fmt"
	"strings"

	"github.com/NethermindEth/classconv/core/felt"
)

// Error kinds. Every error returned by this package is an *Error whose Kind
// is one of these, so callers can branch with errors.Is.
var (
	ErrMalformedFieldElement   = felt.ErrMalformed
	ErrMalformedBase64         = errors.New("malformed base64")
	ErrDecompressionFailure    = errors.New("decompression failure")
	ErrMalformedJSON           = errors.New("malformed json")
	ErrUnknownAbiEntryType     = errors.New("unknown abi entry type")
	ErrMissingRequiredField    = errors.New("missing required field")
	ErrAbiSerialization        = errors.New("abi serialization error")
	ErrEntryPointSerialization = errors.New("entry point serialization error")
)

const maxReportedValueLen = 64

type Error struct {
	Kind error
	// Path of the offending field, e.g. entry_points_by_type.EXTERNAL[1].selector
	Field string
	// Raw offending value, if any
	Value string
	Err   error
}

func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Kind.Error())
	if e.Field != "" {
		sb.WriteString(" at ")
		sb.WriteString(e.Field)
	}
	if e.Value != "" {
		value := e.Value
		if len(value) > maxReportedValueLen {
			value = value[:maxReportedValueLen] + "..."
		}
		fmt.Fprintf(&sb, " (value %q)", value)
	}
	if e.Err != nil && !errors.Is(e.Kind, e.Err) {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// withPath prefixes the field path of err. Errors that did not originate in
// this package are reported as malformed json at prefix.
func withPath(err error, prefix string) error {
	var sErr *Error
	if !errors.As(err, &sErr) {
		return &Error{Kind: ErrMalformedJSON, Field: prefix, Err: err}
	}

	wrapped := *sErr
	switch {
	case wrapped.Field == "":
		wrapped.Field = prefix
	case strings.HasPrefix(wrapped.Field, "["):
		wrapped.Field = prefix + wrapped.Field
	default:
		wrapped.Field = prefix + "." + wrapped.Field
	}
	return &wrapped
}
