package starknet

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/NethermindEth/classconv/core/felt"
	"github.com/NethermindEth/classconv/validator"
)

var errNotObject = errors.New("expected an object")

// object is a JSON object whose keys are looked up exactly. Struct decoding in
// encoding/json folds key case, so "Abi" would pass for "abi". Keys that only
// differ in case are ignored.
type object map[string]json.RawMessage

func decodeObject(data []byte) (object, error) {
	var o object
	if err := json.Unmarshal(data, &o); err != nil || o == nil {
		return nil, &Error{Kind: ErrMalformedJSON, Value: string(data), Err: errors.Join(err, errNotObject)}
	}
	return o, nil
}

// raw returns the value under name, or nil when the key is missing or null.
func (o object) raw(name string) *json.RawMessage {
	value, found := o[name]
	if !found || isAbsent(value) {
		return nil
	}
	return &value
}

type objectField struct {
	name   string
	target any
}

// decodeFields unmarshals the value under each name into its target. Targets
// of missing or null keys are left untouched.
func (o object) decodeFields(fields ...objectField) error {
	for _, field := range fields {
		value := o.raw(field.name)
		if value == nil {
			continue
		}
		if err := json.Unmarshal(*value, field.target); err != nil {
			var sErr *Error
			if errors.As(err, &sErr) {
				return withPath(err, field.name)
			}
			return &Error{Kind: ErrMalformedJSON, Field: field.name, Value: string(*value), Err: err}
		}
	}
	return nil
}

// feltField decodes the field element under name, or returns nil when it is absent.
func (o object) feltField(name string) (*felt.Felt, error) {
	value := o.raw(name)
	if value == nil {
		return nil, nil
	}
	return decodeFelt(name, *value)
}

// requireFields reports the fields of v that fail their required tag.
func requireFields(v any) error {
	err := validator.Validator().Struct(v)
	if err == nil {
		return nil
	}
	missing := validator.MissingFields(err)
	if len(missing) == 0 {
		return &Error{Kind: ErrMalformedJSON, Err: err}
	}
	return &Error{Kind: ErrMissingRequiredField, Field: strings.Join(missing, ", ")}
}
