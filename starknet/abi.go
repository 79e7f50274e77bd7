package starknet

import (
	"encoding/json"
	"fmt"

	"github.com/NethermindEth/classconv/core/crypto"
	"github.com/NethermindEth/classconv/core/felt"
)

type AbiEntryType uint8

const (
	AbiFunction AbiEntryType = iota
	AbiConstructor
	AbiL1Handler
	AbiEvent
	AbiStruct
)

var abiEntryTypeNames = [...]string{
	AbiFunction:    "function",
	AbiConstructor: "constructor",
	AbiL1Handler:   "l1_handler",
	AbiEvent:       "event",
	AbiStruct:      "struct",
}

func (t AbiEntryType) String() string {
	if int(t) < len(abiEntryTypeNames) {
		return abiEntryTypeNames[t]
	}
	return fmt.Sprintf("AbiEntryType(%d)", uint8(t))
}

func (t AbiEntryType) MarshalText() ([]byte, error) {
	if int(t) >= len(abiEntryTypeNames) {
		return nil, fmt.Errorf("unknown abi entry type %d", uint8(t))
	}
	return []byte(abiEntryTypeNames[t]), nil
}

func (t *AbiEntryType) UnmarshalText(data []byte) error {
	for i, name := range abiEntryTypeNames {
		if name == string(data) {
			*t = AbiEntryType(i)
			return nil
		}
	}
	return &Error{Kind: ErrUnknownAbiEntryType, Field: "type", Value: string(data)}
}

// AbiEntry is the payload of an ABI entry. Constructors and L1 handlers share
// the function shape.
type AbiEntry interface {
	abiEntry()
}

type TypedParameter struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

func (p *TypedParameter) UnmarshalJSON(data []byte) error {
	fields, err := decodeObject(data)
	if err != nil {
		return err
	}

	var param TypedParameter
	if err = fields.decodeFields(
		objectField{"name", &param.Name},
		objectField{"type", &param.Type},
	); err != nil {
		return err
	}
	*p = param
	return nil
}

type FunctionAbiEntry struct {
	Name            string           `json:"name"`
	Inputs          []TypedParameter `json:"inputs"`
	Outputs         []TypedParameter `json:"outputs"`
	StateMutability *string          `json:"stateMutability,omitempty"`
}

// Selector derives the entry point selector from the function name.
func (f *FunctionAbiEntry) Selector() (*felt.Felt, error) {
	return crypto.StarknetKeccak([]byte(f.Name))
}

type EventAbiEntry struct {
	Name string           `json:"name"`
	Keys []TypedParameter `json:"keys"`
	Data []TypedParameter `json:"data"`
}

type StructMember struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	Offset uint64 `json:"offset"`
}

func (m *StructMember) UnmarshalJSON(data []byte) error {
	fields, err := decodeObject(data)
	if err != nil {
		return err
	}

	var member StructMember
	if err = fields.decodeFields(
		objectField{"name", &member.Name},
		objectField{"type", &member.Type},
		objectField{"offset", &member.Offset},
	); err != nil {
		return err
	}
	*m = member
	return nil
}

type StructAbiEntry struct {
	Name    string         `json:"name"`
	Size    uint64         `json:"size"`
	Members []StructMember `json:"members"`
}

func (*FunctionAbiEntry) abiEntry() {}
func (*EventAbiEntry) abiEntry()    {}
func (*StructAbiEntry) abiEntry()   {}

// AbiEntryWithType is an ABI entry whose discriminant lives next to the
// payload fields in a single JSON object.
type AbiEntryWithType struct {
	Entry AbiEntry
	Type  AbiEntryType
}

// UnmarshalJSON reads the type discriminant first and then decodes the rest
// of the object into the payload shape it selects.
func (a *AbiEntryWithType) UnmarshalJSON(data []byte) error {
	fields, err := decodeObject(data)
	if err != nil {
		return err
	}

	rawType := fields.raw("type")
	if rawType == nil {
		return &Error{Kind: ErrMissingRequiredField, Field: "type"}
	}
	var typeName string
	if err = json.Unmarshal(*rawType, &typeName); err != nil {
		return &Error{Kind: ErrUnknownAbiEntryType, Field: "type", Value: string(*rawType), Err: err}
	}
	var entryType AbiEntryType
	if err = entryType.UnmarshalText([]byte(typeName)); err != nil {
		return err
	}

	if fields.raw("name") == nil {
		return &Error{Kind: ErrMissingRequiredField, Field: "name"}
	}

	var entry AbiEntry
	switch entryType {
	case AbiFunction, AbiConstructor, AbiL1Handler:
		function := new(FunctionAbiEntry)
		if err = fields.decodeFields(
			objectField{"name", &function.Name},
			objectField{"inputs", &function.Inputs},
			objectField{"outputs", &function.Outputs},
			objectField{"stateMutability", &function.StateMutability},
		); err != nil {
			return err
		}
		function.Inputs = nonNil(function.Inputs)
		function.Outputs = nonNil(function.Outputs)
		entry = function
	case AbiEvent:
		event := new(EventAbiEntry)
		if err = fields.decodeFields(
			objectField{"name", &event.Name},
			objectField{"keys", &event.Keys},
			objectField{"data", &event.Data},
		); err != nil {
			return err
		}
		event.Keys = nonNil(event.Keys)
		event.Data = nonNil(event.Data)
		entry = event
	case AbiStruct:
		structEntry := new(StructAbiEntry)
		if err = fields.decodeFields(
			objectField{"name", &structEntry.Name},
			objectField{"size", &structEntry.Size},
			objectField{"members", &structEntry.Members},
		); err != nil {
			return err
		}
		structEntry.Members = nonNil(structEntry.Members)
		entry = structEntry
	}

	*a = AbiEntryWithType{Entry: entry, Type: entryType}
	return nil
}

// MarshalJSON flattens the payload and the type into one object. Keys are
// emitted sorted, which keeps repeated encode/decode cycles byte stable.
func (a AbiEntryWithType) MarshalJSON() ([]byte, error) {
	if a.Entry == nil {
		return nil, &Error{Kind: ErrAbiSerialization, Field: "entry", Err: fmt.Errorf("nil payload")}
	}
	payload, err := json.Marshal(a.Entry)
	if err != nil {
		return nil, &Error{Kind: ErrAbiSerialization, Err: err}
	}

	var fields map[string]json.RawMessage
	if err = json.Unmarshal(payload, &fields); err != nil {
		return nil, &Error{Kind: ErrAbiSerialization, Err: err}
	}
	if fields["type"], err = json.Marshal(a.Type); err != nil {
		return nil, &Error{Kind: ErrAbiSerialization, Field: "type", Err: err}
	}
	return json.Marshal(fields)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
