package starknet

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/NethermindEth/classconv/core/felt"
	"github.com/NethermindEth/classconv/utils"
)

// ContractClass is the wire form of a class. Exactly one variant is set.
type ContractClass struct {
	Deprecated *DeprecatedContractClass
	Sierra     *SierraContractClass
}

type DeprecatedContractClass struct {
	Abi []AbiEntryWithType `json:"abi"`
	// Program with the keys of every object sorted
	Program     json.RawMessage                         `json:"program"`
	EntryPoints EntryPointsByType[DeprecatedEntryPoint] `json:"entry_points_by_type"`
}

type SierraContractClass struct {
	Program     []*felt.Felt                        `json:"sierra_program"`
	Version     string                              `json:"contract_class_version"`
	EntryPoints EntryPointsByType[SierraEntryPoint] `json:"entry_points_by_type"`
	// base64(gzip(json)) encoded ABI, nil when absent
	Abi *string `json:"abi,omitempty"`
}

// Required top-level fields of each schema. A field that is null counts as
// missing.
type deprecatedFields struct {
	Abi         *json.RawMessage `json:"abi" validate:"required"`
	Program     *json.RawMessage `json:"program" validate:"required"`
	EntryPoints *json.RawMessage `json:"entry_points_by_type" validate:"required"`
}

func newDeprecatedFields(o object) *deprecatedFields {
	return &deprecatedFields{
		Abi:         o.raw("abi"),
		Program:     o.raw("program"),
		EntryPoints: o.raw("entry_points_by_type"),
	}
}

type sierraFields struct {
	Program     *json.RawMessage `json:"sierra_program" validate:"required"`
	Version     *json.RawMessage `json:"contract_class_version" validate:"required"`
	EntryPoints *json.RawMessage `json:"entry_points_by_type" validate:"required"`
}

func newSierraFields(o object) *sierraFields {
	return &sierraFields{
		Program:     o.raw("sierra_program"),
		Version:     o.raw("contract_class_version"),
		EntryPoints: o.raw("entry_points_by_type"),
	}
}

type schema struct {
	name   string
	fields func(object) any
	decode func(object) (ContractClass, error)
}

// Schemas are tried in this order and the first one whose required fields are
// all present wins, so a payload carrying the fields of both formats decodes
// as a deprecated class. Decode errors of the selected schema are final.
var schemas = []schema{
	{
		name:   "deprecated",
		fields: func(o object) any { return newDeprecatedFields(o) },
		decode: func(o object) (ContractClass, error) {
			class := new(DeprecatedContractClass)
			if err := class.decodeObject(o); err != nil {
				return ContractClass{}, err
			}
			return ContractClass{Deprecated: class}, nil
		},
	},
	{
		name:   "sierra",
		fields: func(o object) any { return newSierraFields(o) },
		decode: func(o object) (ContractClass, error) {
			class := new(SierraContractClass)
			if err := class.decodeObject(o); err != nil {
				return ContractClass{}, err
			}
			return ContractClass{Sierra: class}, nil
		},
	},
}

func (c *ContractClass) UnmarshalJSON(data []byte) error {
	fields, err := decodeObject(data)
	if err != nil {
		return err
	}

	reports := make([]string, 0, len(schemas))
	for _, s := range schemas {
		if err = requireFields(s.fields(fields)); err != nil {
			var sErr *Error
			if !errors.As(err, &sErr) || sErr.Kind != ErrMissingRequiredField {
				return err
			}
			reports = append(reports, fmt.Sprintf("%s: %s", s.name, sErr.Field))
			continue
		}

		class, err := s.decode(fields)
		if err != nil {
			return err
		}
		*c = class
		return nil
	}
	return &Error{Kind: ErrMissingRequiredField, Field: strings.Join(reports, "; ")}
}

func (c ContractClass) MarshalJSON() ([]byte, error) {
	switch {
	case c.Deprecated != nil:
		return json.Marshal(c.Deprecated)
	case c.Sierra != nil:
		return json.Marshal(c.Sierra)
	default:
		return nil, errors.New("empty contract class")
	}
}

func (c *DeprecatedContractClass) UnmarshalJSON(data []byte) error {
	fields, err := decodeObject(data)
	if err != nil {
		return err
	}
	return c.decodeObject(fields)
}

func (c *DeprecatedContractClass) decodeObject(fields object) error {
	presence := newDeprecatedFields(fields)
	if err := requireFields(presence); err != nil {
		return err
	}

	var rawAbi []json.RawMessage
	if err := fields.decodeFields(objectField{"abi", &rawAbi}); err != nil {
		return err
	}
	abi := make([]AbiEntryWithType, len(rawAbi))
	for i, rawEntry := range rawAbi {
		if err := json.Unmarshal(rawEntry, &abi[i]); err != nil {
			return withPath(err, fmt.Sprintf("abi[%d]", i))
		}
	}

	program, err := CanonicalProgram(*presence.Program)
	if err != nil {
		return err
	}

	var entryPoints EntryPointsByType[DeprecatedEntryPoint]
	if err = fields.decodeFields(objectField{"entry_points_by_type", &entryPoints}); err != nil {
		return err
	}

	*c = DeprecatedContractClass{
		Abi:         abi,
		Program:     program,
		EntryPoints: entryPoints,
	}
	return nil
}

func (c DeprecatedContractClass) MarshalJSON() ([]byte, error) {
	type deprecatedContractClass DeprecatedContractClass
	out := deprecatedContractClass(c)
	out.Abi = nonNil(out.Abi)
	if len(out.Program) == 0 {
		out.Program = json.RawMessage("null")
	}
	return json.Marshal(out)
}

func (c *SierraContractClass) UnmarshalJSON(data []byte) error {
	fields, err := decodeObject(data)
	if err != nil {
		return err
	}
	return c.decodeObject(fields)
}

func (c *SierraContractClass) decodeObject(fields object) error {
	if err := requireFields(newSierraFields(fields)); err != nil {
		return err
	}

	var (
		rawProgram  []json.RawMessage
		version     string
		entryPoints EntryPointsByType[SierraEntryPoint]
		abi         *string
	)
	if err := fields.decodeFields(
		objectField{"sierra_program", &rawProgram},
		objectField{"contract_class_version", &version},
		objectField{"entry_points_by_type", &entryPoints},
		objectField{"abi", &abi},
	); err != nil {
		return err
	}

	program := make([]*felt.Felt, len(rawProgram))
	for i, rawWord := range rawProgram {
		word, err := decodeFelt(fmt.Sprintf("sierra_program[%d]", i), rawWord)
		if err != nil {
			return err
		}
		program[i] = word
	}

	*c = SierraContractClass{
		Program:     program,
		Version:     version,
		EntryPoints: entryPoints,
		Abi:         abi,
	}
	return nil
}

func (c SierraContractClass) MarshalJSON() ([]byte, error) {
	type sierraContractClass SierraContractClass
	out := sierraContractClass(c)
	out.Program = nonNil(out.Program)
	return json.Marshal(out)
}

// DecodeAbi returns the decompressed ABI in canonical form, or nil when the
// class carries no ABI.
func (c *SierraContractClass) DecodeAbi() (json.RawMessage, error) {
	return c.DecodeAbiLimit(utils.MaxDecompressedSize)
}

func (c *SierraContractClass) DecodeAbiLimit(limit int64) (json.RawMessage, error) {
	if c.Abi == nil {
		return nil, nil
	}
	return DecompressJSONLimit(*c.Abi, "abi", limit)
}
