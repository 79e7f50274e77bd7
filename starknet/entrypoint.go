package starknet

import (
	"bytes"
	"encoding/json"
	"fmt"
	"iter"
	"slices"

	"github.com/NethermindEth/classconv/core/felt"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

type EntryPointType uint8

const (
	Constructor EntryPointType = iota
	External
	L1Handler
)

func (t EntryPointType) String() string {
	switch t {
	case Constructor:
		return "CONSTRUCTOR"
	case External:
		return "EXTERNAL"
	case L1Handler:
		return "L1_HANDLER"
	default:
		return fmt.Sprintf("EntryPointType(%d)", uint8(t))
	}
}

func (t EntryPointType) MarshalText() ([]byte, error) {
	switch t {
	case Constructor, External, L1Handler:
		return []byte(t.String()), nil
	default:
		return nil, fmt.Errorf("unknown entry point type %d", uint8(t))
	}
}

func (t *EntryPointType) UnmarshalText(data []byte) error {
	switch string(data) {
	case "CONSTRUCTOR":
		*t = Constructor
	case "EXTERNAL":
		*t = External
	case "L1_HANDLER":
		*t = L1Handler
	default:
		return &Error{Kind: ErrMalformedJSON, Value: string(data), Err: fmt.Errorf("unknown entry point type")}
	}
	return nil
}

type DeprecatedEntryPoint struct {
	Selector *felt.Felt `json:"selector" validate:"required"`
	Offset   *felt.Felt `json:"offset" validate:"required"`
}

func (ep *DeprecatedEntryPoint) UnmarshalJSON(data []byte) error {
	fields, err := decodeObject(data)
	if err != nil {
		return err
	}

	var entryPoint DeprecatedEntryPoint
	if entryPoint.Selector, err = fields.feltField("selector"); err != nil {
		return err
	}
	if entryPoint.Offset, err = fields.feltField("offset"); err != nil {
		return err
	}
	if err = requireFields(entryPoint); err != nil {
		return err
	}
	*ep = entryPoint
	return nil
}

type SierraEntryPoint struct {
	Selector *felt.Felt `json:"selector" validate:"required"`
	Index    uint64     `json:"function_idx"`
}

func (ep *SierraEntryPoint) UnmarshalJSON(data []byte) error {
	fields, err := decodeObject(data)
	if err != nil {
		return err
	}

	var entryPoint SierraEntryPoint
	if entryPoint.Selector, err = fields.feltField("selector"); err != nil {
		return err
	}
	if err = requireFields(entryPoint); err != nil {
		return err
	}
	// zero is a valid index, so presence is checked on the raw value
	if fields.raw("function_idx") == nil {
		return &Error{Kind: ErrMissingRequiredField, Field: "function_idx"}
	}
	if err = fields.decodeFields(objectField{"function_idx", &entryPoint.Index}); err != nil {
		return err
	}
	*ep = entryPoint
	return nil
}

// EntryPointsByType groups entry points under their type. Keys keep the order
// in which they were first inserted and entries keep their relative order.
// The zero value is an empty mapping.
type EntryPointsByType[E any] struct {
	m *orderedmap.OrderedMap[EntryPointType, []E]
}

func NewEntryPointsByType[E any]() EntryPointsByType[E] {
	return EntryPointsByType[E]{m: orderedmap.New[EntryPointType, []E]()}
}

// Append adds entries under key, inserting key on its first occurrence.
func (e *EntryPointsByType[E]) Append(key EntryPointType, entries ...E) {
	if e.m == nil {
		e.m = orderedmap.New[EntryPointType, []E]()
	}
	current, found := e.m.Get(key)
	if !found {
		current = make([]E, 0, len(entries))
	}
	e.m.Set(key, append(current, entries...))
}

// Get returns a copy of the entries stored under key.
func (e EntryPointsByType[E]) Get(key EntryPointType) ([]E, bool) {
	if e.m == nil {
		return nil, false
	}
	entries, found := e.m.Get(key)
	return slices.Clone(entries), found
}

func (e EntryPointsByType[E]) Len() int {
	if e.m == nil {
		return 0
	}
	return e.m.Len()
}

func (e EntryPointsByType[E]) Keys() []EntryPointType {
	keys := make([]EntryPointType, 0, e.Len())
	for key := range e.All() {
		keys = append(keys, key)
	}
	return keys
}

// All iterates over the mapping in key insertion order.
func (e EntryPointsByType[E]) All() iter.Seq2[EntryPointType, []E] {
	return func(yield func(EntryPointType, []E) bool) {
		if e.m == nil {
			return
		}
		for pair := e.m.Oldest(); pair != nil; pair = pair.Next() {
			if !yield(pair.Key, pair.Value) {
				return
			}
		}
	}
}

func (e EntryPointsByType[E]) MarshalJSON() ([]byte, error) {
	if e.m == nil {
		return []byte("{}"), nil
	}
	return e.m.MarshalJSON()
}

// UnmarshalJSON keeps the key order of the JSON object. A key repeated in the
// object has its entries appended to the first occurrence.
func (e *EntryPointsByType[E]) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return &Error{Kind: ErrMalformedJSON, Value: string(data), Err: errNotObject}
	}

	grouped := NewEntryPointsByType[E]()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return &Error{Kind: ErrMalformedJSON, Err: err}
		}
		name, _ := tok.(string)

		var key EntryPointType
		if err = key.UnmarshalText([]byte(name)); err != nil {
			return withPath(err, name)
		}

		var rawEntries []json.RawMessage
		if err = dec.Decode(&rawEntries); err != nil {
			return &Error{Kind: ErrMalformedJSON, Field: name, Err: err}
		}

		entries := make([]E, len(rawEntries))
		for i, raw := range rawEntries {
			if err = json.Unmarshal(raw, &entries[i]); err != nil {
				return withPath(err, fmt.Sprintf("%s[%d]", name, i))
			}
		}
		grouped.Append(key, entries...)
	}
	if _, err := dec.Token(); err != nil {
		return &Error{Kind: ErrMalformedJSON, Err: err}
	}

	*e = grouped
	return nil
}

// GroupEntryPoints builds the grouped mapping from per category lists. The
// categories are scanned in the fixed order constructor, external, l1 handler
// and a key is only inserted once its category yields an entry.
func GroupEntryPoints[R, E any](constructor, external, l1Handler []R, adapt func(R) (E, error)) (EntryPointsByType[E], error) {
	categories := []struct {
		key EntryPointType
		raw []R
	}{
		{key: Constructor, raw: constructor},
		{key: External, raw: external},
		{key: L1Handler, raw: l1Handler},
	}

	grouped := NewEntryPointsByType[E]()
	for _, category := range categories {
		for i, raw := range category.raw {
			entry, err := adapt(raw)
			if err != nil {
				return EntryPointsByType[E]{}, withPath(err, fmt.Sprintf("%s[%d]", category.key, i))
			}
			grouped.Append(category.key, entry)
		}
	}
	return grouped, nil
}

// Category returns a copy of the entries under key, or an empty non-nil slice.
func (e EntryPointsByType[E]) Category(key EntryPointType) []E {
	entries, _ := e.Get(key)
	if entries == nil {
		return []E{}
	}
	return entries
}

func isAbsent(raw json.RawMessage) bool {
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

func decodeFelt(field string, raw json.RawMessage) (*felt.Felt, error) {
	if isAbsent(raw) {
		return nil, &Error{Kind: ErrMissingRequiredField, Field: field}
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, &Error{Kind: ErrMalformedFieldElement, Field: field, Value: string(raw), Err: err}
	}
	f, err := felt.NewFromHex(s)
	if err != nil {
		return nil, &Error{Kind: ErrMalformedFieldElement, Field: field, Value: s, Err: err}
	}
	return f, nil
}
