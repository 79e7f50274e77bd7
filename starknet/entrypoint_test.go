package starknet_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/NethermindEth/classconv/core/felt"
	"github.com/NethermindEth/classconv/starknet"
	"github.com/NethermindEth/classconv/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntryPointsByTypeUnmarshal(t *testing.T) {
	t.Run("entries of one category keep their order", func(t *testing.T) {
		data := []byte(`{"EXTERNAL": [
			{"selector": "0xAAE3B5E8", "offset": "0x1"},
			{"selector": "0xAAE3B5E9", "offset": "0x2"}
		]}`)

		var entryPoints starknet.EntryPointsByType[starknet.DeprecatedEntryPoint]
		require.NoError(t, json.Unmarshal(data, &entryPoints))

		assert.Equal(t, []starknet.EntryPointType{starknet.External}, entryPoints.Keys())
		external, found := entryPoints.Get(starknet.External)
		require.True(t, found)
		assert.Equal(t, []starknet.DeprecatedEntryPoint{
			{Selector: utils.HexToFelt(t, "0xaae3b5e8"), Offset: utils.HexToFelt(t, "0x1")},
			{Selector: utils.HexToFelt(t, "0xaae3b5e9"), Offset: utils.HexToFelt(t, "0x2")},
		}, external)
	})

	t.Run("keys keep the order of the object", func(t *testing.T) {
		data := []byte(`{
			"L1_HANDLER": [{"selector": "0x3", "offset": "0x3"}],
			"CONSTRUCTOR": [],
			"EXTERNAL": [{"selector": "0x1", "offset": "0x1"}]
		}`)

		var entryPoints starknet.EntryPointsByType[starknet.DeprecatedEntryPoint]
		require.NoError(t, json.Unmarshal(data, &entryPoints))
		assert.Equal(t, []starknet.EntryPointType{
			starknet.L1Handler,
			starknet.Constructor,
			starknet.External,
		}, entryPoints.Keys())

		encoded, err := json.Marshal(entryPoints)
		require.NoError(t, err)
		assert.Equal(t,
			`{"L1_HANDLER":[{"selector":"0x3","offset":"0x3"}],"CONSTRUCTOR":[],"EXTERNAL":[{"selector":"0x1","offset":"0x1"}]}`,
			string(encoded))
	})

	t.Run("repeated key appends to the first occurrence", func(t *testing.T) {
		data := []byte(`{
			"EXTERNAL": [{"selector": "0x1", "function_idx": 0}],
			"CONSTRUCTOR": [{"selector": "0x2", "function_idx": 1}],
			"EXTERNAL": [{"selector": "0x3", "function_idx": 2}]
		}`)

		var entryPoints starknet.EntryPointsByType[starknet.SierraEntryPoint]
		require.NoError(t, json.Unmarshal(data, &entryPoints))
		assert.Equal(t, []starknet.EntryPointType{starknet.External, starknet.Constructor}, entryPoints.Keys())
		assert.Equal(t, []starknet.SierraEntryPoint{
			{Selector: utils.HexToFelt(t, "0x1"), Index: 0},
			{Selector: utils.HexToFelt(t, "0x3"), Index: 2},
		}, entryPoints.Category(starknet.External))
	})
}

func TestEntryPointsByTypeUnmarshalErrors(t *testing.T) {
	tests := map[string]struct {
		json  string
		kind  error
		field string
	}{
		"not an object": {
			json: `[]`,
			kind: starknet.ErrMalformedJSON,
		},
		"unknown category": {
			json:  `{"DESTRUCTOR": []}`,
			kind:  starknet.ErrMalformedJSON,
			field: "DESTRUCTOR",
		},
		"category in another case": {
			json:  `{"External": []}`,
			kind:  starknet.ErrMalformedJSON,
			field: "External",
		},
		"selector in another case": {
			json:  `{"EXTERNAL": [{"SELECTOR": "0x1", "function_idx": 0}]}`,
			kind:  starknet.ErrMissingRequiredField,
			field: "EXTERNAL[0].selector",
		},
		"function index in another case": {
			json:  `{"EXTERNAL": [{"selector": "0x1", "Function_Idx": 0}]}`,
			kind:  starknet.ErrMissingRequiredField,
			field: "EXTERNAL[0].function_idx",
		},
		"entry point is not an object": {
			json:  `{"EXTERNAL": ["0x1"]}`,
			kind:  starknet.ErrMalformedJSON,
			field: "EXTERNAL[0]",
		},
		"category is not a list": {
			json:  `{"EXTERNAL": {}}`,
			kind:  starknet.ErrMalformedJSON,
			field: "EXTERNAL",
		},
		"malformed selector": {
			json:  `{"EXTERNAL": [{"selector": "0x1", "function_idx": 0}, {"selector": "0xzz", "function_idx": 1}]}`,
			kind:  starknet.ErrMalformedFieldElement,
			field: "EXTERNAL[1].selector",
		},
		"selector without prefix": {
			json:  `{"L1_HANDLER": [{"selector": "1", "function_idx": 0}]}`,
			kind:  starknet.ErrMalformedFieldElement,
			field: "L1_HANDLER[0].selector",
		},
		"missing selector": {
			json:  `{"CONSTRUCTOR": [{"function_idx": 0}]}`,
			kind:  starknet.ErrMissingRequiredField,
			field: "CONSTRUCTOR[0].selector",
		},
		"missing function index": {
			json:  `{"CONSTRUCTOR": [{"selector": "0x1"}]}`,
			kind:  starknet.ErrMissingRequiredField,
			field: "CONSTRUCTOR[0].function_idx",
		},
		"negative function index": {
			json:  `{"CONSTRUCTOR": [{"selector": "0x1", "function_idx": -1}]}`,
			kind:  starknet.ErrMalformedJSON,
			field: "CONSTRUCTOR[0].function_idx",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			var entryPoints starknet.EntryPointsByType[starknet.SierraEntryPoint]
			err := json.Unmarshal([]byte(test.json), &entryPoints)
			require.ErrorIs(t, err, test.kind)

			var sErr *starknet.Error
			require.True(t, errors.As(err, &sErr))
			assert.Equal(t, test.field, sErr.Field)
		})
	}
}

func TestDeprecatedEntryPointUnmarshal(t *testing.T) {
	t.Run("keys match exactly", func(t *testing.T) {
		var entryPoints starknet.EntryPointsByType[starknet.DeprecatedEntryPoint]
		require.NoError(t, json.Unmarshal([]byte(
			`{"L1_HANDLER": [{"selector": "0x1", "Selector": "0x9", "offset": "0x2", "OFFSET": "0x8"}]}`,
		), &entryPoints))

		assert.Equal(t, []starknet.DeprecatedEntryPoint{
			{Selector: utils.HexToFelt(t, "0x1"), Offset: utils.HexToFelt(t, "0x2")},
		}, entryPoints.Category(starknet.L1Handler))
	})

	tests := map[string]struct {
		json  string
		kind  error
		field string
	}{
		"missing selector": {
			json:  `{"EXTERNAL": [{"offset": "0x1"}]}`,
			kind:  starknet.ErrMissingRequiredField,
			field: "EXTERNAL[0].selector",
		},
		"missing offset": {
			json:  `{"EXTERNAL": [{"selector": "0x1", "Offset": "0x1"}]}`,
			kind:  starknet.ErrMissingRequiredField,
			field: "EXTERNAL[0].offset",
		},
		"null offset": {
			json:  `{"CONSTRUCTOR": [{"selector": "0x1", "offset": null}]}`,
			kind:  starknet.ErrMissingRequiredField,
			field: "CONSTRUCTOR[0].offset",
		},
		"malformed offset": {
			json:  `{"CONSTRUCTOR": [{"selector": "0x1", "offset": 1}]}`,
			kind:  starknet.ErrMalformedFieldElement,
			field: "CONSTRUCTOR[0].offset",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			var entryPoints starknet.EntryPointsByType[starknet.DeprecatedEntryPoint]
			err := json.Unmarshal([]byte(test.json), &entryPoints)
			require.ErrorIs(t, err, test.kind)

			var sErr *starknet.Error
			require.True(t, errors.As(err, &sErr))
			assert.Equal(t, test.field, sErr.Field)
		})
	}
}

func TestEntryPointsByTypeZeroValue(t *testing.T) {
	var entryPoints starknet.EntryPointsByType[starknet.SierraEntryPoint]
	assert.Zero(t, entryPoints.Len())
	assert.Empty(t, entryPoints.Keys())

	_, found := entryPoints.Get(starknet.External)
	assert.False(t, found)

	external := entryPoints.Category(starknet.External)
	assert.NotNil(t, external)
	assert.Empty(t, external)

	encoded, err := json.Marshal(entryPoints)
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(encoded))
}

func TestEntryPointsByTypeGetReturnsCopy(t *testing.T) {
	var entryPoints starknet.EntryPointsByType[uint64]
	entryPoints.Append(starknet.External, 1, 2)

	external, _ := entryPoints.Get(starknet.External)
	external[0] = 42

	assert.Equal(t, []uint64{1, 2}, entryPoints.Category(starknet.External))
}

func TestGroupEntryPoints(t *testing.T) {
	identity := func(v uint64) (uint64, error) { return v, nil }

	t.Run("categories are scanned in a fixed order", func(t *testing.T) {
		grouped, err := starknet.GroupEntryPoints([]uint64{1}, []uint64{2, 3}, nil, identity)
		require.NoError(t, err)

		assert.Equal(t, []starknet.EntryPointType{starknet.Constructor, starknet.External}, grouped.Keys())
		assert.Equal(t, []uint64{1}, grouped.Category(starknet.Constructor))
		assert.Equal(t, []uint64{2, 3}, grouped.Category(starknet.External))
		assert.Empty(t, grouped.Category(starknet.L1Handler))
	})

	t.Run("empty categories add no key", func(t *testing.T) {
		grouped, err := starknet.GroupEntryPoints(nil, []uint64{}, []uint64{4}, identity)
		require.NoError(t, err)
		assert.Equal(t, []starknet.EntryPointType{starknet.L1Handler}, grouped.Keys())
	})

	t.Run("adapt failure reports the entry", func(t *testing.T) {
		failOnOdd := func(v uint64) (uint64, error) {
			if v%2 == 1 {
				return 0, fmt.Errorf("odd value %d", v)
			}
			return v, nil
		}

		_, err := starknet.GroupEntryPoints([]uint64{2}, []uint64{4, 5}, nil, failOnOdd)
		require.ErrorIs(t, err, starknet.ErrMalformedJSON)

		var sErr *starknet.Error
		require.True(t, errors.As(err, &sErr))
		assert.Equal(t, "EXTERNAL[1]", sErr.Field)
	})

	t.Run("field element errors keep their kind", func(t *testing.T) {
		toFelt := func(s string) (*felt.Felt, error) {
			f, err := felt.NewFromHex(s)
			if err != nil {
				return nil, &starknet.Error{Kind: starknet.ErrMalformedFieldElement, Field: "selector", Value: s, Err: err}
			}
			return f, nil
		}

		_, err := starknet.GroupEntryPoints(nil, nil, []string{"0x1", "nope"}, toFelt)
		require.ErrorIs(t, err, starknet.ErrMalformedFieldElement)

		var sErr *starknet.Error
		require.True(t, errors.As(err, &sErr))
		assert.Equal(t, "L1_HANDLER[1].selector", sErr.Field)
		assert.Equal(t, "nope", sErr.Value)
	})
}

func TestEntryPointType(t *testing.T) {
	for _, epType := range []starknet.EntryPointType{starknet.Constructor, starknet.External, starknet.L1Handler} {
		text, err := epType.MarshalText()
		require.NoError(t, err)

		var decoded starknet.EntryPointType
		require.NoError(t, decoded.UnmarshalText(text))
		assert.Equal(t, epType, decoded)
	}

	_, err := starknet.EntryPointType(7).MarshalText()
	require.Error(t, err)
	assert.Equal(t, "EntryPointType(7)", starknet.EntryPointType(7).String())
}
