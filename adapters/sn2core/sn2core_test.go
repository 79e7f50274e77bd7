package sn2core_test

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/NethermindEth/classconv/adapters/sn2core"
	"github.com/NethermindEth/classconv/core"
	"github.com/NethermindEth/classconv/core/felt"
	"github.com/NethermindEth/classconv/starknet"
	"github.com/NethermindEth/classconv/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const transferSelector = "0x83afd3f4caedc6eebf44246fe54e38c95e3179a5ec9ea81740eca5b482d12e"

func decodeClass(t *testing.T, data string) starknet.ContractClass {
	t.Helper()

	var class starknet.ContractClass
	require.NoError(t, json.Unmarshal([]byte(data), &class))
	return class
}

func TestAdaptDeprecatedContractClass(t *testing.T) {
	class := decodeClass(t, `{
		"abi": [{"type": "function", "name": "transfer", "inputs": [], "outputs": [], "stateMutability": "view"}],
		"entry_points_by_type": {
			"EXTERNAL": [{"selector": "`+transferSelector+`", "offset": "0x3A"}],
			"CONSTRUCTOR": [],
			"L1_HANDLER": []
		},
		"program": {"data": ["0x1"], "builtins": [], "prime": "0x800000000000011000000000000000000000000000000000000000000000001"}
	}`)

	adapted, err := sn2core.AdaptContractClass(class)
	require.NoError(t, err)
	deprecated, ok := adapted.(*core.DeprecatedCairoClass)
	require.True(t, ok)

	assert.Equal(t, uint64(0), deprecated.Version())
	assert.JSONEq(t,
		`[{"type": "function", "name": "transfer", "inputs": [], "outputs": [], "stateMutability": "view"}]`,
		string(deprecated.Abi))
	assert.Equal(t,
		`{"EXTERNAL":[{"selector":"`+transferSelector+`","offset":"0x3a"}],"CONSTRUCTOR":[],"L1_HANDLER":[]}`,
		string(deprecated.EntryPoints))
	assert.Equal(t,
		`{"builtins":[],"data":["0x1"],"prime":"0x800000000000011000000000000000000000000000000000000000000000001"}`,
		string(deprecated.Program))

	definition, err := deprecated.Definition()
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"abi": [{"type": "function", "name": "transfer", "inputs": [], "outputs": [], "stateMutability": "view"}],
		"entry_points_by_type": {
			"EXTERNAL": [{"selector": "`+transferSelector+`", "offset": "0x3a"}],
			"CONSTRUCTOR": [],
			"L1_HANDLER": []
		},
		"program": {"builtins": [], "data": ["0x1"], "prime": "0x800000000000011000000000000000000000000000000000000000000000001"}
	}`, string(definition))
}

func TestAdaptDeprecatedContractClassErrors(t *testing.T) {
	t.Run("abi", func(t *testing.T) {
		_, err := sn2core.AdaptDeprecatedContractClass(&starknet.DeprecatedContractClass{
			Abi:     []starknet.AbiEntryWithType{{Type: starknet.AbiFunction}},
			Program: json.RawMessage(`{}`),
		})
		require.ErrorIs(t, err, starknet.ErrAbiSerialization)
	})

	t.Run("entry points", func(t *testing.T) {
		var entryPoints starknet.EntryPointsByType[starknet.DeprecatedEntryPoint]
		entryPoints.Append(starknet.EntryPointType(9))

		_, err := sn2core.AdaptDeprecatedContractClass(&starknet.DeprecatedContractClass{
			EntryPoints: entryPoints,
			Program:     json.RawMessage(`{}`),
		})
		require.ErrorIs(t, err, starknet.ErrEntryPointSerialization)
	})

	t.Run("nil abi becomes an empty list", func(t *testing.T) {
		adapted, err := sn2core.AdaptDeprecatedContractClass(&starknet.DeprecatedContractClass{
			Program: json.RawMessage(`{}`),
		})
		require.NoError(t, err)
		assert.Equal(t, `[]`, string(adapted.Abi))
		assert.Equal(t, `{}`, string(adapted.EntryPoints))
	})
}

func TestAdaptSierraContractClass(t *testing.T) {
	abi, err := starknet.CompressJSON([]byte(`[{"type": "function", "name": "transfer"}]`), "abi")
	require.NoError(t, err)

	class := decodeClass(t, `{
		"sierra_program": ["0x1", "0x6", "0x0", "0x2a"],
		"contract_class_version": "0.1.0",
		"entry_points_by_type": {
			"L1_HANDLER": [{"selector": "0x2", "function_idx": 2}],
			"EXTERNAL": [{"selector": "`+transferSelector+`", "function_idx": 0}, {"selector": "0x1", "function_idx": 1}]
		},
		"abi": "`+abi+`"
	}`)

	adapted, err := sn2core.AdaptContractClass(class)
	require.NoError(t, err)
	sierra, ok := adapted.(*core.SierraClass)
	require.True(t, ok)

	assert.Equal(t, uint64(1), sierra.Version())
	assert.Equal(t, "0.1.0", sierra.SemanticVersion)
	assert.Equal(t, "1.6.0", sierra.SierraVersion())
	assert.Equal(t, []string{"1", "6", "0", "42"}, utils.Map(sierra.Program, (*big.Int).String))

	transfer, ok := new(big.Int).SetString(transferSelector[2:], 16)
	require.True(t, ok)
	assert.Equal(t, core.SierraEntryPoints{
		Constructor: []core.SierraEntryPoint{},
		External: []core.SierraEntryPoint{
			{Index: 0, Selector: transfer},
			{Index: 1, Selector: big.NewInt(1)},
		},
		L1Handler: []core.SierraEntryPoint{{Index: 2, Selector: big.NewInt(2)}},
	}, sierra.EntryPoints)

	assert.Equal(t, `[{"name":"transfer","type":"function"}]`, string(sierra.Abi))
}

func TestAdaptSierraContractClassBoundaries(t *testing.T) {
	class := decodeClass(t, `{"sierra_program": [], "contract_class_version": "0.1.0", "entry_points_by_type": {}}`)

	adapted, err := sn2core.AdaptSierraContractClass(class.Sierra)
	require.NoError(t, err)
	assert.NotNil(t, adapted.Program)
	assert.Empty(t, adapted.Program)
	assert.Nil(t, adapted.Abi)
	assert.Equal(t, "0.0.0", adapted.SierraVersion())
}

func TestAdaptSierraContractClassErrors(t *testing.T) {
	t.Run("abi that does not decompress", func(t *testing.T) {
		class := decodeClass(t, `{
			"sierra_program": [],
			"contract_class_version": "0.1.0",
			"entry_points_by_type": {},
			"abi": "H4sIAAAAAAAA/8tIzcnJVyjPL8pJUQQAlQYXAAAA"
		}`)

		_, err := sn2core.AdaptContractClass(class)
		require.ErrorIs(t, err, starknet.ErrDecompressionFailure)
	})

	t.Run("abi that is not base64", func(t *testing.T) {
		_, err := sn2core.AdaptSierraContractClass(&starknet.SierraContractClass{Abi: utils.HeapPtr("%%%")})
		require.ErrorIs(t, err, starknet.ErrMalformedBase64)
	})

	t.Run("nil program word", func(t *testing.T) {
		one := utils.HexToFelt(t, "0x1")
		_, err := sn2core.AdaptSierraContractClass(&starknet.SierraContractClass{Program: []*felt.Felt{one, nil}})
		require.ErrorIs(t, err, starknet.ErrMalformedFieldElement)
	})

	t.Run("empty class", func(t *testing.T) {
		_, err := sn2core.AdaptContractClass(starknet.ContractClass{})
		require.ErrorIs(t, err, sn2core.ErrEmptyClass)
	})
}

func TestAdaptContractClassLimit(t *testing.T) {
	abi, err := starknet.CompressJSON([]byte(`[{"type": "event", "name": "Transfer", "keys": [], "data": []}]`), "abi")
	require.NoError(t, err)
	class := starknet.ContractClass{Sierra: &starknet.SierraContractClass{Version: "0.1.0", Abi: &abi}}

	_, err = sn2core.AdaptContractClassLimit(class, 16)
	require.ErrorIs(t, err, starknet.ErrDecompressionFailure)

	adapted, err := sn2core.AdaptContractClassLimit(class, 1024)
	require.NoError(t, err)
	assert.Equal(t, `[{"data":[],"keys":[],"name":"Transfer","type":"event"}]`, string(adapted.(*core.SierraClass).Abi))
}
