package sn2core

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/NethermindEth/classconv/core"
	"github.com/NethermindEth/classconv/core/felt"
	"github.com/NethermindEth/classconv/starknet"
	"github.com/NethermindEth/classconv/utils"
)

var ErrEmptyClass = errors.New("contract class has no variant set")

// AdaptContractClass converts a wire class into the representation loaded by
// the execution engine.
func AdaptContractClass(class starknet.ContractClass) (core.Class, error) {
	return AdaptContractClassLimit(class, utils.MaxDecompressedSize)
}

// AdaptContractClassLimit bounds the decompressed size of a Sierra ABI by
// limit bytes.
func AdaptContractClassLimit(class starknet.ContractClass, limit int64) (core.Class, error) {
	switch {
	case class.Deprecated != nil:
		return AdaptDeprecatedContractClass(class.Deprecated)
	case class.Sierra != nil:
		return adaptSierraContractClass(class.Sierra, limit)
	default:
		return nil, ErrEmptyClass
	}
}

// AdaptDeprecatedContractClass serializes the ABI and the entry points into
// plain JSON next to the already canonical program.
func AdaptDeprecatedContractClass(response *starknet.DeprecatedContractClass) (*core.DeprecatedCairoClass, error) {
	abi := response.Abi
	if abi == nil {
		abi = []starknet.AbiEntryWithType{}
	}

	var err error
	class := new(core.DeprecatedCairoClass)
	class.Abi, err = json.Marshal(abi)
	if err != nil {
		return nil, &starknet.Error{Kind: starknet.ErrAbiSerialization, Field: "abi", Err: err}
	}
	class.EntryPoints, err = json.Marshal(response.EntryPoints)
	if err != nil {
		return nil, &starknet.Error{Kind: starknet.ErrEntryPointSerialization, Field: "entry_points_by_type", Err: err}
	}
	class.Program = response.Program
	return class, nil
}

func AdaptSierraContractClass(response *starknet.SierraContractClass) (*core.SierraClass, error) {
	return adaptSierraContractClass(response, utils.MaxDecompressedSize)
}

func adaptSierraContractClass(response *starknet.SierraContractClass, limit int64) (*core.SierraClass, error) {
	class := new(core.SierraClass)
	class.SemanticVersion = response.Version

	program, index, err := utils.MapErr(response.Program, feltToBigInt)
	if err != nil {
		return nil, &starknet.Error{Kind: starknet.ErrMalformedFieldElement, Field: fmt.Sprintf("sierra_program[%d]", index), Err: err}
	}
	class.Program = program
	if class.Program == nil {
		class.Program = []*big.Int{}
	}

	class.EntryPoints.Constructor, err = adaptSierraEntryPoints(response.EntryPoints, starknet.Constructor)
	if err != nil {
		return nil, err
	}
	class.EntryPoints.External, err = adaptSierraEntryPoints(response.EntryPoints, starknet.External)
	if err != nil {
		return nil, err
	}
	class.EntryPoints.L1Handler, err = adaptSierraEntryPoints(response.EntryPoints, starknet.L1Handler)
	if err != nil {
		return nil, err
	}

	if class.Abi, err = response.DecodeAbiLimit(limit); err != nil {
		return nil, err
	}
	return class, nil
}

func adaptSierraEntryPoints(
	grouped starknet.EntryPointsByType[starknet.SierraEntryPoint], key starknet.EntryPointType,
) ([]core.SierraEntryPoint, error) {
	entryPoints := grouped.Category(key)
	adapted := make([]core.SierraEntryPoint, len(entryPoints))
	for i, ep := range entryPoints {
		selector, err := feltToBigInt(ep.Selector)
		if err != nil {
			return nil, &starknet.Error{
				Kind:  starknet.ErrMalformedFieldElement,
				Field: fmt.Sprintf("entry_points_by_type.%s[%d].selector", key, i),
				Err:   err,
			}
		}
		adapted[i] = core.SierraEntryPoint{Index: ep.Index, Selector: selector}
	}
	return adapted, nil
}

func feltToBigInt(f *felt.Felt) (*big.Int, error) {
	if f == nil {
		return nil, errors.New("nil field element")
	}
	return f.BigInt(), nil
}
