package core2sn

import (
	"encoding/json"
	"fmt"

	"github.com/NethermindEth/classconv/core"
	"github.com/NethermindEth/classconv/core/felt"
	"github.com/NethermindEth/classconv/starknet"
	"github.com/NethermindEth/classconv/utils"
)

// AdaptClass converts an execution engine class into its wire form.
func AdaptClass(class core.Class) (starknet.ContractClass, error) {
	switch c := class.(type) {
	case *core.DeprecatedCairoClass:
		deprecated, err := AdaptDeprecatedCairoClass(c)
		if err != nil {
			return starknet.ContractClass{}, err
		}
		return starknet.ContractClass{Deprecated: deprecated}, nil
	case *core.SierraClass:
		sierra, err := AdaptSierraClass(c)
		if err != nil {
			return starknet.ContractClass{}, err
		}
		return starknet.ContractClass{Sierra: sierra}, nil
	default:
		return starknet.ContractClass{}, fmt.Errorf("unsupported class type %T", class)
	}
}

// AdaptDeprecatedCairoClass decodes the three JSON documents of the class
// through the wire decoder, so the result is validated and its program is
// canonical.
func AdaptDeprecatedCairoClass(class *core.DeprecatedCairoClass) (*starknet.DeprecatedContractClass, error) {
	definition, err := class.Definition()
	if err != nil {
		return nil, &starknet.Error{Kind: starknet.ErrMalformedJSON, Err: err}
	}

	deprecated := new(starknet.DeprecatedContractClass)
	if err = json.Unmarshal(definition, deprecated); err != nil {
		return nil, err
	}
	return deprecated, nil
}

func AdaptSierraEntryPoint(ep core.SierraEntryPoint) (starknet.SierraEntryPoint, error) {
	selector, err := felt.FromBigInt(ep.Selector)
	if err != nil {
		return starknet.SierraEntryPoint{}, &starknet.Error{
			Kind:  starknet.ErrMalformedFieldElement,
			Field: "selector",
			Err:   err,
		}
	}
	return starknet.SierraEntryPoint{
		Selector: selector,
		Index:    ep.Index,
	}, nil
}

func AdaptSierraClass(class *core.SierraClass) (*starknet.SierraContractClass, error) {
	program, index, err := utils.MapErr(class.Program, felt.FromBigInt)
	if err != nil {
		return nil, &starknet.Error{
			Kind:  starknet.ErrMalformedFieldElement,
			Field: fmt.Sprintf("sierra_program[%d]", index),
			Err:   err,
		}
	}
	if program == nil {
		program = []*felt.Felt{}
	}

	entryPoints, err := starknet.GroupEntryPoints(
		class.EntryPoints.Constructor,
		class.EntryPoints.External,
		class.EntryPoints.L1Handler,
		AdaptSierraEntryPoint,
	)
	if err != nil {
		return nil, err
	}

	var abi *string
	if class.Abi != nil {
		compressed, err := starknet.CompressJSON(class.Abi, "abi")
		if err != nil {
			return nil, err
		}
		abi = &compressed
	}

	return &starknet.SierraContractClass{
		Program:     program,
		Version:     class.SemanticVersion,
		EntryPoints: entryPoints,
		Abi:         abi,
	}, nil
}
