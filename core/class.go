package core

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/Masterminds/semver/v3"
)

// Class unambiguously defines a Contract's semantics.
type Class interface {
	Version() uint64
	SierraVersion() string
}

var (
	_ Class = (*DeprecatedCairoClass)(nil)
	_ Class = (*SierraClass)(nil)
)

// DeprecatedCairoClass is the form in which the execution engine loads a
// Cairo 0 class: three independent JSON documents.
type DeprecatedCairoClass struct {
	// ABI entries of the class, a JSON array.
	Abi json.RawMessage
	// Entry points grouped by type, a JSON object keyed by
	// CONSTRUCTOR, EXTERNAL and L1_HANDLER.
	EntryPoints json.RawMessage
	// The compiled program with canonically ordered keys.
	Program json.RawMessage
}

func (c *DeprecatedCairoClass) Version() uint64 {
	return 0
}

func (c *DeprecatedCairoClass) SierraVersion() string {
	return "0.0.0"
}

// Definition assembles the program container handed to the execution engine.
func (c *DeprecatedCairoClass) Definition() (json.RawMessage, error) {
	return json.Marshal(struct {
		Abi         json.RawMessage `json:"abi"`
		EntryPoints json.RawMessage `json:"entry_points_by_type"`
		Program     json.RawMessage `json:"program"`
	}{
		Abi:         c.Abi,
		EntryPoints: c.EntryPoints,
		Program:     c.Program,
	})
}

type SierraEntryPoint struct {
	Index    uint64
	Selector *big.Int
}

type SierraEntryPoints struct {
	Constructor []SierraEntryPoint
	External    []SierraEntryPoint
	L1Handler   []SierraEntryPoint
}

type SierraClass struct {
	// Uncompressed ABI JSON, nil when the class was declared without one.
	Abi         json.RawMessage
	EntryPoints SierraEntryPoints
	// Words of the Sierra program as emitted by the compiler.
	Program         []*big.Int
	SemanticVersion string
}

func (c *SierraClass) Version() uint64 {
	return 1
}

// Programs compiled by the earliest Sierra compilers start with the short
// string "0.1.0" instead of three version words.
var sierraVersion010 = new(big.Int).SetBytes([]byte("0.1.0"))

// SierraVersion reads the version the program was compiled with from the
// program prefix.
func (c *SierraClass) SierraVersion() string {
	if len(c.Program) > 0 && c.Program[0] != nil && c.Program[0].Cmp(sierraVersion010) == 0 {
		return "0.1.0"
	}
	if len(c.Program) < 3 {
		return "0.0.0"
	}
	for _, word := range c.Program[:3] {
		if word == nil {
			return "0.0.0"
		}
	}
	return fmt.Sprintf("%s.%s.%s", c.Program[0].Text(10), c.Program[1].Text(10), c.Program[2].Text(10))
}

func (c *SierraClass) ParsedSierraVersion() (*semver.Version, error) {
	return semver.StrictNewVersion(c.SierraVersion())
}
