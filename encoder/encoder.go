package encoder

import (
	"fmt"
	"reflect"
	"sync"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// https://www.iana.org/assignments/cbor-tags/cbor-tags.xhtml
// 65536-15309735 	Unassigned
const (
	FirstUnassignedTag uint64 = 65536
	LastUnassignedTag  uint64 = 15309735
)

var (
	ts      = cbor.NewTagSet()
	encMode cbor.EncMode
	decMode cbor.DecMode
)

var initialiseEncoder sync.Once

func initEncAndDecModes() {
	var err error
	encMode, err = cbor.CanonicalEncOptions().EncModeWithTags(ts)
	if err != nil {
		panic(err)
	}

	decMode, err = cbor.DecOptions{
		// Sierra programs run into hundreds of thousands of words
		MaxArrayElements: 10485760,
		// Canonical encodings never repeat a key or use indefinite lengths
		DupMapKey:   cbor.DupMapKeyEnforcedAPF,
		IndefLength: cbor.IndefLengthForbidden,
		// A stored class with a field this build does not know is rejected
		ExtraReturnErrors: cbor.ExtraDecErrorUnknownField,
	}.DecModeWithTags(ts)
	if err != nil {
		panic(err)
	}
}

// RegisterType tags rType with tagNum. The number is persisted with every
// encoded value, so it must never be reassigned to another type.
func RegisterType(rType reflect.Type, tagNum uint64) error {
	if tagNum < FirstUnassignedTag || tagNum > LastUnassignedTag {
		return fmt.Errorf("tag %d of %s is outside the unassigned range", tagNum, rType)
	}
	if err := ts.Add(
		cbor.TagOptions{EncTag: cbor.EncTagRequired, DecTag: cbor.DecTagRequired},
		rType,
		tagNum,
	); err != nil {
		return err
	}
	initEncAndDecModes()
	return nil
}

// Marshal returns encoding of param v
func Marshal(v any) ([]byte, error) {
	initialiseEncoder.Do(initEncAndDecModes)
	return encMode.Marshal(v)
}

// Unmarshal decodes param v from []byte b
func Unmarshal(b []byte, v any) error {
	initialiseEncoder.Do(initEncAndDecModes)
	return decMode.Unmarshal(b, v)
}

// TestSymmetry checks if a type can be marshalled and unmarshalled with no issues
func TestSymmetry(t *testing.T, value any) {
	t.Helper()
	cborBytes, err := Marshal(value)
	require.NoError(t, err)

	unmarshaled := reflect.New(reflect.TypeOf(value))
	require.NoError(t, Unmarshal(cborBytes, unmarshaled.Interface()))
	assert.Equal(t, value, unmarshaled.Elem().Interface())
}
