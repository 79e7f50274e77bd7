package registry

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/NethermindEth/classconv/core"
	"github.com/NethermindEth/classconv/encoder"
)

// Tag numbers are stored with every encoded class.
const (
	DeprecatedCairoClassTag = encoder.FirstUnassignedTag + iota
	SierraClassTag
)

var once sync.Once

//nolint:gochecknoinits
func init() {
	once.Do(func() {
		types := []struct {
			rType  reflect.Type
			tagNum uint64
		}{
			{reflect.TypeOf(core.DeprecatedCairoClass{}), DeprecatedCairoClassTag},
			{reflect.TypeOf(core.SierraClass{}), SierraClassTag},
		}

		for _, t := range types {
			err := encoder.RegisterType(t.rType, t.tagNum)
			if err != nil {
				panic(err)
			}
		}
	})
}

// MarshalClass encodes class as a tagged CBOR item, the tag telling the
// variant apart on decode.
func MarshalClass(class core.Class) ([]byte, error) {
	switch c := class.(type) {
	case *core.DeprecatedCairoClass:
		return encoder.Marshal(*c)
	case *core.SierraClass:
		return encoder.Marshal(*c)
	default:
		return nil, fmt.Errorf("unsupported class type %T", class)
	}
}

func UnmarshalClass(b []byte) (core.Class, error) {
	var decoded any
	if err := encoder.Unmarshal(b, &decoded); err != nil {
		return nil, err
	}

	switch c := decoded.(type) {
	case core.DeprecatedCairoClass:
		return &c, nil
	case core.SierraClass:
		return &c, nil
	default:
		return nil, fmt.Errorf("unexpected item %T in class encoding", decoded)
	}
}
