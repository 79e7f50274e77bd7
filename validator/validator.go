package validator

import (
	"reflect"
	"strings"
	"sync"

	"github.com/NethermindEth/classconv/core/felt"
	"github.com/go-playground/validator/v10"
)

var (
	once sync.Once
	v    *validator.Validate
)

// Validator returns a singleton that can be used to validate various objects
func Validator() *validator.Validate {
	once.Do(func() {
		v = validator.New(validator.WithRequiredStructEnabled())

		// Report fields by the name they carry on the wire
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			for _, tag := range []string{"json", "mapstructure"} {
				name, _, _ := strings.Cut(field.Tag.Get(tag), ",")
				if name == "-" {
					return ""
				}
				if name != "" {
					return name
				}
			}
			return field.Name
		})

		// Felts validate by their string representation. Pointers are
		// dereferenced before this is called, so a nil *felt.Felt fails required.
		v.RegisterCustomTypeFunc(func(field reflect.Value) any {
			if f, ok := field.Interface().(felt.Felt); ok {
				return f.String()
			}
			panic("not a felt")
		}, felt.Felt{})
	})
	return v
}

// MissingFields returns the wire names of the fields of err that failed the
// required tag, in declaration order.
func MissingFields(err error) []string {
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return nil
	}

	var missing []string
	for _, fieldErr := range errs {
		if fieldErr.Tag() == "required" {
			missing = append(missing, fieldErr.Field())
		}
	}
	return missing
}
