package felt

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/consensys/gnark-crypto/ecc/stark-curve/fp"
	"github.com/fxamacker/cbor/v2"
)

// ErrMalformed is returned when a value cannot be interpreted as a field element.
var ErrMalformed = errors.New("malformed field element")

type Felt struct {
	val fp.Element
}

func NewFelt(element *fp.Element) *Felt {
	return &Felt{
		val: *element,
	}
}

const (
	Limbs = fp.Limbs // number of 64 bits words needed to represent a Element
	Bits  = fp.Bits  // number of bits needed to represent a Element
	Bytes = fp.Bytes // number of bytes needed to represent a Element
)

// zero felt constant
var Zero = Felt{}

var bigIntPool = sync.Pool{
	New: func() interface{} {
		return new(big.Int)
	},
}

// NewFromHex parses a 0x (or 0X) prefixed hexadecimal string. Hex digits are
// case-insensitive and leading zeros are allowed, but the value must be
// strictly lower than the field modulus.
func NewFromHex(s string) (*Felt, error) {
	digits, ok := strings.CutPrefix(s, "0x")
	if !ok {
		digits, ok = strings.CutPrefix(s, "0X")
	}
	if !ok {
		return nil, fmt.Errorf("%w: missing 0x prefix in %q", ErrMalformed, s)
	}
	if digits == "" {
		return nil, fmt.Errorf("%w: no digits in %q", ErrMalformed, s)
	}
	for _, c := range digits {
		if !isHexDigit(c) {
			return nil, fmt.Errorf("%w: invalid hex digit %q in %q", ErrMalformed, c, s)
		}
	}

	// get temporary big int from the pool
	vv := bigIntPool.Get().(*big.Int)
	defer bigIntPool.Put(vv)

	if _, ok := vv.SetString(digits, 16); !ok {
		return nil, fmt.Errorf("%w: can't parse %q", ErrMalformed, s)
	}
	if vv.Cmp(fp.Modulus()) >= 0 {
		return nil, fmt.Errorf("%w: %q exceeds the field modulus", ErrMalformed, s)
	}

	f := new(Felt)
	f.val.SetBigInt(vv)
	return f, nil
}

func isHexDigit(c rune) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

// FromBigInt fails for negative values and values not lower than the modulus.
// Unlike fp.Element.SetBigInt it never reduces.
func FromBigInt(v *big.Int) (*Felt, error) {
	if v == nil {
		return nil, fmt.Errorf("%w: nil value", ErrMalformed)
	}
	if v.Sign() < 0 || v.Cmp(fp.Modulus()) >= 0 {
		return nil, fmt.Errorf("%w: %s is outside the field", ErrMalformed, v.Text(16))
	}
	f := new(Felt)
	f.val.SetBigInt(v)
	return f, nil
}

func FromUint64(v uint64) Felt {
	var f Felt
	f.val.SetUint64(v)
	return f
}

// Impl returns the underlying field element type
func (z *Felt) Impl() *fp.Element {
	return &z.val
}

// UnmarshalJSON only accepts JSON strings holding a 0x prefixed hex value.
func (z *Felt) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrMalformed, string(data))
	}
	f, err := NewFromHex(s)
	if err != nil {
		return err
	}
	*z = *f
	return nil
}

// MarshalJSON encodes the felt as its canonical hex string
func (z Felt) MarshalJSON() ([]byte, error) {
	return json.Marshal(z.String())
}

// MarshalCBOR encodes the felt as a 32 byte big-endian byte string
func (z Felt) MarshalCBOR() ([]byte, error) {
	b := z.val.Bytes()
	return cbor.Marshal(b[:])
}

func (z *Felt) UnmarshalCBOR(data []byte) error {
	var b []byte
	if err := cbor.Unmarshal(data, &b); err != nil {
		return err
	}
	if len(b) != Bytes {
		return fmt.Errorf("%w: expected %d bytes, got %d", ErrMalformed, Bytes, len(b))
	}
	f, err := FromBigInt(new(big.Int).SetBytes(b))
	if err != nil {
		return err
	}
	*z = *f
	return nil
}

// SetBytes forwards the call to underlying field element implementation
func (z *Felt) SetBytes(e []byte) *Felt {
	z.val.SetBytes(e)
	return z
}

// SetUint64 forwards the call to underlying field element implementation
func (z *Felt) SetUint64(v uint64) *Felt {
	z.val.SetUint64(v)
	return z
}

// String returns the lowercase 0x prefixed hex form without leading zeros
func (z *Felt) String() string {
	return "0x" + z.val.Text(16)
}

// Text forwards the call to underlying field element implementation
func (z *Felt) Text(base int) string {
	return z.val.Text(base)
}

// BigInt returns the regular (non-Montgomery) value
func (z *Felt) BigInt() *big.Int {
	return z.val.BigInt(new(big.Int))
}

// Uint64 returns the value and whether it fits into 64 bits
func (z *Felt) Uint64() (uint64, bool) {
	v := z.BigInt()
	if !v.IsUint64() {
		return 0, false
	}
	return v.Uint64(), true
}

// Equal forwards the call to underlying field element implementation
func (z *Felt) Equal(x *Felt) bool {
	return z.val.Equal(&x.val)
}

// Bytes forwards the call to underlying field element implementation
func (z *Felt) Bytes() [32]byte {
	return z.val.Bytes()
}

// IsZero forwards the call to underlying field element implementation
func (z *Felt) IsZero() bool {
	return z.val.IsZero()
}

// Cmp forwards the call to underlying field element implementation
func (z *Felt) Cmp(x *Felt) int {
	return z.val.Cmp(&x.val)
}
