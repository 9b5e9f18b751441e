package kaitaiexpr

import (
	"math/big"

	"github.com/kbinterp/kbin/pkg/kaitaierr"
)

// Kind tags the dynamic type of a Value (§9 "Dynamic typing -> tagged
// union"): Int / BigInt / Float / Bytes / String / Array / Object /
// EnumTagged, plus Bool and Null which the expression language treats as
// their own primitive kinds and Stream for the `_io` pseudo-identifier.
type Kind int

const (
	KindNull Kind = iota
	KindInt
	KindBigInt
	KindFloat
	KindBool
	KindString
	KindBytes
	KindArray
	KindObject
	KindEnum
	KindStream
)

// Object is the minimal surface an interpreter node must expose for
// `receiver.field` member access from within an expression; it decouples
// this package from the node representation in pkg/kaitaistruct.
type Object interface {
	Field(name string) (Value, bool, error)
}

// StreamLike is the minimal surface a stream must expose to expressions
// (currently only `_io` used as an opaque token passed back to the
// interpreter for `io:` attribute resolution; expressions do not call
// stream methods directly per §4.5).
type StreamLike interface {
	Pos() int64
	Size() int64
}

// Value is the tagged union every expression evaluates to.
type Value struct {
	Kind   Kind
	Int    int64
	Big    *big.Int
	Float  float64
	Bool   bool
	Str    string
	Bytes  []byte
	Arr    []Value
	Obj    Object
	Stream StreamLike

	// EnumType/EnumRaw hold the enum type name and underlying integer for
	// KindEnum values. Only the raw integer is stored; the symbolic name is
	// looked up in the schema's EnumDef for EnumType when it is needed.
	EnumType string
	EnumRaw  int64
}

func Null() Value                { return Value{Kind: KindNull} }
func Int(v int64) Value          { return Value{Kind: KindInt, Int: v} }
func BigIntVal(v *big.Int) Value { return Value{Kind: KindBigInt, Big: v} }
func Float(v float64) Value      { return Value{Kind: KindFloat, Float: v} }
func Bool(v bool) Value          { return Value{Kind: KindBool, Bool: v} }
func Str(v string) Value         { return Value{Kind: KindString, Str: v} }
func Bytes(v []byte) Value       { return Value{Kind: KindBytes, Bytes: v} }
func Array(v []Value) Value      { return Value{Kind: KindArray, Arr: v} }
func Obj(v Object) Value         { return Value{Kind: KindObject, Obj: v} }
func StreamVal(v StreamLike) Value { return Value{Kind: KindStream, Stream: v} }
func Enum(typeName string, raw int64) Value {
	return Value{Kind: KindEnum, EnumType: typeName, EnumRaw: raw}
}

// safeIntBits is the JS-style "safe integer" boundary (2^53) referenced by
// §9 "Numeric width": values at or beyond it, and any value derived from a
// bit-read wider than 53 bits, are promoted to arbitrary precision even
// though Go's native int64/uint64 could hold them, to keep the documented
// semantics of the spec (and of formats that rely on it) reproducible.
const safeIntBits = 53

// IntFromUintWidth builds an integer Value from an unsigned read of the
// given bit width, promoting to BigInt when the width exceeds the safe
// integer boundary or the value itself does not fit under it.
func IntFromUintWidth(v uint64, widthBits int) Value {
	if widthBits > safeIntBits || v >= (uint64(1)<<safeIntBits) {
		b := new(big.Int).SetUint64(v)
		return BigIntVal(b)
	}
	return Int(int64(v))
}

// IsTruthy implements the language's notion of truthiness for `and`/`or`
// short-circuiting and ternary conditions: booleans by value, everything
// else by non-null/non-zero.
func (v Value) IsTruthy() bool {
	switch v.Kind {
	case KindBool:
		return v.Bool
	case KindNull:
		return false
	case KindInt:
		return v.Int != 0
	case KindBigInt:
		return v.Big.Sign() != 0
	case KindFloat:
		return v.Float != 0
	case KindString:
		return v.Str != ""
	default:
		return true
	}
}

// AsBigInt promotes any numeric Value to *big.Int (truncating floats).
func (v Value) AsBigInt() (*big.Int, error) {
	switch v.Kind {
	case KindInt:
		return big.NewInt(v.Int), nil
	case KindBigInt:
		return v.Big, nil
	case KindFloat:
		return big.NewInt(int64(v.Float)), nil
	case KindEnum:
		return big.NewInt(v.EnumRaw), nil
	default:
		return nil, kaitaierr.NewParseError("value of kind %d is not numeric", v.Kind)
	}
}

// AsFloat promotes any numeric Value to float64.
func (v Value) AsFloat() (float64, error) {
	switch v.Kind {
	case KindInt:
		return float64(v.Int), nil
	case KindBigInt:
		f := new(big.Float).SetInt(v.Big)
		out, _ := f.Float64()
		return out, nil
	case KindFloat:
		return v.Float, nil
	case KindEnum:
		return float64(v.EnumRaw), nil
	default:
		return 0, kaitaierr.NewParseError("value of kind %d is not numeric", v.Kind)
	}
}

// AsInt64 extracts an int64, failing if the value does not fit or is not
// integral. Used where a strictly integral count/index is required.
func (v Value) AsInt64() (int64, error) {
	switch v.Kind {
	case KindInt:
		return v.Int, nil
	case KindBigInt:
		if !v.Big.IsInt64() {
			return 0, kaitaierr.NewParseError("integer value %s does not fit in 64 bits", v.Big.String())
		}
		return v.Big.Int64(), nil
	case KindEnum:
		return v.EnumRaw, nil
	case KindFloat:
		if float64(int64(v.Float)) != v.Float {
			return 0, kaitaierr.NewParseError("value %v is not an integer", v.Float)
		}
		return int64(v.Float), nil
	default:
		return 0, kaitaierr.NewParseError("value of kind %d is not an integer", v.Kind)
	}
}

func isNumeric(v Value) bool {
	switch v.Kind {
	case KindInt, KindBigInt, KindFloat, KindEnum:
		return true
	default:
		return false
	}
}

func isBig(v Value) bool {
	if v.Kind == KindBigInt {
		return true
	}
	if v.Kind == KindInt {
		abs := v.Int
		if abs < 0 {
			abs = -abs
		}
		return abs >= (int64(1) << safeIntBits)
	}
	return false
}

// DeepEqual implements the element-wise equality §4.5 requires for arrays
// and byte-sequences, and value equality for everything else.
func DeepEqual(a, b Value) bool {
	if a.Kind == KindBytes && b.Kind == KindBytes {
		if len(a.Bytes) != len(b.Bytes) {
			return false
		}
		for i := range a.Bytes {
			if a.Bytes[i] != b.Bytes[i] {
				return false
			}
		}
		return true
	}
	if a.Kind == KindArray && b.Kind == KindArray {
		if len(a.Arr) != len(b.Arr) {
			return false
		}
		for i := range a.Arr {
			if !DeepEqual(a.Arr[i], b.Arr[i]) {
				return false
			}
		}
		return true
	}
	if isNumeric(a) && isNumeric(b) {
		if a.Kind == KindFloat || b.Kind == KindFloat {
			af, _ := a.AsFloat()
			bf, _ := b.AsFloat()
			return af == bf
		}
		ab, _ := a.AsBigInt()
		bb, _ := b.AsBigInt()
		return ab.Cmp(bb) == 0
	}
	switch {
	case a.Kind == KindString && b.Kind == KindString:
		return a.Str == b.Str
	case a.Kind == KindBool && b.Kind == KindBool:
		return a.Bool == b.Bool
	case a.Kind == KindNull && b.Kind == KindNull:
		return true
	default:
		return false
	}
}
