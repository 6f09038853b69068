package codec

import (
	"errors"
	"fmt"
	"math"
	"reflect"

	"google.golang.org/protobuf/encoding/protowire"
)

// Kind classifies a field for schema descriptions.
type Kind uint8

const (
	KindInt Kind = iota + 1
	KindUint
	KindFloat
	KindBool
	KindEnum
	KindArray
	KindSequence
	KindString
	KindBytes
	KindNested
	KindVariant
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindUint:
		return "uint"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindEnum:
		return "enum"
	case KindArray:
		return "array"
	case KindSequence:
		return "seq"
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	case KindNested:
		return "nested"
	case KindVariant:
		return "variant"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Record is any type that can list its fields bound to its own storage.
// Fields must return the same names and kinds, in the same order, on every
// call.
type Record interface {
	Fields() []Field
}

// Field is one bound field of a record. Implementations live in this
// package; records build them with Num, Bool, Enum, Array, Seq, String,
// Bytes, Nested and Variant.
type Field interface {
	Name() string
	Kind() Kind
	Spec() FieldSpec

	encode(w *Writer) error
	decode(r *Reader) error
	skip(r *Reader) error

	wireType() protowire.Type
	appendTagged(b []byte) ([]byte, error)
	consumeTagged(raw []byte) error
	value() any
}

// Number is the set of fixed-width numeric field types.
type Number interface {
	~int8 | ~int16 | ~int32 | ~int64 |
		~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// Integer is the set of types usable as enum and variant tags.
type Integer interface {
	~int8 | ~int16 | ~int32 | ~int64 | ~int |
		~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uint
}

var errBoolValue = errors.New("codec: bool byte is neither 0 nor 1")

// numInfo describes the wire shape of one numeric type.
type numInfo struct {
	kind  Kind
	width int
}

func infoOf[T Number]() numInfo {
	var zero T
	switch reflect.TypeOf(zero).Kind() {
	case reflect.Int8:
		return numInfo{KindInt, 1}
	case reflect.Int16:
		return numInfo{KindInt, 2}
	case reflect.Int32:
		return numInfo{KindInt, 4}
	case reflect.Int64:
		return numInfo{KindInt, 8}
	case reflect.Uint8:
		return numInfo{KindUint, 1}
	case reflect.Uint16:
		return numInfo{KindUint, 2}
	case reflect.Uint32:
		return numInfo{KindUint, 4}
	case reflect.Uint64:
		return numInfo{KindUint, 8}
	case reflect.Float32:
		return numInfo{KindFloat, 4}
	default:
		return numInfo{KindFloat, 8}
	}
}

// toBits returns the raw wire bits of v; floats keep their IEEE pattern.
func toBits[T Number](info numInfo, v T) uint64 {
	switch {
	case info.kind == KindFloat && info.width == 4:
		return uint64(math.Float32bits(float32(v)))
	case info.kind == KindFloat:
		return math.Float64bits(float64(v))
	default:
		return uint64(v)
	}
}

func fromBits[T Number](info numInfo, u uint64) T {
	switch {
	case info.kind == KindFloat && info.width == 4:
		return T(math.Float32frombits(uint32(u)))
	case info.kind == KindFloat:
		return T(math.Float64frombits(u))
	case info.kind == KindInt:
		return T(signExtend(u, info.width))
	default:
		return T(u)
	}
}

func signExtend(u uint64, width int) int64 {
	shift := 64 - 8*uint(width)
	return int64(u<<shift) >> shift
}

func (n numInfo) wireType() protowire.Type {
	switch {
	case n.kind == KindFloat && n.width == 4:
		return protowire.Fixed32Type
	case n.kind == KindFloat:
		return protowire.Fixed64Type
	default:
		return protowire.VarintType
	}
}

func (n numInfo) appendScalar(b []byte, bits uint64) []byte {
	switch {
	case n.kind == KindFloat && n.width == 4:
		return protowire.AppendFixed32(b, uint32(bits))
	case n.kind == KindFloat:
		return protowire.AppendFixed64(b, bits)
	case n.kind == KindInt:
		return protowire.AppendVarint(b, protowire.EncodeZigZag(signExtend(bits, n.width)))
	default:
		return protowire.AppendVarint(b, bits&widthMask(n.width))
	}
}

// consumeScalar parses one scalar and range-checks it against the width.
func (n numInfo) consumeScalar(b []byte) (uint64, int, error) {
	switch {
	case n.kind == KindFloat && n.width == 4:
		v, m := protowire.ConsumeFixed32(b)
		if m < 0 {
			return 0, 0, protowire.ParseError(m)
		}
		return uint64(v), m, nil
	case n.kind == KindFloat:
		v, m := protowire.ConsumeFixed64(b)
		if m < 0 {
			return 0, 0, protowire.ParseError(m)
		}
		return v, m, nil
	}
	v, m := protowire.ConsumeVarint(b)
	if m < 0 {
		return 0, 0, protowire.ParseError(m)
	}
	if n.kind == KindInt {
		s := protowire.DecodeZigZag(v)
		if signExtend(uint64(s), n.width) != s {
			return 0, 0, fmt.Errorf("%w: %d does not fit %d bytes", ErrCapacityExceeded, s, n.width)
		}
		return uint64(s) & widthMask(n.width), m, nil
	}
	if v&^widthMask(n.width) != 0 {
		return 0, 0, fmt.Errorf("%w: %d does not fit %d bytes", ErrCapacityExceeded, v, n.width)
	}
	return v, m, nil
}

func widthMask(width int) uint64 {
	if width >= 8 {
		return math.MaxUint64
	}
	return 1<<(8*uint(width)) - 1
}
