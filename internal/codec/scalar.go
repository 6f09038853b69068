package codec

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

type numField[T Number] struct {
	name string
	p    *T
	info numInfo
}

// Num binds a fixed-width numeric field.
func Num[T Number](name string, p *T) Field {
	return &numField[T]{name: name, p: p, info: infoOf[T]()}
}

func (f *numField[T]) Name() string { return f.name }
func (f *numField[T]) Kind() Kind   { return f.info.kind }

func (f *numField[T]) Spec() FieldSpec {
	return FieldSpec{Name: f.name, Kind: f.info.kind, Width: f.info.width}
}

func (f *numField[T]) encode(w *Writer) error {
	w.putUint(toBits(f.info, *f.p), f.info.width)
	return nil
}

func (f *numField[T]) decode(r *Reader) error {
	u, err := r.uint(f.info.width)
	if err != nil {
		return err
	}
	*f.p = fromBits[T](f.info, u)
	return nil
}

func (f *numField[T]) skip(r *Reader) error {
	_, err := r.take(f.info.width)
	return err
}

func (f *numField[T]) wireType() protowire.Type { return f.info.wireType() }

func (f *numField[T]) appendTagged(b []byte) ([]byte, error) {
	return f.info.appendScalar(b, toBits(f.info, *f.p)), nil
}

func (f *numField[T]) consumeTagged(raw []byte) error {
	u, _, err := f.info.consumeScalar(raw)
	if err != nil {
		return err
	}
	*f.p = fromBits[T](f.info, u)
	return nil
}

func (f *numField[T]) value() any { return *f.p }

type boolField struct {
	name string
	p    *bool
}

// Bool binds a one-byte boolean field.
func Bool(name string, p *bool) Field {
	return &boolField{name: name, p: p}
}

func (f *boolField) Name() string    { return f.name }
func (f *boolField) Kind() Kind      { return KindBool }
func (f *boolField) Spec() FieldSpec { return FieldSpec{Name: f.name, Kind: KindBool, Width: 1} }

func (f *boolField) encode(w *Writer) error {
	if *f.p {
		w.putUint(1, 1)
	} else {
		w.putUint(0, 1)
	}
	return nil
}

func (f *boolField) read(r *Reader) (bool, error) {
	v, err := r.uint(1)
	if err != nil {
		return false, err
	}
	if v > 1 {
		return false, r.fail(errBoolValue)
	}
	return v == 1, nil
}

func (f *boolField) decode(r *Reader) error {
	v, err := f.read(r)
	if err != nil {
		return err
	}
	*f.p = v
	return nil
}

func (f *boolField) skip(r *Reader) error {
	_, err := f.read(r)
	return err
}

func (f *boolField) wireType() protowire.Type { return protowire.VarintType }

func (f *boolField) appendTagged(b []byte) ([]byte, error) {
	return protowire.AppendVarint(b, protowire.EncodeBool(*f.p)), nil
}

func (f *boolField) consumeTagged(raw []byte) error {
	v, n := protowire.ConsumeVarint(raw)
	if n < 0 {
		return protowire.ParseError(n)
	}
	if v > 1 {
		return errBoolValue
	}
	*f.p = v == 1
	return nil
}

func (f *boolField) value() any { return *f.p }

type enumField[T Integer] struct {
	name  string
	p     *T
	count int
}

// Enum binds an enumerated field with values in [0, count). The wire width
// is the smallest of 1, 2 or 4 bytes that holds count-1.
func Enum[T Integer](name string, p *T, count int) Field {
	return &enumField[T]{name: name, p: p, count: count}
}

func (f *enumField[T]) Name() string { return f.name }
func (f *enumField[T]) Kind() Kind   { return KindEnum }

func (f *enumField[T]) Spec() FieldSpec {
	return FieldSpec{Name: f.name, Kind: KindEnum, Width: tagWidth(f.count), Max: f.count}
}

func (f *enumField[T]) ordinal() (uint64, error) {
	v := *f.p
	if v < 0 || uint64(v) >= uint64(f.count) {
		return 0, fmt.Errorf("%w: %d not in [0,%d)", ErrEnumRange, v, f.count)
	}
	return uint64(v), nil
}

func (f *enumField[T]) encode(w *Writer) error {
	v, err := f.ordinal()
	if err != nil {
		return encodeError("", err)
	}
	w.putUint(v, tagWidth(f.count))
	return nil
}

func (f *enumField[T]) read(r *Reader) (uint64, error) {
	v, err := r.uint(tagWidth(f.count))
	if err != nil {
		return 0, err
	}
	if v >= uint64(f.count) {
		return 0, r.fail(fmt.Errorf("%w: %d not in [0,%d)", ErrEnumRange, v, f.count))
	}
	return v, nil
}

func (f *enumField[T]) decode(r *Reader) error {
	v, err := f.read(r)
	if err != nil {
		return err
	}
	*f.p = T(v)
	return nil
}

func (f *enumField[T]) skip(r *Reader) error {
	_, err := f.read(r)
	return err
}

func (f *enumField[T]) wireType() protowire.Type { return protowire.VarintType }

func (f *enumField[T]) appendTagged(b []byte) ([]byte, error) {
	v, err := f.ordinal()
	if err != nil {
		return nil, err
	}
	return protowire.AppendVarint(b, v), nil
}

func (f *enumField[T]) consumeTagged(raw []byte) error {
	v, n := protowire.ConsumeVarint(raw)
	if n < 0 {
		return protowire.ParseError(n)
	}
	if v >= uint64(f.count) {
		return fmt.Errorf("%w: %d not in [0,%d)", ErrEnumRange, v, f.count)
	}
	*f.p = T(v)
	return nil
}

func (f *enumField[T]) value() any { return *f.p }
