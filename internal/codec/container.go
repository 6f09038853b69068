package codec

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

type arrayField[T Number] struct {
	name string
	s    []T
	info numInfo
}

// Array binds a fixed-size array. s must alias the record's array storage,
// e.g. r.Samples[:]; its length is the static size and is not sent.
func Array[T Number](name string, s []T) Field {
	return &arrayField[T]{name: name, s: s, info: infoOf[T]()}
}

func (f *arrayField[T]) Name() string { return f.name }
func (f *arrayField[T]) Kind() Kind   { return KindArray }

func (f *arrayField[T]) Spec() FieldSpec {
	return FieldSpec{Name: f.name, Kind: KindArray, Elem: f.info.kind, Width: f.info.width, Len: len(f.s)}
}

func (f *arrayField[T]) encode(w *Writer) error {
	for _, v := range f.s {
		w.putUint(toBits(f.info, v), f.info.width)
	}
	return nil
}

func (f *arrayField[T]) decode(r *Reader) error {
	raw, err := r.take(len(f.s) * f.info.width)
	if err != nil {
		return err
	}
	sub := NewReader(raw)
	for i := range f.s {
		u, err := sub.uint(f.info.width)
		if err != nil {
			return err
		}
		f.s[i] = fromBits[T](f.info, u)
	}
	return nil
}

func (f *arrayField[T]) skip(r *Reader) error {
	_, err := r.take(len(f.s) * f.info.width)
	return err
}

func (f *arrayField[T]) wireType() protowire.Type { return protowire.BytesType }

func (f *arrayField[T]) appendTagged(b []byte) ([]byte, error) {
	return protowire.AppendBytes(b, appendPacked(nil, f.info, f.s)), nil
}

func (f *arrayField[T]) consumeTagged(raw []byte) error {
	packed, n := protowire.ConsumeBytes(raw)
	if n < 0 {
		return protowire.ParseError(n)
	}
	vals, err := consumePacked[T](f.info, packed, len(f.s))
	if err != nil {
		return err
	}
	if len(vals) != len(f.s) {
		return fmt.Errorf("%w: array of %d got %d elements", ErrCapacityExceeded, len(f.s), len(vals))
	}
	copy(f.s, vals)
	return nil
}

func (f *arrayField[T]) value() any {
	out := make([]T, len(f.s))
	copy(out, f.s)
	return out
}

type seqField[T Number] struct {
	name string
	p    *[]T
	max  int
	info numInfo
}

// Seq binds a variable-length numeric sequence holding at most max
// elements. Empty sequences decode as nil.
func Seq[T Number](name string, p *[]T, max int) Field {
	return &seqField[T]{name: name, p: p, max: max, info: infoOf[T]()}
}

func (f *seqField[T]) Name() string { return f.name }
func (f *seqField[T]) Kind() Kind   { return KindSequence }

func (f *seqField[T]) Spec() FieldSpec {
	return FieldSpec{Name: f.name, Kind: KindSequence, Elem: f.info.kind, Width: f.info.width, Max: f.max}
}

func (f *seqField[T]) checkLen(n int) error {
	if n > f.max {
		return fmt.Errorf("%w: %d > %d", ErrCapacityExceeded, n, f.max)
	}
	return nil
}

func (f *seqField[T]) encode(w *Writer) error {
	if err := f.checkLen(len(*f.p)); err != nil {
		return encodeError("", err)
	}
	w.putLen(len(*f.p), f.max)
	for _, v := range *f.p {
		w.putUint(toBits(f.info, v), f.info.width)
	}
	return nil
}

func (f *seqField[T]) decode(r *Reader) error {
	n, err := r.length(f.max)
	if err != nil {
		return err
	}
	raw, err := r.take(n * f.info.width)
	if err != nil {
		return err
	}
	if n == 0 {
		*f.p = nil
		return nil
	}
	// Fresh storage: the target may share a backing array with its baseline.
	out := make([]T, n)
	sub := NewReader(raw)
	for i := range out {
		u, err := sub.uint(f.info.width)
		if err != nil {
			return err
		}
		out[i] = fromBits[T](f.info, u)
	}
	*f.p = out
	return nil
}

func (f *seqField[T]) skip(r *Reader) error {
	n, err := r.length(f.max)
	if err != nil {
		return err
	}
	_, err = r.take(n * f.info.width)
	return err
}

func (f *seqField[T]) wireType() protowire.Type { return protowire.BytesType }

func (f *seqField[T]) appendTagged(b []byte) ([]byte, error) {
	if err := f.checkLen(len(*f.p)); err != nil {
		return nil, err
	}
	return protowire.AppendBytes(b, appendPacked(nil, f.info, *f.p)), nil
}

func (f *seqField[T]) consumeTagged(raw []byte) error {
	packed, n := protowire.ConsumeBytes(raw)
	if n < 0 {
		return protowire.ParseError(n)
	}
	vals, err := consumePacked[T](f.info, packed, f.max)
	if err != nil {
		return err
	}
	if len(vals) == 0 {
		vals = nil
	}
	*f.p = vals
	return nil
}

func (f *seqField[T]) value() any {
	out := make([]T, len(*f.p))
	copy(out, *f.p)
	return out
}

func appendPacked[T Number](b []byte, info numInfo, vals []T) []byte {
	for _, v := range vals {
		b = info.appendScalar(b, toBits(info, v))
	}
	return b
}

func consumePacked[T Number](info numInfo, b []byte, max int) ([]T, error) {
	var out []T
	for len(b) > 0 {
		if len(out) == max {
			return nil, fmt.Errorf("%w: more than %d elements", ErrCapacityExceeded, max)
		}
		u, n, err := info.consumeScalar(b)
		if err != nil {
			return nil, err
		}
		out = append(out, fromBits[T](info, u))
		b = b[n:]
	}
	return out, nil
}

type stringField struct {
	name string
	p    *string
	max  int
}

// String binds a string capped at max bytes.
func String(name string, p *string, max int) Field {
	return &stringField{name: name, p: p, max: max}
}

func (f *stringField) Name() string { return f.name }
func (f *stringField) Kind() Kind   { return KindString }

func (f *stringField) Spec() FieldSpec {
	return FieldSpec{Name: f.name, Kind: KindString, Max: f.max}
}

func (f *stringField) checkLen() error {
	if len(*f.p) > f.max {
		return fmt.Errorf("%w: %d > %d", ErrCapacityExceeded, len(*f.p), f.max)
	}
	return nil
}

func (f *stringField) encode(w *Writer) error {
	if err := f.checkLen(); err != nil {
		return encodeError("", err)
	}
	w.putLen(len(*f.p), f.max)
	w.buf = append(w.buf, *f.p...)
	return nil
}

func (f *stringField) decode(r *Reader) error {
	raw, err := readVar(r, f.max)
	if err != nil {
		return err
	}
	*f.p = string(raw)
	return nil
}

func (f *stringField) skip(r *Reader) error {
	_, err := readVar(r, f.max)
	return err
}

func (f *stringField) wireType() protowire.Type { return protowire.BytesType }

func (f *stringField) appendTagged(b []byte) ([]byte, error) {
	if err := f.checkLen(); err != nil {
		return nil, err
	}
	return protowire.AppendString(b, *f.p), nil
}

func (f *stringField) consumeTagged(raw []byte) error {
	v, n := protowire.ConsumeString(raw)
	if n < 0 {
		return protowire.ParseError(n)
	}
	if len(v) > f.max {
		return fmt.Errorf("%w: %d > %d", ErrCapacityExceeded, len(v), f.max)
	}
	*f.p = v
	return nil
}

func (f *stringField) value() any { return *f.p }

type bytesField struct {
	name string
	p    *[]byte
	max  int
}

// Bytes binds an opaque byte string capped at max bytes. Empty values
// decode as nil.
func Bytes(name string, p *[]byte, max int) Field {
	return &bytesField{name: name, p: p, max: max}
}

func (f *bytesField) Name() string { return f.name }
func (f *bytesField) Kind() Kind   { return KindBytes }

func (f *bytesField) Spec() FieldSpec {
	return FieldSpec{Name: f.name, Kind: KindBytes, Max: f.max}
}

func (f *bytesField) checkLen() error {
	if len(*f.p) > f.max {
		return fmt.Errorf("%w: %d > %d", ErrCapacityExceeded, len(*f.p), f.max)
	}
	return nil
}

func (f *bytesField) encode(w *Writer) error {
	if err := f.checkLen(); err != nil {
		return encodeError("", err)
	}
	w.putLen(len(*f.p), f.max)
	w.putBytes(*f.p)
	return nil
}

func (f *bytesField) decode(r *Reader) error {
	raw, err := readVar(r, f.max)
	if err != nil {
		return err
	}
	*f.p = cloneBytes(raw)
	return nil
}

func (f *bytesField) skip(r *Reader) error {
	_, err := readVar(r, f.max)
	return err
}

func (f *bytesField) wireType() protowire.Type { return protowire.BytesType }

func (f *bytesField) appendTagged(b []byte) ([]byte, error) {
	if err := f.checkLen(); err != nil {
		return nil, err
	}
	return protowire.AppendBytes(b, *f.p), nil
}

func (f *bytesField) consumeTagged(raw []byte) error {
	v, n := protowire.ConsumeBytes(raw)
	if n < 0 {
		return protowire.ParseError(n)
	}
	if len(v) > f.max {
		return fmt.Errorf("%w: %d > %d", ErrCapacityExceeded, len(v), f.max)
	}
	*f.p = cloneBytes(v)
	return nil
}

func (f *bytesField) value() any { return cloneBytes(*f.p) }

func readVar(r *Reader, max int) ([]byte, error) {
	n, err := r.length(max)
	if err != nil {
		return nil, err
	}
	return r.take(n)
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
