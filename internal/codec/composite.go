package codec

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

type nestedField struct {
	name string
	rec  Record
}

// Nested binds a record-valued field. rec must point into the parent's
// storage, e.g. &r.Pose.
func Nested(name string, rec Record) Field {
	return &nestedField{name: name, rec: rec}
}

func (f *nestedField) Name() string { return f.name }
func (f *nestedField) Kind() Kind   { return KindNested }

func (f *nestedField) Spec() FieldSpec {
	return FieldSpec{Name: f.name, Kind: KindNested, Fields: Describe(f.rec).Fields}
}

func (f *nestedField) encode(w *Writer) error { return encodeFields(w, f.rec.Fields()) }
func (f *nestedField) decode(r *Reader) error { return decodeFields(r, f.rec.Fields()) }
func (f *nestedField) skip(r *Reader) error   { return skipFields(r, f.rec.Fields()) }

func (f *nestedField) wireType() protowire.Type { return protowire.BytesType }

func (f *nestedField) appendTagged(b []byte) ([]byte, error) {
	inner, err := appendTaggedFields(nil, f.rec.Fields())
	if err != nil {
		return nil, err
	}
	return protowire.AppendBytes(b, inner), nil
}

func (f *nestedField) consumeTagged(raw []byte) error {
	inner, n := protowire.ConsumeBytes(raw)
	if n < 0 {
		return protowire.ParseError(n)
	}
	return consumeTaggedFields(inner, f.rec.Fields())
}

func (f *nestedField) value() any { return ToMap(f.rec) }

const (
	variantTagNum   protowire.Number = 1
	variantValueNum protowire.Number = 2
)

type variantField[T Integer] struct {
	name string
	tag  *T
	alts []Record
}

// Variant binds a tagged union: *tag selects which of alts is live. Only
// the selected alternative is encoded, compared or decoded; the others
// keep whatever they hold.
func Variant[T Integer](name string, tag *T, alts ...Record) Field {
	return &variantField[T]{name: name, tag: tag, alts: alts}
}

func (f *variantField[T]) Name() string { return f.name }
func (f *variantField[T]) Kind() Kind   { return KindVariant }

func (f *variantField[T]) Spec() FieldSpec {
	spec := FieldSpec{Name: f.name, Kind: KindVariant, Width: tagWidth(len(f.alts)), Max: len(f.alts)}
	for _, alt := range f.alts {
		spec.Variants = append(spec.Variants, Describe(alt).Fields)
	}
	return spec
}

func (f *variantField[T]) selected() (uint64, error) {
	v := *f.tag
	if v < 0 || uint64(v) >= uint64(len(f.alts)) {
		return 0, fmt.Errorf("%w: %d not in [0,%d)", ErrVariantTag, v, len(f.alts))
	}
	return uint64(v), nil
}

func (f *variantField[T]) encode(w *Writer) error {
	t, err := f.selected()
	if err != nil {
		return encodeError("", err)
	}
	w.putUint(t, tagWidth(len(f.alts)))
	return encodeFields(w, f.alts[t].Fields())
}

func (f *variantField[T]) readTag(r *Reader) (uint64, error) {
	t, err := r.uint(tagWidth(len(f.alts)))
	if err != nil {
		return 0, err
	}
	if t >= uint64(len(f.alts)) {
		return 0, r.fail(fmt.Errorf("%w: %d not in [0,%d)", ErrVariantTag, t, len(f.alts)))
	}
	return t, nil
}

func (f *variantField[T]) decode(r *Reader) error {
	t, err := f.readTag(r)
	if err != nil {
		return err
	}
	*f.tag = T(t)
	return decodeFields(r, f.alts[t].Fields())
}

func (f *variantField[T]) skip(r *Reader) error {
	t, err := f.readTag(r)
	if err != nil {
		return err
	}
	return skipFields(r, f.alts[t].Fields())
}

func (f *variantField[T]) wireType() protowire.Type { return protowire.BytesType }

func (f *variantField[T]) appendTagged(b []byte) ([]byte, error) {
	t, err := f.selected()
	if err != nil {
		return nil, err
	}
	inner, err := appendTaggedFields(nil, f.alts[t].Fields())
	if err != nil {
		return nil, err
	}
	var msg []byte
	msg = protowire.AppendTag(msg, variantTagNum, protowire.VarintType)
	msg = protowire.AppendVarint(msg, t)
	msg = protowire.AppendTag(msg, variantValueNum, protowire.BytesType)
	msg = protowire.AppendBytes(msg, inner)
	return protowire.AppendBytes(b, msg), nil
}

func (f *variantField[T]) consumeTagged(raw []byte) error {
	msg, n := protowire.ConsumeBytes(raw)
	if n < 0 {
		return protowire.ParseError(n)
	}
	var (
		tag    uint64
		hasTag bool
		inner  []byte
	)
	for len(msg) > 0 {
		num, typ, m := protowire.ConsumeTag(msg)
		if m < 0 {
			return protowire.ParseError(m)
		}
		msg = msg[m:]
		switch {
		case num == variantTagNum && typ == protowire.VarintType:
			v, k := protowire.ConsumeVarint(msg)
			if k < 0 {
				return protowire.ParseError(k)
			}
			tag, hasTag = v, true
			msg = msg[k:]
		case num == variantValueNum && typ == protowire.BytesType:
			v, k := protowire.ConsumeBytes(msg)
			if k < 0 {
				return protowire.ParseError(k)
			}
			inner = v
			msg = msg[k:]
		default:
			k := protowire.ConsumeFieldValue(num, typ, msg)
			if k < 0 {
				return protowire.ParseError(k)
			}
			msg = msg[k:]
		}
	}
	if !hasTag || tag >= uint64(len(f.alts)) {
		return fmt.Errorf("%w: tag=%d present=%v", ErrVariantTag, tag, hasTag)
	}
	if err := consumeTaggedFields(inner, f.alts[tag].Fields()); err != nil {
		return err
	}
	*f.tag = T(tag)
	return nil
}

func (f *variantField[T]) value() any {
	t, err := f.selected()
	if err != nil {
		return map[string]any{"tag": *f.tag}
	}
	return map[string]any{"tag": *f.tag, "value": ToMap(f.alts[t])}
}
