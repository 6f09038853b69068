package codec

import (
	"google.golang.org/protobuf/encoding/protowire"
)

// MarshalTagged encodes rec in protobuf wire format, field number i+1 for
// the i-th declared field. Signed integers use zigzag varints, floats fixed
// 32/64, arrays and sequences packed bytes, nested records embedded
// messages and variants a message {1: tag, 2: value}.
func MarshalTagged(rec Record) ([]byte, error) {
	return appendTaggedFields(nil, rec.Fields())
}

// UnmarshalTagged decodes the MarshalTagged form into rec. Unknown field
// numbers are skipped; absent fields keep their current value. Unlike
// Decode, a failure may leave rec partly updated.
func UnmarshalTagged(data []byte, rec Record) error {
	return consumeTaggedFields(data, rec.Fields())
}

// ToMap renders rec as a name-keyed map for generic object serializers.
func ToMap(rec Record) map[string]any {
	fields := rec.Fields()
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		out[f.Name()] = f.value()
	}
	return out
}

func appendTaggedFields(b []byte, fields []Field) ([]byte, error) {
	for i, f := range fields {
		b = protowire.AppendTag(b, protowire.Number(i+1), f.wireType())
		var err error
		b, err = f.appendTagged(b)
		if err != nil {
			return nil, withPrefix(f.Name(), err)
		}
	}
	return b, nil
}

func consumeTaggedFields(b []byte, fields []Field) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return &FormatError{Offset: -1, Err: protowire.ParseError(n)}
		}
		b = b[n:]
		m := protowire.ConsumeFieldValue(num, typ, b)
		if m < 0 {
			return &FormatError{Offset: -1, Err: protowire.ParseError(m)}
		}
		raw := b[:m]
		b = b[m:]

		idx := int(num) - 1
		if idx < 0 || idx >= len(fields) {
			continue
		}
		f := fields[idx]
		if typ != f.wireType() {
			return &FormatError{Field: f.Name(), Offset: -1, Err: ErrWireType}
		}
		if err := f.consumeTagged(raw); err != nil {
			return withPrefix(f.Name(), err)
		}
	}
	return nil
}
