package codec

import (
	"bytes"
	"errors"
	"fmt"
)

// Encode returns the full encoding of rec.
func Encode(rec Record) ([]byte, error) {
	return AppendEncode(nil, rec)
}

// AppendEncode appends the full encoding of rec to dst.
func AppendEncode(dst []byte, rec Record) ([]byte, error) {
	w := NewWriter(dst)
	if err := encodeFields(w, rec.Fields()); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// Decode reads a full encoding into rec. The whole of data must be one
// record. On error rec is left unchanged.
func Decode(data []byte, rec Record) error {
	fields := rec.Fields()
	r := NewReader(data)
	if err := skipFields(r, fields); err != nil {
		return err
	}
	if r.Remaining() != 0 {
		return r.fail(fmt.Errorf("%w: %d", ErrTrailingBytes, r.Remaining()))
	}
	return decodeFields(NewReader(data), fields)
}

// BitmapLen is the size of the change bitmap for a record of n fields.
func BitmapLen(n int) int {
	return (n + 7) / 8
}

// DiffEncode returns the change bitmap of candidate against baseline
// followed by the full encoding of each changed field. A field has changed
// when its encoding differs, so equal records produce only a zero bitmap.
func DiffEncode(candidate, baseline Record) ([]byte, error) {
	return AppendDiff(nil, candidate, baseline)
}

// AppendDiff appends the diff encoding of candidate against baseline to dst.
func AppendDiff(dst []byte, candidate, baseline Record) ([]byte, error) {
	cf, bf := candidate.Fields(), baseline.Fields()
	if err := sameShape(cf, bf); err != nil {
		return nil, err
	}
	start := len(dst)
	w := NewWriter(append(dst, make([]byte, BitmapLen(len(cf)))...))
	var cand, base Writer
	for i := range cf {
		cand.reset()
		base.reset()
		if err := cf[i].encode(&cand); err != nil {
			return nil, withPrefix(cf[i].Name(), err)
		}
		if err := bf[i].encode(&base); err != nil {
			return nil, withPrefix(bf[i].Name(), err)
		}
		if bytes.Equal(cand.buf, base.buf) {
			continue
		}
		w.buf[start+i/8] |= 1 << (i % 8)
		w.putBytes(cand.buf)
	}
	return w.Bytes(), nil
}

// DiffDecode applies a diff encoding to target, which must hold the
// baseline the diff was made against. Fields whose bit is clear are left
// alone. On error target is left unchanged.
func DiffDecode(target Record, data []byte) error {
	fields := target.Fields()
	r := NewReader(data)
	bitmap, err := readBitmap(r, len(fields))
	if err != nil {
		return err
	}
	body := r.Offset()
	for i, f := range fields {
		if !bitSet(bitmap, i) {
			continue
		}
		if err := f.skip(r); err != nil {
			return withPrefix(f.Name(), err)
		}
	}
	if r.Remaining() != 0 {
		return r.fail(fmt.Errorf("%w: %d", ErrTrailingBytes, r.Remaining()))
	}

	r = NewReader(data)
	r.off = body
	for i, f := range fields {
		if !bitSet(bitmap, i) {
			continue
		}
		if err := f.decode(r); err != nil {
			return withPrefix(f.Name(), err)
		}
	}
	return nil
}

// Changed lists the field indexes whose bit is set in a diff encoding of a
// record with fieldCount fields.
func Changed(data []byte, fieldCount int) ([]int, error) {
	bitmap, err := readBitmap(NewReader(data), fieldCount)
	if err != nil {
		return nil, err
	}
	var out []int
	for i := 0; i < fieldCount; i++ {
		if bitSet(bitmap, i) {
			out = append(out, i)
		}
	}
	return out, nil
}

func readBitmap(r *Reader, fieldCount int) ([]byte, error) {
	bitmap, err := r.take(BitmapLen(fieldCount))
	if err != nil {
		return nil, err
	}
	for i := fieldCount; i < len(bitmap)*8; i++ {
		if bitSet(bitmap, i) {
			return nil, &FormatError{Offset: i / 8, Err: fmt.Errorf("%w: bit %d", ErrBitmapPadding, i)}
		}
	}
	return bitmap, nil
}

func bitSet(bitmap []byte, i int) bool {
	return bitmap[i/8]&(1<<(i%8)) != 0
}

func sameShape(a, b []Field) error {
	if len(a) != len(b) {
		return fmt.Errorf("%w: %d fields vs %d", ErrSchemaMismatch, len(a), len(b))
	}
	for i := range a {
		if a[i].Name() != b[i].Name() || a[i].Kind() != b[i].Kind() {
			return fmt.Errorf("%w: field %d is %s/%s vs %s/%s", ErrSchemaMismatch, i,
				a[i].Name(), a[i].Kind(), b[i].Name(), b[i].Kind())
		}
	}
	return nil
}

func encodeFields(w *Writer, fields []Field) error {
	for _, f := range fields {
		if err := f.encode(w); err != nil {
			return withPrefix(f.Name(), err)
		}
	}
	return nil
}

func decodeFields(r *Reader, fields []Field) error {
	for _, f := range fields {
		if err := f.decode(r); err != nil {
			return withPrefix(f.Name(), err)
		}
	}
	return nil
}

func skipFields(r *Reader, fields []Field) error {
	for _, f := range fields {
		if err := f.skip(r); err != nil {
			return withPrefix(f.Name(), err)
		}
	}
	return nil
}

// withPrefix prepends name to the field path of err, wrapping plain errors
// in a FormatError.
func withPrefix(name string, err error) error {
	var fe *FormatError
	if errors.As(err, &fe) {
		if fe.Field == "" {
			fe.Field = name
		} else {
			fe.Field = name + "." + fe.Field
		}
		return fe
	}
	return &FormatError{Field: name, Offset: -1, Err: err}
}
