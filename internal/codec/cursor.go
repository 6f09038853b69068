package codec

import (
	"encoding/binary"
	"fmt"
)

// Writer is an append-only encode cursor over its own buffer.
type Writer struct {
	buf []byte
}

// NewWriter returns a Writer that appends to dst.
func NewWriter(dst []byte) *Writer {
	return &Writer{buf: dst}
}

func (w *Writer) Bytes() []byte { return w.buf }

func (w *Writer) Len() int { return len(w.buf) }

func (w *Writer) reset() { w.buf = w.buf[:0] }

// putUint writes the low width bytes of v big-endian.
func (w *Writer) putUint(v uint64, width int) {
	switch width {
	case 1:
		w.buf = append(w.buf, byte(v))
	case 2:
		w.buf = binary.BigEndian.AppendUint16(w.buf, uint16(v))
	case 4:
		w.buf = binary.BigEndian.AppendUint32(w.buf, uint32(v))
	default:
		w.buf = binary.BigEndian.AppendUint64(w.buf, v)
	}
}

func (w *Writer) putBytes(b []byte) {
	w.buf = append(w.buf, b...)
}

// putLen writes n using the discriminator width for capacity max.
func (w *Writer) putLen(n, max int) {
	w.putUint(uint64(n), lenWidth(max))
}

// Reader is a decode cursor over a borrowed buffer. Errors it raises carry
// the offset; callers prefix the field path on the way out.
type Reader struct {
	buf []byte
	off int
}

func NewReader(src []byte) *Reader {
	return &Reader{buf: src}
}

func (r *Reader) Offset() int { return r.off }

func (r *Reader) Remaining() int { return len(r.buf) - r.off }

func (r *Reader) fail(err error) error {
	return &FormatError{Offset: r.off, Err: err}
}

func (r *Reader) take(n int) ([]byte, error) {
	if n < 0 || r.Remaining() < n {
		return nil, r.fail(fmt.Errorf("%w: need %d have %d", ErrShortBuffer, n, r.Remaining()))
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *Reader) uint(width int) (uint64, error) {
	b, err := r.take(width)
	if err != nil {
		return 0, err
	}
	switch width {
	case 1:
		return uint64(b[0]), nil
	case 2:
		return uint64(binary.BigEndian.Uint16(b)), nil
	case 4:
		return uint64(binary.BigEndian.Uint32(b)), nil
	default:
		return binary.BigEndian.Uint64(b), nil
	}
}

// length reads a length discriminator and checks it against max.
func (r *Reader) length(max int) (int, error) {
	v, err := r.uint(lenWidth(max))
	if err != nil {
		return 0, err
	}
	if v > uint64(max) {
		return 0, r.fail(fmt.Errorf("%w: %d > %d", ErrCapacityExceeded, v, max))
	}
	return int(v), nil
}

// lenWidth is the byte width of a length discriminator for capacity max.
func lenWidth(max int) int {
	switch {
	case max <= 0xFF:
		return 1
	case max <= 0xFFFF:
		return 2
	default:
		return 4
	}
}

// tagWidth is the byte width needed for values in [0, count).
func tagWidth(count int) int {
	return lenWidth(count - 1)
}
