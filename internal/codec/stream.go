package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// MaxChunkBytes bounds one length-prefixed chunk read from a byte source.
const MaxChunkBytes = 1 << 20

// ByteSource is what ReadRecord and ReadDiff consume, e.g. *bufio.Reader.
type ByteSource interface {
	io.Reader
	io.ByteReader
}

// WriteRecord writes the full encoding of rec to w behind a uvarint length.
func WriteRecord(w io.Writer, rec Record) error {
	b, err := Encode(rec)
	if err != nil {
		return err
	}
	return writeChunk(w, b)
}

// ReadRecord reads one chunk written by WriteRecord into rec. A clean end of
// stream before the chunk starts returns io.EOF.
func ReadRecord(src ByteSource, rec Record) error {
	b, err := readChunk(src)
	if err != nil {
		return err
	}
	return Decode(b, rec)
}

// WriteDiff writes the diff of candidate against baseline behind a uvarint
// length.
func WriteDiff(w io.Writer, candidate, baseline Record) error {
	b, err := DiffEncode(candidate, baseline)
	if err != nil {
		return err
	}
	return writeChunk(w, b)
}

// ReadDiff reads one chunk written by WriteDiff and applies it to target.
func ReadDiff(src ByteSource, target Record) error {
	b, err := readChunk(src)
	if err != nil {
		return err
	}
	return DiffDecode(target, b)
}

func writeChunk(w io.Writer, b []byte) error {
	if len(b) > MaxChunkBytes {
		return &FormatError{Offset: -1, Err: fmt.Errorf("%w: chunk %d > %d", ErrCapacityExceeded, len(b), MaxChunkBytes)}
	}
	out := binary.AppendUvarint(make([]byte, 0, binary.MaxVarintLen32+len(b)), uint64(len(b)))
	out = append(out, b...)
	_, err := w.Write(out)
	return err
}

func readChunk(src ByteSource) ([]byte, error) {
	n, err := binary.ReadUvarint(src)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, &FormatError{Offset: 0, Err: fmt.Errorf("%w: %v", ErrShortBuffer, err)}
	}
	if n > MaxChunkBytes {
		return nil, &FormatError{Offset: 0, Err: fmt.Errorf("%w: chunk %d > %d", ErrCapacityExceeded, n, MaxChunkBytes)}
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(src, b); err != nil {
		return nil, &FormatError{Offset: 0, Err: fmt.Errorf("%w: %v", ErrShortBuffer, err)}
	}
	return b, nil
}
