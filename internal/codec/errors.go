package codec

import (
	"errors"
	"fmt"
)

var (
	ErrShortBuffer      = errors.New("codec: buffer exhausted")
	ErrCapacityExceeded = errors.New("codec: length exceeds field capacity")
	ErrEnumRange        = errors.New("codec: enum value out of range")
	ErrVariantTag       = errors.New("codec: variant tag out of range")
	ErrBitmapPadding    = errors.New("codec: change bitmap has bits past the last field")
	ErrTrailingBytes    = errors.New("codec: trailing bytes after record")
	ErrWireType         = errors.New("codec: unexpected tagged wire type")
	ErrSchemaMismatch   = errors.New("codec: records do not share a schema")
)

// FormatError reports a malformed or unencodable field. Field is the dotted
// path of the field and Offset the byte position where decoding stopped
// (-1 while encoding).
type FormatError struct {
	Field  string
	Offset int
	Err    error
}

func (e *FormatError) Error() string {
	if e.Offset < 0 {
		return fmt.Sprintf("codec: field %q: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("codec: field %q at offset %d: %v", e.Field, e.Offset, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

func encodeError(field string, err error) error {
	return &FormatError{Field: field, Offset: -1, Err: err}
}
