package tlv

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/danmuck/simwire/internal/identity"
)

const HeaderLen = 7

var (
	ErrShortFieldHeader = errors.New("tlv: short field header")
	ErrShortFieldValue  = errors.New("tlv: short field value")
	ErrInvalidLength    = errors.New("tlv: invalid value length")
)

// Type IDs from the lifecycle wire contract.
const (
	TypeU8       uint8 = 1
	TypeU16      uint8 = 2
	TypeU32      uint8 = 3
	TypeU64      uint8 = 4
	TypeBool     uint8 = 5
	TypeString   uint8 = 6
	TypeBytes    uint8 = 7
	TypeI32      uint8 = 8
	TypeIdentity uint8 = 9
)

// Field is one decoded TLV field.
type Field struct {
	ID    uint16
	Type  uint8
	Value []byte
}

func EncodeField(f Field) []byte {
	return AppendField(make([]byte, 0, HeaderLen+len(f.Value)), f)
}

// AppendField appends the wire form of f to dst.
func AppendField(dst []byte, f Field) []byte {
	dst = binary.BigEndian.AppendUint16(dst, f.ID)
	dst = append(dst, f.Type)
	dst = binary.BigEndian.AppendUint32(dst, uint32(len(f.Value)))
	return append(dst, f.Value...)
}

func DecodeFields(payload []byte) ([]Field, error) {
	fields := make([]Field, 0, 8)
	i := 0
	for i < len(payload) {
		if len(payload)-i < HeaderLen {
			return nil, ErrShortFieldHeader
		}
		id := binary.BigEndian.Uint16(payload[i : i+2])
		typeID := payload[i+2]
		l := binary.BigEndian.Uint32(payload[i+3 : i+7])
		i += HeaderLen
		if uint32(len(payload)-i) < l {
			return nil, ErrShortFieldValue
		}
		val := make([]byte, l)
		copy(val, payload[i:i+int(l)])
		i += int(l)
		fields = append(fields, Field{ID: id, Type: typeID, Value: val})
	}
	return fields, nil
}

func EncodeFields(fields []Field) []byte {
	size := 0
	for _, f := range fields {
		size += HeaderLen + len(f.Value)
	}
	out := make([]byte, 0, size)
	for _, f := range fields {
		out = AppendField(out, f)
	}
	return out
}

func GetField(fields []Field, id uint16) (Field, bool) {
	for _, f := range fields {
		if f.ID == id {
			return f, true
		}
	}
	return Field{}, false
}

func MustType(f Field, expected uint8) error {
	if f.Type != expected {
		return fmt.Errorf("tlv: field %d type mismatch: got %d want %d", f.ID, f.Type, expected)
	}
	return nil
}

func U8(id uint16, v uint8) Field {
	return Field{ID: id, Type: TypeU8, Value: []byte{v}}
}

func U32(id uint16, v uint32) Field {
	return Field{ID: id, Type: TypeU32, Value: binary.BigEndian.AppendUint32(nil, v)}
}

func I32(id uint16, v int32) Field {
	return Field{ID: id, Type: TypeI32, Value: binary.BigEndian.AppendUint32(nil, uint32(v))}
}

func String(id uint16, v string) Field {
	return Field{ID: id, Type: TypeString, Value: []byte(v)}
}

// Ident encodes an identity as location byte then big-endian object.
func Ident(id uint16, v identity.Identity) Field {
	buf := []byte{v.LocationID()}
	buf = binary.BigEndian.AppendUint16(buf, v.ObjectID())
	return Field{ID: id, Type: TypeIdentity, Value: buf}
}

func U8FromBytes(b []byte) (uint8, error) {
	if len(b) != 1 {
		return 0, fmt.Errorf("%w: u8 length %d", ErrInvalidLength, len(b))
	}
	return b[0], nil
}

func U32FromBytes(b []byte) (uint32, error) {
	if len(b) != 4 {
		return 0, fmt.Errorf("%w: u32 length %d", ErrInvalidLength, len(b))
	}
	return binary.BigEndian.Uint32(b), nil
}

func I32FromBytes(b []byte) (int32, error) {
	v, err := U32FromBytes(b)
	return int32(v), err
}

func IdentityFromBytes(b []byte) (identity.Identity, error) {
	if len(b) != 3 {
		return identity.Identity{}, fmt.Errorf("%w: identity length %d", ErrInvalidLength, len(b))
	}
	return identity.New(b[0], binary.BigEndian.Uint16(b[1:3])), nil
}
