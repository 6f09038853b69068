// Package identity defines the (location, object) address that names
// channels, entries and nodes.
package identity

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	// UnsetLocation marks a location field that carries no value.
	UnsetLocation uint8 = 0xFF
	// UnsetObject marks an object field that carries no value.
	UnsetObject uint16 = 0xFFFF
)

var (
	ErrInvalidIdentity = errors.New("identity: invalid identity")
	ErrParse           = errors.New("identity: malformed identity text")
)

// Unset is the identity with both fields at their sentinel value.
var Unset = Identity{location: UnsetLocation, object: UnsetObject}

// Identity is an immutable (location, object) pair. The zero value is the
// valid address 0,0; use Unset for "no address".
type Identity struct {
	location uint8
	object   uint16
}

func New(location uint8, object uint16) Identity {
	return Identity{location: location, object: object}
}

func (id Identity) LocationID() uint8 { return id.location }

func (id Identity) ObjectID() uint16 { return id.object }

// Valid reports whether neither field is a sentinel.
func (id Identity) Valid() bool {
	return id.location != UnsetLocation && id.object != UnsetObject
}

// String renders "L,O" with "-" in place of an unset field.
func (id Identity) String() string {
	var b strings.Builder
	if id.location == UnsetLocation {
		b.WriteByte('-')
	} else {
		b.WriteString(strconv.FormatUint(uint64(id.location), 10))
	}
	b.WriteByte(',')
	if id.object == UnsetObject {
		b.WriteByte('-')
	} else {
		b.WriteString(strconv.FormatUint(uint64(id.object), 10))
	}
	return b.String()
}

// Compare orders identities by location, then object.
func (id Identity) Compare(other Identity) int {
	switch {
	case id.location < other.location:
		return -1
	case id.location > other.location:
		return 1
	case id.object < other.object:
		return -1
	case id.object > other.object:
		return 1
	default:
		return 0
	}
}

func (id Identity) Less(other Identity) bool { return id.Compare(other) < 0 }

// Require returns ErrInvalidIdentity when id is not valid. what names the
// role of the identity in the error text.
func Require(id Identity, what string) error {
	if id.Valid() {
		return nil
	}
	return fmt.Errorf("%w: %s=%s", ErrInvalidIdentity, what, id)
}

// Parse is the inverse of String.
func Parse(raw string) (Identity, error) {
	loc, obj, ok := strings.Cut(strings.TrimSpace(raw), ",")
	if !ok {
		return Identity{}, fmt.Errorf("%w: %q", ErrParse, raw)
	}
	out := Unset
	if loc = strings.TrimSpace(loc); loc != "-" {
		v, err := strconv.ParseUint(loc, 10, 8)
		if err != nil {
			return Identity{}, fmt.Errorf("%w: location %q", ErrParse, loc)
		}
		out.location = uint8(v)
	}
	if obj = strings.TrimSpace(obj); obj != "-" {
		v, err := strconv.ParseUint(obj, 10, 16)
		if err != nil {
			return Identity{}, fmt.Errorf("%w: object %q", ErrParse, obj)
		}
		out.object = uint16(v)
	}
	return out, nil
}
