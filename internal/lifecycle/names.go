package lifecycle

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidNameSet = errors.New("lifecycle: invalid name set")

const nameSep = "/"

// NameSet names an entry: the domain and channel it belongs to and the
// entry name within the channel. Entry is empty for channel-level names.
type NameSet struct {
	Domain  string
	Channel string
	Entry   string
}

// String is the canonical "domain/channel/entry" form carried on the wire.
func (n NameSet) String() string {
	return n.Domain + nameSep + n.Channel + nameSep + n.Entry
}

// ChannelKey is the canonical name of the channel the set belongs to.
func (n NameSet) ChannelKey() string {
	return n.Domain + nameSep + n.Channel
}

// ChannelNames drops the entry name.
func (n NameSet) ChannelNames() NameSet {
	return NameSet{Domain: n.Domain, Channel: n.Channel}
}

func (n NameSet) Validate() error {
	if strings.TrimSpace(n.Channel) == "" {
		return fmt.Errorf("%w: missing channel", ErrInvalidNameSet)
	}
	for _, part := range []string{n.Domain, n.Channel, n.Entry} {
		if strings.Contains(part, nameSep) {
			return fmt.Errorf("%w: %q contains %q", ErrInvalidNameSet, part, nameSep)
		}
	}
	return nil
}

// ParseNameSet is the inverse of String.
func ParseNameSet(raw string) (NameSet, error) {
	parts := strings.Split(raw, nameSep)
	if len(parts) != 3 {
		return NameSet{}, fmt.Errorf("%w: %q", ErrInvalidNameSet, raw)
	}
	n := NameSet{Domain: parts[0], Channel: parts[1], Entry: parts[2]}
	if err := n.Validate(); err != nil {
		return NameSet{}, err
	}
	return n, nil
}

// TransportClass is the delivery class requested for a channel's data.
type TransportClass uint8

const (
	TransportRegular TransportClass = iota
	TransportHighPriority
	TransportBulk
	TransportUnspecified

	transportClassCount
)

func (c TransportClass) Valid() bool { return c < transportClassCount }

func (c TransportClass) String() string {
	switch c {
	case TransportRegular:
		return "regular"
	case TransportHighPriority:
		return "high_priority"
	case TransportBulk:
		return "bulk"
	case TransportUnspecified:
		return "unspecified"
	default:
		return fmt.Sprintf("transport(%d)", uint8(c))
	}
}
