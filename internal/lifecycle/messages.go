package lifecycle

import (
	"errors"
	"fmt"

	"github.com/danmuck/simwire/internal/capability"
	"github.com/danmuck/simwire/internal/identity"
)

var ErrInvalidMessage = errors.New("lifecycle: invalid message")

// ChannelChangeNotification announces a channel-level topology event.
type ChannelChangeNotification struct {
	Type      NotificationType
	Names     NameSet
	GlobalID  identity.Identity
	Transport TransportClass
}

func (n ChannelChangeNotification) Validate() error {
	if !n.Type.Valid() {
		return &ProtocolRangeError{Message: "ChannelChangeNotification", Ordinal: uint8(n.Type)}
	}
	if err := n.Names.Validate(); err != nil {
		return err
	}
	if err := identity.Require(n.GlobalID, "global_id"); err != nil {
		return err
	}
	if !n.Transport.Valid() {
		return fmt.Errorf("%w: transport class %d", ErrInvalidMessage, n.Transport)
	}
	return nil
}

// ChannelEndUpdate is an entry- or channel-directed command. A
// DestinationID of identity.Unset addresses every end of the channel.
type ChannelEndUpdate struct {
	Kind          UpdateKind
	Names         NameSet
	EndID         identity.Identity
	DestinationID identity.Identity
	Transport     TransportClass

	// Optional, sent only when set.
	Role         capability.EndRole
	Distribution capability.Distribution
	DataClass    string
	SchemaID     string
	// JumpTicks is the clock jump a TimeJump announces.
	JumpTicks int32
}

// Broadcast reports whether the update addresses every end.
func (u ChannelEndUpdate) Broadcast() bool {
	return u.DestinationID == identity.Unset
}

func (u ChannelEndUpdate) Validate() error {
	if !u.Kind.Valid() {
		return &ProtocolRangeError{Message: "ChannelEndUpdate", Ordinal: uint8(u.Kind)}
	}
	if err := u.Names.Validate(); err != nil {
		return err
	}
	if err := identity.Require(u.EndID, "end_id"); err != nil {
		return err
	}
	if !u.Broadcast() {
		if err := identity.Require(u.DestinationID, "destination_id"); err != nil {
			return err
		}
	}
	if !u.Transport.Valid() {
		return fmt.Errorf("%w: transport class %d", ErrInvalidMessage, u.Transport)
	}
	if !u.Role.Valid() {
		return fmt.Errorf("%w: role %d", ErrInvalidMessage, u.Role)
	}
	// Conflict is a merge outcome, never a declaration.
	if u.Distribution == capability.Conflict || !u.Distribution.Valid() {
		return fmt.Errorf("%w: distribution %d", ErrInvalidMessage, u.Distribution)
	}
	if u.JumpTicks != 0 && u.Kind != TimeJump {
		return fmt.Errorf("%w: jump_ticks on %s", ErrInvalidMessage, u.Kind)
	}
	return nil
}
