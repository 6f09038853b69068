// Package capability holds the two merge algebras used at channel setup:
// end roles (who may send or receive) and channel distribution policy
// (single writer or multiple writers).
//
// Peers compiled independently must agree on every result, so the tables
// here are part of the wire contract.
package capability

import "fmt"

// EndRole is a channel end's send/receive capability. Values are wire
// ordinals.
type EndRole uint8

const (
	None EndRole = iota
	Sending
	Receiving
	SendingReceiving
)

func (e EndRole) Valid() bool { return e <= SendingReceiving }

func (e EndRole) String() string {
	switch e {
	case None:
		return "none"
	case Sending:
		return "sending"
	case Receiving:
		return "receiving"
	case SendingReceiving:
		return "sending-receiving"
	default:
		return fmt.Sprintf("role(%d)", uint8(e))
	}
}

// Join is the lattice join: the least role that covers both.
func Join(e1, e2 EndRole) EndRole {
	if e2 == None || e1 == e2 {
		return e1
	}
	if e1 == None {
		return e2
	}
	return SendingReceiving
}

// Meet is the lattice meet: the greatest role covered by both.
func Meet(e1, e2 EndRole) EndRole {
	if e2 == SendingReceiving || e1 == e2 {
		return e1
	}
	if e1 == SendingReceiving {
		return e2
	}
	return None
}

// Covers reports whether existing already grants requested.
func Covers(existing, requested EndRole) bool {
	return Meet(existing, requested) == requested
}

// Revoke removes requested from existing. ok is false when existing does not
// cover requested, in which case existing is returned unchanged.
func Revoke(existing, requested EndRole) (EndRole, bool) {
	if !Covers(existing, requested) {
		return existing, false
	}
	switch {
	case requested == None:
		return existing, true
	case requested == existing:
		return None, true
	case existing == SendingReceiving && requested == Sending:
		return Receiving, true
	case existing == SendingReceiving && requested == Receiving:
		return Sending, true
	default:
		return None, true
	}
}
