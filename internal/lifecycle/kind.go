package lifecycle

import (
	"errors"
	"fmt"
)

var ErrProtocolRange = errors.New("lifecycle: ordinal outside routing ranges")

// UpdateKind is the wire ordinal of a ChannelEndUpdate.
type UpdateKind uint8

const (
	// Entry route.
	NewEntry UpdateKind = iota
	DeleteEntry
	ReaderJoined
	ReaderLeft
	TimeJump

	// Channel route.
	CleanEntryCmd
	ReconfigureCmd
	DeleteEntryCmd

	// Master route.
	NewEntryReq
	DeleteEntryReq
	JoinReaderReq
	LeaveReaderReq

	updateKindCount
)

func (k UpdateKind) IsForEntry() bool { return k <= TimeJump }

func (k UpdateKind) IsForChannel() bool { return k >= CleanEntryCmd && k <= DeleteEntryCmd }

// IsForMaster covers NewEntryReq through LeaveReaderReq. Ordinals above
// LeaveReaderReq (12 and up) are rejected as a ProtocolRangeError rather
// than routed to the master; new master kinds must be appended before
// updateKindCount to be accepted.
func (k UpdateKind) IsForMaster() bool { return k >= NewEntryReq && k <= LeaveReaderReq }

func (k UpdateKind) Valid() bool { return k < updateKindCount }

func (k UpdateKind) String() string {
	switch k {
	case NewEntry:
		return "NewEntry"
	case DeleteEntry:
		return "DeleteEntry"
	case ReaderJoined:
		return "ReaderJoined"
	case ReaderLeft:
		return "ReaderLeft"
	case TimeJump:
		return "TimeJump"
	case CleanEntryCmd:
		return "CleanEntryCmd"
	case ReconfigureCmd:
		return "ReconfigureCmd"
	case DeleteEntryCmd:
		return "DeleteEntryCmd"
	case NewEntryReq:
		return "NewEntryReq"
	case DeleteEntryReq:
		return "DeleteEntryReq"
	case JoinReaderReq:
		return "JoinReaderReq"
	case LeaveReaderReq:
		return "LeaveReaderReq"
	default:
		return fmt.Sprintf("UpdateKind(%d)", uint8(k))
	}
}

// Reopens lists the kinds whose duplicate records applying k clears, so
// that a create after a delete, or a join after a leave, is not mistaken
// for a redelivery.
func (k UpdateKind) Reopens() []UpdateKind {
	switch k {
	case NewEntry:
		return []UpdateKind{DeleteEntry, DeleteEntryCmd}
	case DeleteEntry, DeleteEntryCmd:
		return []UpdateKind{NewEntry, ReaderJoined, ReaderLeft, TimeJump, CleanEntryCmd}
	case ReaderJoined:
		return []UpdateKind{ReaderLeft}
	case ReaderLeft:
		return []UpdateKind{ReaderJoined}
	case NewEntryReq:
		return []UpdateKind{DeleteEntryReq}
	case DeleteEntryReq:
		return []UpdateKind{NewEntryReq, JoinReaderReq, LeaveReaderReq}
	case JoinReaderReq:
		return []UpdateKind{LeaveReaderReq}
	case LeaveReaderReq:
		return []UpdateKind{JoinReaderReq}
	default:
		return nil
	}
}

// Route is where an update is handled.
type Route uint8

const (
	RouteEntry Route = iota + 1
	RouteChannel
	RouteMaster
)

func (r Route) String() string {
	switch r {
	case RouteEntry:
		return "entry"
	case RouteChannel:
		return "channel"
	case RouteMaster:
		return "master"
	default:
		return "none"
	}
}

// RouteOf maps an ordinal to exactly one route.
func RouteOf(k UpdateKind) (Route, error) {
	switch {
	case k.IsForEntry():
		return RouteEntry, nil
	case k.IsForChannel():
		return RouteChannel, nil
	case k.IsForMaster():
		return RouteMaster, nil
	default:
		return 0, &ProtocolRangeError{Message: "ChannelEndUpdate", Ordinal: uint8(k)}
	}
}

// NotificationType is the wire ordinal of a ChannelChangeNotification.
type NotificationType uint8

const (
	EntryAdded NotificationType = iota
	EntryRemoved
	EntryChanged

	notificationTypeCount
)

func (t NotificationType) Valid() bool { return t < notificationTypeCount }

// Reopens is the notification counterpart of UpdateKind.Reopens.
func (t NotificationType) Reopens() []NotificationType {
	switch t {
	case EntryAdded:
		return []NotificationType{EntryRemoved}
	case EntryRemoved:
		return []NotificationType{EntryAdded, EntryChanged}
	default:
		return nil
	}
}

func (t NotificationType) String() string {
	switch t {
	case EntryAdded:
		return "EntryAdded"
	case EntryRemoved:
		return "EntryRemoved"
	case EntryChanged:
		return "EntryChanged"
	default:
		return fmt.Sprintf("NotificationType(%d)", uint8(t))
	}
}

// ProtocolRangeError reports an ordinal no route accepts.
type ProtocolRangeError struct {
	Message string
	Ordinal uint8
}

func (e *ProtocolRangeError) Error() string {
	return fmt.Sprintf("lifecycle: %s ordinal %d outside routing ranges", e.Message, e.Ordinal)
}

func (e *ProtocolRangeError) Unwrap() error { return ErrProtocolRange }
