package lifecycle

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/danmuck/simwire/internal/auth"
	"github.com/danmuck/simwire/internal/identity"
	"github.com/danmuck/simwire/internal/observability"
	"github.com/danmuck/simwire/internal/protocol/frame"
)

var ErrNoHandler = errors.New("lifecycle: no handler for route")

// Handler consumes routed lifecycle messages. Handlers must tolerate a
// message they have effectively applied before; the dispatcher drops exact
// redeliveries but cannot see through a restart.
type Handler interface {
	HandleEntry(u ChannelEndUpdate) error
	HandleChannel(u ChannelEndUpdate) error
	HandleMaster(u ChannelEndUpdate) error
	HandleNotification(n ChannelChangeNotification) error
}

// Outcome is what a dispatch did with a message.
type Outcome uint8

const (
	Applied Outcome = iota + 1
	Duplicate
	Dropped
)

func (o Outcome) String() string {
	switch o {
	case Applied:
		return "applied"
	case Duplicate:
		return "duplicate"
	case Dropped:
		return "dropped"
	default:
		return fmt.Sprintf("outcome(%d)", uint8(o))
	}
}

// Dispatcher is the single mutation point in front of a Handler: messages
// are routed, deduplicated and applied one at a time.
type Dispatcher struct {
	mu      sync.Mutex
	handler Handler
	dedup   *Deduplicator
	auth    auth.Validator
	log     observability.ComponentLogger
}

func NewDispatcher(handler Handler, dedup *Deduplicator) *Dispatcher {
	if dedup == nil {
		dedup = NewDeduplicator(DefaultDedupCapacity)
	}
	return &Dispatcher{
		handler: handler,
		dedup:   dedup,
		log:     observability.Component("lifecycle"),
	}
}

// RequireAuth makes DispatchFrame drop frames whose auth block v rejects.
// Messages handed to DispatchUpdate and DispatchNotification directly are
// not checked.
func (d *Dispatcher) RequireAuth(v auth.Validator) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.auth = v
}

// DispatchUpdate routes u by its ordinal. Errors are per message: the
// caller drops the message and keeps the connection.
func (d *Dispatcher) DispatchUpdate(u ChannelEndUpdate) (Outcome, error) {
	if err := u.Validate(); err != nil {
		return d.drop("ChannelEndUpdate", err)
	}
	route, err := RouteOf(u.Kind)
	if err != nil {
		return d.drop("ChannelEndUpdate", err)
	}
	if d.handler == nil {
		return Dropped, ErrNoHandler
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.dedup.SeenUpdate(u) {
		d.log.Debug().Msgf("lifecycle.DispatchUpdate duplicate kind=%s names=%s end=%s", u.Kind, u.Names, u.EndID)
		observability.RecordLifecycleDropped(observability.DropDuplicate)
		return Duplicate, nil
	}
	switch route {
	case RouteEntry:
		err = d.handler.HandleEntry(u)
	case RouteChannel:
		err = d.handler.HandleChannel(u)
	case RouteMaster:
		err = d.handler.HandleMaster(u)
	}
	if err != nil {
		d.log.Warn().Msgf("lifecycle.DispatchUpdate route=%s kind=%s names=%s err=%v", route, u.Kind, u.Names, err)
		return Dropped, err
	}
	d.dedup.MarkUpdate(u)
	observability.RecordLifecycleHandled(route.String())
	d.log.Debug().Msgf("lifecycle.DispatchUpdate route=%s kind=%s names=%s end=%s", route, u.Kind, u.Names, u.EndID)
	return Applied, nil
}

// DispatchNotification applies n.
func (d *Dispatcher) DispatchNotification(n ChannelChangeNotification) (Outcome, error) {
	if err := n.Validate(); err != nil {
		return d.drop("ChannelChangeNotification", err)
	}
	if d.handler == nil {
		return Dropped, ErrNoHandler
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.dedup.SeenNotification(n) {
		d.log.Debug().Msgf("lifecycle.DispatchNotification duplicate type=%s names=%s", n.Type, n.Names)
		observability.RecordLifecycleDropped(observability.DropDuplicate)
		return Duplicate, nil
	}
	if err := d.handler.HandleNotification(n); err != nil {
		d.log.Warn().Msgf("lifecycle.DispatchNotification type=%s names=%s err=%v", n.Type, n.Names, err)
		return Dropped, err
	}
	d.dedup.MarkNotification(n)
	observability.RecordLifecycleHandled("notification")
	return Applied, nil
}

// DispatchFrame decodes f and dispatches the message it carries.
func (d *Dispatcher) DispatchFrame(f frame.Frame) (Outcome, error) {
	d.mu.Lock()
	v := d.auth
	d.mu.Unlock()
	if v != nil {
		if err := v.Validate(f.Auth); err != nil {
			return d.drop(fmt.Sprintf("frame message_id=%d", f.Header.MessageID), err)
		}
	}
	msg, err := DecodeFrame(f)
	if err != nil {
		return d.drop(fmt.Sprintf("frame message_id=%d", f.Header.MessageID), err)
	}
	if msg.Redelivered() {
		d.log.Debug().Msgf("lifecycle.DispatchFrame redelivered message_id=%d", f.Header.MessageID)
	}
	if msg.Notification != nil {
		return d.DispatchNotification(*msg.Notification)
	}
	return d.DispatchUpdate(*msg.Update)
}

// Serve reads frames from r until it fails and dispatches each. Per-message
// errors are logged and skipped; the returned error is the read error,
// nil on a clean end of stream.
func (d *Dispatcher) Serve(r io.Reader, limits frame.Limits) error {
	for {
		f, err := frame.ReadFrame(r, limits)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		_, _ = d.DispatchFrame(f)
	}
}

func (d *Dispatcher) drop(what string, err error) (Outcome, error) {
	reason := DropReason(err)
	observability.RecordLifecycleDropped(reason)
	d.log.Warn().Msgf("lifecycle.drop %s reason=%s err=%v", what, reason, err)
	return Dropped, err
}

// DropReason classifies a per-message error for metrics.
func DropReason(err error) string {
	switch {
	case errors.Is(err, ErrProtocolRange):
		return observability.DropProtocolRange
	case errors.Is(err, auth.ErrUnauthorized):
		return observability.DropUnauthorized
	case errors.Is(err, identity.ErrInvalidIdentity):
		return observability.DropInvalidIdentity
	default:
		return observability.DropFormat
	}
}
