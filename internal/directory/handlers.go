package directory

import (
	"fmt"

	"github.com/danmuck/simwire/internal/capability"
	"github.com/danmuck/simwire/internal/identity"
	"github.com/danmuck/simwire/internal/lifecycle"
	"github.com/danmuck/simwire/internal/observability"
)

var _ lifecycle.Handler = (*Directory)(nil)

// HandleEntry applies an update addressed to an entry. Every branch is a
// no-op when the update was already in effect.
func (d *Directory) HandleEntry(u lifecycle.ChannelEndUpdate) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	ch, err := d.channelFor(u.Names)
	if err != nil {
		return err
	}

	switch u.Kind {
	case lifecycle.NewEntry:
		d.upsertEntry(ch, u)
	case lifecycle.DeleteEntry:
		d.removeEntry(ch, u.EndID)
	case lifecycle.ReaderJoined, lifecycle.ReaderLeft:
		e, ok := ch.entries[u.EndID]
		if !ok {
			return fmt.Errorf("%w: %s in %s", ErrUnknownEntry, u.EndID, ch.names.ChannelKey())
		}
		if err := identity.Require(u.DestinationID, "reader"); err != nil {
			return err
		}
		if u.Kind == lifecycle.ReaderJoined {
			e.readers[u.DestinationID] = struct{}{}
		} else {
			delete(e.readers, u.DestinationID)
		}
	case lifecycle.TimeJump:
		e, ok := ch.entries[u.EndID]
		if !ok {
			return fmt.Errorf("%w: %s in %s", ErrUnknownEntry, u.EndID, ch.names.ChannelKey())
		}
		e.lastJump = u.JumpTicks
		d.log.Info().Msgf("directory.HandleEntry time jump entry=%s jump=%d", u.EndID, u.JumpTicks)
	default:
		return fmt.Errorf("directory: %s is not an entry update", u.Kind)
	}
	return nil
}

// HandleChannel applies a channel-wide configuration command.
func (d *Directory) HandleChannel(u lifecycle.ChannelEndUpdate) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	ch, err := d.channelFor(u.Names)
	if err != nil {
		return err
	}

	switch u.Kind {
	case lifecycle.CleanEntryCmd:
		if e, ok := ch.entries[u.EndID]; ok {
			e.readers = make(map[identity.Identity]struct{})
			e.lastJump = 0
		}
	case lifecycle.ReconfigureCmd:
		changed := ch.transport != u.Transport || (u.DataClass != "" && u.DataClass != ch.dataClass)
		ch.transport = u.Transport
		if u.DataClass != "" {
			ch.dataClass = u.DataClass
		}
		if changed {
			for _, e := range ch.entries {
				d.emit(lifecycle.EntryChanged, ch, e)
			}
		}
	case lifecycle.DeleteEntryCmd:
		d.removeEntry(ch, u.EndID)
	default:
		return fmt.Errorf("directory: %s is not a channel command", u.Kind)
	}
	return nil
}

// HandleMaster applies a request sent to the channel's owner.
func (d *Directory) HandleMaster(u lifecycle.ChannelEndUpdate) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	ch, err := d.channelFor(u.Names)
	if err != nil {
		return err
	}

	switch u.Kind {
	case lifecycle.NewEntryReq:
		if u.SchemaID != "" && ch.schemaID != "" && u.SchemaID != ch.schemaID {
			return fmt.Errorf("%w: channel=%s have=%s got=%s", ErrSchemaMismatch, ch.names.ChannelKey(), ch.schemaID, u.SchemaID)
		}
		// A writer re-registering replaces its own declaration rather than
		// merging with it.
		decl := u.Distribution
		if e, ok := ch.entries[u.EndID]; ok && decl == capability.NoOpinion {
			decl = e.declared
		}
		dist, err := ch.resolve(u.EndID, decl)
		if err != nil {
			observability.RecordChannelConflict()
			d.log.Error().Msgf("directory.HandleMaster channel=%s requester=%s err=%v", ch.names.ChannelKey(), u.EndID, err)
			return err
		}
		ch.distribution = dist
		d.upsertEntry(ch, u)
		ch.entries[u.EndID].declared = decl
	case lifecycle.DeleteEntryReq:
		d.removeEntry(ch, u.EndID)
	case lifecycle.JoinReaderReq:
		e, ok := ch.entries[u.EndID]
		if !ok {
			return fmt.Errorf("%w: %s in %s", ErrUnknownEntry, u.EndID, ch.names.ChannelKey())
		}
		role := capability.Join(e.role, capability.Receiving)
		if role != e.role {
			e.role = role
			d.emit(lifecycle.EntryChanged, ch, e)
		}
	case lifecycle.LeaveReaderReq:
		e, ok := ch.entries[u.EndID]
		if !ok {
			return nil
		}
		role, held := capability.Revoke(e.role, capability.Receiving)
		if !held {
			// Already left.
			return nil
		}
		e.role = role
		d.emit(lifecycle.EntryChanged, ch, e)
	default:
		return fmt.Errorf("directory: %s is not a master request", u.Kind)
	}
	return nil
}

// HandleNotification records what a peer announced about its entries.
func (d *Directory) HandleNotification(n lifecycle.ChannelChangeNotification) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	switch n.Type {
	case lifecycle.EntryAdded, lifecycle.EntryChanged:
		d.remote[n.GlobalID] = remoteEntry{names: n.Names, transport: n.Transport}
	case lifecycle.EntryRemoved:
		delete(d.remote, n.GlobalID)
	}
	return nil
}

// Revoke drops requested from the role of the entry id. It fails with
// ErrRoleNotHeld when the entry does not hold the whole of requested.
func (d *Directory) Revoke(names lifecycle.NameSet, id identity.Identity, requested capability.EndRole) (capability.EndRole, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	ch, err := d.channelFor(names)
	if err != nil {
		return capability.None, err
	}
	e, ok := ch.entries[id]
	if !ok {
		return capability.None, fmt.Errorf("%w: %s", ErrUnknownEntry, id)
	}
	role, held := capability.Revoke(e.role, requested)
	if !held {
		return e.role, fmt.Errorf("%w: have=%s revoke=%s", ErrRoleNotHeld, e.role, requested)
	}
	if role != e.role {
		e.role = role
		d.emit(lifecycle.EntryChanged, ch, e)
	}
	return role, nil
}

// upsertEntry adds the entry or joins the requested role into the one it
// holds. Called with d.mu held.
func (d *Directory) upsertEntry(ch *channelState, u lifecycle.ChannelEndUpdate) {
	e, ok := ch.entries[u.EndID]
	if !ok {
		e = &entryState{
			name:    u.Names.Entry,
			id:      u.EndID,
			role:    u.Role,
			readers: make(map[identity.Identity]struct{}),
		}
		ch.entries[u.EndID] = e
		d.emit(lifecycle.EntryAdded, ch, e)
		return
	}
	role := capability.Join(e.role, u.Role)
	if role != e.role {
		e.role = role
		d.emit(lifecycle.EntryChanged, ch, e)
	}
}

func (d *Directory) removeEntry(ch *channelState, id identity.Identity) {
	e, ok := ch.entries[id]
	if !ok {
		return
	}
	delete(ch.entries, id)
	// Dropping a declaration cannot introduce a conflict.
	ch.distribution, _ = ch.resolve(identity.Unset, capability.NoOpinion)
	d.emit(lifecycle.EntryRemoved, ch, e)
}
