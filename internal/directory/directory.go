// Package directory is a reference channel directory: the table of live
// channels and entries that lifecycle messages mutate. It decides channel
// setup with the capability algebra and announces entry changes as
// ChannelChangeNotifications.
package directory

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/danmuck/simwire/internal/capability"
	"github.com/danmuck/simwire/internal/identity"
	"github.com/danmuck/simwire/internal/lifecycle"
	"github.com/danmuck/simwire/internal/observability"
)

var (
	ErrUnknownChannel = errors.New("directory: unknown channel")
	ErrUnknownEntry   = errors.New("directory: unknown entry")
	ErrSchemaMismatch = errors.New("directory: schema does not match channel")
	ErrRoleNotHeld    = errors.New("directory: role not held")
)

// Notifier receives the notifications a Directory emits. It is called with
// the directory lock held and must not call back into the Directory.
type Notifier func(lifecycle.ChannelChangeNotification)

// ChannelSpec is a request to create or join a channel.
type ChannelSpec struct {
	Names     lifecycle.NameSet
	Owner     identity.Identity
	Transport lifecycle.TransportClass
	DataClass string
	SchemaID  string
	// Declared are the distribution policies of every declarant.
	Declared []capability.Distribution
}

// Entry is one addressable slot in a channel.
type Entry struct {
	Name    string
	ID      identity.Identity
	Role    capability.EndRole
	Readers []identity.Identity
	// LastJump is the tick jump announced by the latest TimeJump.
	LastJump int32
}

// Channel is a snapshot of one channel.
type Channel struct {
	Names        lifecycle.NameSet
	Owner        identity.Identity
	Distribution capability.Distribution
	Transport    lifecycle.TransportClass
	DataClass    string
	SchemaID     string
	Entries      []Entry
}

type entryState struct {
	name     string
	id       identity.Identity
	role     capability.EndRole
	declared capability.Distribution
	readers  map[identity.Identity]struct{}
	lastJump int32
}

type channelState struct {
	names lifecycle.NameSet
	owner identity.Identity
	// declared folds the channel-level declarations; distribution adds
	// those of the live entries.
	declared     capability.Distribution
	distribution capability.Distribution
	transport    lifecycle.TransportClass
	dataClass    string
	schemaID     string
	entries      map[identity.Identity]*entryState
}

// remoteEntry is an entry learned from a peer's notification.
type remoteEntry struct {
	names     lifecycle.NameSet
	transport lifecycle.TransportClass
}

// Directory implements lifecycle.Handler. All mutation goes through one
// mutex.
type Directory struct {
	mu       sync.Mutex
	channels map[string]*channelState
	remote   map[identity.Identity]remoteEntry
	notify   Notifier
	log      observability.ComponentLogger
}

func New(notify Notifier) *Directory {
	return &Directory{
		channels: make(map[string]*channelState),
		remote:   make(map[identity.Identity]remoteEntry),
		notify:   notify,
		log:      observability.Component("directory"),
	}
}

// CreateChannel creates the channel named by spec, or merges spec into an
// existing one. Conflicting distribution declarations reject the request
// and leave the directory unchanged.
func (d *Directory) CreateChannel(spec ChannelSpec) (Channel, error) {
	if err := spec.Names.Validate(); err != nil {
		return Channel{}, err
	}
	if err := identity.Require(spec.Owner, "channel owner"); err != nil {
		return Channel{}, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	key := spec.Names.ChannelKey()
	ch, exists := d.channels[key]
	decls := spec.Declared
	if exists {
		decls = append([]capability.Distribution{ch.distribution}, spec.Declared...)
	}
	dist, err := capability.Resolve(decls...)
	if err != nil {
		observability.RecordChannelConflict()
		d.log.Error().Msgf("directory.CreateChannel channel=%s declarations=%v err=%v", key, decls, err)
		return Channel{}, err
	}
	if exists {
		if spec.SchemaID != "" && ch.schemaID != "" && spec.SchemaID != ch.schemaID {
			return Channel{}, fmt.Errorf("%w: channel=%s have=%s got=%s", ErrSchemaMismatch, key, ch.schemaID, spec.SchemaID)
		}
		ch.declared = capability.MergeAll(append([]capability.Distribution{ch.declared}, spec.Declared...)...)
		ch.distribution = dist
		if ch.schemaID == "" {
			ch.schemaID = spec.SchemaID
		}
		if ch.dataClass == "" {
			ch.dataClass = spec.DataClass
		}
		return ch.snapshot(), nil
	}

	ch = &channelState{
		names:        spec.Names.ChannelNames(),
		owner:        spec.Owner,
		declared:     dist,
		distribution: dist,
		transport:    spec.Transport,
		dataClass:    spec.DataClass,
		schemaID:     spec.SchemaID,
		entries:      make(map[identity.Identity]*entryState),
	}
	d.channels[key] = ch
	d.log.Info().Msgf("directory.CreateChannel channel=%s owner=%s distribution=%s", key, spec.Owner, dist)
	return ch.snapshot(), nil
}

// Channel returns a snapshot of the channel names belongs to.
func (d *Directory) Channel(names lifecycle.NameSet) (Channel, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	ch, ok := d.channels[names.ChannelKey()]
	if !ok {
		return Channel{}, false
	}
	return ch.snapshot(), true
}

// Channels lists channel snapshots in name order.
func (d *Directory) Channels() []Channel {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Channel, 0, len(d.channels))
	for _, ch := range d.channels {
		out = append(out, ch.snapshot())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Names.ChannelKey() < out[j].Names.ChannelKey()
	})
	return out
}

// RemoteTransport returns what peers announced about the entry id.
func (d *Directory) RemoteTransport(id identity.Identity) (lifecycle.NameSet, lifecycle.TransportClass, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	r, ok := d.remote[id]
	return r.names, r.transport, ok
}

// resolve folds the channel declarations with those of every entry except
// skip, plus extra.
func (c *channelState) resolve(skip identity.Identity, extra capability.Distribution) (capability.Distribution, error) {
	decls := []capability.Distribution{c.declared}
	for id, e := range c.entries {
		if id != skip {
			decls = append(decls, e.declared)
		}
	}
	return capability.Resolve(append(decls, extra)...)
}

func (c *channelState) snapshot() Channel {
	out := Channel{
		Names:        c.names,
		Owner:        c.owner,
		Distribution: c.distribution,
		Transport:    c.transport,
		DataClass:    c.dataClass,
		SchemaID:     c.schemaID,
		Entries:      make([]Entry, 0, len(c.entries)),
	}
	for _, e := range c.entries {
		out.Entries = append(out.Entries, e.snapshot())
	}
	sort.Slice(out.Entries, func(i, j int) bool { return out.Entries[i].ID.Less(out.Entries[j].ID) })
	return out
}

func (e *entryState) snapshot() Entry {
	out := Entry{Name: e.name, ID: e.id, Role: e.role, LastJump: e.lastJump}
	for id := range e.readers {
		out.Readers = append(out.Readers, id)
	}
	sort.Slice(out.Readers, func(i, j int) bool { return out.Readers[i].Less(out.Readers[j]) })
	return out
}

func (d *Directory) channelFor(names lifecycle.NameSet) (*channelState, error) {
	ch, ok := d.channels[names.ChannelKey()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownChannel, names.ChannelKey())
	}
	return ch, nil
}

func (d *Directory) emit(t lifecycle.NotificationType, ch *channelState, e *entryState) {
	if d.notify == nil {
		return
	}
	names := ch.names
	names.Entry = e.name
	d.notify(lifecycle.ChannelChangeNotification{
		Type:      t,
		Names:     names,
		GlobalID:  e.id,
		Transport: ch.transport,
	})
}
