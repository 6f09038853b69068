package lifecycle

import (
	"sync"

	"github.com/danmuck/simwire/internal/identity"
	"github.com/danmuck/simwire/internal/protocol/schema"
	"github.com/danmuck/simwire/internal/protocol/tlv"
	"github.com/google/uuid"
)

// DefaultDedupCapacity bounds the remembered message keys per dispatcher.
const DefaultDedupCapacity = 4096

// dedupNamespace scopes the name-based UUIDs used as dedup keys.
var dedupNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("simwire.lifecycle.dedup"))

// slot groups the keys of one (message type, name set, identity, ordinal).
type slot struct {
	messageType uint32
	names       string
	id          identity.Identity
	ordinal     uint8
}

// Deduplicator remembers the last applied lifecycle messages so a
// redelivered copy can be dropped. Keys are v5 UUIDs over the message's
// full TLV field set, which includes the name set, the addressed identity
// and the kind. The oldest key is forgotten once capacity is reached.
type Deduplicator struct {
	mu       sync.Mutex
	capacity int
	keys     map[uuid.UUID]slot
	slots    map[slot]map[uuid.UUID]struct{}
	order    []uuid.UUID
}

func NewDeduplicator(capacity int) *Deduplicator {
	if capacity <= 0 {
		capacity = DefaultDedupCapacity
	}
	return &Deduplicator{
		capacity: capacity,
		keys:     make(map[uuid.UUID]slot),
		slots:    make(map[slot]map[uuid.UUID]struct{}),
	}
}

// NotificationKey is the dedup key of n.
func NotificationKey(n ChannelChangeNotification) uuid.UUID {
	return messageKey(schema.MsgChannelChange, notificationFields(n))
}

// UpdateKey is the dedup key of u.
func UpdateKey(u ChannelEndUpdate) uuid.UUID {
	return messageKey(schema.MsgChannelEndUpdate, updateFields(u))
}

func messageKey(messageType uint32, fields []tlv.Field) uuid.UUID {
	data := tlv.AppendField(nil, tlv.U32(0, messageType))
	data = append(data, tlv.EncodeFields(fields)...)
	return uuid.NewSHA1(dedupNamespace, data)
}

func notificationSlot(n ChannelChangeNotification, t NotificationType) slot {
	return slot{messageType: schema.MsgChannelChange, names: n.Names.String(), id: n.GlobalID, ordinal: uint8(t)}
}

func updateSlot(u ChannelEndUpdate, k UpdateKind) slot {
	return slot{messageType: schema.MsgChannelEndUpdate, names: u.Names.String(), id: u.EndID, ordinal: uint8(k)}
}

// SeenNotification reports whether n was already applied.
func (d *Deduplicator) SeenNotification(n ChannelChangeNotification) bool {
	return d.seen(NotificationKey(n))
}

// SeenUpdate reports whether u was already applied.
func (d *Deduplicator) SeenUpdate(u ChannelEndUpdate) bool {
	return d.seen(UpdateKey(u))
}

// MarkNotification records n as applied and reopens the types it undoes.
func (d *Deduplicator) MarkNotification(n ChannelChangeNotification) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, t := range n.Type.Reopens() {
		d.forgetSlot(notificationSlot(n, t))
	}
	d.mark(NotificationKey(n), notificationSlot(n, n.Type))
}

// MarkUpdate records u as applied and reopens the kinds it undoes.
func (d *Deduplicator) MarkUpdate(u ChannelEndUpdate) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, k := range u.Kind.Reopens() {
		d.forgetSlot(updateSlot(u, k))
	}
	d.mark(UpdateKey(u), updateSlot(u, u.Kind))
}

func (d *Deduplicator) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.keys)
}

func (d *Deduplicator) seen(key uuid.UUID) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.keys[key]
	return ok
}

func (d *Deduplicator) mark(key uuid.UUID, s slot) {
	if _, ok := d.keys[key]; ok {
		return
	}
	for len(d.order) >= d.capacity {
		d.evictOldest()
	}
	d.keys[key] = s
	if d.slots[s] == nil {
		d.slots[s] = make(map[uuid.UUID]struct{})
	}
	d.slots[s][key] = struct{}{}
	d.order = append(d.order, key)
}

func (d *Deduplicator) evictOldest() {
	key := d.order[0]
	d.order = d.order[1:]
	d.drop(key)
}

func (d *Deduplicator) forgetSlot(s slot) {
	keys := d.slots[s]
	if len(keys) == 0 {
		return
	}
	for key := range keys {
		d.drop(key)
	}
	kept := d.order[:0]
	for _, key := range d.order {
		if _, ok := d.keys[key]; ok {
			kept = append(kept, key)
		}
	}
	d.order = kept
}

func (d *Deduplicator) drop(key uuid.UUID) {
	s, ok := d.keys[key]
	if !ok {
		return
	}
	delete(d.keys, key)
	delete(d.slots[s], key)
	if len(d.slots[s]) == 0 {
		delete(d.slots, s)
	}
}
