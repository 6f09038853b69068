package session

import (
	"sort"
	"sync"
	"time"
)

// Pending tracks one lifecycle frame awaiting acknowledgement.
type Pending struct {
	MessageID     uint64
	Describe      string
	Frame         []byte
	Attempts      int
	QueuedAt      time.Time
	LastAttemptAt time.Time
	NextAttemptAt time.Time
	LastError     string
}

// Outbox stores pending frames by message id.
type Outbox struct {
	mu    sync.RWMutex
	items map[uint64]Pending
}

func NewOutbox() *Outbox {
	return &Outbox{
		items: make(map[uint64]Pending),
	}
}

func (o *Outbox) Upsert(item Pending) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.items[item.MessageID] = item
}

// MarkAttempt records a send attempt and schedules the next one at next.
func (o *Outbox) MarkAttempt(id uint64, at, next time.Time, lastErr string) (Pending, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	item, ok := o.items[id]
	if !ok {
		return Pending{}, false
	}
	item.Attempts++
	item.LastAttemptAt = at
	item.NextAttemptAt = next
	item.LastError = lastErr
	o.items[id] = item
	return item, true
}

func (o *Outbox) Remove(id uint64) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, ok := o.items[id]
	delete(o.items, id)
	return ok
}

func (o *Outbox) Get(id uint64) (Pending, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	item, ok := o.items[id]
	return item, ok
}

func (o *Outbox) Len() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.items)
}

// List returns every pending frame ordered by message id.
func (o *Outbox) List() []Pending {
	return o.filter(func(Pending) bool { return true })
}

// Due returns the frames whose next attempt is at or before now, ordered
// by message id.
func (o *Outbox) Due(now time.Time) []Pending {
	return o.filter(func(p Pending) bool { return !p.NextAttemptAt.After(now) })
}

func (o *Outbox) filter(keep func(Pending) bool) []Pending {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]Pending, 0, len(o.items))
	for _, item := range o.items {
		if keep(item) {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].MessageID < out[j].MessageID
	})
	return out
}
