package lifecycle

import (
	"testing"

	"github.com/danmuck/simwire/internal/identity"
	"github.com/danmuck/simwire/internal/testutil/testlog"
)

func TestDedupKeysAreDeterministic(t *testing.T) {
	testlog.Start(t)

	a := entryUpdate(NewEntry)
	b := entryUpdate(NewEntry)
	if UpdateKey(a) != UpdateKey(b) {
		t.Fatalf("equal updates produced different keys")
	}
	if UpdateKey(a).Version() != 5 {
		t.Fatalf("expected a v5 key, got v%d", UpdateKey(a).Version())
	}
	b.EndID = identity.New(3, 43)
	if UpdateKey(a) == UpdateKey(b) {
		t.Fatalf("different end ids share a key")
	}
	b = entryUpdate(DeleteEntry)
	if UpdateKey(a) == UpdateKey(b) {
		t.Fatalf("different kinds share a key")
	}
	b = entryUpdate(NewEntry)
	b.Names.Entry = "rover-2"
	if UpdateKey(a) == UpdateKey(b) {
		t.Fatalf("different names share a key")
	}
}

func TestDedupCapacityEvictsOldest(t *testing.T) {
	testlog.Start(t)

	d := NewDeduplicator(2)
	first := entryUpdate(TimeJump)
	first.JumpTicks = 1
	second := first
	second.JumpTicks = 2
	third := first
	third.JumpTicks = 3

	d.MarkUpdate(first)
	d.MarkUpdate(second)
	d.MarkUpdate(second)
	if d.Len() != 2 {
		t.Fatalf("len=%d", d.Len())
	}
	d.MarkUpdate(third)
	if d.Len() != 2 || d.SeenUpdate(first) || !d.SeenUpdate(second) || !d.SeenUpdate(third) {
		t.Fatalf("oldest key not evicted: len=%d", d.Len())
	}
}

func TestDedupReopens(t *testing.T) {
	testlog.Start(t)

	d := NewDeduplicator(0)
	join := entryUpdate(ReaderJoined)
	join.DestinationID = identity.New(4, 4)
	leave := join
	leave.Kind = ReaderLeft

	d.MarkUpdate(join)
	d.MarkUpdate(leave)
	if d.SeenUpdate(join) {
		t.Fatalf("leave did not reopen join")
	}
	d.MarkUpdate(join)
	if d.SeenUpdate(leave) || !d.SeenUpdate(join) {
		t.Fatalf("join did not reopen leave")
	}

	added := sampleNotification()
	removed := added
	removed.Type = EntryRemoved
	d.MarkNotification(added)
	if !d.SeenNotification(added) {
		t.Fatalf("notification not remembered")
	}
	d.MarkNotification(removed)
	if d.SeenNotification(added) {
		t.Fatalf("removal did not reopen add")
	}
}
