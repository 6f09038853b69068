package identity

import (
	"errors"
	"sort"
	"testing"
)

func TestValidAndString(t *testing.T) {
	unsetLoc := New(255, 7)
	if unsetLoc.Valid() {
		t.Fatalf("expected 255,7 to be invalid")
	}
	if got := unsetLoc.String(); got != "-,7" {
		t.Fatalf("unexpected string: %q", got)
	}

	id := New(3, 42)
	if !id.Valid() {
		t.Fatalf("expected 3,42 to be valid")
	}
	if got := id.String(); got != "3,42" {
		t.Fatalf("unexpected string: %q", got)
	}
	if id.LocationID() != 3 || id.ObjectID() != 42 {
		t.Fatalf("accessor mismatch: %d,%d", id.LocationID(), id.ObjectID())
	}

	if got := Unset.String(); got != "-,-" {
		t.Fatalf("unexpected unset string: %q", got)
	}
	if got := New(1, UnsetObject).String(); got != "1,-" {
		t.Fatalf("unexpected string: %q", got)
	}
}

func TestEqualityIsStructural(t *testing.T) {
	if New(3, 42) != New(3, 42) {
		t.Fatalf("expected equal identities")
	}
	if New(3, 42) == New(42, 3) {
		t.Fatalf("expected distinct identities")
	}
}

func TestOrdering(t *testing.T) {
	ids := []Identity{New(2, 1), New(1, 9), New(1, 2), Unset, New(0, 0)}
	sort.Slice(ids, func(i, j int) bool { return ids[i].Less(ids[j]) })
	want := []Identity{New(0, 0), New(1, 2), New(1, 9), New(2, 1), Unset}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("order[%d]=%s want %s", i, ids[i], want[i])
		}
	}
	if New(4, 4).Compare(New(4, 4)) != 0 {
		t.Fatalf("expected compare 0")
	}
}

func TestParseRoundTrip(t *testing.T) {
	for _, id := range []Identity{New(0, 0), New(3, 42), New(254, 65534), New(255, 7), New(1, UnsetObject), Unset} {
		got, err := Parse(id.String())
		if err != nil {
			t.Fatalf("parse %q: %v", id.String(), err)
		}
		if got != id {
			t.Fatalf("round trip %s -> %s", id, got)
		}
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	for _, raw := range []string{"", "3", "3;4", "x,1", "1,y", "256,1", "1,65536"} {
		if _, err := Parse(raw); !errors.Is(err, ErrParse) {
			t.Fatalf("Parse(%q) expected ErrParse, got %v", raw, err)
		}
	}
}

func TestRequire(t *testing.T) {
	if err := Require(New(1, 1), "end_id"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := Require(New(1, UnsetObject), "end_id")
	if !errors.Is(err, ErrInvalidIdentity) {
		t.Fatalf("expected ErrInvalidIdentity, got %v", err)
	}
}
