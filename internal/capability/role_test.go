package capability

import "testing"

var allRoles = []EndRole{None, Sending, Receiving, SendingReceiving}

func TestJoinTable(t *testing.T) {
	cases := []struct {
		a, b, want EndRole
	}{
		{None, None, None},
		{None, Sending, Sending},
		{Sending, None, Sending},
		{Sending, Sending, Sending},
		{Sending, Receiving, SendingReceiving},
		{Receiving, Sending, SendingReceiving},
		{Receiving, Receiving, Receiving},
		{SendingReceiving, Sending, SendingReceiving},
	}
	for _, tc := range cases {
		if got := Join(tc.a, tc.b); got != tc.want {
			t.Fatalf("Join(%s,%s)=%s want %s", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestJoinProperties(t *testing.T) {
	for _, a := range allRoles {
		if got := Join(None, a); got != a {
			t.Fatalf("Join(none,%s)=%s", a, got)
		}
		if got := Join(SendingReceiving, a); got != SendingReceiving {
			t.Fatalf("Join(sending-receiving,%s)=%s", a, got)
		}
		for _, b := range allRoles {
			if Join(a, b) != Join(b, a) {
				t.Fatalf("Join not commutative for %s,%s", a, b)
			}
		}
	}
}

func TestMeetTable(t *testing.T) {
	cases := []struct {
		a, b, want EndRole
	}{
		{SendingReceiving, SendingReceiving, SendingReceiving},
		{SendingReceiving, Sending, Sending},
		{Sending, SendingReceiving, Sending},
		{Sending, Receiving, None},
		{Receiving, Receiving, Receiving},
		{None, SendingReceiving, None},
		{Sending, None, None},
	}
	for _, tc := range cases {
		if got := Meet(tc.a, tc.b); got != tc.want {
			t.Fatalf("Meet(%s,%s)=%s want %s", tc.a, tc.b, got, tc.want)
		}
	}
	for _, a := range allRoles {
		for _, b := range allRoles {
			if Meet(a, b) != Meet(b, a) {
				t.Fatalf("Meet not commutative for %s,%s", a, b)
			}
		}
	}
}

func TestCoversAndRevoke(t *testing.T) {
	if !Covers(SendingReceiving, Sending) {
		t.Fatalf("sending-receiving should cover sending")
	}
	if Covers(Receiving, Sending) {
		t.Fatalf("receiving should not cover sending")
	}

	got, ok := Revoke(SendingReceiving, Sending)
	if !ok || got != Receiving {
		t.Fatalf("Revoke(sr,s)=%s,%v", got, ok)
	}
	got, ok = Revoke(SendingReceiving, Receiving)
	if !ok || got != Sending {
		t.Fatalf("Revoke(sr,r)=%s,%v", got, ok)
	}
	got, ok = Revoke(Receiving, Receiving)
	if !ok || got != None {
		t.Fatalf("Revoke(r,r)=%s,%v", got, ok)
	}
	got, ok = Revoke(Receiving, Sending)
	if ok || got != Receiving {
		t.Fatalf("Revoke(r,s)=%s,%v", got, ok)
	}
}
