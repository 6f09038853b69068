package lifecycle

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/danmuck/simwire/internal/capability"
	"github.com/danmuck/simwire/internal/identity"
	"github.com/danmuck/simwire/internal/protocol/frame"
	"github.com/danmuck/simwire/internal/protocol/schema"
	"github.com/danmuck/simwire/internal/protocol/tlv"
	"github.com/danmuck/simwire/internal/testutil/testlog"
)

func sampleUpdate() ChannelEndUpdate {
	return ChannelEndUpdate{
		Kind:          NewEntryReq,
		Names:         NameSet{Domain: "sim", Channel: "pose", Entry: "rover-1"},
		EndID:         identity.New(3, 42),
		DestinationID: identity.New(1, 1),
		Transport:     TransportHighPriority,
		Role:          capability.Sending,
		Distribution:  capability.SingleSend,
		DataClass:     "Pose",
		SchemaID:      "bafkreitest",
	}
}

func sampleNotification() ChannelChangeNotification {
	return ChannelChangeNotification{
		Type:      EntryAdded,
		Names:     NameSet{Domain: "sim", Channel: "pose", Entry: "rover-1"},
		GlobalID:  identity.New(3, 42),
		Transport: TransportRegular,
	}
}

func readMessage(t *testing.T, raw []byte) Message {
	t.Helper()
	f, err := frame.ReadFrame(bytes.NewReader(raw), frame.DefaultLimits())
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	msg, err := DecodeFrame(f)
	if err != nil {
		t.Fatalf("decode frame: %v", err)
	}
	return msg
}

func TestUpdateFrameRoundTrip(t *testing.T) {
	testlog.Start(t)

	in := sampleUpdate()
	raw, err := EncodeUpdateFrame(7, frame.FlagRedelive, in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	msg := readMessage(t, raw)
	if msg.Update == nil || msg.Notification != nil {
		t.Fatalf("expected update message, got %+v", msg)
	}
	if *msg.Update != in {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", *msg.Update, in)
	}
	if msg.Header.MessageID != 7 || msg.Header.MessageType != schema.MsgChannelEndUpdate || !msg.Redelivered() {
		t.Fatalf("unexpected header: %+v", msg.Header)
	}
}

func TestTimeJumpAndBroadcastRoundTrip(t *testing.T) {
	testlog.Start(t)

	in := ChannelEndUpdate{
		Kind:          TimeJump,
		Names:         NameSet{Channel: "clock"},
		EndID:         identity.New(0, 1),
		DestinationID: identity.Unset,
		Transport:     TransportUnspecified,
		JumpTicks:     -120,
	}
	raw, err := EncodeUpdateFrame(1, 0, in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	msg := readMessage(t, raw)
	if *msg.Update != in || !msg.Update.Broadcast() {
		t.Fatalf("round trip mismatch: %+v", *msg.Update)
	}
}

func TestNotificationFrameRoundTrip(t *testing.T) {
	testlog.Start(t)

	in := sampleNotification()
	raw, err := EncodeNotificationFrame(9, 0, in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	msg := readMessage(t, raw)
	if msg.Notification == nil || *msg.Notification != in {
		t.Fatalf("round trip mismatch: %+v", msg)
	}
	if msg.Redelivered() {
		t.Fatalf("unexpected redelivered flag")
	}
}

func TestEncodeRejectsInvalid(t *testing.T) {
	testlog.Start(t)

	cases := map[string]struct {
		mutate func(*ChannelEndUpdate)
		want   error
	}{
		"kind":         {func(u *ChannelEndUpdate) { u.Kind = 12 }, ErrProtocolRange},
		"end id":       {func(u *ChannelEndUpdate) { u.EndID = identity.New(255, 1) }, identity.ErrInvalidIdentity},
		"destination":  {func(u *ChannelEndUpdate) { u.DestinationID = identity.New(1, 0xFFFF) }, identity.ErrInvalidIdentity},
		"names":        {func(u *ChannelEndUpdate) { u.Names.Channel = "" }, ErrInvalidNameSet},
		"conflict":     {func(u *ChannelEndUpdate) { u.Distribution = capability.Conflict }, ErrInvalidMessage},
		"role":         {func(u *ChannelEndUpdate) { u.Role = 9 }, ErrInvalidMessage},
		"transport":    {func(u *ChannelEndUpdate) { u.Transport = 4 }, ErrInvalidMessage},
		"jump on kind": {func(u *ChannelEndUpdate) { u.JumpTicks = 3 }, ErrInvalidMessage},
	}
	for name, tc := range cases {
		u := sampleUpdate()
		tc.mutate(&u)
		if _, err := EncodeUpdateFrame(1, 0, u); !errors.Is(err, tc.want) {
			t.Fatalf("%s: err=%v want %v", name, err, tc.want)
		}
	}
}

func rawUpdateFrame(fields []tlv.Field) frame.Frame {
	return frame.Frame{
		Header:  frame.Header{MessageID: 1, MessageType: schema.MsgChannelEndUpdate},
		Payload: tlv.EncodeFields(fields),
	}
}

func TestDecodeRejectsOutOfRangeOrdinal(t *testing.T) {
	testlog.Start(t)

	fields := updateFields(sampleUpdate())
	fields[0] = tlv.U8(schema.FieldKind, 12)
	_, err := DecodeFrame(rawUpdateFrame(fields))
	var rangeErr *ProtocolRangeError
	if !errors.As(err, &rangeErr) || rangeErr.Ordinal != 12 {
		t.Fatalf("expected ProtocolRangeError, got %v", err)
	}
}

func TestDecodeRejectsMalformed(t *testing.T) {
	testlog.Start(t)

	missing := updateFields(sampleUpdate())[1:]
	if _, err := DecodeFrame(rawUpdateFrame(missing)); err == nil {
		t.Fatalf("expected missing kind failure")
	} else {
		var ve schema.ValidationError
		if !errors.As(err, &ve) || ve.FieldID != schema.FieldKind {
			t.Fatalf("expected schema.ValidationError on kind, got %v", err)
		}
	}

	short := updateFields(sampleUpdate())
	short[2] = tlv.Field{ID: schema.FieldEndID, Type: tlv.TypeIdentity, Value: []byte{1, 2}}
	if _, err := DecodeFrame(rawUpdateFrame(short)); !errors.Is(err, tlv.ErrInvalidLength) {
		t.Fatalf("expected tlv.ErrInvalidLength, got %v", err)
	}

	f := rawUpdateFrame(updateFields(sampleUpdate()))
	f.Payload = f.Payload[:len(f.Payload)-1]
	if _, err := DecodeFrame(f); !errors.Is(err, tlv.ErrShortFieldValue) {
		t.Fatalf("expected tlv.ErrShortFieldValue, got %v", err)
	}

	f = rawUpdateFrame(updateFields(sampleUpdate()))
	f.Header.MessageType = 99
	if _, err := DecodeFrame(f); err == nil {
		t.Fatalf("expected unknown message type failure")
	}
}

func TestFormatters(t *testing.T) {
	testlog.Start(t)

	var buf bytes.Buffer
	if err := FprintUpdate(&buf, sampleUpdate()); err != nil {
		t.Fatalf("FprintUpdate: %v", err)
	}
	want := "update kind=NewEntryReq route=master names=sim/pose/rover-1 end=3,42 dest=1,1 transport=high_priority role=sending distribution=single-send data_class=Pose schema=bafkreitest\n"
	if buf.String() != want {
		t.Fatalf("FprintUpdate:\n got %q\nwant %q", buf.String(), want)
	}

	buf.Reset()
	raw, err := EncodeNotificationFrame(4, 0, sampleNotification())
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := FprintMessage(&buf, readMessage(t, raw)); err != nil {
		t.Fatalf("FprintMessage: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "#4 flags=0x0 notification type=EntryAdded names=sim/pose/rover-1 global=3,42") {
		t.Fatalf("FprintMessage: %q", buf.String())
	}
}
