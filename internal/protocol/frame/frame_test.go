package frame

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/danmuck/simwire/internal/protocol/tlv"
)

func TestReadWriteFrameRoundTrip(t *testing.T) {
	payload := tlv.EncodeFields([]tlv.Field{tlv.String(2, "sim://ctrl/pos")})
	in := Frame{
		Header:  Header{MessageID: 42, MessageType: 2},
		Auth:    []byte("auth"),
		Payload: payload,
	}
	var buf bytes.Buffer
	if err := WriteFrame(&buf, in, DefaultLimits()); err != nil {
		t.Fatalf("write frame: %v", err)
	}
	out, err := ReadFrame(&buf, DefaultLimits())
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	if out.Header.Magic != Magic || out.Header.MessageType != 2 || out.Header.MessageID != 42 {
		t.Fatalf("header mismatch: got=%+v", out.Header)
	}
	if out.Header.Flags&FlagHasAuth == 0 {
		t.Fatalf("expected auth flag set")
	}
	if string(out.Auth) != "auth" {
		t.Fatalf("auth mismatch: %q", string(out.Auth))
	}
	if !bytes.Equal(out.Payload, payload) {
		t.Fatalf("payload mismatch")
	}
}

func TestReadFrameMalformedHeaderIsDeterministic(t *testing.T) {
	_, err := ReadFrame(bytes.NewReader([]byte{1, 2, 3}), DefaultLimits())
	if !errors.Is(err, ErrShortHeader) {
		t.Fatalf("expected ErrShortHeader, got %v", err)
	}
}

func TestReadFrameCleanEOF(t *testing.T) {
	_, err := ReadFrame(bytes.NewReader(nil), DefaultLimits())
	if !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}

func TestReadFrameRejectsForeignMagic(t *testing.T) {
	h := Header{Magic: 0xEDCE1001, Version: Version, HeaderLen: FixedHeaderLen, MessageID: 1, MessageType: 1}
	_, err := ReadFrame(bytes.NewReader(EncodeHeader(h)), DefaultLimits())
	if !errors.Is(err, ErrInvalidMagic) {
		t.Fatalf("expected ErrInvalidMagic, got %v", err)
	}
}

func TestReadFrameRejectsVersion(t *testing.T) {
	h := Header{Magic: Magic, Version: 9, HeaderLen: FixedHeaderLen, MessageID: 1, MessageType: 1}
	_, err := ReadFrame(bytes.NewReader(EncodeHeader(h)), DefaultLimits())
	if !errors.Is(err, ErrUnsupportedVersion) {
		t.Fatalf("expected ErrUnsupportedVersion, got %v", err)
	}
}

func TestReadFrameHeaderLenTooSmall(t *testing.T) {
	h := Header{Magic: Magic, Version: Version, HeaderLen: 8, MessageID: 1, MessageType: 1}
	_, err := ReadFrame(bytes.NewReader(EncodeHeader(h)), DefaultLimits())
	if !errors.Is(err, ErrHeaderLenTooSmall) {
		t.Fatalf("expected ErrHeaderLenTooSmall, got %v", err)
	}
}

func TestReadFrameAuthFlagWithoutAuthBytes(t *testing.T) {
	h := Header{Magic: Magic, Version: Version, HeaderLen: FixedHeaderLen, MessageID: 1, MessageType: 1, Flags: FlagHasAuth}
	_, err := ReadFrame(bytes.NewReader(EncodeHeader(h)), DefaultLimits())
	if !errors.Is(err, ErrHeaderLenMismatch) {
		t.Fatalf("expected ErrHeaderLenMismatch, got %v", err)
	}
}

func TestReadFrameTruncatedPayload(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteFrame(&buf, Frame{Header: Header{MessageID: 1, MessageType: 1}, Payload: []byte("abcdef")}, DefaultLimits()); err != nil {
		t.Fatalf("write frame: %v", err)
	}
	b := buf.Bytes()
	_, err := ReadFrame(bytes.NewReader(b[:len(b)-2]), DefaultLimits())
	if !errors.Is(err, ErrTruncated) {
		t.Fatalf("expected ErrTruncated, got %v", err)
	}
}

func TestWriteFrameEnforcesPayloadLimit(t *testing.T) {
	var buf bytes.Buffer
	err := WriteFrame(&buf, Frame{Payload: make([]byte, 16)}, Limits{MaxAuthBytes: 0, MaxPayloadBytes: 8})
	if !errors.Is(err, ErrPayloadTooLarge) {
		t.Fatalf("expected ErrPayloadTooLarge, got %v", err)
	}
}
