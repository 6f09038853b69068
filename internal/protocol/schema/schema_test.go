package schema

import (
	"testing"

	"github.com/danmuck/simwire/internal/identity"
	"github.com/danmuck/simwire/internal/protocol/tlv"
	"github.com/danmuck/simwire/internal/testutil/testlog"
)

func endUpdateFields() []tlv.Field {
	return []tlv.Field{
		tlv.U8(FieldKind, 8),
		tlv.String(FieldNameSet, "sim://ctrl/pos"),
		tlv.Ident(FieldEndID, identity.New(1, 4)),
		tlv.Ident(FieldDestinationID, identity.Unset),
		tlv.U8(FieldTransportClass, 0),
	}
}

func TestValidateChannelChangeRequiredFields(t *testing.T) {
	testlog.Start(t)
	fields := []tlv.Field{
		tlv.U8(FieldKind, 0),
		tlv.String(FieldNameSet, "sim://ctrl/pos"),
		tlv.Ident(FieldGlobalID, identity.New(1, 4)),
		tlv.U8(FieldTransportClass, 1),
	}
	if err := Validate(MsgChannelChange, fields); err != nil {
		t.Fatalf("validate channel change: %v", err)
	}
}

func TestValidateUnknownFieldsIgnored(t *testing.T) {
	testlog.Start(t)
	fields := append(endUpdateFields(), tlv.Field{ID: 9999, Type: tlv.TypeBytes, Value: []byte{0x01}})
	if err := Validate(MsgChannelEndUpdate, fields); err != nil {
		t.Fatalf("validate with unknown field: %v", err)
	}
}

func TestValidateMissingRequiredDeterministic(t *testing.T) {
	testlog.Start(t)
	fields := endUpdateFields()[:2]
	err := Validate(MsgChannelEndUpdate, fields)
	ve, ok := err.(ValidationError)
	if !ok {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if ve.FieldID != FieldEndID || ve.Reason != "missing required field" {
		t.Fatalf("unexpected validation error: %+v", ve)
	}
}

func TestValidateOptionalTypeMismatch(t *testing.T) {
	testlog.Start(t)
	fields := append(endUpdateFields(), tlv.String(FieldJumpTicks, "20"))
	err := Validate(MsgChannelEndUpdate, fields)
	ve, ok := err.(ValidationError)
	if !ok {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if ve.FieldID != FieldJumpTicks || ve.Reason != "type mismatch" {
		t.Fatalf("unexpected validation error: %+v", ve)
	}
}

func TestValidateUnknownMessageType(t *testing.T) {
	testlog.Start(t)
	err := Validate(77, endUpdateFields())
	ve, ok := err.(ValidationError)
	if !ok || ve.Reason != "unknown message_type" {
		t.Fatalf("unexpected error: %v", err)
	}
}
