package schema

import (
	"fmt"

	"github.com/danmuck/simwire/internal/protocol/tlv"
	"github.com/rs/zerolog/log"
)

// Message type IDs from the lifecycle wire contract.
const (
	MsgChannelChange    uint32 = 1
	MsgChannelEndUpdate uint32 = 2
)

// Field IDs from the lifecycle wire contract.
const (
	FieldKind           uint16 = 1
	FieldNameSet        uint16 = 2
	FieldGlobalID       uint16 = 3
	FieldEndID          uint16 = 4
	FieldDestinationID  uint16 = 5
	FieldTransportClass uint16 = 6

	FieldRole         uint16 = 100
	FieldDistribution uint16 = 101
	FieldDataClass    uint16 = 102
	FieldSchemaID     uint16 = 103
	FieldJumpTicks    uint16 = 104
)

type Requirement struct {
	ID   uint16
	Type uint8
}

type ValidationError struct {
	MessageType uint32
	FieldID     uint16
	Reason      string
}

func (e ValidationError) Error() string {
	if e.FieldID == 0 {
		return fmt.Sprintf("schema: message_type=%d: %s", e.MessageType, e.Reason)
	}
	return fmt.Sprintf("schema: message_type=%d field=%d: %s", e.MessageType, e.FieldID, e.Reason)
}

var requirements = map[uint32][]Requirement{
	MsgChannelChange: {
		{FieldKind, tlv.TypeU8},
		{FieldNameSet, tlv.TypeString},
		{FieldGlobalID, tlv.TypeIdentity},
		{FieldTransportClass, tlv.TypeU8},
	},
	MsgChannelEndUpdate: {
		{FieldKind, tlv.TypeU8},
		{FieldNameSet, tlv.TypeString},
		{FieldEndID, tlv.TypeIdentity},
		{FieldDestinationID, tlv.TypeIdentity},
		{FieldTransportClass, tlv.TypeU8},
	},
}

// optional fields are type-checked only when present.
var optional = map[uint32][]Requirement{
	MsgChannelEndUpdate: {
		{FieldRole, tlv.TypeU8},
		{FieldDistribution, tlv.TypeU8},
		{FieldDataClass, tlv.TypeString},
		{FieldSchemaID, tlv.TypeString},
		{FieldJumpTicks, tlv.TypeI32},
	},
}

// Validate enforces required fields and field types for a message type.
// Unknown fields are ignored so newer peers can add fields.
func Validate(messageType uint32, fields []tlv.Field) error {
	log.Trace().Msgf("schema.Validate message_type=%d fields=%d", messageType, len(fields))
	reqs, ok := requirements[messageType]
	if !ok {
		log.Error().Msgf("schema.Validate unknown message_type=%d", messageType)
		return ValidationError{MessageType: messageType, Reason: "unknown message_type"}
	}
	for _, req := range reqs {
		f, found := tlv.GetField(fields, req.ID)
		if !found {
			log.Error().Msgf(
				"schema.Validate missing field message_type=%d field_id=%d",
				messageType,
				req.ID,
			)
			return ValidationError{MessageType: messageType, FieldID: req.ID, Reason: "missing required field"}
		}
		if f.Type != req.Type {
			return typeMismatch(messageType, req, f)
		}
	}
	for _, opt := range optional[messageType] {
		f, found := tlv.GetField(fields, opt.ID)
		if found && f.Type != opt.Type {
			return typeMismatch(messageType, opt, f)
		}
	}
	return nil
}

func typeMismatch(messageType uint32, req Requirement, f tlv.Field) error {
	log.Error().Msgf(
		"schema.Validate type mismatch message_type=%d field_id=%d got=%d want=%d",
		messageType,
		req.ID,
		f.Type,
		req.Type,
	)
	return ValidationError{MessageType: messageType, FieldID: req.ID, Reason: "type mismatch"}
}
