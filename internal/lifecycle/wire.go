package lifecycle

import (
	"bytes"
	"fmt"

	"github.com/danmuck/simwire/internal/capability"
	"github.com/danmuck/simwire/internal/identity"
	"github.com/danmuck/simwire/internal/protocol/frame"
	"github.com/danmuck/simwire/internal/protocol/schema"
	"github.com/danmuck/simwire/internal/protocol/tlv"
)

// Message is a decoded lifecycle frame: exactly one of Notification and
// Update is set, matching Header.MessageType.
type Message struct {
	Header       frame.Header
	Notification *ChannelChangeNotification
	Update       *ChannelEndUpdate
}

// Redelivered reports whether the sender marked the frame as a retry.
func (m Message) Redelivered() bool {
	return m.Header.Flags&frame.FlagRedelive != 0
}

func notificationFields(n ChannelChangeNotification) []tlv.Field {
	return []tlv.Field{
		tlv.U8(schema.FieldKind, uint8(n.Type)),
		tlv.String(schema.FieldNameSet, n.Names.String()),
		tlv.Ident(schema.FieldGlobalID, n.GlobalID),
		tlv.U8(schema.FieldTransportClass, uint8(n.Transport)),
	}
}

func updateFields(u ChannelEndUpdate) []tlv.Field {
	fields := []tlv.Field{
		tlv.U8(schema.FieldKind, uint8(u.Kind)),
		tlv.String(schema.FieldNameSet, u.Names.String()),
		tlv.Ident(schema.FieldEndID, u.EndID),
		tlv.Ident(schema.FieldDestinationID, u.DestinationID),
		tlv.U8(schema.FieldTransportClass, uint8(u.Transport)),
	}
	if u.Role != capability.None {
		fields = append(fields, tlv.U8(schema.FieldRole, uint8(u.Role)))
	}
	if u.Distribution != capability.NoOpinion {
		fields = append(fields, tlv.U8(schema.FieldDistribution, uint8(u.Distribution)))
	}
	if u.DataClass != "" {
		fields = append(fields, tlv.String(schema.FieldDataClass, u.DataClass))
	}
	if u.SchemaID != "" {
		fields = append(fields, tlv.String(schema.FieldSchemaID, u.SchemaID))
	}
	if u.JumpTicks != 0 {
		fields = append(fields, tlv.I32(schema.FieldJumpTicks, u.JumpTicks))
	}
	return fields
}

// EncodeNotificationFrame validates n and returns it as one wire frame.
func EncodeNotificationFrame(messageID uint64, flags uint32, n ChannelChangeNotification) ([]byte, error) {
	if err := n.Validate(); err != nil {
		return nil, err
	}
	return encodeFrame(messageID, schema.MsgChannelChange, flags, notificationFields(n))
}

// EncodeUpdateFrame validates u and returns it as one wire frame.
func EncodeUpdateFrame(messageID uint64, flags uint32, u ChannelEndUpdate) ([]byte, error) {
	if err := u.Validate(); err != nil {
		return nil, err
	}
	return encodeFrame(messageID, schema.MsgChannelEndUpdate, flags, updateFields(u))
}

func encodeFrame(messageID uint64, messageType, flags uint32, fields []tlv.Field) ([]byte, error) {
	if err := schema.Validate(messageType, fields); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	err := frame.WriteFrame(&buf, frame.Frame{
		Header: frame.Header{
			MessageID:   messageID,
			MessageType: messageType,
			Flags:       flags &^ frame.FlagHasAuth,
		},
		Payload: tlv.EncodeFields(fields),
	}, frame.DefaultLimits())
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeFrame parses a lifecycle frame. Ordinals outside the routing
// ranges fail with a ProtocolRangeError; everything else malformed fails
// with the tlv, schema or validation error that caught it.
func DecodeFrame(f frame.Frame) (Message, error) {
	fields, err := tlv.DecodeFields(f.Payload)
	if err != nil {
		return Message{}, err
	}
	if err := schema.Validate(f.Header.MessageType, fields); err != nil {
		return Message{}, err
	}
	msg := Message{Header: f.Header}
	switch f.Header.MessageType {
	case schema.MsgChannelChange:
		n, err := decodeNotification(fields)
		if err != nil {
			return Message{}, err
		}
		msg.Notification = &n
	case schema.MsgChannelEndUpdate:
		u, err := decodeUpdate(fields)
		if err != nil {
			return Message{}, err
		}
		msg.Update = &u
	}
	return msg, nil
}

func decodeNotification(fields []tlv.Field) (ChannelChangeNotification, error) {
	var (
		n   ChannelChangeNotification
		err error
	)
	kind, err := requiredU8(fields, schema.FieldKind)
	if err != nil {
		return n, err
	}
	n.Type = NotificationType(kind)
	if n.Names, err = requiredNames(fields); err != nil {
		return n, err
	}
	if n.GlobalID, err = requiredIdentity(fields, schema.FieldGlobalID); err != nil {
		return n, err
	}
	tc, err := requiredU8(fields, schema.FieldTransportClass)
	if err != nil {
		return n, err
	}
	n.Transport = TransportClass(tc)
	if err := n.Validate(); err != nil {
		return ChannelChangeNotification{}, err
	}
	return n, nil
}

func decodeUpdate(fields []tlv.Field) (ChannelEndUpdate, error) {
	var (
		u   ChannelEndUpdate
		err error
	)
	kind, err := requiredU8(fields, schema.FieldKind)
	if err != nil {
		return u, err
	}
	u.Kind = UpdateKind(kind)
	if _, err := RouteOf(u.Kind); err != nil {
		return ChannelEndUpdate{}, err
	}
	if u.Names, err = requiredNames(fields); err != nil {
		return u, err
	}
	if u.EndID, err = requiredIdentity(fields, schema.FieldEndID); err != nil {
		return u, err
	}
	if u.DestinationID, err = requiredIdentity(fields, schema.FieldDestinationID); err != nil {
		return u, err
	}
	tc, err := requiredU8(fields, schema.FieldTransportClass)
	if err != nil {
		return u, err
	}
	u.Transport = TransportClass(tc)

	if f, ok := tlv.GetField(fields, schema.FieldRole); ok {
		v, err := tlv.U8FromBytes(f.Value)
		if err != nil {
			return ChannelEndUpdate{}, err
		}
		u.Role = capability.EndRole(v)
	}
	if f, ok := tlv.GetField(fields, schema.FieldDistribution); ok {
		v, err := tlv.U8FromBytes(f.Value)
		if err != nil {
			return ChannelEndUpdate{}, err
		}
		u.Distribution = capability.Distribution(v)
	}
	if f, ok := tlv.GetField(fields, schema.FieldDataClass); ok {
		u.DataClass = string(f.Value)
	}
	if f, ok := tlv.GetField(fields, schema.FieldSchemaID); ok {
		u.SchemaID = string(f.Value)
	}
	if f, ok := tlv.GetField(fields, schema.FieldJumpTicks); ok {
		v, err := tlv.I32FromBytes(f.Value)
		if err != nil {
			return ChannelEndUpdate{}, err
		}
		u.JumpTicks = v
	}
	if err := u.Validate(); err != nil {
		return ChannelEndUpdate{}, err
	}
	return u, nil
}

func requiredU8(fields []tlv.Field, id uint16) (uint8, error) {
	f, _ := tlv.GetField(fields, id)
	return tlv.U8FromBytes(f.Value)
}

func requiredIdentity(fields []tlv.Field, id uint16) (identity.Identity, error) {
	f, _ := tlv.GetField(fields, id)
	return tlv.IdentityFromBytes(f.Value)
}

func requiredNames(fields []tlv.Field) (NameSet, error) {
	f, _ := tlv.GetField(fields, schema.FieldNameSet)
	n, err := ParseNameSet(string(f.Value))
	if err != nil {
		return NameSet{}, fmt.Errorf("name_set: %w", err)
	}
	return n, nil
}
