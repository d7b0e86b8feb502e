package proto

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Inbound event kinds sent by clients (and by the publish ingress for message.push).
const (
	KindChannelJoin  = "channel.join"
	KindChannelLeave = "channel.leave"
	KindTypingStart  = "typing.start"
	KindTypingStop   = "typing.stop"
	KindReceiptRead  = "receipt.read"
	KindPresencePing = "presence.ping"
	KindMessagePush  = "message.push"
	KindDeliveryAck  = "delivery.ack"
)

var (
	// ErrMalformed is returned when a frame is not a valid event envelope.
	ErrMalformed = errors.New("malformed frame")
	// ErrUnknownKind is returned for a well-formed envelope with an unrecognized type.
	ErrUnknownKind = errors.New("unknown event kind")
)

// Envelope is the wire shape of every frame in both directions.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Inbound is an event received from a client. The set of implementations is closed.
type Inbound interface {
	Kind() string
	inbound()
}

// JoinData subscribes the sending connection to a channel.
type JoinData struct {
	ChannelID string `json:"channelId"`
}

// LeaveData unsubscribes the sending connection from a channel.
type LeaveData struct {
	ChannelID string `json:"channelId"`
}

// TypingStartData announces that the sender started typing in a channel.
type TypingStartData struct {
	ChannelID string `json:"channelId"`
}

// TypingStopData announces that the sender stopped typing in a channel.
type TypingStopData struct {
	ChannelID string `json:"channelId"`
}

// ReadData marks a message as read. ReadAt is optional.
type ReadData struct {
	ChannelID string `json:"channelId"`
	MessageID string `json:"messageId"`
	ReadAt    string `json:"readAt,omitempty"`
}

// PingData is an application-level keepalive with no payload.
type PingData struct{}

// PushData asks the hub to fan a message out to a channel and, optionally,
// to every connection of the listed users.
//
// Payload is only set by the publish ingress: it is a complete message.new
// payload relayed unchanged instead of one built from ChannelID and Message.
type PushData struct {
	ChannelID string          `json:"channelId"`
	Message   json.RawMessage `json:"message"`
	MemberIDs []string        `json:"memberIds,omitempty"`
	Payload   json.RawMessage `json:"-"`
}

// AckData confirms delivery of a message to the sender's other devices.
type AckData struct {
	MessageID string `json:"messageId"`
}

func (JoinData) Kind() string        { return KindChannelJoin }
func (LeaveData) Kind() string       { return KindChannelLeave }
func (TypingStartData) Kind() string { return KindTypingStart }
func (TypingStopData) Kind() string  { return KindTypingStop }
func (ReadData) Kind() string        { return KindReceiptRead }
func (PingData) Kind() string        { return KindPresencePing }
func (PushData) Kind() string        { return KindMessagePush }
func (AckData) Kind() string         { return KindDeliveryAck }

func (JoinData) inbound()        {}
func (LeaveData) inbound()       {}
func (TypingStartData) inbound() {}
func (TypingStopData) inbound()  {}
func (ReadData) inbound()        {}
func (PingData) inbound()        {}
func (PushData) inbound()        {}
func (AckData) inbound()         {}

// DecodeInbound parses one frame into a typed inbound event.
// Errors wrap ErrMalformed or ErrUnknownKind.
func DecodeInbound(data []byte) (Inbound, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if env.Type == "" {
		return nil, fmt.Errorf("%w: missing type", ErrMalformed)
	}

	switch env.Type {
	case KindChannelJoin:
		return decodeAs[JoinData](env)
	case KindChannelLeave:
		return decodeAs[LeaveData](env)
	case KindTypingStart:
		return decodeAs[TypingStartData](env)
	case KindTypingStop:
		return decodeAs[TypingStopData](env)
	case KindReceiptRead:
		return decodeAs[ReadData](env)
	case KindPresencePing:
		return PingData{}, nil
	case KindMessagePush:
		return decodeAs[PushData](env)
	case KindDeliveryAck:
		return decodeAs[AckData](env)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, env.Type)
	}
}

// ChannelScoped is implemented by inbound events that target a single channel.
type ChannelScoped interface {
	Channel() string
}

func (e JoinData) Channel() string        { return e.ChannelID }
func (e LeaveData) Channel() string       { return e.ChannelID }
func (e TypingStartData) Channel() string { return e.ChannelID }
func (e TypingStopData) Channel() string  { return e.ChannelID }
func (e ReadData) Channel() string        { return e.ChannelID }
func (e PushData) Channel() string        { return e.ChannelID }

func decodeAs[T Inbound](env Envelope) (Inbound, error) {
	var ev T
	if err := decodePayload(env, &ev); err != nil {
		return nil, err
	}
	if scoped, ok := any(ev).(ChannelScoped); ok && scoped.Channel() == "" {
		return nil, fmt.Errorf("%w: %s requires channelId", ErrMalformed, env.Type)
	}
	return ev, nil
}

func decodePayload(env Envelope, v any) error {
	if len(env.Payload) == 0 || string(env.Payload) == "null" {
		return fmt.Errorf("%w: %s requires payload", ErrMalformed, env.Type)
	}
	if err := json.Unmarshal(env.Payload, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}
