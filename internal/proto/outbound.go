package proto

import (
	"encoding/json"
	"fmt"
)

// Outbound event kinds delivered to clients.
const (
	KindPresenceOnline  = "presence.online"
	KindPresenceOffline = "presence.offline"
	KindMessageNew      = "message.new"
	KindChannelNew      = "channel.new"
	// typing.start, typing.stop, receipt.read and delivery.ack reuse the inbound names.
)

// Outbound is an event the hub sends to clients. The set of implementations is closed.
type Outbound interface {
	Kind() string
	outbound()
}

// EventPresenceOnline notifies that a user opened a connection.
type EventPresenceOnline struct {
	UserID string `json:"userId"`
}

// EventPresenceOffline notifies that one of a user's connections closed.
type EventPresenceOffline struct {
	UserID string `json:"userId"`
}

// EventTypingStart notifies channel members that a user is typing.
type EventTypingStart struct {
	ChannelID string `json:"channelId"`
	UserID    string `json:"userId"`
}

// EventTypingStop notifies channel members that a user stopped typing.
type EventTypingStop struct {
	ChannelID string `json:"channelId"`
	UserID    string `json:"userId"`
}

// EventReceiptRead notifies channel members that a user read a message.
type EventReceiptRead struct {
	ChannelID string `json:"channelId"`
	UserID    string `json:"userId"`
	MessageID string `json:"messageId"`
	ReadAt    string `json:"readAt"`
}

// EventMessageNew carries a message body the hub does not interpret.
type EventMessageNew struct {
	ChannelID string          `json:"channelId"`
	Message   json.RawMessage `json:"message"`
}

// EventChannelNew carries channel metadata the hub does not interpret.
type EventChannelNew struct {
	Channel json.RawMessage `json:"channel"`
}

// EventDeliveryAck echoes a delivery confirmation to the sender's devices.
type EventDeliveryAck struct {
	MessageID string `json:"messageId"`
}

// EventPassthrough relays an arbitrary typed payload published by another service.
type EventPassthrough struct {
	Type    string
	Payload json.RawMessage
}

func (EventPresenceOnline) Kind() string  { return KindPresenceOnline }
func (EventPresenceOffline) Kind() string { return KindPresenceOffline }
func (EventTypingStart) Kind() string     { return KindTypingStart }
func (EventTypingStop) Kind() string      { return KindTypingStop }
func (EventReceiptRead) Kind() string     { return KindReceiptRead }
func (EventMessageNew) Kind() string      { return KindMessageNew }
func (EventChannelNew) Kind() string      { return KindChannelNew }
func (EventDeliveryAck) Kind() string     { return KindDeliveryAck }
func (e EventPassthrough) Kind() string   { return e.Type }

func (EventPresenceOnline) outbound()  {}
func (EventPresenceOffline) outbound() {}
func (EventTypingStart) outbound()     {}
func (EventTypingStop) outbound()      {}
func (EventReceiptRead) outbound()     {}
func (EventMessageNew) outbound()      {}
func (EventChannelNew) outbound()      {}
func (EventDeliveryAck) outbound()     {}
func (EventPassthrough) outbound()     {}

// Encode serializes an outbound event into its wire envelope.
func Encode(ev Outbound) ([]byte, error) {
	var payload any
	switch e := ev.(type) {
	case EventPresenceOnline, EventPresenceOffline, EventTypingStart, EventTypingStop,
		EventReceiptRead, EventMessageNew, EventChannelNew, EventDeliveryAck:
		payload = e
	case EventPassthrough:
		if e.Type == "" {
			return nil, fmt.Errorf("encode passthrough: %w: empty type", ErrMalformed)
		}
		payload = e.Payload
	case nil:
		return nil, fmt.Errorf("encode: %w: nil event", ErrMalformed)
	default:
		return nil, fmt.Errorf("encode %T: %w", ev, ErrUnknownKind)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", ev.Kind(), err)
	}
	return json.Marshal(Envelope{Type: ev.Kind(), Payload: raw})
}
