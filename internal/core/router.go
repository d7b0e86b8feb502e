package core

import (
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirehub/internal/proto"
)

// DefaultTypingDebounce is the minimum gap between two broadcast typing.start
// events from the same connection in the same channel.
const DefaultTypingDebounce = 150 * time.Millisecond

// readAtLayout matches the millisecond ISO-8601 timestamps clients send.
const readAtLayout = "2006-01-02T15:04:05.000Z07:00"

// Router maps inbound events to registry mutations and broadcasts.
// It never blocks: every broadcast ends in a queue append.
type Router struct {
	registry *Registry
	hub      *Hub
	clock    clock.Clock
	debounce time.Duration
	log      *zerolog.Logger
}

// NewRouter builds a router. A non-positive debounce selects DefaultTypingDebounce.
func NewRouter(registry *Registry, hub *Hub, clk clock.Clock, debounce time.Duration, logger *zerolog.Logger) *Router {
	if debounce <= 0 {
		debounce = DefaultTypingDebounce
	}
	return &Router{
		registry: registry,
		hub:      hub,
		clock:    clk,
		debounce: debounce,
		log:      logger,
	}
}

// Attach registers a freshly authenticated client and announces the user online.
func (r *Router) Attach(c *Client) {
	r.registry.Register(c)
	r.hub.BroadcastAll(proto.EventPresenceOnline{UserID: c.UserID})
	r.log.Debug().Str("client_id", c.ID).Str("user_id", c.UserID).Msg("client attached")
}

// Detach unregisters a closed client and announces the user offline.
// Calling it again for the same client does nothing.
func (r *Router) Detach(c *Client) {
	if !r.registry.Unregister(c.ID) {
		return
	}
	r.hub.BroadcastAll(proto.EventPresenceOffline{UserID: c.UserID})
	r.log.Debug().Str("client_id", c.ID).Str("user_id", c.UserID).Msg("client detached")
}

// Handle routes one inbound event from client c. A nil client means the event
// was originated by another service; only message.push is honoured then.
func (r *Router) Handle(c *Client, ev proto.Inbound) {
	if c == nil {
		if push, ok := ev.(proto.PushData); ok {
			r.push(push)
		}
		return
	}

	switch e := ev.(type) {
	case proto.JoinData:
		r.registry.JoinChannel(c.ID, e.ChannelID)
	case proto.LeaveData:
		r.registry.LeaveChannel(c.ID, e.ChannelID)
	case proto.TypingStartData:
		if r.debounceTyping(c, e.ChannelID) {
			return
		}
		r.hub.BroadcastToChannel(e.ChannelID, proto.EventTypingStart{ChannelID: e.ChannelID, UserID: c.UserID})
	case proto.TypingStopData:
		r.hub.BroadcastToChannel(e.ChannelID, proto.EventTypingStop{ChannelID: e.ChannelID, UserID: c.UserID})
	case proto.ReadData:
		readAt := e.ReadAt
		if readAt == "" {
			readAt = r.clock.Now().UTC().Format(readAtLayout)
		}
		r.hub.BroadcastToChannel(e.ChannelID, proto.EventReceiptRead{
			ChannelID: e.ChannelID,
			UserID:    c.UserID,
			MessageID: e.MessageID,
			ReadAt:    readAt,
		})
	case proto.PingData:
		// Liveness is tracked by the monitor's probes.
	case proto.PushData:
		r.push(e)
	case proto.AckData:
		r.hub.BroadcastToUsers([]string{c.UserID}, proto.EventDeliveryAck{MessageID: e.MessageID})
	default:
		r.log.Debug().Str("client_id", c.ID).Msg("ignoring unsupported inbound event")
	}
}

// push fans a message out to the channel and then to the listed users.
// A listed user who is also a channel member receives it twice.
// TODO: skip MemberIDs users already reached through the channel.
func (r *Router) push(e proto.PushData) {
	var ev proto.Outbound = proto.EventMessageNew{ChannelID: e.ChannelID, Message: e.Message}
	if len(e.Payload) > 0 {
		ev = proto.EventPassthrough{Type: proto.KindMessageNew, Payload: e.Payload}
	}
	r.hub.BroadcastToChannel(e.ChannelID, ev)
	if len(e.MemberIDs) > 0 {
		r.hub.BroadcastToUsers(e.MemberIDs, ev)
	}
}

// debounceTyping reports whether a typing.start for this connection and
// channel falls inside the debounce window; otherwise it records the time.
func (r *Router) debounceTyping(c *Client, channelID string) bool {
	now := r.clock.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if last, ok := c.lastTyping[channelID]; ok && now.Sub(last) < r.debounce {
		return true
	}
	c.lastTyping[channelID] = now
	return false
}
