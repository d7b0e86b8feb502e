package core

import (
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirehub/internal/proto"
)

// Hub is the broadcast facade: it serializes an event once and enqueues it to
// every target resolved from the registry at call time.
type Hub struct {
	registry   *Registry
	dispatcher *Dispatcher
	log        *zerolog.Logger
}

// NewHub creates a hub over the given registry and dispatcher.
func NewHub(registry *Registry, dispatcher *Dispatcher, logger *zerolog.Logger) *Hub {
	return &Hub{registry: registry, dispatcher: dispatcher, log: logger}
}

// BroadcastAll sends ev to every registered client. Returns the number of targets.
func (h *Hub) BroadcastAll(ev proto.Outbound) int {
	return h.fanout(ev, h.registry.AllClients)
}

// BroadcastToChannel sends ev to the channel's current members.
func (h *Hub) BroadcastToChannel(channelID string, ev proto.Outbound) int {
	return h.fanout(ev, func() []*Client { return h.registry.ClientsByChannel(channelID) })
}

// BroadcastToUsers sends ev to every connection owned by the listed users.
func (h *Hub) BroadcastToUsers(userIDs []string, ev proto.Outbound) int {
	return h.fanout(ev, func() []*Client { return h.registry.ClientsByUserIDs(userIDs) })
}

func (h *Hub) fanout(ev proto.Outbound, targets func() []*Client) int {
	payload, err := proto.Encode(ev)
	if err != nil {
		h.log.Error().Err(err).Msg("encode outbound event")
		return 0
	}

	clients := targets()
	for _, c := range clients {
		h.dispatcher.Enqueue(c, payload)
	}
	return len(clients)
}
