package http

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirehub/internal/core"
	"github.com/vovakirdan/wirehub/internal/proto"
)

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// PublishRequest is the body accepted by POST /publish.
type PublishRequest struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	ChannelID string          `json:"channelId"`
	MemberIDs []string        `json:"memberIds"`
}

// PublishResponse acknowledges an accepted publish request.
type PublishResponse struct {
	OK bool `json:"ok"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	OK      bool `json:"ok"`
	Clients int  `json:"clients"`
}

// PublishHandlers lets backend services inject events into the hub.
type PublishHandlers struct {
	hub    *core.Hub
	router *core.Router
	log    *zerolog.Logger
}

// NewPublishHandlers creates publish handlers.
func NewPublishHandlers(hub *core.Hub, router *core.Router, logger *zerolog.Logger) *PublishHandlers {
	return &PublishHandlers{hub: hub, router: router, log: logger}
}

// Publish handles POST /publish. Payloads are relayed unchanged.
//
//   - message.new with channelId and payload goes to the channel and to memberIds
//   - channel.new with memberIds goes to those users
//   - any other type with channelId is relayed to the channel unchanged
func (h *PublishHandlers) Publish(c *gin.Context) {
	var req PublishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid publish body")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid publish payload"})
		return
	}

	switch {
	case req.Type == proto.KindMessageNew && req.ChannelID != "" && hasPayload(req.Payload):
		h.router.Handle(nil, proto.PushData{
			ChannelID: req.ChannelID,
			MemberIDs: req.MemberIDs,
			Payload:   req.Payload,
		})
	case req.Type == proto.KindChannelNew && req.MemberIDs != nil:
		n := h.hub.BroadcastToUsers(req.MemberIDs, proto.EventPassthrough{Type: proto.KindChannelNew, Payload: req.Payload})
		h.log.Debug().Int("targets", n).Msg("published channel.new")
	case req.Type != "" && req.ChannelID != "":
		n := h.hub.BroadcastToChannel(req.ChannelID, proto.EventPassthrough{Type: req.Type, Payload: req.Payload})
		h.log.Debug().Str("type", req.Type).Str("channel_id", req.ChannelID).Int("targets", n).Msg("published passthrough")
	default:
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid publish payload"})
		return
	}

	c.JSON(http.StatusOK, PublishResponse{OK: true})
}

func hasPayload(raw json.RawMessage) bool {
	return len(raw) > 0 && string(raw) != "null"
}
