package http

import (
	"context"
	"errors"
	"io"
	stdhttp "net/http"
	"strings"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirehub/internal/config"
	"github.com/vovakirdan/wirehub/internal/core"
	"github.com/vovakirdan/wirehub/internal/proto"
	"github.com/vovakirdan/wirehub/internal/utils"
)

// StatusUnauthorized is the close code sent when the handshake token is rejected.
const StatusUnauthorized websocket.StatusCode = 4001

// Authenticator resolves a bearer token to a user id.
type Authenticator interface {
	Authenticate(token string) (string, error)
}

// WSHandler upgrades HTTP connections and bridges them to core.Client.
type WSHandler struct {
	router *core.Router
	auth   Authenticator
	cfg    *config.Config
	log    *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(router *core.Router, authenticator Authenticator, cfg *config.Config, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{router: router, auth: authenticator, cfg: cfg, log: logger}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	token := tokenFromRequest(r)

	conn, err := websocket.Accept(w, r, h.acceptOptions())
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}

	userID, err := h.auth.Authenticate(token)
	if err != nil {
		h.log.Debug().Err(err).Str("remote", r.RemoteAddr).Msg("rejecting unauthenticated connection")
		_ = conn.Close(StatusUnauthorized, "Unauthorized")
		return
	}
	if h.cfg.MaxMessageBytes > 0 {
		conn.SetReadLimit(h.cfg.MaxMessageBytes)
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	transport := newWSTransport(ctx, conn, h.cfg.SendBuffer, h.cfg.WriteTimeout, h.cfg.HeartbeatInterval, h.log)
	client := core.NewClient(utils.NewClientID(userID), userID, transport)
	h.router.Attach(client)
	defer h.router.Detach(client)

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, client)
	}()
	go func() {
		errCh <- transport.writeLoop()
	}()

	err = <-errCh
	cancel()
	transport.shutdown()
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != -1 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway || status == websocket.StatusNoStatusRcvd {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			h.log.Warn().Err(err).Str("client_id", client.ID).Msg("ws connection closed with error")
		}
	}

	_ = conn.Close(status, reason)
}

func (h *WSHandler) acceptOptions() *websocket.AcceptOptions {
	opts := &websocket.AcceptOptions{
		InsecureSkipVerify: true,
		CompressionMode:    websocket.CompressionDisabled,
	}
	if h.cfg.CompressionThreshold > 0 {
		opts.CompressionMode = websocket.CompressionNoContextTakeover
		opts.CompressionThreshold = h.cfg.CompressionThreshold
	}
	return opts
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	limiter := newInboundLimiter(h.cfg.InboundRateLimit)
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			h.log.Debug().Err(err).Str("client_id", client.ID).Msg("read ws inbound")
			return err
		}
		if !limiter.allow() {
			h.log.Debug().Str("client_id", client.ID).Msg("inbound rate limit exceeded, dropping frame")
			continue
		}

		ev, err := proto.DecodeInbound(data)
		if err != nil {
			h.log.Debug().Err(err).Str("client_id", client.ID).Msg("dropping inbound frame")
			continue
		}
		h.router.Handle(client, ev)
	}
}

// tokenFromRequest reads the token query parameter, falling back to an
// Authorization bearer header.
func tokenFromRequest(r *stdhttp.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}
	return ""
}
