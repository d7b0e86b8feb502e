package http

import (
	"context"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirehub/internal/core"
)

// wsTransport adapts a websocket connection to core.Transport.
// Writes are handed to a buffered channel drained by writeLoop, so the core
// never waits on the network.
type wsTransport struct {
	conn         *websocket.Conn
	ctx          context.Context
	send         chan []byte
	done         chan struct{}
	closeOnce    sync.Once
	writeTimeout time.Duration
	probeTimeout time.Duration
	log          *zerolog.Logger
}

func newWSTransport(ctx context.Context, conn *websocket.Conn, buffer int, writeTimeout, probeTimeout time.Duration, logger *zerolog.Logger) *wsTransport {
	if buffer <= 0 {
		buffer = 1
	}
	return &wsTransport{
		conn:         conn,
		ctx:          ctx,
		send:         make(chan []byte, buffer),
		done:         make(chan struct{}),
		writeTimeout: writeTimeout,
		probeTimeout: probeTimeout,
		log:          logger,
	}
}

func (t *wsTransport) Writable() bool {
	select {
	case <-t.done:
		return false
	case <-t.ctx.Done():
		return false
	default:
		return true
	}
}

func (t *wsTransport) Write(payload []byte) error {
	if !t.Writable() {
		return core.ErrTransportClosed
	}
	select {
	case t.send <- payload:
		return nil
	default:
		return core.ErrSlowConsumer
	}
}

func (t *wsTransport) Close(code int, reason string) error {
	t.shutdown()
	return t.conn.Close(websocket.StatusCode(code), reason)
}

func (t *wsTransport) Terminate() {
	t.shutdown()
	_ = t.conn.CloseNow()
}

// Probe pings the peer in the background; ack runs only if the pong arrives
// within the probe timeout.
func (t *wsTransport) Probe(ack func()) {
	go func() {
		ctx := t.ctx
		if t.probeTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, t.probeTimeout)
			defer cancel()
		}
		if err := t.conn.Ping(ctx); err != nil {
			t.log.Debug().Err(err).Msg("liveness probe failed")
			return
		}
		ack()
	}()
}

func (t *wsTransport) shutdown() {
	t.closeOnce.Do(func() { close(t.done) })
}

func (t *wsTransport) writeLoop() error {
	for {
		select {
		case payload := <-t.send:
			if err := t.write(payload); err != nil {
				return err
			}
		case <-t.done:
			return nil
		case <-t.ctx.Done():
			return t.ctx.Err()
		}
	}
}

func (t *wsTransport) write(payload []byte) error {
	ctx := t.ctx
	if t.writeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.writeTimeout)
		defer cancel()
	}
	return t.conn.Write(ctx, websocket.MessageText, payload)
}
