package core

import (
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"
)

// DefaultBatchDelay is how long a client's first queued payload waits for company.
const DefaultBatchDelay = 15 * time.Millisecond

// Dispatcher coalesces outbound payloads per client and writes them in batches.
type Dispatcher struct {
	clock clock.Clock
	delay time.Duration
	log   *zerolog.Logger
}

// NewDispatcher builds a dispatcher. A non-positive delay selects DefaultBatchDelay.
func NewDispatcher(clk clock.Clock, delay time.Duration, logger *zerolog.Logger) *Dispatcher {
	if delay <= 0 {
		delay = DefaultBatchDelay
	}
	return &Dispatcher{clock: clk, delay: delay, log: logger}
}

// Enqueue appends a serialized payload to the client's queue and schedules a
// flush unless one is already pending.
func (d *Dispatcher) Enqueue(c *Client, payload []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.queue = append(c.queue, payload)
	if c.flushScheduled {
		return
	}
	c.flushScheduled = true
	c.flushDeadline = d.clock.Now().Add(d.delay)
	d.clock.AfterFunc(d.delay, func() { d.Flush(c) })
}

// Flush writes every queued payload in order. If the transport is gone the
// queue is dropped; nothing is retried and no error escapes.
func (d *Dispatcher) Flush(c *Client) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.flushScheduled = false
	if len(c.queue) == 0 {
		return
	}
	batch := c.queue
	c.queue = nil

	if c.transport == nil || !c.transport.Writable() {
		d.log.Debug().Str("client_id", c.ID).Int("dropped", len(batch)).Msg("transport not writable, dropping queue")
		return
	}
	for i, payload := range batch {
		if err := c.transport.Write(payload); err != nil {
			d.log.Debug().Err(err).Str("client_id", c.ID).Int("dropped", len(batch)-i).Msg("write failed, dropping rest of batch")
			return
		}
	}
}
