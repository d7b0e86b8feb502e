package core

import (
	"sync"
	"time"
)

// Client is one live connection as seen by the core layer.
// A user may own several clients at once.
type Client struct {
	ID     string
	UserID string

	transport Transport

	// channels is guarded by Registry.mu, not by mu.
	channels map[string]struct{}

	mu             sync.Mutex
	queue          [][]byte
	flushScheduled bool
	flushDeadline  time.Time
	lastTyping     map[string]time.Time
	confirmed      bool
}

// NewClient constructs a confirmed client bound to the given transport.
func NewClient(id, userID string, transport Transport) *Client {
	return &Client{
		ID:         id,
		UserID:     userID,
		transport:  transport,
		channels:   make(map[string]struct{}),
		lastTyping: make(map[string]time.Time),
		confirmed:  true,
	}
}

// Transport returns the connection handle the client writes to.
func (c *Client) Transport() Transport {
	return c.transport
}

// Pending returns the number of payloads waiting for the next flush.
func (c *Client) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

// FlushScheduled reports whether a flush timer is pending, and its deadline.
func (c *Client) FlushScheduled() (bool, time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.flushScheduled, c.flushDeadline
}

// Confirmed reports whether the client answered the latest liveness probe.
func (c *Client) Confirmed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.confirmed
}

// Confirm marks the client alive. It is the probe acknowledgement callback.
func (c *Client) Confirm() {
	c.mu.Lock()
	c.confirmed = true
	c.mu.Unlock()
}

// unconfirm flips a confirmed client to unconfirmed and reports whether it was confirmed.
func (c *Client) unconfirm() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.confirmed {
		return false
	}
	c.confirmed = false
	return true
}
