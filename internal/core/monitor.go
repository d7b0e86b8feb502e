package core

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"
)

// DefaultHeartbeatInterval is the liveness probe period.
const DefaultHeartbeatInterval = 25 * time.Second

// Monitor probes every registered client on a fixed period and terminates
// the ones that did not answer the previous probe. Registry removal follows
// from the transport's close notification.
type Monitor struct {
	registry *Registry
	clock    clock.Clock
	period   time.Duration
	log      *zerolog.Logger
}

// NewMonitor builds a monitor. A non-positive period selects DefaultHeartbeatInterval.
func NewMonitor(registry *Registry, clk clock.Clock, period time.Duration, logger *zerolog.Logger) *Monitor {
	if period <= 0 {
		period = DefaultHeartbeatInterval
	}
	return &Monitor{registry: registry, clock: clk, period: period, log: logger}
}

// Run sweeps once per period until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	ticker := m.clock.Ticker(m.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}

// Sweep runs one probe cycle and returns how many clients were terminated.
// Clients without a transport have nothing to probe and are skipped.
func (m *Monitor) Sweep() int {
	terminated := 0
	for _, c := range m.registry.AllClients() {
		if c.transport == nil {
			continue
		}
		if !c.unconfirm() {
			m.log.Info().Str("client_id", c.ID).Str("user_id", c.UserID).Msg("terminating unresponsive client")
			c.transport.Terminate()
			terminated++
			continue
		}
		c.transport.Probe(c.Confirm)
	}
	return terminated
}
