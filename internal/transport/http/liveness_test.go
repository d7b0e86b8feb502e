package http

import (
	"context"
	"testing"
	"time"

	"github.com/vovakirdan/wirehub/internal/config"
)

func TestMonitorTerminatesPeerThatStopsReading(t *testing.T) {
	ts := startTestServer(t, func(cfg *config.Config) { cfg.HeartbeatInterval = 2 * time.Second })
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Never reading means the peer never answers pings.
	ts.dial(ctx, t, "alice")

	if n := ts.monitor.Sweep(); n != 0 {
		t.Fatalf("first sweep should only probe, terminated %d", n)
	}
	if n := ts.monitor.Sweep(); n != 1 {
		t.Fatalf("expected unanswered client to be terminated, got %d", n)
	}
	waitFor(t, func() bool { return ts.registry.Len() == 0 })
}

func TestMonitorKeepsPeerThatAnswersPings(t *testing.T) {
	ts := startTestServer(t, func(cfg *config.Config) { cfg.HeartbeatInterval = 2 * time.Second })
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := ts.dial(ctx, t, "alice")
	// Pongs are written while the peer reads.
	go func() {
		for {
			if _, _, err := conn.Read(ctx); err != nil {
				return
			}
		}
	}()

	clients := ts.registry.AllClients()
	if len(clients) != 1 {
		t.Fatalf("expected one client, got %d", len(clients))
	}
	client := clients[0]

	for i := 0; i < 3; i++ {
		if n := ts.monitor.Sweep(); n != 0 {
			t.Fatalf("sweep %d terminated %d responsive clients", i, n)
		}
		waitFor(t, client.Confirmed)
	}
	if ts.registry.Len() != 1 {
		t.Fatalf("responsive client was removed")
	}
}
