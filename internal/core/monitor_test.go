package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMonitorTerminatesSilentClientWithinTwoCycles(t *testing.T) {
	env := newTestEnv(t)
	silent, fs := env.connect("silent", "u1")
	_, fr := env.connect("responsive", "u2")
	fs.setSilent(true)
	fs.onTerminate = func() { env.router.Detach(silent) }

	require.Zero(t, env.monitor.Sweep(), "first cycle only probes")
	require.False(t, silent.Confirmed())
	require.Zero(t, fs.terminated())

	require.Equal(t, 1, env.monitor.Sweep())
	require.Equal(t, 1, fs.terminated())
	require.Nil(t, env.registry.Client("silent"), "close notification removes the client")
	require.NotNil(t, env.registry.Client("responsive"))
	require.Zero(t, fr.terminated())
}

func TestMonitorNeverTerminatesResponsiveClient(t *testing.T) {
	env := newTestEnv(t)
	c, ft := env.connect("a", "u1")

	for i := 0; i < 10; i++ {
		require.Zero(t, env.monitor.Sweep())
		require.True(t, c.Confirmed())
	}
	require.Zero(t, ft.terminated())
	require.Equal(t, 10, ft.probes)
}

func TestMonitorLateAnswerKeepsClient(t *testing.T) {
	env := newTestEnv(t)
	c, ft := env.connect("a", "u1")
	ft.setSilent(true)

	env.monitor.Sweep()
	require.False(t, c.Confirmed())

	// The pong arrives before the next cycle.
	c.Confirm()
	require.Zero(t, env.monitor.Sweep())
	require.Zero(t, ft.terminated())
}

func TestMonitorSkipsClientWithoutTransport(t *testing.T) {
	env := newTestEnv(t)
	env.router.Attach(NewClient("bare", "u1", nil))

	require.NotPanics(t, func() {
		require.Zero(t, env.monitor.Sweep())
		require.Zero(t, env.monitor.Sweep())
	})
	require.NotNil(t, env.registry.Client("bare"))
}

func TestMonitorRunTicksOnPeriod(t *testing.T) {
	env := newTestEnv(t)
	c, ft := env.connect("a", "u1")
	ft.setSilent(true)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		env.monitor.Run(ctx)
		close(done)
	}()

	// Let Run create its ticker before moving time.
	require.Eventually(t, func() bool {
		env.clock.Add(DefaultHeartbeatInterval)
		return ft.terminated() > 0
	}, 2*time.Second, 10*time.Millisecond)
	require.False(t, c.Confirmed())

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("monitor did not stop after cancel")
	}
}
