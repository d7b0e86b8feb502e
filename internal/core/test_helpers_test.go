package core

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/wirehub/internal/proto"
)

// fakeTransport records writes in memory and lets tests decide whether
// probes are answered.
type fakeTransport struct {
	mu           sync.Mutex
	closed       bool
	frames       [][]byte
	writeErr     error
	silent       bool
	probes       int
	terminations int
	onTerminate  func()
}

func (f *fakeTransport) Writable() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.closed
}

func (f *fakeTransport) Write(payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrTransportClosed
	}
	if f.writeErr != nil {
		return f.writeErr
	}
	f.frames = append(f.frames, payload)
	return nil
}

func (f *fakeTransport) Close(int, string) error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

func (f *fakeTransport) Terminate() {
	f.mu.Lock()
	f.closed = true
	f.terminations++
	hook := f.onTerminate
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
}

func (f *fakeTransport) Probe(ack func()) {
	f.mu.Lock()
	f.probes++
	silent := f.silent
	f.mu.Unlock()
	if !silent {
		ack()
	}
}

func (f *fakeTransport) setSilent(silent bool) {
	f.mu.Lock()
	f.silent = silent
	f.mu.Unlock()
}

func (f *fakeTransport) terminated() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.terminations
}

// events decodes every frame written so far.
func (f *fakeTransport) events(t *testing.T) []proto.Envelope {
	t.Helper()

	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]proto.Envelope, 0, len(f.frames))
	for _, frame := range f.frames {
		var env proto.Envelope
		require.NoError(t, json.Unmarshal(frame, &env))
		out = append(out, env)
	}
	return out
}

func (f *fakeTransport) eventsOfKind(t *testing.T, kind string) []proto.Envelope {
	t.Helper()

	var out []proto.Envelope
	for _, env := range f.events(t) {
		if env.Type == kind {
			out = append(out, env)
		}
	}
	return out
}

type testEnv struct {
	clock      *clock.Mock
	registry   *Registry
	dispatcher *Dispatcher
	hub        *Hub
	router     *Router
	monitor    *Monitor
	clients    []*Client
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := zerolog.Nop()
	clk := clock.NewMock()
	clk.Set(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))

	registry := NewRegistry()
	dispatcher := NewDispatcher(clk, DefaultBatchDelay, &logger)
	hub := NewHub(registry, dispatcher, &logger)

	return &testEnv{
		clock:      clk,
		registry:   registry,
		dispatcher: dispatcher,
		hub:        hub,
		router:     NewRouter(registry, hub, clk, DefaultTypingDebounce, &logger),
		monitor:    NewMonitor(registry, clk, DefaultHeartbeatInterval, &logger),
	}
}

// connect registers a client directly, without the presence broadcast.
func (e *testEnv) connect(id, userID string) (*Client, *fakeTransport) {
	ft := &fakeTransport{}
	c := NewClient(id, userID, ft)
	e.registry.Register(c)
	e.clients = append(e.clients, c)
	return c, ft
}

// flush advances the clock past the batch delay and waits for every pending
// flush to finish.
func (e *testEnv) flush(t *testing.T) {
	t.Helper()

	e.clock.Add(DefaultBatchDelay)
	require.Eventually(t, func() bool {
		for _, c := range e.clients {
			if scheduled, _ := c.FlushScheduled(); scheduled || c.Pending() > 0 {
				return false
			}
		}
		return true
	}, 2*time.Second, time.Millisecond)
}

func payloadOf[T any](t *testing.T, env proto.Envelope) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(env.Payload, &v))
	return v
}
