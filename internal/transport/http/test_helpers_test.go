package http

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirehub/internal/auth"
	"github.com/vovakirdan/wirehub/internal/config"
	"github.com/vovakirdan/wirehub/internal/core"
	"github.com/vovakirdan/wirehub/internal/proto"
)

const (
	testJWTSecret     = "test-secret"
	testPublishSecret = "publish-secret"
)

type testServer struct {
	*httptest.Server
	registry *core.Registry
	monitor  *core.Monitor
	auth     *auth.Service
}

func startTestServer(t *testing.T, mutate ...func(*config.Config)) *testServer {
	t.Helper()

	cfg := config.Default()
	cfg.Addr = ":0"
	cfg.JWTSecret = testJWTSecret
	cfg.PublishSecret = testPublishSecret
	cfg.BatchDelay = 5 * time.Millisecond
	for _, fn := range mutate {
		fn(&cfg)
	}

	logger := zerolog.Nop()
	clk := clock.New()
	registry := core.NewRegistry()
	dispatcher := core.NewDispatcher(clk, cfg.BatchDelay, &logger)
	hub := core.NewHub(registry, dispatcher, &logger)
	router := core.NewRouter(registry, hub, clk, cfg.TypingDebounce, &logger)
	monitor := core.NewMonitor(registry, clk, cfg.HeartbeatInterval, &logger)
	authService := auth.NewService(&auth.JWTConfig{Secret: []byte(cfg.JWTSecret)})

	server := NewServer(registry, hub, router, authService, &cfg, &logger)
	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return &testServer{Server: ts, registry: registry, monitor: monitor, auth: authService}
}

func (s *testServer) token(t *testing.T, userID string) string {
	t.Helper()
	token, err := s.auth.IssueToken(userID, time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return token
}

func (s *testServer) wsURL(token string) string {
	u := strings.Replace(s.URL, "http", "ws", 1) + "/ws"
	if token != "" {
		u += "?token=" + token
	}
	return u
}

// dial connects as userID and waits until the registry sees the connection.
func (s *testServer) dial(ctx context.Context, t *testing.T, userID string) *websocket.Conn {
	t.Helper()
	before := s.registry.Len()
	conn, _, err := websocket.Dial(ctx, s.wsURL(s.token(t, userID)), nil)
	if err != nil {
		t.Fatalf("dial %s: %v", userID, err)
	}
	t.Cleanup(func() { _ = conn.CloseNow() })
	waitFor(t, func() bool { return s.registry.Len() > before })
	return conn
}

func (s *testServer) members(channelID string) int {
	return len(s.registry.ClientsByChannel(channelID))
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func send(ctx context.Context, t *testing.T, conn *websocket.Conn, kind string, payload any) {
	t.Helper()
	env := map[string]any{"type": kind}
	if payload != nil {
		env["payload"] = payload
	}
	if err := wsjson.Write(ctx, conn, env); err != nil {
		t.Fatalf("write %s: %v", kind, err)
	}
}

// readKind reads frames until one of the wanted kind arrives.
func readKind(ctx context.Context, t *testing.T, conn *websocket.Conn, kind string) proto.Envelope {
	t.Helper()
	for {
		var env proto.Envelope
		if err := wsjson.Read(ctx, conn, &env); err != nil {
			t.Fatalf("waiting for %s: %v", kind, err)
		}
		if env.Type == kind {
			return env
		}
	}
}

func decodePayload[T any](t *testing.T, env proto.Envelope) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(env.Payload, &v); err != nil {
		t.Fatalf("decode %s payload: %v", env.Type, err)
	}
	return v
}
