package app

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/coder/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/vovakirdan/wirehub/internal/auth"
	"github.com/vovakirdan/wirehub/internal/config"
	"github.com/vovakirdan/wirehub/internal/core"
	transporthttp "github.com/vovakirdan/wirehub/internal/transport/http"
)

// App wires together core and transport layers.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	registry        *core.Registry
	monitor         *core.Monitor
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	if cfg.JWTSecret == "" {
		return nil, errors.New("jwt_secret must be set")
	}
	if cfg.PublishSecret == "" {
		logger.Warn().Msg("publish_secret is empty, POST /publish will reject every request")
	}

	jwtConfig := &auth.JWTConfig{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
	}
	authService := auth.NewService(jwtConfig)

	clk := clock.New()
	registry := core.NewRegistry()
	dispatcher := core.NewDispatcher(clk, cfg.BatchDelay, logger)
	hub := core.NewHub(registry, dispatcher, logger)
	router := core.NewRouter(registry, hub, clk, cfg.TypingDebounce, logger)
	monitor := core.NewMonitor(registry, clk, cfg.HeartbeatInterval, logger)

	server := transporthttp.NewServer(registry, hub, router, authService, cfg, logger)

	logger.Debug().
		Dur("batch_delay", cfg.BatchDelay).
		Dur("typing_debounce", cfg.TypingDebounce).
		Dur("heartbeat_interval", cfg.HeartbeatInterval).
		Msg("hub configured")

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		registry:        registry,
		monitor:         monitor,
		log:             logger,
	}, nil
}

// Run starts the HTTP server and the liveness monitor and blocks until
// context cancellation or a fatal error.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.monitor.Run(gctx)
		return nil
	})

	g.Go(func() error {
		a.log.Info().Str("addr", a.server.Addr).Msg("http server listening")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Int("clients", a.registry.Len()).Msg("shutting down http server")
		a.closeClients()
		return a.server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// closeClients sends a going-away close to every live connection.
// Shutdown does not track hijacked websocket connections.
func (a *App) closeClients() {
	var wg sync.WaitGroup
	for _, c := range a.registry.AllClients() {
		wg.Add(1)
		go func(c *core.Client) {
			defer wg.Done()
			if err := c.Transport().Close(int(websocket.StatusGoingAway), "server shutdown"); err != nil {
				a.log.Debug().Err(err).Str("client_id", c.ID).Msg("close client on shutdown")
			}
		}(c)
	}
	wg.Wait()
}
