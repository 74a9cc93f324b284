package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/mcoot/pongserver/internal/api"
	"github.com/mcoot/pongserver/internal/config"
	"github.com/mcoot/pongserver/internal/dependencies/clock"
	"github.com/mcoot/pongserver/internal/dependencies/random"
	"github.com/mcoot/pongserver/internal/gateway"
	"github.com/mcoot/pongserver/internal/services/auth"
	"github.com/mcoot/pongserver/internal/services/history"
	"github.com/mcoot/pongserver/internal/services/invite"
	"github.com/mcoot/pongserver/internal/services/presence"
	"github.com/mcoot/pongserver/internal/services/registry"
	"github.com/mcoot/pongserver/internal/storage"
	"github.com/mcoot/pongserver/internal/storage/memory"
	redisstorage "github.com/mcoot/pongserver/internal/storage/redis"
)

const startupTimeout = 5 * time.Second

// App contains all wired application components
type App struct {
	Config config.Config
	Logger *slog.Logger

	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	Tokens   *auth.Tokens
	AdminKey *auth.AdminKey
	Recorder *history.Recorder
	Registry *registry.Registry
	Presence *presence.Directory
	Invites  *invite.Coordinator
	Gateway  *gateway.Gateway

	wg sync.WaitGroup
}

// New creates a new application with all dependencies wired
func New(cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	var store storage.Storage
	switch cfg.StorageType {
	case "", config.StorageTypeMemory:
		store = memory.New()
	case config.StorageTypeRedis:
		redisStore, err := redisstorage.New(cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("connecting to redis: %w", err)
		}
		// No presence connection survives a restart
		ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
		err = redisStore.ClearOnlinePlayers(ctx)
		cancel()
		if err != nil {
			_ = redisStore.Close()
			return nil, fmt.Errorf("clearing stale presence: %w", err)
		}
		store = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	return newWithDependencies(cfg, store, clock.New(), random.New(), logger)
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(cfg config.Config, store storage.Storage, clk clock.Clock, rnd random.Random, logger *slog.Logger) (*App, error) {
	tokens, err := auth.NewTokens(cfg.Auth, clk)
	if err != nil {
		return nil, err
	}

	recorder := history.NewRecorder(store, logger)
	reg := registry.New(cfg.Registry, clk, rnd, recorder, logger)
	directory := presence.New(cfg.Presence, store, clk, logger)
	invites := invite.NewCoordinator(cfg.Invite, store, directory, reg, clk, logger)

	return &App{
		Config:   cfg,
		Logger:   logger,
		Storage:  store,
		Clock:    clk,
		Random:   rnd,
		Tokens:   tokens,
		AdminKey: auth.NewAdminKey(cfg.AdminKeyHash),
		Recorder: recorder,
		Registry: reg,
		Presence: directory,
		Invites:  invites,
		Gateway:  gateway.New(cfg.Gateway, tokens, reg, directory, invites, logger),
	}, nil
}

// Router returns the HTTP handler serving the websocket endpoints and the API
func (a *App) Router() http.Handler {
	return api.NewRouter(api.RouterConfig{
		Logger:   a.Logger,
		Tokens:   a.Tokens,
		AdminKey: a.AdminKey,
		Registry: a.Registry,
		History:  a.Recorder,
		Storage:  a.Storage,
		Gateway:  a.Gateway,
	})
}

// Start launches the background sweeps. They stop when ctx is cancelled.
func (a *App) Start(ctx context.Context) {
	for _, run := range []func(context.Context){a.Registry.Run, a.Presence.Run, a.Invites.Run} {
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			run(ctx)
		}()
	}
}

// Shutdown finishes every session, closes every connection, waits for the
// sweeps and pending history writes, then releases storage. Cancel the
// context given to Start first.
func (a *App) Shutdown() error {
	// Sessions first so players still receive game_over
	a.Registry.Shutdown()
	a.Gateway.Shutdown()
	a.wg.Wait()
	a.Recorder.Wait()

	if closer, ok := a.Storage.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
