package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/mcoot/pongserver/internal/api"
	"github.com/mcoot/pongserver/internal/gateway"
	"github.com/mcoot/pongserver/internal/model"
	"github.com/mcoot/pongserver/internal/services/auth"
	"github.com/mcoot/pongserver/internal/services/invite"
	"github.com/mcoot/pongserver/internal/services/presence"
	"github.com/mcoot/pongserver/internal/services/registry"
	redisstorage "github.com/mcoot/pongserver/internal/storage/redis"
)

// Storage backends
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// Config is the server's runtime configuration
type Config struct {
	Server       api.ServerConfig
	StorageType  string
	Redis        redisstorage.Config
	Auth         auth.Config
	AdminKeyHash string
	Registry     registry.Config
	Invite       invite.Config
	Presence     presence.Config
	Gateway      gateway.Config
	LogLevel     slog.Level
}

// Default returns the configuration used when no variables are set. The
// JWT secret has no default.
func Default() Config {
	return Config{
		Server:      api.DefaultServerConfig(),
		StorageType: StorageTypeMemory,
		Redis:       redisstorage.DefaultConfig(),
		Auth:        auth.DefaultConfig(),
		Registry:    registry.DefaultConfig(),
		Invite:      invite.DefaultConfig(),
		Presence:    presence.DefaultConfig(),
		Gateway:     gateway.DefaultConfig(),
		LogLevel:    slog.LevelInfo,
	}
}

// Load reads an optional .env file and then the PONG_* environment. Every
// invalid value is reported in the returned error.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv builds a Config from a variable lookup
func FromEnv(lookup func(string) (string, bool)) (*Config, error) {
	cfg := Default()
	p := &parser{lookup: lookup}

	p.str("PONG_ADDR", &cfg.Server.Addr)

	p.str("PONG_STORAGE_TYPE", &cfg.StorageType)
	switch cfg.StorageType {
	case StorageTypeMemory:
	case StorageTypeRedis:
		if !p.str("PONG_REDIS_URL", &cfg.Redis.URL) {
			p.problem("PONG_REDIS_URL is required when PONG_STORAGE_TYPE=redis")
		}
	default:
		p.problem(fmt.Sprintf("PONG_STORAGE_TYPE must be memory or redis, got %q", cfg.StorageType))
	}

	if !p.str("PONG_JWT_SECRET", &cfg.Auth.Secret) {
		p.problem("PONG_JWT_SECRET is required")
	}
	p.str("PONG_JWT_ISSUER", &cfg.Auth.Issuer)
	p.str("PONG_ADMIN_KEY_HASH", &cfg.AdminKeyHash)

	p.duration("PONG_TICK_INTERVAL", &cfg.Registry.Session.TickInterval)
	p.positiveInt("PONG_WINNING_SCORE", &cfg.Registry.Session.Engine.WinningScore)
	p.duration("PONG_IDLE_TIMEOUT", &cfg.Registry.IdleTimeout)
	p.duration("PONG_SWEEP_INTERVAL", &cfg.Registry.SweepInterval)
	p.positiveInt("PONG_MAX_SESSIONS", &cfg.Registry.MaxSessions)
	p.duration("PONG_INVITE_TTL", &cfg.Invite.TTL)
	p.duration("PONG_PRESENCE_FLUSH", &cfg.Presence.FlushInterval)
	p.positiveInt("PONG_INPUT_BURST", &cfg.Gateway.InputBurst)
	p.positiveInt("PONG_SEND_BUFFER", &cfg.Gateway.SendBuffer)

	if raw, ok := p.get("PONG_ABANDON_POLICY"); ok {
		policy, valid := model.ParseAbandonPolicy(raw)
		if !valid {
			p.problem(fmt.Sprintf("PONG_ABANDON_POLICY must be opponent_wins or no_winner, got %q", raw))
		} else {
			cfg.Registry.Session.AbandonPolicy = policy
		}
	}

	if raw, ok := p.get("PONG_INPUT_RATE"); ok {
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil || value <= 0 {
			p.problem(fmt.Sprintf("PONG_INPUT_RATE must be a positive number, got %q", raw))
		} else {
			cfg.Gateway.InputRate = value
		}
	}

	if raw, ok := p.get("PONG_LOG_LEVEL"); ok {
		if err := cfg.LogLevel.UnmarshalText([]byte(raw)); err != nil {
			p.problem(fmt.Sprintf("PONG_LOG_LEVEL must be debug, info, warn or error, got %q", raw))
		}
	}

	if len(p.problems) > 0 {
		return nil, errors.New(strings.Join(p.problems, "; "))
	}
	return &cfg, nil
}

type parser struct {
	lookup   func(string) (string, bool)
	problems []string
}

func (p *parser) problem(msg string) {
	p.problems = append(p.problems, msg)
}

// get returns the trimmed value of a set, non-empty variable
func (p *parser) get(key string) (string, bool) {
	raw, ok := p.lookup(key)
	if !ok {
		return "", false
	}
	raw = strings.TrimSpace(raw)
	return raw, raw != ""
}

func (p *parser) str(key string, dst *string) bool {
	raw, ok := p.get(key)
	if ok {
		*dst = raw
	}
	return ok
}

func (p *parser) duration(key string, dst *time.Duration) {
	raw, ok := p.get(key)
	if !ok {
		return
	}
	value, err := time.ParseDuration(raw)
	if err != nil || value <= 0 {
		p.problem(fmt.Sprintf("%s must be a positive duration, got %q", key, raw))
		return
	}
	*dst = value
}

func (p *parser) positiveInt(key string, dst *int) {
	raw, ok := p.get(key)
	if !ok {
		return
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		p.problem(fmt.Sprintf("%s must be a positive integer, got %q", key, raw))
		return
	}
	*dst = value
}
