package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/pongserver/internal/model"
)

type ConfigSuite struct {
	suite.Suite
	env map[string]string
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigSuite))
}

func (s *ConfigSuite) SetupTest() {
	s.env = map[string]string{"PONG_JWT_SECRET": "secret"}
}

func (s *ConfigSuite) lookup(key string) (string, bool) {
	v, ok := s.env[key]
	return v, ok
}

func (s *ConfigSuite) TestDefaults() {
	cfg, err := FromEnv(s.lookup)
	s.Require().NoError(err)

	s.Equal(":8080", cfg.Server.Addr)
	s.Equal(StorageTypeMemory, cfg.StorageType)
	s.Equal("secret", cfg.Auth.Secret)
	s.Equal("pongserver", cfg.Auth.Issuer)
	s.Empty(cfg.AdminKeyHash)
	s.Equal(16*time.Millisecond, cfg.Registry.Session.TickInterval)
	s.Equal(5, cfg.Registry.Session.Engine.WinningScore)
	s.Equal(model.AbandonOpponentWins, cfg.Registry.Session.AbandonPolicy)
	s.Equal(5*time.Minute, cfg.Registry.IdleTimeout)
	s.Equal(30*time.Second, cfg.Invite.TTL)
	s.Equal(250*time.Millisecond, cfg.Presence.FlushInterval)
	s.Equal(120.0, cfg.Gateway.InputRate)
	s.Equal(slog.LevelInfo, cfg.LogLevel)
}

func (s *ConfigSuite) TestOverrides() {
	s.env["PONG_ADDR"] = "127.0.0.1:9000"
	s.env["PONG_STORAGE_TYPE"] = "redis"
	s.env["PONG_REDIS_URL"] = "redis://cache:6379/1"
	s.env["PONG_JWT_ISSUER"] = "arcade"
	s.env["PONG_ADMIN_KEY_HASH"] = "$2a$10$hash"
	s.env["PONG_TICK_INTERVAL"] = "20ms"
	s.env["PONG_WINNING_SCORE"] = "11"
	s.env["PONG_IDLE_TIMEOUT"] = "1m"
	s.env["PONG_SWEEP_INTERVAL"] = "5s"
	s.env["PONG_INVITE_TTL"] = "45s"
	s.env["PONG_PRESENCE_FLUSH"] = "100ms"
	s.env["PONG_ABANDON_POLICY"] = "no_winner"
	s.env["PONG_MAX_SESSIONS"] = "10"
	s.env["PONG_INPUT_RATE"] = "60.5"
	s.env["PONG_INPUT_BURST"] = "5"
	s.env["PONG_SEND_BUFFER"] = "64"
	s.env["PONG_LOG_LEVEL"] = "debug"

	cfg, err := FromEnv(s.lookup)
	s.Require().NoError(err)

	s.Equal("127.0.0.1:9000", cfg.Server.Addr)
	s.Equal(StorageTypeRedis, cfg.StorageType)
	s.Equal("redis://cache:6379/1", cfg.Redis.URL)
	s.Equal("arcade", cfg.Auth.Issuer)
	s.Equal("$2a$10$hash", cfg.AdminKeyHash)
	s.Equal(20*time.Millisecond, cfg.Registry.Session.TickInterval)
	s.Equal(11, cfg.Registry.Session.Engine.WinningScore)
	s.Equal(time.Minute, cfg.Registry.IdleTimeout)
	s.Equal(5*time.Second, cfg.Registry.SweepInterval)
	s.Equal(45*time.Second, cfg.Invite.TTL)
	s.Equal(100*time.Millisecond, cfg.Presence.FlushInterval)
	s.Equal(model.AbandonNoWinner, cfg.Registry.Session.AbandonPolicy)
	s.Equal(10, cfg.Registry.MaxSessions)
	s.Equal(60.5, cfg.Gateway.InputRate)
	s.Equal(5, cfg.Gateway.InputBurst)
	s.Equal(64, cfg.Gateway.SendBuffer)
	s.Equal(slog.LevelDebug, cfg.LogLevel)
}

func (s *ConfigSuite) TestBlankValuesKeepDefaults() {
	s.env["PONG_TICK_INTERVAL"] = "  "
	s.env["PONG_STORAGE_TYPE"] = ""

	cfg, err := FromEnv(s.lookup)
	s.Require().NoError(err)
	s.Equal(16*time.Millisecond, cfg.Registry.Session.TickInterval)
	s.Equal(StorageTypeMemory, cfg.StorageType)
}

func (s *ConfigSuite) TestMissingSecret() {
	delete(s.env, "PONG_JWT_SECRET")

	_, err := FromEnv(s.lookup)
	s.Require().Error(err)
	s.Contains(err.Error(), "PONG_JWT_SECRET is required")
}

func (s *ConfigSuite) TestRedisRequiresURL() {
	s.env["PONG_STORAGE_TYPE"] = "redis"

	_, err := FromEnv(s.lookup)
	s.Require().Error(err)
	s.Contains(err.Error(), "PONG_REDIS_URL")
}

func (s *ConfigSuite) TestCollectsEveryProblem() {
	s.env["PONG_STORAGE_TYPE"] = "sqlite"
	s.env["PONG_TICK_INTERVAL"] = "fast"
	s.env["PONG_WINNING_SCORE"] = "0"
	s.env["PONG_ABANDON_POLICY"] = "coin_flip"
	s.env["PONG_INPUT_RATE"] = "-1"
	s.env["PONG_LOG_LEVEL"] = "chatty"

	_, err := FromEnv(s.lookup)
	s.Require().Error(err)
	msg := err.Error()
	s.Contains(msg, "PONG_STORAGE_TYPE")
	s.Contains(msg, "PONG_TICK_INTERVAL")
	s.Contains(msg, "PONG_WINNING_SCORE")
	s.Contains(msg, "PONG_ABANDON_POLICY")
	s.Contains(msg, "PONG_INPUT_RATE")
	s.Contains(msg, "PONG_LOG_LEVEL")
}

func (s *ConfigSuite) TestLoadReadsProcessEnvironment() {
	s.T().Setenv("PONG_JWT_SECRET", "from-env")
	s.T().Setenv("PONG_WINNING_SCORE", "7")

	cfg, err := Load()
	s.Require().NoError(err)
	s.Equal("from-env", cfg.Auth.Secret)
	s.Equal(7, cfg.Registry.Session.Engine.WinningScore)
}
