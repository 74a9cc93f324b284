package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mcoot/pongserver/internal/dependencies/clock"
	"github.com/mcoot/pongserver/internal/model"
)

// Config holds token settings
type Config struct {
	Secret   string
	Issuer   string // Checked when set
	TokenTTL time.Duration
}

// DefaultConfig returns default token settings. Secret has no default.
func DefaultConfig() Config {
	return Config{
		Issuer:   "pongserver",
		TokenTTL: 24 * time.Hour,
	}
}

// claims carries the player identity. Older tokens only set sub.
type claims struct {
	UserID string `json:"user_id,omitempty"`
	jwt.RegisteredClaims
}

// Tokens validates and issues HS256 bearer tokens
type Tokens struct {
	secret []byte
	cfg    Config
	clock  clock.Clock
}

// NewTokens creates a token validator
func NewTokens(cfg Config, clock clock.Clock) (*Tokens, error) {
	if cfg.Secret == "" {
		return nil, errors.New("token secret is required")
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = DefaultConfig().TokenTTL
	}
	return &Tokens{
		secret: []byte(cfg.Secret),
		cfg:    cfg,
		clock:  clock,
	}, nil
}

// Issue signs a token for player. The AI identity cannot be issued.
func (t *Tokens) Issue(player model.PlayerID) (string, error) {
	if player.Reserved() {
		return "", fmt.Errorf("player id %q is reserved", player)
	}
	now := t.clock.Now()
	c := claims{
		UserID: string(player),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   string(player),
			Issuer:    t.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.cfg.TokenTTL)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Validate returns the player a token was issued to. Every failure wraps
// model.ErrAuthRejected.
func (t *Tokens) Validate(token string) (model.PlayerID, error) {
	if token == "" {
		return "", fmt.Errorf("%w: missing token", model.ErrAuthRejected)
	}

	opts := []jwt.ParserOption{
		jwt.WithTimeFunc(t.clock.Now),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	}
	if t.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(t.cfg.Issuer))
	}

	parsed, err := jwt.ParseWithClaims(token, &claims{}, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", tok.Header["alg"])
		}
		return t.secret, nil
	}, opts...)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return "", fmt.Errorf("%w: token expired", model.ErrAuthRejected)
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return "", fmt.Errorf("%w: invalid signature", model.ErrAuthRejected)
		default:
			return "", fmt.Errorf("%w: %v", model.ErrAuthRejected, err)
		}
	}

	c, ok := parsed.Claims.(*claims)
	if !ok || !parsed.Valid {
		return "", fmt.Errorf("%w: invalid claims", model.ErrAuthRejected)
	}

	player := strings.TrimSpace(c.UserID)
	if player == "" {
		player = strings.TrimSpace(c.Subject)
	}
	if player == "" {
		return "", fmt.Errorf("%w: token has no player", model.ErrAuthRejected)
	}
	if model.PlayerID(player).Reserved() {
		return "", fmt.Errorf("%w: player id %q is reserved", model.ErrAuthRejected, player)
	}
	return model.PlayerID(player), nil
}

// BearerToken extracts the token from an Authorization header value
func BearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(header[len(prefix):]), true
}
