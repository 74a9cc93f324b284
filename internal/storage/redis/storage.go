package redis

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/pongserver/internal/model"
	"github.com/mcoot/pongserver/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return NewWithClient(client, cfg), nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = storage.DefaultHistoryLimit
	}
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Presence operations

func (s *Storage) AddOnlinePlayer(ctx context.Context, player model.PlayerID) error {
	return s.client.SAdd(ctx, onlineKey(), string(player)).Err()
}

func (s *Storage) RemoveOnlinePlayer(ctx context.Context, player model.PlayerID) error {
	return s.client.SRem(ctx, onlineKey(), string(player)).Err()
}

func (s *Storage) ListOnlinePlayers(ctx context.Context) ([]model.PlayerID, error) {
	members, err := s.client.SMembers(ctx, onlineKey()).Result()
	if err != nil {
		return nil, err
	}

	players := make([]model.PlayerID, len(members))
	for i, m := range members {
		players[i] = model.PlayerID(m)
	}
	slices.Sort(players)
	return players, nil
}

func (s *Storage) ClearOnlinePlayers(ctx context.Context) error {
	return s.client.Del(ctx, onlineKey()).Err()
}

// Invitation operations

func (s *Storage) SaveInvitation(ctx context.Context, inv *model.Invitation) error {
	data, err := json.Marshal(inv)
	if err != nil {
		return err
	}

	key := invitationKey(inv.From, inv.To)

	// Use pipeline for atomic save + index update
	pipe := s.client.Pipeline()
	pipe.Set(ctx, key, data, s.cfg.InvitationTTL)
	pipe.SAdd(ctx, invitationIndexKey(), key)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetInvitation(ctx context.Context, from, to model.PlayerID) (*model.Invitation, error) {
	data, err := s.client.Get(ctx, invitationKey(from, to)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrInvitationNotFound
		}
		return nil, err
	}

	var inv model.Invitation
	if err := json.Unmarshal(data, &inv); err != nil {
		return nil, err
	}
	return &inv, nil
}

func (s *Storage) DeleteInvitation(ctx context.Context, from, to model.PlayerID) error {
	key := invitationKey(from, to)

	pipe := s.client.Pipeline()
	pipe.Del(ctx, key)
	pipe.SRem(ctx, invitationIndexKey(), key)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *Storage) ListInvitations(ctx context.Context) ([]*model.Invitation, error) {
	indexKey := invitationIndexKey()

	keys, err := s.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return nil, err
	}

	if len(keys) == 0 {
		return []*model.Invitation{}, nil
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	invitations := make([]*model.Invitation, 0, len(values))
	var stale []interface{}
	for i, val := range values {
		if val == nil {
			stale = append(stale, keys[i]) // Expired by TTL
			continue
		}
		var inv model.Invitation
		if err := json.Unmarshal([]byte(val.(string)), &inv); err != nil {
			continue // Skip invalid data
		}
		invitations = append(invitations, &inv)
	}

	if len(stale) > 0 {
		if err := s.client.SRem(ctx, indexKey, stale...).Err(); err != nil {
			return nil, err
		}
	}

	return invitations, nil
}

// Match history operations

func (s *Storage) SaveMatchResult(ctx context.Context, result *model.MatchResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}

	// Each participant gets its own capped list
	pipe := s.client.Pipeline()
	for _, player := range result.Players() {
		key := historyKey(player)
		pipe.LPush(ctx, key, data)
		pipe.LTrim(ctx, key, 0, int64(s.cfg.HistoryLimit-1))
		if s.cfg.HistoryTTL > 0 {
			pipe.Expire(ctx, key, s.cfg.HistoryTTL)
		}
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) ListMatchResults(ctx context.Context, player model.PlayerID, limit int) ([]*model.MatchResult, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}

	values, err := s.client.LRange(ctx, historyKey(player), 0, stop).Result()
	if err != nil {
		return nil, err
	}

	results := make([]*model.MatchResult, 0, len(values))
	for _, val := range values {
		var result model.MatchResult
		if err := json.Unmarshal([]byte(val), &result); err != nil {
			continue // Skip invalid data
		}
		results = append(results, &result)
	}
	return results, nil
}
