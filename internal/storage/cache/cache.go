// Package cache provides a Redis-backed read-through cache for combatants.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cory-johannsen/duel/internal/config"
	"github.com/cory-johannsen/duel/internal/game/combat"
)

// ErrCacheMiss is returned by Get when no entry exists for the ID.
var ErrCacheMiss = errors.New("cache miss")

const (
	// Key pattern: combatant:{id}
	keyPrefix  = "combatant:"
	defaultTTL = 10 * time.Minute
)

// entry is the JSON shape stored under a combatant key.
type entry struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Health      int    `json:"health"`
	MaxHealth   int    `json:"max_health"`
	AttackPower int    `json:"attack_power"`
	Defense     int    `json:"defense"`
}

// CombatantCache stores combatant snapshots in Redis with a TTL.
// It is safe for concurrent use.
type CombatantCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// New wraps client. A ttl <= 0 selects a ten minute default.
//
// Precondition: client must be non-nil.
func New(client redis.UniversalClient, ttl time.Duration) *CombatantCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &CombatantCache{client: client, ttl: ttl}
}

// Dial connects to the server in cfg and verifies it with PING.
//
// Precondition: cfg.Enabled() is true.
// Postcondition: Returns a ready cache or an error; the caller must Close it.
func Dial(ctx context.Context, cfg config.RedisConfig) (*CombatantCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("pinging redis at %s: %w", cfg.Addr, err)
	}
	return New(client, cfg.TTL), nil
}

// Get returns the cached combatant for id.
//
// Postcondition: Returns a fresh *Combatant, ErrCacheMiss, or a transport or
// decode error.
func (c *CombatantCache) Get(ctx context.Context, id string) (*combat.Combatant, error) {
	raw, err := c.client.Get(ctx, key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("reading combatant %q from cache: %w", id, err)
	}
	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, fmt.Errorf("decoding cached combatant %q: %w", id, err)
	}
	return &combat.Combatant{
		ID:          e.ID,
		Name:        e.Name,
		Health:      e.Health,
		MaxHealth:   e.MaxHealth,
		AttackPower: e.AttackPower,
		Defense:     e.Defense,
	}, nil
}

// Set stores a snapshot of cb for the configured TTL.
//
// Precondition: cb must be non-nil with a non-empty ID.
func (c *CombatantCache) Set(ctx context.Context, cb *combat.Combatant) error {
	raw, err := json.Marshal(entry{
		ID:          cb.ID,
		Name:        cb.Name,
		Health:      cb.Health,
		MaxHealth:   cb.MaxHealth,
		AttackPower: cb.AttackPower,
		Defense:     cb.Defense,
	})
	if err != nil {
		return fmt.Errorf("encoding combatant %q: %w", cb.ID, err)
	}
	if err := c.client.Set(ctx, key(cb.ID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("writing combatant %q to cache: %w", cb.ID, err)
	}
	return nil
}

// Invalidate removes the entries for ids. Missing entries are ignored.
func (c *CombatantCache) Invalidate(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = key(id)
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("invalidating combatants: %w", err)
	}
	return nil
}

// Close releases the underlying client.
func (c *CombatantCache) Close() error {
	return c.client.Close()
}

func key(id string) string { return keyPrefix + id }
