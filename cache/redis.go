// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package cache keeps live election tallies in Redis so that dashboards
// polling GET /elections/{id} do not recount every ballot on each request.
// The store remains the source of truth; entries are dropped on every vote.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/danielhkuo/boardvote/election"
	"github.com/danielhkuo/boardvote/models"
)

const DefaultTTL = 30 * time.Second

type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Redis{client: client, ttl: ttl}
}

// Connect dials addr and verifies the server answers PING.
func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	opts, err := redis.ParseURL(addr)
	if err != nil {
		// Plain host:port
		opts = &redis.Options{Addr: addr}
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

func key(electionID string) string {
	return "election:" + electionID + ":results"
}

func (c *Redis) Get(ctx context.Context, electionID string) (*models.Results, error) {
	raw, err := c.client.Get(ctx, key(electionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read tally: %w", err)
	}

	var results models.Results
	if err := json.Unmarshal(raw, &results); err != nil {
		return nil, fmt.Errorf("failed to decode tally: %w", err)
	}
	return &results, nil
}

func (c *Redis) Set(ctx context.Context, results models.Results) error {
	raw, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("failed to encode tally: %w", err)
	}
	if err := c.client.Set(ctx, key(results.ElectionID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write tally: %w", err)
	}
	return nil
}

func (c *Redis) Invalidate(ctx context.Context, electionID string) error {
	if err := c.client.Del(ctx, key(electionID)).Err(); err != nil {
		return fmt.Errorf("failed to drop tally: %w", err)
	}
	return nil
}

var _ election.TallyCache = (*Redis)(nil)
