package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"livepoll/internal/model"

	"github.com/redis/go-redis/v9"
)

// SessionCache holds the public session view keyed by join code
type SessionCache interface {
	SetMeta(ctx context.Context, code string, meta *model.SessionMeta) error
	GetMeta(ctx context.Context, code string) (*model.SessionMeta, error)
	Delete(ctx context.Context, code string) error
	Exists(ctx context.Context, code string) (bool, error)
}

type sessionCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionCache creates a new session cache
func NewSessionCache(client *redis.Client, ttl time.Duration) SessionCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &sessionCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *sessionCache) key(code string) string {
	return fmt.Sprintf("session:code:%s", code)
}

func (c *sessionCache) SetMeta(ctx context.Context, code string, meta *model.SessionMeta) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(code), data, c.ttl).Err()
}

func (c *sessionCache) GetMeta(ctx context.Context, code string) (*model.SessionMeta, error) {
	data, err := c.client.Get(ctx, c.key(code)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var meta model.SessionMeta
	if err := json.Unmarshal([]byte(data), &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (c *sessionCache) Delete(ctx context.Context, code string) error {
	return c.client.Del(ctx, c.key(code)).Err()
}

func (c *sessionCache) Exists(ctx context.Context, code string) (bool, error) {
	n, err := c.client.Exists(ctx, c.key(code)).Result()
	return n > 0, err
}
