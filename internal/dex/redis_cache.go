package dex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"liquidityAgent/internal/model"
)

// RedisCacheConfig describes the shared metadata cache connection.
type RedisCacheConfig struct {
	Address  string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
	ChainID  uint64
}

// RedisTokenCache shares token metadata between agent processes.
// It sits in front of a MemoryTokenCache so hot lookups stay local.
type RedisTokenCache struct {
	client *redis.Client
	local  *MemoryTokenCache
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisTokenCache connects to Redis and verifies it with PING.
func NewRedisTokenCache(ctx context.Context, cfg RedisCacheConfig, logger *zap.Logger) (*RedisTokenCache, error) {
	if cfg.Address == "" {
		return nil, errors.New("redis address is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return newRedisTokenCache(client, cfg, logger), nil
}

func newRedisTokenCache(client *redis.Client, cfg RedisCacheConfig, logger *zap.Logger) *RedisTokenCache {
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "agent:token"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisTokenCache{
		client: client,
		local:  NewMemoryTokenCache(),
		prefix: fmt.Sprintf("%s:%d", prefix, cfg.ChainID),
		ttl:    cfg.TTL,
		logger: logger,
	}
}

func (c *RedisTokenCache) key(address common.Address) string {
	return c.prefix + ":" + strings.ToLower(address.Hex())
}

func (c *RedisTokenCache) Get(ctx context.Context, address common.Address) (model.TokenMeta, bool) {
	if meta, ok := c.local.Get(ctx, address); ok {
		return meta, true
	}
	raw, err := c.client.Get(ctx, c.key(address)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("redis token cache get failed", zap.String("token", address.Hex()), zap.Error(err))
		}
		return model.TokenMeta{}, false
	}
	var meta model.TokenMeta
	if err := json.Unmarshal(raw, &meta); err != nil {
		c.logger.Warn("redis token cache entry corrupt", zap.String("token", address.Hex()), zap.Error(err))
		return model.TokenMeta{}, false
	}
	c.local.Set(ctx, address, meta)
	return meta, true
}

func (c *RedisTokenCache) Set(ctx context.Context, address common.Address, meta model.TokenMeta) {
	c.local.Set(ctx, address, meta)
	raw, err := json.Marshal(meta)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, c.key(address), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("redis token cache set failed", zap.String("token", address.Hex()), zap.Error(err))
	}
}

// Close releases the Redis connection pool.
func (c *RedisTokenCache) Close() error {
	return c.client.Close()
}
