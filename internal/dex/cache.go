package dex

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"liquidityAgent/internal/model"
)

// TokenCache stores immutable token metadata by address.
type TokenCache interface {
	Get(ctx context.Context, address common.Address) (model.TokenMeta, bool)
	Set(ctx context.Context, address common.Address, meta model.TokenMeta)
}

// MemoryTokenCache caches token metadata for the life of the process.
type MemoryTokenCache struct {
	mu   sync.RWMutex
	data map[common.Address]model.TokenMeta
}

func NewMemoryTokenCache() *MemoryTokenCache {
	return &MemoryTokenCache{data: make(map[common.Address]model.TokenMeta)}
}

func (c *MemoryTokenCache) Get(_ context.Context, address common.Address) (model.TokenMeta, bool) {
	c.mu.RLock()
	meta, ok := c.data[address]
	c.mu.RUnlock()
	return meta, ok
}

func (c *MemoryTokenCache) Set(_ context.Context, address common.Address, meta model.TokenMeta) {
	c.mu.Lock()
	c.data[address] = meta
	c.mu.Unlock()
}
