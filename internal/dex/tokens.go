package dex

import (
	"context"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	agenterrors "liquidityAgent/internal/errors"
	"liquidityAgent/internal/model"
)

// TokenService resolves symbols or addresses into token metadata.
// Lookup order is registry, cache, then an on-chain decimals() read.
type TokenService struct {
	reader   ContractReader
	registry *Registry
	cache    TokenCache
	logger   *zap.Logger
}

func NewTokenService(reader ContractReader, registry *Registry, cache TokenCache, logger *zap.Logger) *TokenService {
	if registry == nil {
		registry = DefaultRegistry()
	}
	if cache == nil {
		cache = NewMemoryTokenCache()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TokenService{reader: reader, registry: registry, cache: cache, logger: logger}
}

// Registry exposes the static token list.
func (s *TokenService) Registry() *Registry {
	return s.registry
}

// Resolve accepts a registered symbol or a hex address.
func (s *TokenService) Resolve(ctx context.Context, token string) (model.TokenMeta, error) {
	token = strings.TrimSpace(token)
	if meta, ok := s.registry.Lookup(token); ok {
		return meta, nil
	}
	if !common.IsHexAddress(token) {
		return model.TokenMeta{}, agenterrors.Newf(agenterrors.CodeTokenResolution, "unknown token symbol or invalid address: %q", token)
	}
	return s.Meta(ctx, common.HexToAddress(token))
}

// Meta returns metadata for an address.
func (s *TokenService) Meta(ctx context.Context, address common.Address) (model.TokenMeta, error) {
	if meta, ok := s.registry.ByAddress(address); ok {
		return meta, nil
	}
	if meta, ok := s.cache.Get(ctx, address); ok {
		return meta, nil
	}

	meta, err := FetchTokenMeta(ctx, s.reader, address, s.logger)
	if err != nil {
		return model.TokenMeta{}, agenterrors.Wrap(agenterrors.CodeTokenResolution, err, "fetch decimals for "+address.Hex())
	}
	s.cache.Set(ctx, address, meta)
	s.logger.Debug("token metadata fetched",
		zap.String("token", address.Hex()),
		zap.String("symbol", meta.Symbol),
		zap.Uint8("decimals", meta.Decimals),
	)
	return meta, nil
}

// Decimals returns the decimals of an address.
func (s *TokenService) Decimals(ctx context.Context, address common.Address) (uint8, error) {
	meta, err := s.Meta(ctx, address)
	if err != nil {
		return 0, err
	}
	return meta.Decimals, nil
}
