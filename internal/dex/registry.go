package dex

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"

	"liquidityAgent/internal/model"
)

// Well-known Base mainnet tokens.
var defaultTokens = []model.TokenMeta{
	{Symbol: "EURC", Name: "EURC", Address: "0x60a3E35Cc302bFA44Cb288Bc5a4F316Fdb1adb42", Decimals: 6},
	{Symbol: "USDC", Name: "USD Coin", Address: "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913", Decimals: 6},
}

// Registry maps well-known symbols to token metadata.
type Registry struct {
	bySymbol  map[string]model.TokenMeta
	byAddress map[common.Address]model.TokenMeta
}

type registryFile struct {
	Tokens []struct {
		Symbol   string `yaml:"symbol"`
		Name     string `yaml:"name"`
		Address  string `yaml:"address"`
		Decimals *uint8 `yaml:"decimals"`
	} `yaml:"tokens"`
}

// NewRegistry builds a registry from entries. Later entries override earlier ones.
func NewRegistry(tokens ...model.TokenMeta) (*Registry, error) {
	r := &Registry{
		bySymbol:  make(map[string]model.TokenMeta),
		byAddress: make(map[common.Address]model.TokenMeta),
	}
	for _, token := range tokens {
		if err := r.add(token); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// DefaultRegistry holds EURC and USDC.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(defaultTokens...)
	if err != nil {
		panic(err)
	}
	return r
}

// LoadRegistry reads a YAML token list on top of the defaults. An empty path returns the defaults.
func LoadRegistry(path string) (*Registry, error) {
	if path == "" {
		return DefaultRegistry(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read token registry: %w", err)
	}
	var file registryFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse token registry: %w", err)
	}

	tokens := append([]model.TokenMeta(nil), defaultTokens...)
	for i, entry := range file.Tokens {
		if entry.Decimals == nil {
			return nil, fmt.Errorf("token registry entry %d (%s): decimals are required", i, entry.Symbol)
		}
		tokens = append(tokens, model.TokenMeta{
			Symbol:   entry.Symbol,
			Name:     entry.Name,
			Address:  entry.Address,
			Decimals: *entry.Decimals,
		})
	}
	return NewRegistry(tokens...)
}

func (r *Registry) add(token model.TokenMeta) error {
	symbol := strings.ToUpper(strings.TrimSpace(token.Symbol))
	if symbol == "" {
		return fmt.Errorf("token symbol is required")
	}
	if !common.IsHexAddress(token.Address) {
		return fmt.Errorf("token %s: invalid address %q", symbol, token.Address)
	}
	address := common.HexToAddress(token.Address)
	token.Symbol = symbol
	token.Address = address.Hex()
	token.Source = model.TokenSourceRegistry

	if prev, ok := r.bySymbol[symbol]; ok {
		delete(r.byAddress, common.HexToAddress(prev.Address))
	}
	r.bySymbol[symbol] = token
	r.byAddress[address] = token
	return nil
}

// Lookup finds a token by symbol, case-insensitively.
func (r *Registry) Lookup(symbol string) (model.TokenMeta, bool) {
	meta, ok := r.bySymbol[strings.ToUpper(strings.TrimSpace(symbol))]
	return meta, ok
}

// ByAddress finds a registered token by address.
func (r *Registry) ByAddress(address common.Address) (model.TokenMeta, bool) {
	meta, ok := r.byAddress[address]
	return meta, ok
}

// Tokens returns every registered token sorted by symbol.
func (r *Registry) Tokens() []model.TokenMeta {
	out := make([]model.TokenMeta, 0, len(r.bySymbol))
	for _, meta := range r.bySymbol {
		out = append(out, meta)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}
