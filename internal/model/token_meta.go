package model

// Token metadata sources.
const (
	TokenSourceRegistry = "registry"
	TokenSourceChain    = "chain"
)

// TokenMeta captures ERC20 metadata. Decimals are only trusted when they
// come from the registry or a successful decimals() read.
type TokenMeta struct {
	Address  string `json:"address"`
	Decimals uint8  `json:"decimals"`
	Symbol   string `json:"symbol,omitempty"`
	Name     string `json:"name,omitempty"`
	Source   string `json:"source,omitempty"`
}

// Label returns the symbol when known, otherwise the address.
func (m TokenMeta) Label() string {
	if m.Symbol != "" {
		return m.Symbol
	}
	return m.Address
}
