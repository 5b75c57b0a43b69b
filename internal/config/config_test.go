package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)
	require.Equal(t, uint64(8453), cfg.ChainID)
	require.Equal(t, SettleDelay, cfg.SettleMode)
	require.Equal(t, 5*time.Second, cfg.SettleDelay)
	require.Equal(t, 30*time.Minute, cfg.SwapDeadline)
	require.Equal(t, int64(100), cfg.SlippageBps)
	require.Equal(t, "0.005", cfg.Volatility.String())
	require.Equal(t, int32(50), cfg.TickSpacing)
	require.Equal(t, uint8(6), cfg.DecimalsA)
	require.Equal(t, PriceSourceDexScreener, cfg.PriceSource)
	require.Error(t, cfg.RequireWallet())
}

func TestLoadEnvAndFlags(t *testing.T) {
	t.Setenv("AGENT_RPC", "https://base.example")
	t.Setenv("AGENT_PRIVATE_KEY", "0xabc")
	t.Setenv("AGENT_SETTLE_MODE", "receipt")
	t.Setenv("AGENT_TOKENS", "EURC, USDC,,")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int64("slippage-bps", 100, "")
	flags.String("volatility", "0.005", "")
	require.NoError(t, flags.Parse([]string{"--slippage-bps=50", "--volatility=0.01"}))

	cfg, err := Load("", flags)
	require.NoError(t, err)
	require.Equal(t, "https://base.example", cfg.RPCURL)
	require.Equal(t, SettleReceipt, cfg.SettleMode)
	require.Equal(t, []string{"EURC", "USDC"}, cfg.Tokens)
	require.Equal(t, int64(50), cfg.SlippageBps)
	require.Equal(t, "0.01", cfg.Volatility.String())
	require.NoError(t, cfg.RequireWallet())
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agent.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
rpc: https://file.example
tick-spacing: 200
default-stable: true
tokens:
  - EURC
  - WETH
`), 0o644))

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	require.Equal(t, "https://file.example", cfg.RPCURL)
	require.Equal(t, int32(200), cfg.TickSpacing)
	require.True(t, cfg.DefaultStable)
	require.Equal(t, []string{"EURC", "WETH"}, cfg.Tokens)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"AGENT_SETTLE_MODE":  "forever",
		"AGENT_PRICE_SOURCE": "oracle",
		"AGENT_SLIPPAGE_BPS": "10000",
		"AGENT_VOLATILITY":   "lots",
		"AGENT_ROUTER":       "not-an-address",
		"AGENT_TICK_SPACING": "0",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load("", nil)
			require.Error(t, err)
		})
	}
}

func TestLoadServe(t *testing.T) {
	t.Setenv("AGENT_ADDR", "127.0.0.1:9000")
	cfg, err := LoadServe("", nil)
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:9000", cfg.Addr)
	require.Equal(t, 3*time.Minute+30*time.Second, cfg.WriteTimeout)
	require.Equal(t, 50, int(cfg.TickSpacing))
}

func TestMissingConfigFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), nil)
	require.Error(t, err)
}
