package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Settlement modes.
const (
	SettleDelay   = "delay"
	SettleReceipt = "receipt"
)

// Price sources for range recommendations.
const (
	PriceSourceDexScreener = "dexscreener"
	PriceSourcePool        = "pool"
)

// Config holds configuration values loaded from .env, flags, env, or config file.
type Config struct {
	RPCURL     string
	ChainID    uint64
	PrivateKey string

	Router          string
	Factory         string
	Quoter          string
	PositionManager string
	TokensFile      string
	Tokens          []string
	Token0          string
	Token1          string

	DefaultStable bool
	SettleMode    string
	SettleDelay   time.Duration
	SettleTimeout time.Duration
	SettleBackoff time.Duration
	SwapTimeout   time.Duration
	SwapDeadline  time.Duration
	SlippageBps   int64
	GasMultiplier uint64
	MaxRetries    int
	RetryBackoff  time.Duration

	PriceSource    string
	Pair           string
	DexScreenerURL string
	Volatility     decimal.Decimal
	TickSpacing    int32
	DecimalsA      uint8
	DecimalsB      uint8

	RedisAddr string
	RedisTTL  time.Duration
	Journal   string
	PGDSN     string

	LogLevel string
}

// Load merges .env, config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return Config{}, err
	}
	return fromViper(v)
}

func newViper(cfgFile string, flags *pflag.FlagSet) (*viper.Viper, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("AGENT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}
	return v, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("chain-id", uint64(8453))
	v.SetDefault("router", "0xcF77a3Ba9A5CA399B7c97c74d54e5b1Beb874E43")
	v.SetDefault("factory", "0x420DD381b31aEf6683db6B902084cB0FFECe40Da")
	v.SetDefault("quoter", "0x3EF68D3f7664b2805D4E88381b64868a56f88bC4")
	v.SetDefault("position-manager", "0x827922686190790b37229fd06084350E74485b72")
	v.SetDefault("token0", "0x60a3E35Cc302bFA44Cb288Bc5a4F316Fdb1adb42")
	v.SetDefault("token1", "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913")
	v.SetDefault("default-stable", false)
	v.SetDefault("settle-mode", SettleDelay)
	v.SetDefault("settle-delay", 5*time.Second)
	v.SetDefault("settle-timeout", 2*time.Minute)
	v.SetDefault("settle-backoff", time.Second)
	v.SetDefault("swap-timeout", 3*time.Minute)
	v.SetDefault("swap-deadline", 30*time.Minute)
	v.SetDefault("slippage-bps", int64(100))
	v.SetDefault("gas-multiplier", uint64(120))
	v.SetDefault("max-retries", 3)
	v.SetDefault("retry-backoff", 500*time.Millisecond)
	v.SetDefault("price-source", PriceSourceDexScreener)
	v.SetDefault("pair", "0xE846373C1a92B167b4E9cd5d8E4d6B1Db9E90EC7")
	v.SetDefault("dexscreener-url", "https://api.dexscreener.com")
	v.SetDefault("volatility", "0.005")
	v.SetDefault("tick-spacing", 50)
	v.SetDefault("decimals-a", 6)
	v.SetDefault("decimals-b", 6)
	v.SetDefault("redis-ttl", 24*time.Hour)
	v.SetDefault("journal", "./data/journal.jsonl")
	v.SetDefault("log-level", "info")
}

func fromViper(v *viper.Viper) (Config, error) {
	volatility, err := decimal.NewFromString(strings.TrimSpace(v.GetString("volatility")))
	if err != nil {
		return Config{}, fmt.Errorf("parse volatility: %w", err)
	}

	cfg := Config{
		RPCURL:          v.GetString("rpc"),
		ChainID:         v.GetUint64("chain-id"),
		PrivateKey:      v.GetString("private-key"),
		Router:          v.GetString("router"),
		Factory:         v.GetString("factory"),
		Quoter:          v.GetString("quoter"),
		PositionManager: v.GetString("position-manager"),
		TokensFile:      v.GetString("tokens-file"),
		Tokens:          getStringSlice(v, "tokens"),
		Token0:          v.GetString("token0"),
		Token1:          v.GetString("token1"),
		DefaultStable:   v.GetBool("default-stable"),
		SettleMode:      strings.ToLower(v.GetString("settle-mode")),
		SettleDelay:     v.GetDuration("settle-delay"),
		SettleTimeout:   v.GetDuration("settle-timeout"),
		SettleBackoff:   v.GetDuration("settle-backoff"),
		SwapTimeout:     v.GetDuration("swap-timeout"),
		SwapDeadline:    v.GetDuration("swap-deadline"),
		SlippageBps:     v.GetInt64("slippage-bps"),
		GasMultiplier:   v.GetUint64("gas-multiplier"),
		MaxRetries:      v.GetInt("max-retries"),
		RetryBackoff:    v.GetDuration("retry-backoff"),
		PriceSource:     strings.ToLower(v.GetString("price-source")),
		Pair:            v.GetString("pair"),
		DexScreenerURL:  v.GetString("dexscreener-url"),
		Volatility:      volatility,
		TickSpacing:     v.GetInt32("tick-spacing"),
		DecimalsA:       uint8(v.GetUint("decimals-a")),
		DecimalsB:       uint8(v.GetUint("decimals-b")),
		RedisAddr:       v.GetString("redis-addr"),
		RedisTTL:        v.GetDuration("redis-ttl"),
		Journal:         v.GetString("journal"),
		PGDSN:           v.GetString("pg-dsn"),
		LogLevel:        v.GetString("log-level"),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that do not need a chain connection.
func (c Config) Validate() error {
	switch c.SettleMode {
	case SettleDelay, SettleReceipt:
	default:
		return fmt.Errorf("settle-mode must be %q or %q, got %q", SettleDelay, SettleReceipt, c.SettleMode)
	}
	switch c.PriceSource {
	case PriceSourceDexScreener, PriceSourcePool:
	default:
		return fmt.Errorf("price-source must be %q or %q, got %q", PriceSourceDexScreener, PriceSourcePool, c.PriceSource)
	}
	if c.SlippageBps <= 0 || c.SlippageBps >= 10_000 {
		return fmt.Errorf("slippage-bps must be in (0, 10000), got %d", c.SlippageBps)
	}
	if c.TickSpacing <= 0 {
		return fmt.Errorf("tick-spacing must be positive, got %d", c.TickSpacing)
	}
	if c.DecimalsA > 77 || c.DecimalsB > 77 {
		return fmt.Errorf("decimals must be at most 77")
	}
	for key, addr := range map[string]string{
		"router":           c.Router,
		"factory":          c.Factory,
		"quoter":           c.Quoter,
		"position-manager": c.PositionManager,
		"token0":           c.Token0,
		"token1":           c.Token1,
	} {
		if !common.IsHexAddress(addr) {
			return fmt.Errorf("%s is not a valid address: %q", key, addr)
		}
	}
	return nil
}

// RequireWallet reports missing settings needed to sign transactions.
func (c Config) RequireWallet() error {
	if c.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}
	if c.PrivateKey == "" {
		return fmt.Errorf("private key is required (AGENT_PRIVATE_KEY)")
	}
	if c.ChainID == 0 {
		return fmt.Errorf("chain id is required")
	}
	return nil
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	return cleanStrings(parts)
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
