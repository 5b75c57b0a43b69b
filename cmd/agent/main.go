package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"liquidityAgent/internal/config"
)

func main() {
	root := &cobra.Command{
		Use:          "agent",
		Short:        "Aerodrome liquidity and swap agent for Base",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")
	addCommonFlags(root.PersistentFlags())

	root.AddCommand(
		newRangeCmd(),
		newSwapCmd(),
		newQuoteCmd(),
		newAllowanceCmd(),
		newApproveCmd(),
		newRevokeCmd(),
		newBalanceCmd(),
		newTokenCmd(),
		newAddLiquidityCmd(),
		newServeCmd(),
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addCommonFlags(flags *pflag.FlagSet) {
	flags.String("rpc", "", "Base RPC URL")
	flags.Uint64("chain-id", 8453, "chain id")
	flags.String("private-key", "", "hex private key of the agent wallet (prefer AGENT_PRIVATE_KEY)")
	flags.String("router", "0xcF77a3Ba9A5CA399B7c97c74d54e5b1Beb874E43", "Aerodrome router")
	flags.String("factory", "0x420DD381b31aEf6683db6B902084cB0FFECe40Da", "Aerodrome pool factory")
	flags.String("quoter", "0x3EF68D3f7664b2805D4E88381b64868a56f88bC4", "getAmountOut quoter")
	flags.String("position-manager", "0x827922686190790b37229fd06084350E74485b72", "Slipstream position manager")
	flags.String("tokens-file", "", "YAML token registry (defaults to EURC and USDC)")
	flags.String("token0", "0x60a3E35Cc302bFA44Cb288Bc5a4F316Fdb1adb42", "pool token0 for add-liquidity")
	flags.String("token1", "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913", "pool token1 for add-liquidity")
	flags.Bool("default-stable", false, "pool type tried first when no quote is available")
	flags.String("settle-mode", config.SettleDelay, "approval settlement (delay, receipt)")
	flags.Duration("settle-delay", 5*time.Second, "fixed wait after an approval in delay mode")
	flags.Duration("settle-timeout", 2*time.Minute, "receipt wait bound in receipt mode")
	flags.Duration("settle-backoff", time.Second, "initial receipt poll interval")
	flags.Duration("swap-timeout", 3*time.Minute, "overall budget of one swap")
	flags.Duration("swap-deadline", 30*time.Minute, "router deadline from submission")
	flags.Int64("slippage-bps", 100, "slippage tolerance applied to quotes, in basis points")
	flags.Uint64("gas-multiplier", 120, "gas limit as a percentage of the estimate")
	flags.Int("max-retries", 3, "maximum retry attempts for reads")
	flags.Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	flags.String("price-source", config.PriceSourceDexScreener, "range price source (dexscreener, pool)")
	flags.String("pair", "0xE846373C1a92B167b4E9cd5d8E4d6B1Db9E90EC7", "pair or pool address priced for ranges")
	flags.String("dexscreener-url", "https://api.dexscreener.com", "DexScreener API base URL")
	flags.String("volatility", "0.005", "half width of the price band as a fraction")
	flags.Int32("tick-spacing", 50, "pool tick spacing")
	flags.Uint("decimals-a", 6, "decimals of the priced token")
	flags.Uint("decimals-b", 6, "decimals of the quote token")
	flags.String("redis-addr", "", "optional Redis address for the token metadata cache")
	flags.Duration("redis-ttl", 24*time.Hour, "token metadata TTL in Redis")
	flags.String("journal", "./data/journal.jsonl", "JSONL journal path, empty disables")
	flags.String("pg-dsn", "", "Postgres DSN for the journal (overrides --journal)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
}

func loadConfig(cmd *cobra.Command) (config.Config, *zap.Logger, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return config.Config{}, nil, err
	}
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logger, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func printJSON(cmd *cobra.Command, value interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
