package main

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"liquidityAgent/internal/config"
)

func newRangeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "range",
		Short: "Recommend a tick range around the current price",
		Args:  cobra.NoArgs,
		RunE:  runRange,
	}
	cmd.Flags().String("price", "", "use this price instead of the price feed")
	return cmd
}

func runRange(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	var fixed *decimal.Decimal
	if raw, _ := cmd.Flags().GetString("price"); raw != "" {
		price, err := decimal.NewFromString(raw)
		if err != nil {
			return fmt.Errorf("parse price: %w", err)
		}
		fixed = &price
	}

	ctx, stop := signalContext()
	defer stop()

	// Only the pool price source reads the chain.
	offline := fixed != nil || cfg.PriceSource != config.PriceSourcePool
	a, err := newApp(ctx, cfg, logger, appOptions{offline: offline})
	if err != nil {
		return err
	}
	defer a.Close()
	a.fixedPrice = fixed

	rec, err := a.recommender().Recommend(ctx, cfg.Pair)
	if err != nil {
		return err
	}
	logger.Debug("range computed", zap.String("pair", rec.Pair))
	return printJSON(cmd, rec)
}
