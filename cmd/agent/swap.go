package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"liquidityAgent/internal/model"
)

func newSwapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "swap <tokenIn> <tokenOut> <amountIn>",
		Short: "Approve the router when needed and swap an exact input amount",
		Example: `  agent swap EURC USDC 5
  agent swap EURC USDC 5 --min-out 5.7 --max-approve`,
		Args: cobra.ExactArgs(3),
		RunE: runSwap,
	}
	cmd.Flags().String("min-out", "", "minimum output in human units (default: quote minus slippage)")
	cmd.Flags().Bool("max-approve", false, "approve the maximum amount instead of exactly amountIn")
	return cmd
}

func runSwap(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	minOut, _ := cmd.Flags().GetString("min-out")
	maxApprove, _ := cmd.Flags().GetBool("max-approve")
	intent := model.SwapIntent{
		TokenIn:      args[0],
		TokenOut:     args[1],
		AmountIn:     args[2],
		MinAmountOut: minOut,
		MaxApprove:   maxApprove,
	}

	ctx, stop := signalContext()
	defer stop()

	a, err := newApp(ctx, cfg, logger, appOptions{wallet: true})
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(ctx, cfg.SwapTimeout)
	defer cancel()

	logger.Info("swap start",
		zap.String("wallet", a.walletAddress()),
		zap.String("token_in", intent.TokenIn),
		zap.String("token_out", intent.TokenOut),
		zap.String("amount_in", intent.AmountIn),
		zap.String("settle_mode", cfg.SettleMode),
	)
	outcome, swapErr := a.swapExecutor().ExecuteSwap(ctx, intent)
	if outcome != nil {
		if err := printJSON(cmd, outcome); err != nil {
			return err
		}
	}
	if swapErr != nil {
		return fmt.Errorf("swap failed: %w", swapErr)
	}
	return nil
}
