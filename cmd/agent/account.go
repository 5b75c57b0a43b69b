package main

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"liquidityAgent/internal/dex"
	"liquidityAgent/internal/model"
)

func newQuoteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "quote <tokenIn> <tokenOut> <amountIn>",
		Short: "Quote a swap, volatile pool first then stable",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, appOptions{}, func(ctx context.Context, a *app) error {
				tokenIn, err := a.tokens.Resolve(ctx, args[0])
				if err != nil {
					return err
				}
				tokenOut, err := a.tokens.Resolve(ctx, args[1])
				if err != nil {
					return err
				}
				amountIn, err := dex.ParseTokenAmount(args[2], tokenIn.Decimals)
				if err != nil {
					return err
				}
				quote, err := a.quoter.Quote(ctx, common.HexToAddress(tokenIn.Address), common.HexToAddress(tokenOut.Address), amountIn)
				if err != nil {
					return err
				}
				return printJSON(cmd, map[string]interface{}{
					"quote": model.Quote{
						TokenIn:   tokenIn.Address,
						TokenOut:  tokenOut.Address,
						AmountIn:  amountIn.String(),
						AmountOut: quote.AmountOut.String(),
						Stable:    quote.Stable,
					},
					"formattedOut": dex.FormatTokenAmount(quote.AmountOut, tokenOut.Decimals),
				})
			})
		},
	}
}

func newTokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "token <symbol|address>",
		Short: "Resolve a token and print its decimals",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, appOptions{}, func(ctx context.Context, a *app) error {
				meta, err := a.tokens.Resolve(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd, meta)
			})
		},
	}
}

func newAllowanceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "allowance <token>",
		Short: "Read the allowance the agent wallet granted to a spender",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, appOptions{wallet: true}, func(ctx context.Context, a *app) error {
				token, err := a.tokens.Resolve(ctx, args[0])
				if err != nil {
					return err
				}
				spender, err := spenderFlag(cmd, a)
				if err != nil {
					return err
				}
				owner := a.wallet.Address()
				allowance, err := a.allowances.Allowance(ctx, owner, common.HexToAddress(token.Address), spender)
				if err != nil {
					return err
				}
				return printJSON(cmd, model.AllowanceInfo{
					Token:     token.Address,
					Owner:     owner.Hex(),
					Spender:   spender.Hex(),
					Allowance: allowance.String(),
					Formatted: dex.FormatTokenAmount(allowance, token.Decimals),
				})
			})
		},
	}
	cmd.Flags().String("spender", "", "spender address (default: router)")
	return cmd
}

func newApproveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "approve [amount]",
		Short: "Approve a spender for the configured tokens",
		Long:  "Approve a spender for every token in --tokens. Without an amount the approval is unlimited.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, appOptions{wallet: true}, func(ctx context.Context, a *app) error {
				spender, err := spenderFlag(cmd, a)
				if err != nil {
					return err
				}
				symbols := a.cfg.Tokens
				if len(symbols) == 0 {
					for _, meta := range a.tokens.Registry().Tokens() {
						symbols = append(symbols, meta.Address)
					}
				}

				var results []model.ApprovalResult
				if len(args) == 0 {
					addrs := make([]common.Address, 0, len(symbols))
					for _, symbol := range symbols {
						meta, err := a.tokens.Resolve(ctx, symbol)
						if err != nil {
							return err
						}
						addrs = append(addrs, common.HexToAddress(meta.Address))
					}
					results, err = a.allowances.ApproveMany(ctx, addrs, spender, nil)
					if perr := printJSON(cmd, results); perr != nil {
						return perr
					}
					return err
				}

				for _, symbol := range symbols {
					meta, err := a.tokens.Resolve(ctx, symbol)
					if err != nil {
						return err
					}
					amount, err := dex.ParseTokenAmount(args[0], meta.Decimals)
					if err != nil {
						return err
					}
					result, err := a.allowances.Approve(ctx, common.HexToAddress(meta.Address), spender, amount)
					if err != nil {
						result.Error = err.Error()
					}
					results = append(results, result)
				}
				return printJSON(cmd, results)
			})
		},
	}
	cmd.Flags().StringSlice("tokens", nil, "tokens to approve (default: every registry token)")
	cmd.Flags().String("spender", "", "spender address (default: router)")
	return cmd
}

func newRevokeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "revoke <token>",
		Short: "Set a spender allowance back to zero",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, appOptions{wallet: true}, func(ctx context.Context, a *app) error {
				token, err := a.tokens.Resolve(ctx, args[0])
				if err != nil {
					return err
				}
				spender, err := spenderFlag(cmd, a)
				if err != nil {
					return err
				}
				result, err := a.allowances.Revoke(ctx, common.HexToAddress(token.Address), spender)
				if err != nil {
					return err
				}
				return printJSON(cmd, result)
			})
		},
	}
	cmd.Flags().String("spender", "", "spender address (default: router)")
	return cmd
}

func newBalanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balance [token]",
		Short: "Show ETH and registry token balances of the agent wallet",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, appOptions{wallet: true}, func(ctx context.Context, a *app) error {
				if len(args) == 1 {
					balance, err := a.balances.Token(ctx, args[0])
					if err != nil {
						return err
					}
					return printJSON(cmd, balance)
				}
				balances, err := a.balances.All(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd, balances)
			})
		},
	}
}

func newAddLiquidityCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add-liquidity <amount0> <amount1>",
		Short: "Mint a concentrated-liquidity position in the recommended range",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, appOptions{wallet: true}, func(ctx context.Context, a *app) error {
				ctx, cancel := context.WithTimeout(ctx, a.cfg.SwapTimeout)
				defer cancel()
				result, err := a.provider().AddLiquidity(ctx, args[0], args[1])
				if err != nil {
					if len(result.ApprovalHashes) > 0 {
						_ = printJSON(cmd, result)
					}
					return fmt.Errorf("add liquidity: %w", err)
				}
				return printJSON(cmd, result)
			})
		},
	}
}

func withApp(cmd *cobra.Command, opts appOptions, fn func(ctx context.Context, a *app) error) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signalContext()
	defer stop()

	a, err := newApp(ctx, cfg, logger, opts)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func spenderFlag(cmd *cobra.Command, a *app) (common.Address, error) {
	raw, _ := cmd.Flags().GetString("spender")
	if raw == "" {
		return common.HexToAddress(a.cfg.Router), nil
	}
	if !common.IsHexAddress(raw) {
		return common.Address{}, fmt.Errorf("spender is not an address: %q", raw)
	}
	return common.HexToAddress(raw), nil
}
