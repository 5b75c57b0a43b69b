package main

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"liquidityAgent/internal/api"
	"liquidityAgent/internal/config"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the agent actions over HTTP",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	cmd.Flags().String("addr", ":8080", "listen address")
	cmd.Flags().Duration("read-timeout", 0, "HTTP read timeout (default 15s)")
	cmd.Flags().Duration("write-timeout", 0, "HTTP write timeout (default swap-timeout + 30s)")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadServe(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signalContext()
	defer stop()

	a, err := newApp(ctx, cfg.Config, logger, appOptions{wallet: true})
	if err != nil {
		return err
	}
	defer a.Close()

	deps := api.Deps{
		Ranges:     a.recommender(),
		Swaps:      a.swapExecutor(),
		Tokens:     a.tokens,
		Quoter:     a.quoter,
		Allowances: a.allowances,
		Balances:   a.balances,
		Liquidity:  a.provider(),
	}
	if a.history != nil {
		deps.History = a.history
	}
	server := api.NewServer(deps, api.Config{
		Addr:         cfg.Addr,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		SwapTimeout:  cfg.SwapTimeout,
		ChainID:      cfg.ChainID,
		Owner:        a.wallet.Address(),
		Router:       common.HexToAddress(cfg.Router),
	}, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("agent serving",
		zap.String("addr", cfg.Addr),
		zap.String("wallet", a.walletAddress()),
		zap.Uint64("chain_id", cfg.ChainID),
		zap.String("settle_mode", cfg.SettleMode),
	)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
	defer cancel()
	logger.Info("agent shutting down")
	return server.Stop(shutdownCtx)
}
