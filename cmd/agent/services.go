package main

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"liquidityAgent/internal/chain"
	"liquidityAgent/internal/config"
	"liquidityAgent/internal/dex"
	"liquidityAgent/internal/liquidity"
	"liquidityAgent/internal/pricefeed"
	"liquidityAgent/internal/storage"
	"liquidityAgent/internal/storage/postgres"
	"liquidityAgent/internal/swap"
)

// app holds the services of one process. Nothing here is global.
type app struct {
	cfg    config.Config
	logger *zap.Logger

	client     *chain.Client
	wallet     *chain.Wallet
	reader     dex.ContractReader
	tokens     *dex.TokenService
	allowances *dex.AllowanceService
	quoter     *dex.Quoter
	balances   *dex.BalanceService
	journal    storage.Storage
	history    storage.History
	// fixedPrice replaces the price feed when set.
	fixedPrice *decimal.Decimal

	closers []func()
}

type appOptions struct {
	// wallet requires a private key and enables transactions.
	wallet bool
	// offline skips the RPC connection.
	offline bool
}

func newApp(ctx context.Context, cfg config.Config, logger *zap.Logger, opts appOptions) (*app, error) {
	a := &app{cfg: cfg, logger: logger}
	if err := a.init(ctx, opts); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) init(ctx context.Context, opts appOptions) error {
	cfg := a.cfg
	if opts.wallet {
		if err := cfg.RequireWallet(); err != nil {
			return err
		}
	}

	if !opts.offline {
		if cfg.RPCURL == "" {
			return fmt.Errorf("rpc url is required")
		}
		client, err := chain.NewClient(ctx, cfg.RPCURL)
		if err != nil {
			return fmt.Errorf("connect rpc: %w", err)
		}
		a.client = client
		a.closers = append(a.closers, client.Close)
		a.reader = client

		id, err := client.ChainID(ctx)
		if err != nil {
			return fmt.Errorf("read chain id: %w", err)
		}
		if id.Uint64() != cfg.ChainID {
			return fmt.Errorf("rpc serves chain %s, expected %d", id, cfg.ChainID)
		}
	}

	if opts.wallet {
		wallet, err := chain.NewWallet(a.client, chain.WalletConfig{
			PrivateKey:       cfg.PrivateKey,
			ChainID:          new(big.Int).SetUint64(cfg.ChainID),
			GasMultiplierPct: cfg.GasMultiplier,
			MaxRetries:       cfg.MaxRetries,
			RetryBackoff:     cfg.RetryBackoff,
		}, a.logger)
		if err != nil {
			return err
		}
		a.wallet = wallet
		a.reader = wallet
	}

	registry := dex.DefaultRegistry()
	if cfg.TokensFile != "" {
		loaded, err := dex.LoadRegistry(cfg.TokensFile)
		if err != nil {
			return err
		}
		registry = loaded
	}

	var cache dex.TokenCache = dex.NewMemoryTokenCache()
	if cfg.RedisAddr != "" {
		redisCache, err := dex.NewRedisTokenCache(ctx, dex.RedisCacheConfig{
			Address: cfg.RedisAddr,
			TTL:     cfg.RedisTTL,
			ChainID: cfg.ChainID,
		}, a.logger)
		if err != nil {
			return err
		}
		cache = redisCache
		a.closers = append(a.closers, func() { _ = redisCache.Close() })
	}

	a.tokens = dex.NewTokenService(a.reader, registry, cache, a.logger)
	a.quoter = dex.NewQuoter(a.reader, common.HexToAddress(cfg.Quoter), a.logger)
	if a.wallet != nil {
		a.allowances = dex.NewAllowanceService(a.reader, a.wallet, a.logger)
		a.balances = dex.NewBalanceService(a.wallet, a.tokens, a.logger)
	}

	return a.openJournal(ctx)
}

func (a *app) openJournal(ctx context.Context) error {
	switch {
	case a.cfg.PGDSN != "":
		store, err := postgres.NewStore(ctx, a.cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		a.closers = append(a.closers, store.Close)
		if err := store.EnsureSchema(ctx); err != nil {
			return err
		}
		a.journal, a.history = store, store
	case a.cfg.Journal != "":
		store := storage.NewJsonlStorage(a.cfg.Journal)
		a.journal, a.history = store, store
	default:
		a.journal = storage.Nop{}
	}
	return nil
}

// Close releases connections in reverse order of opening.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func (a *app) walletAddress() string {
	if a.wallet == nil {
		return ""
	}
	return a.wallet.Address().Hex()
}

func (a *app) settler() swap.Settler {
	if a.cfg.SettleMode == config.SettleReceipt {
		return swap.NewReceiptSettler(a.wallet, swap.ReceiptConfig{
			Timeout: a.cfg.SettleTimeout,
			Backoff: a.cfg.SettleBackoff,
		}, a.logger)
	}
	return swap.NewDelaySettler(a.cfg.SettleDelay)
}

func (a *app) priceFeed() liquidity.PriceFeed {
	if a.fixedPrice != nil {
		return pricefeed.Fixed{Price: *a.fixedPrice}
	}
	if a.cfg.PriceSource == config.PriceSourcePool {
		return pricefeed.NewPoolFeed(a.reader, a.tokens)
	}
	return pricefeed.NewDexScreenerFeed(pricefeed.DexScreenerConfig{
		BaseURL:      a.cfg.DexScreenerURL,
		MaxRetries:   a.cfg.MaxRetries,
		RetryBackoff: a.cfg.RetryBackoff,
	}, a.logger)
}

func (a *app) rangeConfig() liquidity.RangeConfig {
	return liquidity.RangeConfig{
		Pair:        a.cfg.Pair,
		Volatility:  a.cfg.Volatility,
		DecimalsA:   a.cfg.DecimalsA,
		DecimalsB:   a.cfg.DecimalsB,
		TickSpacing: a.cfg.TickSpacing,
	}
}

func (a *app) recommender() *liquidity.JournaledRecommender {
	rec := liquidity.NewRecommender(a.priceFeed(), a.rangeConfig(), a.logger)
	return liquidity.NewJournaledRecommender(rec, a.journal, a.cfg.ChainID, a.logger)
}

func (a *app) swapExecutor() *swap.JournaledExecutor {
	orch := swap.NewOrchestrator(a.wallet, a.tokens, a.allowances, a.quoter, a.settler(), swap.Config{
		Router:        common.HexToAddress(a.cfg.Router),
		Factory:       common.HexToAddress(a.cfg.Factory),
		DefaultStable: a.cfg.DefaultStable,
		Deadline:      a.cfg.SwapDeadline,
		SlippageBps:   a.cfg.SlippageBps,
	}, a.logger)
	return swap.NewJournaledExecutor(orch, a.journal, a.cfg.ChainID, a.walletAddress(), a.logger)
}

func (a *app) provider() *liquidity.Provider {
	return liquidity.NewProvider(a.recommender(), a.tokens, a.allowances, a.wallet, a.settler(), liquidity.ProviderConfig{
		PositionManager: common.HexToAddress(a.cfg.PositionManager),
		Token0:          common.HexToAddress(a.cfg.Token0),
		Token1:          common.HexToAddress(a.cfg.Token1),
		SlippageBps:     a.cfg.SlippageBps,
	}, a.logger)
}
