package api

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"liquidityAgent/internal/dex"
	agenterrors "liquidityAgent/internal/errors"
	"liquidityAgent/internal/model"
)

// RangeRecommender answers range requests.
type RangeRecommender interface {
	Recommend(ctx context.Context, pair string) (model.RangeRecommendation, error)
}

// SwapExecutor runs swaps.
type SwapExecutor interface {
	ExecuteSwap(ctx context.Context, intent model.SwapIntent) (*model.SwapOutcome, error)
}

// TokenResolver resolves symbols or addresses.
type TokenResolver interface {
	Resolve(ctx context.Context, token string) (model.TokenMeta, error)
}

// Quoter prices swaps.
type Quoter interface {
	Quote(ctx context.Context, tokenIn, tokenOut common.Address, amountIn *big.Int) (dex.Quote, error)
}

// AllowanceManager reads and changes allowances of the agent wallet.
type AllowanceManager interface {
	Allowance(ctx context.Context, owner, token, spender common.Address) (*big.Int, error)
	Approve(ctx context.Context, token, spender common.Address, amount *big.Int) (model.ApprovalResult, error)
	Revoke(ctx context.Context, token, spender common.Address) (model.ApprovalResult, error)
}

// BalanceReader reads wallet balances.
type BalanceReader interface {
	All(ctx context.Context) ([]model.Balance, error)
	Token(ctx context.Context, token string) (model.Balance, error)
}

// LiquidityProvider mints positions.
type LiquidityProvider interface {
	AddLiquidity(ctx context.Context, amount0, amount1 string) (model.LiquidityResult, error)
}

// SwapHistory lists journaled swaps.
type SwapHistory interface {
	RecentSwaps(ctx context.Context, chainID uint64, wallet string, limit int) ([]model.SwapOutcome, error)
}

// Deps are the services behind the routes. Nil services disable their routes.
type Deps struct {
	Ranges     RangeRecommender
	Swaps      SwapExecutor
	Tokens     TokenResolver
	Quoter     Quoter
	Allowances AllowanceManager
	Balances   BalanceReader
	Liquidity  LiquidityProvider
	History    SwapHistory
}

// Config holds listener settings and the addresses handlers default to.
type Config struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	SwapTimeout  time.Duration
	ChainID      uint64
	Owner        common.Address
	Router       common.Address
}

// Server exposes the agent actions over HTTP.
type Server struct {
	server *http.Server
	deps   Deps
	cfg    Config
	logger *zap.Logger
}

func NewServer(deps Deps, cfg Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SwapTimeout <= 0 {
		cfg.SwapTimeout = 3 * time.Minute
	}
	s := &Server{deps: deps, cfg: cfg, logger: logger}

	r := mux.NewRouter()
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	v1 := r.PathPrefix("/api/v1").Subrouter()
	if deps.Ranges != nil {
		v1.HandleFunc("/range", s.handleRange).Methods(http.MethodGet)
	}
	if deps.Swaps != nil {
		v1.HandleFunc("/swap", s.handleSwap).Methods(http.MethodPost)
	}
	if deps.History != nil {
		v1.HandleFunc("/swaps", s.handleSwapHistory).Methods(http.MethodGet)
	}
	if deps.Tokens != nil {
		v1.HandleFunc("/tokens/{token}", s.handleToken).Methods(http.MethodGet)
		if deps.Quoter != nil {
			v1.HandleFunc("/quote", s.handleQuote).Methods(http.MethodGet)
		}
		if deps.Allowances != nil {
			v1.HandleFunc("/allowance", s.handleAllowance).Methods(http.MethodGet)
			v1.HandleFunc("/approve", s.handleApprove).Methods(http.MethodPost)
			v1.HandleFunc("/revoke", s.handleRevoke).Methods(http.MethodPost)
		}
	}
	if deps.Balances != nil {
		v1.HandleFunc("/balances", s.handleBalances).Methods(http.MethodGet)
		v1.HandleFunc("/balances/{token}", s.handleTokenBalance).Methods(http.MethodGet)
	}
	if deps.Liquidity != nil {
		v1.HandleFunc("/liquidity", s.handleAddLiquidity).Methods(http.MethodPost)
	}

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start blocks serving requests until Stop.
func (s *Server) Start() error {
	s.logger.Info("api listening", zap.String("addr", s.cfg.Addr))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

type errorResponse struct {
	Error  string `json:"error"`
	Code   string `json:"code"`
	TxHash string `json:"txHash,omitempty"`
}

// StatusFor maps an error code to an HTTP status.
func StatusFor(err error) int {
	code := agenterrors.CodeOf(err)
	switch {
	case code == agenterrors.CodeDegenerateRange:
		return http.StatusUnprocessableEntity
	case agenterrors.IsUserError(err):
		return http.StatusBadRequest
	case code == agenterrors.CodeUnknown:
		if errors.Is(err, context.DeadlineExceeded) {
			return http.StatusGatewayTimeout
		}
		return http.StatusInternalServerError
	default:
		return http.StatusBadGateway
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Warn("write response failed", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	resp := errorResponse{Error: err.Error(), Code: string(agenterrors.CodeOf(err))}
	if coded, ok := agenterrors.From(err); ok {
		resp.TxHash = coded.TxHash()
	}
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.String("code", resp.Code), zap.Error(err))
	}
	s.writeJSON(w, status, resp)
}

func decodeBody(w http.ResponseWriter, r *http.Request, out interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return agenterrors.Wrap(agenterrors.CodeInvalidInput, err, "invalid request body")
	}
	return nil
}

// addressParam accepts a hex address or falls back when empty.
func addressParam(value string, fallback common.Address, name string) (common.Address, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback, nil
	}
	if !common.IsHexAddress(value) {
		return common.Address{}, agenterrors.Newf(agenterrors.CodeInvalidInput, "%s is not an address: %q", name, value)
	}
	return common.HexToAddress(value), nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRange(w http.ResponseWriter, r *http.Request) {
	rec, err := s.deps.Ranges.Recommend(r.Context(), r.URL.Query().Get("pair"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleSwap(w http.ResponseWriter, r *http.Request) {
	var intent model.SwapIntent
	if err := decodeBody(w, r, &intent); err != nil {
		s.writeError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.SwapTimeout)
	defer cancel()

	outcome, err := s.deps.Swaps.ExecuteSwap(ctx, intent)
	if err != nil {
		if outcome == nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, StatusFor(err), outcome)
		return
	}
	s.writeJSON(w, http.StatusOK, outcome)
}

func (s *Server) handleSwapHistory(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 500 {
			s.writeError(w, agenterrors.Newf(agenterrors.CodeInvalidInput, "limit must be in 1..500, got %q", raw))
			return
		}
		limit = n
	}
	outcomes, err := s.deps.History.RecentSwaps(r.Context(), s.cfg.ChainID, s.cfg.Owner.Hex(), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if outcomes == nil {
		outcomes = []model.SwapOutcome{}
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"swaps": outcomes})
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	meta, err := s.deps.Tokens.Resolve(r.Context(), mux.Vars(r)["token"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, meta)
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	tokenIn, err := s.deps.Tokens.Resolve(r.Context(), q.Get("tokenIn"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	tokenOut, err := s.deps.Tokens.Resolve(r.Context(), q.Get("tokenOut"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	amountIn, err := dex.ParseTokenAmount(q.Get("amountIn"), tokenIn.Decimals)
	if err != nil {
		s.writeError(w, err)
		return
	}

	quote, err := s.deps.Quoter.Quote(r.Context(), common.HexToAddress(tokenIn.Address), common.HexToAddress(tokenOut.Address), amountIn)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, model.Quote{
		TokenIn:   tokenIn.Address,
		TokenOut:  tokenOut.Address,
		AmountIn:  amountIn.String(),
		AmountOut: quote.AmountOut.String(),
		Stable:    quote.Stable,
	})
}

func (s *Server) handleAllowance(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	token, err := s.deps.Tokens.Resolve(r.Context(), q.Get("token"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	spender, err := addressParam(q.Get("spender"), s.cfg.Router, "spender")
	if err != nil {
		s.writeError(w, err)
		return
	}
	owner, err := addressParam(q.Get("owner"), s.cfg.Owner, "owner")
	if err != nil {
		s.writeError(w, err)
		return
	}

	allowance, err := s.deps.Allowances.Allowance(r.Context(), owner, common.HexToAddress(token.Address), spender)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, model.AllowanceInfo{
		Token:     token.Address,
		Owner:     owner.Hex(),
		Spender:   spender.Hex(),
		Allowance: allowance.String(),
		Formatted: dex.FormatTokenAmount(allowance, token.Decimals),
	})
}

type approveRequest struct {
	Token     string `json:"token"`
	Spender   string `json:"spender,omitempty"`
	Amount    string `json:"amount,omitempty"`
	Unlimited bool   `json:"unlimited,omitempty"`
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	var req approveRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	token, err := s.deps.Tokens.Resolve(r.Context(), req.Token)
	if err != nil {
		s.writeError(w, err)
		return
	}
	spender, err := addressParam(req.Spender, s.cfg.Router, "spender")
	if err != nil {
		s.writeError(w, err)
		return
	}

	var amount *big.Int
	switch {
	case req.Unlimited && req.Amount != "":
		s.writeError(w, agenterrors.New(agenterrors.CodeInvalidInput, "amount and unlimited are exclusive"))
		return
	case !req.Unlimited:
		amount, err = dex.ParseTokenAmount(req.Amount, token.Decimals)
		if err != nil {
			s.writeError(w, err)
			return
		}
	}

	result, err := s.deps.Allowances.Approve(r.Context(), common.HexToAddress(token.Address), spender, amount)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

type revokeRequest struct {
	Token   string `json:"token"`
	Spender string `json:"spender,omitempty"`
}

func (s *Server) handleRevoke(w http.ResponseWriter, r *http.Request) {
	var req revokeRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	token, err := s.deps.Tokens.Resolve(r.Context(), req.Token)
	if err != nil {
		s.writeError(w, err)
		return
	}
	spender, err := addressParam(req.Spender, s.cfg.Router, "spender")
	if err != nil {
		s.writeError(w, err)
		return
	}

	result, err := s.deps.Allowances.Revoke(r.Context(), common.HexToAddress(token.Address), spender)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleBalances(w http.ResponseWriter, r *http.Request) {
	balances, err := s.deps.Balances.All(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"balances": balances})
}

func (s *Server) handleTokenBalance(w http.ResponseWriter, r *http.Request) {
	balance, err := s.deps.Balances.Token(r.Context(), mux.Vars(r)["token"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, balance)
}

type liquidityRequest struct {
	Amount0 string `json:"amount0"`
	Amount1 string `json:"amount1"`
}

func (s *Server) handleAddLiquidity(w http.ResponseWriter, r *http.Request) {
	var req liquidityRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.SwapTimeout)
	defer cancel()

	result, err := s.deps.Liquidity.AddLiquidity(ctx, req.Amount0, req.Amount1)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}
