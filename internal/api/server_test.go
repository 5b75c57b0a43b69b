package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"liquidityAgent/internal/dex"
	agenterrors "liquidityAgent/internal/errors"
	"liquidityAgent/internal/model"
)

var (
	testRouter = common.HexToAddress("0xcF77a3Ba9A5CA399B7c97c74d54e5b1Beb874E43")
	testOwner  = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	testEURC   = common.HexToAddress("0x60a3E35Cc302bFA44Cb288Bc5a4F316Fdb1adb42")
	testUSDC   = common.HexToAddress("0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913")
)

type fakeRanges struct {
	rec model.RangeRecommendation
	err error
}

func (f fakeRanges) Recommend(context.Context, string) (model.RangeRecommendation, error) {
	return f.rec, f.err
}

type fakeSwaps struct {
	got     model.SwapIntent
	outcome *model.SwapOutcome
	err     error
}

func (f *fakeSwaps) ExecuteSwap(_ context.Context, intent model.SwapIntent) (*model.SwapOutcome, error) {
	f.got = intent
	return f.outcome, f.err
}

type fakeTokens struct{}

func (fakeTokens) Resolve(_ context.Context, token string) (model.TokenMeta, error) {
	switch strings.ToUpper(token) {
	case "EURC":
		return model.TokenMeta{Address: testEURC.Hex(), Symbol: "EURC", Decimals: 6}, nil
	case "USDC":
		return model.TokenMeta{Address: testUSDC.Hex(), Symbol: "USDC", Decimals: 6}, nil
	}
	return model.TokenMeta{}, agenterrors.Newf(agenterrors.CodeTokenResolution, "unknown token %q", token)
}

type fakeQuoter struct {
	amountIn *big.Int
}

func (f *fakeQuoter) Quote(_ context.Context, _, _ common.Address, amountIn *big.Int) (dex.Quote, error) {
	f.amountIn = amountIn
	return dex.Quote{AmountOut: big.NewInt(5_800_000), Stable: true}, nil
}

type fakeAllowances struct {
	approvedAmount *big.Int
	approveCalled  bool
	spender        common.Address
}

func (f *fakeAllowances) Allowance(_ context.Context, owner, _, spender common.Address) (*big.Int, error) {
	f.spender = spender
	if owner != testOwner {
		return nil, errors.New("wrong owner")
	}
	return big.NewInt(1_500_000), nil
}

func (f *fakeAllowances) Approve(_ context.Context, token, spender common.Address, amount *big.Int) (model.ApprovalResult, error) {
	f.approveCalled = true
	f.approvedAmount = amount
	res := model.ApprovalResult{Token: token.Hex(), Spender: spender.Hex(), TxHash: "0x01"}
	if amount == nil {
		res.Unlimited = true
	} else {
		res.Amount = amount.String()
	}
	return res, nil
}

func (f *fakeAllowances) Revoke(_ context.Context, token, spender common.Address) (model.ApprovalResult, error) {
	return model.ApprovalResult{Token: token.Hex(), Spender: spender.Hex(), Amount: "0", AlreadyZero: true}, nil
}

type fakeBalances struct{}

func (fakeBalances) All(context.Context) ([]model.Balance, error) {
	return []model.Balance{{Token: "native", Symbol: "ETH", Raw: "1", Formatted: "0.000000000000000001"}}, nil
}

func (fakeBalances) Token(_ context.Context, token string) (model.Balance, error) {
	return model.Balance{Token: token, Raw: "5000000", Formatted: "5"}, nil
}

func newTestServer(deps Deps) *httptest.Server {
	s := NewServer(deps, Config{ChainID: 8453, Owner: testOwner, Router: testRouter}, nil)
	return httptest.NewServer(s.Handler())
}

func doJSON(t *testing.T, method, url string, body interface{}, out interface{}) int {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestHealth(t *testing.T) {
	srv := newTestServer(Deps{})
	defer srv.Close()

	var body map[string]string
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, srv.URL+"/health", nil, &body))
	require.Equal(t, "ok", body["status"])
}

func TestRangeRoute(t *testing.T) {
	srv := newTestServer(Deps{Ranges: fakeRanges{rec: model.RangeRecommendation{
		Pair:         "0xpair",
		CurrentPrice: decimal.RequireFromString("1.0012"),
		TickRange:    model.TickRange{TickLower: -50, TickUpper: 50},
	}}})
	defer srv.Close()

	var rec model.RangeRecommendation
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, srv.URL+"/api/v1/range", nil, &rec))
	require.Equal(t, int32(-50), rec.TickRange.TickLower)
	require.True(t, rec.CurrentPrice.Equal(decimal.RequireFromString("1.0012")))
}

func TestRangeRouteErrors(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{agenterrors.New(agenterrors.CodeDegenerateRange, ""), http.StatusUnprocessableEntity},
		{agenterrors.New(agenterrors.CodeInvalidInput, ""), http.StatusBadRequest},
		{agenterrors.New(agenterrors.CodePriceFeed, ""), http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		srv := newTestServer(Deps{Ranges: fakeRanges{err: tc.err}})
		var body errorResponse
		require.Equal(t, tc.status, doJSON(t, http.MethodGet, srv.URL+"/api/v1/range", nil, &body))
		require.Equal(t, string(agenterrors.CodeOf(tc.err)), body.Code)
		srv.Close()
	}
}

func TestSwapRouteSuccess(t *testing.T) {
	swaps := &fakeSwaps{outcome: &model.SwapOutcome{ID: "x", Status: model.StatusSuccess}}
	srv := newTestServer(Deps{Swaps: swaps})
	defer srv.Close()

	var outcome model.SwapOutcome
	status := doJSON(t, http.MethodPost, srv.URL+"/api/v1/swap",
		model.SwapIntent{TokenIn: "EURC", TokenOut: "USDC", AmountIn: "5"}, &outcome)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "x", outcome.ID)
	require.Equal(t, "5", swaps.got.AmountIn)
}

func TestSwapRouteReportsPartialProgress(t *testing.T) {
	swaps := &fakeSwaps{
		outcome: &model.SwapOutcome{
			Status:    model.StatusError,
			Approval:  &model.ApprovalStep{Needed: true, Success: true, TxHash: "0xapprove"},
			ErrorCode: string(agenterrors.CodeSwapExecution),
		},
		err: agenterrors.New(agenterrors.CodeSwapExecution, "", agenterrors.WithTxHash("0xapprove")),
	}
	srv := newTestServer(Deps{Swaps: swaps})
	defer srv.Close()

	var outcome model.SwapOutcome
	status := doJSON(t, http.MethodPost, srv.URL+"/api/v1/swap",
		model.SwapIntent{TokenIn: "EURC", TokenOut: "USDC", AmountIn: "5"}, &outcome)
	require.Equal(t, http.StatusBadGateway, status)
	require.Equal(t, "0xapprove", outcome.Approval.TxHash)
}

func TestSwapRouteRejectsUnknownFields(t *testing.T) {
	srv := newTestServer(Deps{Swaps: &fakeSwaps{}})
	defer srv.Close()

	var body errorResponse
	status := doJSON(t, http.MethodPost, srv.URL+"/api/v1/swap", map[string]string{"tokenIn": "EURC", "amount": "5"}, &body)
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, string(agenterrors.CodeInvalidInput), body.Code)
}

func TestQuoteRoute(t *testing.T) {
	quoter := &fakeQuoter{}
	srv := newTestServer(Deps{Tokens: fakeTokens{}, Quoter: quoter})
	defer srv.Close()

	var quote model.Quote
	status := doJSON(t, http.MethodGet, srv.URL+"/api/v1/quote?tokenIn=EURC&tokenOut=USDC&amountIn=5", nil, &quote)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "5000000", quoter.amountIn.String())
	require.Equal(t, "5800000", quote.AmountOut)
	require.True(t, quote.Stable)

	var body errorResponse
	status = doJSON(t, http.MethodGet, srv.URL+"/api/v1/quote?tokenIn=DOGE&tokenOut=USDC&amountIn=5", nil, &body)
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, string(agenterrors.CodeTokenResolution), body.Code)
}

func TestTokenRoute(t *testing.T) {
	srv := newTestServer(Deps{Tokens: fakeTokens{}})
	defer srv.Close()

	var meta model.TokenMeta
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, srv.URL+"/api/v1/tokens/eurc", nil, &meta))
	require.Equal(t, uint8(6), meta.Decimals)
}

func TestAllowanceRoutes(t *testing.T) {
	allowances := &fakeAllowances{}
	srv := newTestServer(Deps{Tokens: fakeTokens{}, Allowances: allowances})
	defer srv.Close()

	var info model.AllowanceInfo
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, srv.URL+"/api/v1/allowance?token=EURC", nil, &info))
	require.Equal(t, "1500000", info.Allowance)
	require.Equal(t, "1.5", info.Formatted)
	require.Equal(t, testRouter, allowances.spender)

	var result model.ApprovalResult
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodPost, srv.URL+"/api/v1/approve",
		approveRequest{Token: "EURC", Amount: "2.5"}, &result))
	require.Equal(t, "2500000", allowances.approvedAmount.String())

	require.Equal(t, http.StatusOK, doJSON(t, http.MethodPost, srv.URL+"/api/v1/approve",
		approveRequest{Token: "EURC", Unlimited: true}, &result))
	require.Nil(t, allowances.approvedAmount)
	require.True(t, result.Unlimited)

	allowances.approveCalled = false
	var body errorResponse
	require.Equal(t, http.StatusBadRequest, doJSON(t, http.MethodPost, srv.URL+"/api/v1/approve",
		approveRequest{Token: "EURC", Amount: "1", Unlimited: true}, &body))
	require.False(t, allowances.approveCalled)

	require.Equal(t, http.StatusOK, doJSON(t, http.MethodPost, srv.URL+"/api/v1/revoke",
		revokeRequest{Token: "USDC"}, &result))
	require.True(t, result.AlreadyZero)

	require.Equal(t, http.StatusBadRequest, doJSON(t, http.MethodPost, srv.URL+"/api/v1/revoke",
		revokeRequest{Token: "USDC", Spender: "nope"}, &body))
}

func TestBalancesRoutes(t *testing.T) {
	srv := newTestServer(Deps{Balances: fakeBalances{}})
	defer srv.Close()

	var all struct {
		Balances []model.Balance `json:"balances"`
	}
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, srv.URL+"/api/v1/balances", nil, &all))
	require.Len(t, all.Balances, 1)

	var one model.Balance
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, srv.URL+"/api/v1/balances/EURC", nil, &one))
	require.Equal(t, "5", one.Formatted)
}

func TestDisabledRoutes(t *testing.T) {
	srv := newTestServer(Deps{})
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/v1/swap", "application/json", strings.NewReader("{}"))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStatusFor(t *testing.T) {
	require.Equal(t, http.StatusBadRequest, StatusFor(agenterrors.New(agenterrors.CodeInvalidAmount, "")))
	require.Equal(t, http.StatusBadGateway, StatusFor(agenterrors.New(agenterrors.CodeApprovalFailed, "")))
	require.Equal(t, http.StatusGatewayTimeout, StatusFor(context.DeadlineExceeded))
}
