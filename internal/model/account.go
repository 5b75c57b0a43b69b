package model

// ApprovalResult reports one approve or revoke call.
type ApprovalResult struct {
	Token       string `json:"token"`
	Spender     string `json:"spender"`
	Amount      string `json:"amount"`
	Unlimited   bool   `json:"unlimited,omitempty"`
	TxHash      string `json:"txHash,omitempty"`
	AlreadyZero bool   `json:"alreadyZero,omitempty"`
	Error       string `json:"error,omitempty"`
}

// AllowanceInfo is a fresh allowance read.
type AllowanceInfo struct {
	Token     string `json:"token"`
	Owner     string `json:"owner"`
	Spender   string `json:"spender"`
	Allowance string `json:"allowance"`
	Formatted string `json:"formatted"`
}

// Balance is a native or token balance of the agent wallet.
type Balance struct {
	Token     string `json:"token"`
	Symbol    string `json:"symbol"`
	Raw       string `json:"raw"`
	Formatted string `json:"formatted"`
	Warning   string `json:"warning,omitempty"`
}

// Quote is a router price quote in base units.
type Quote struct {
	TokenIn   string `json:"tokenIn"`
	TokenOut  string `json:"tokenOut"`
	AmountIn  string `json:"amountIn"`
	AmountOut string `json:"amountOut"`
	Stable    bool   `json:"stable"`
}
