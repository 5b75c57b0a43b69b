package model

// Swap outcome statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// SwapIntent is one swap request as a user expressed it.
type SwapIntent struct {
	TokenIn      string `json:"tokenIn"`
	TokenOut     string `json:"tokenOut"`
	AmountIn     string `json:"amountIn"`
	MinAmountOut string `json:"minAmountOut,omitempty"`
	MaxApprove   bool   `json:"maxApprove,omitempty"`
}

// ApprovalStep is the approval part of a swap.
type ApprovalStep struct {
	Needed    bool   `json:"needed"`
	Success   bool   `json:"success"`
	TxHash    string `json:"txHash,omitempty"`
	Amount    string `json:"amount,omitempty"`
	Unlimited bool   `json:"unlimited,omitempty"`
	Message   string `json:"message,omitempty"`
}

// SwapStep is the router call part of a swap. Amounts are in base units.
type SwapStep struct {
	TxHash          string `json:"txHash,omitempty"`
	TokenIn         string `json:"tokenIn"`
	TokenOut        string `json:"tokenOut"`
	AmountIn        string `json:"amountIn"`
	MinAmountOut    string `json:"minAmountOut"`
	QuotedAmountOut string `json:"quotedAmountOut,omitempty"`
	Stable          bool   `json:"stable"`
	UsedFallback    bool   `json:"usedFallback,omitempty"`
}

// SwapOutcome aggregates every step of a swap, including partial progress on failure.
type SwapOutcome struct {
	ID        string        `json:"id"`
	Status    string        `json:"status"`
	Approval  *ApprovalStep `json:"approval,omitempty"`
	Swap      *SwapStep     `json:"swap,omitempty"`
	Warnings  []string      `json:"warnings,omitempty"`
	Message   string        `json:"message"`
	ErrorCode string        `json:"errorCode,omitempty"`
	Error     string        `json:"error,omitempty"`
}

// Succeeded reports whether the swap transaction was submitted.
func (o *SwapOutcome) Succeeded() bool {
	return o != nil && o.Status == StatusSuccess
}
