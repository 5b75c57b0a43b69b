package errors

import (
	stdErrors "errors"
	"fmt"
	"sync"
)

// Code identifies a failure kind surfaced to callers of the agent.
type Code string

const (
	CodeUnknown          Code = "UNKNOWN"
	CodeInvalidInput     Code = "INVALID_INPUT"
	CodeInvalidAmount    Code = "INVALID_AMOUNT"
	CodeTokenResolution  Code = "TOKEN_RESOLUTION"
	CodeAllowanceCheck   Code = "ALLOWANCE_CHECK"
	CodeApprovalFailed   Code = "APPROVAL_FAILED"
	CodeQuoteUnavailable Code = "QUOTE_UNAVAILABLE"
	CodeSwapExecution    Code = "SWAP_EXECUTION"
	CodeDegenerateRange  Code = "DEGENERATE_RANGE"
	CodePriceFeed        Code = "PRICE_FEED"
	CodeChain            Code = "CHAIN"
)

// Attributes describe default behavior for a code.
type Attributes struct {
	Message string
	// UserError marks failures caused by the request rather than the chain or a collaborator.
	UserError bool
}

var (
	registryMu sync.RWMutex
	registry   = map[Code]Attributes{
		CodeUnknown:          {Message: "unknown error"},
		CodeInvalidInput:     {Message: "invalid input", UserError: true},
		CodeInvalidAmount:    {Message: "invalid amount", UserError: true},
		CodeTokenResolution:  {Message: "token resolution failed", UserError: true},
		CodeAllowanceCheck:   {Message: "allowance check failed"},
		CodeApprovalFailed:   {Message: "approval failed"},
		CodeQuoteUnavailable: {Message: "quote unavailable"},
		CodeSwapExecution:    {Message: "swap execution failed"},
		CodeDegenerateRange:  {Message: "tick range collapsed after rounding", UserError: true},
		CodePriceFeed:        {Message: "price feed unavailable"},
		CodeChain:            {Message: "chain call failed"},
	}
)

// Sentinels for errors.Is comparisons. Matching is by code only.
var (
	ErrInvalidInput     = New(CodeInvalidInput, "")
	ErrInvalidAmount    = New(CodeInvalidAmount, "")
	ErrTokenResolution  = New(CodeTokenResolution, "")
	ErrAllowanceCheck   = New(CodeAllowanceCheck, "")
	ErrApprovalFailed   = New(CodeApprovalFailed, "")
	ErrQuoteUnavailable = New(CodeQuoteUnavailable, "")
	ErrSwapExecution    = New(CodeSwapExecution, "")
	ErrDegenerateRange  = New(CodeDegenerateRange, "")
	ErrPriceFeed        = New(CodePriceFeed, "")
)

// Register adds or replaces the attributes of a code.
func Register(code Code, attr Attributes) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[code] = attr
}

// AttributesOf returns the attributes of code, falling back to UNKNOWN.
func AttributesOf(code Code) Attributes {
	registryMu.RLock()
	defer registryMu.RUnlock()
	if attr, ok := registry[code]; ok {
		return attr
	}
	return registry[CodeUnknown]
}

// Error is the coded error type shared by the agent packages.
type Error struct {
	code    Code
	message string
	cause   error
	txHash  string
}

// Option customizes an Error.
type Option func(*Error)

// WithTxHash records a transaction that was already submitted when the error happened.
func WithTxHash(hash string) Option {
	return func(e *Error) {
		e.txHash = hash
	}
}

// New creates an Error. An empty message uses the registered default.
func New(code Code, message string, opts ...Option) *Error {
	if message == "" {
		message = AttributesOf(code).Message
	}
	e := &Error{code: code, message: message}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// Wrap creates an Error with a cause.
func Wrap(code Code, cause error, message string, opts ...Option) *Error {
	e := New(code, message, opts...)
	e.cause = cause
	return e
}

// Newf formats the message.
func Newf(code Code, format string, args ...interface{}) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// Is matches any *Error with the same code.
func (e *Error) Is(target error) bool {
	if e == nil || target == nil {
		return false
	}
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.code == t.code
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeUnknown
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

// TxHash returns the hash attached with WithTxHash, if any.
func (e *Error) TxHash() string {
	if e == nil {
		return ""
	}
	return e.txHash
}

// From extracts the first *Error in err's chain.
func From(err error) (*Error, bool) {
	if err == nil {
		return nil, false
	}
	var target *Error
	if stdErrors.As(err, &target) {
		return target, true
	}
	return nil, false
}

// CodeOf returns the code of err, or UNKNOWN for foreign errors.
func CodeOf(err error) Code {
	if e, ok := From(err); ok {
		return e.Code()
	}
	return CodeUnknown
}

// IsUserError reports whether err was caused by caller input.
func IsUserError(err error) bool {
	e, ok := From(err)
	if !ok {
		return false
	}
	return AttributesOf(e.Code()).UserError
}
