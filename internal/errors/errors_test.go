package errors

import (
	stdErrors "errors"
	"fmt"
	"testing"
)

func TestIsMatchesByCode(t *testing.T) {
	err := Wrap(CodeSwapExecution, fmt.Errorf("execution reverted"), "both pool types failed")
	wrapped := fmt.Errorf("swap: %w", err)

	if !stdErrors.Is(wrapped, ErrSwapExecution) {
		t.Fatalf("expected wrapped error to match ErrSwapExecution")
	}
	if stdErrors.Is(wrapped, ErrApprovalFailed) {
		t.Fatalf("did not expect match with ErrApprovalFailed")
	}
	if got := CodeOf(wrapped); got != CodeSwapExecution {
		t.Fatalf("code mismatch: %s", got)
	}
}

func TestCodeOfForeignError(t *testing.T) {
	if got := CodeOf(fmt.Errorf("plain")); got != CodeUnknown {
		t.Fatalf("expected UNKNOWN, got %s", got)
	}
	if CodeOf(nil) != CodeUnknown {
		t.Fatalf("expected UNKNOWN for nil")
	}
}

func TestDefaultMessageAndTxHash(t *testing.T) {
	err := New(CodeApprovalFailed, "", WithTxHash("0xabc"))
	if err.Message() != "approval failed" {
		t.Fatalf("message mismatch: %s", err.Message())
	}
	if err.TxHash() != "0xabc" {
		t.Fatalf("tx hash mismatch: %s", err.TxHash())
	}
	if err.Error() != "[APPROVAL_FAILED] approval failed" {
		t.Fatalf("error string mismatch: %s", err.Error())
	}
}

func TestIsUserError(t *testing.T) {
	if !IsUserError(New(CodeInvalidAmount, "bad")) {
		t.Fatalf("expected user error")
	}
	if IsUserError(New(CodeChain, "rpc down")) {
		t.Fatalf("did not expect user error")
	}
	if IsUserError(fmt.Errorf("plain")) {
		t.Fatalf("did not expect user error for foreign error")
	}
}

func TestRegister(t *testing.T) {
	code := Code("TEST_ONLY")
	Register(code, Attributes{Message: "custom", UserError: true})
	if got := New(code, "").Message(); got != "custom" {
		t.Fatalf("message mismatch: %s", got)
	}
	if AttributesOf(Code("MISSING")).Message != "unknown error" {
		t.Fatalf("expected unknown fallback")
	}
}
