package errors

import (
	"fmt"
	"testing"
)

func TestWrapPreservesCause(t *testing.T) {
	cause := fmt.Errorf("socket closed")
	err := Wrap(CodeDependency, cause, "fetch message")

	if err.Unwrap() != cause {
		t.Fatalf("expected cause to be preserved")
	}
	if err.Code() != CodeDependency {
		t.Fatalf("unexpected code %s", err.Code())
	}
	if err.Error() != "DEPENDENCY_ERROR: fetch message" {
		t.Fatalf("unexpected error string %q", err.Error())
	}
}

func TestCodeOfUntypedError(t *testing.T) {
	if got := CodeOf(fmt.Errorf("boom")); got != CodeInternal {
		t.Fatalf("expected internal code for untyped error, got %s", got)
	}
}

func TestIsCodeThroughWrapping(t *testing.T) {
	inner := New(CodeNotFound, "message gone")
	outer := fmt.Errorf("sync event: %w", inner)

	if !IsCode(outer, CodeNotFound) {
		t.Fatal("expected NOT_FOUND to be detected through wrapping")
	}
	if IsCode(outer, CodeDependency) {
		t.Fatal("did not expect DEPENDENCY_ERROR")
	}
}

func TestIsRetryable(t *testing.T) {
	if IsRetryable(New(CodeNotFound, "gone")) {
		t.Fatal("NOT_FOUND must be terminal")
	}
	if !IsRetryable(New(CodeDependency, "flaky upstream")) {
		t.Fatal("DEPENDENCY_ERROR must be retryable")
	}
	if !IsRetryable(New(CodeRateLimit, "slow down")) {
		t.Fatal("RATE_LIMIT_EXCEEDED must be retryable")
	}
}
