package providers

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestClassifyError(t *testing.T) {
	cases := map[string]ErrorType{
		"insufficient_quota":                      ErrorQuota,
		"429 rate":                                ErrorRate,
		"context length exceeded":                 ErrorContext,
		"timeout":                                 ErrorTransient,
		"bad request":                             ErrorPermanent,
		"anthropic generate error 401: invalid":   ErrorAuth,
		"anthropic key missing for alias \"x\"":   ErrorAuth,
		"anthropic generate error 529: overloaded": ErrorTransient,
	}
	for msg, want := range cases {
		if got := ClassifyError(errors.New(msg)); got != want {
			t.Fatalf("classify %q: got %s want %s", msg, got, want)
		}
	}
	if got := ClassifyError(fmt.Errorf("call: %w", context.DeadlineExceeded)); got != ErrorTransient {
		t.Fatalf("deadline: got %s", got)
	}
}

func TestRetryable(t *testing.T) {
	if !Retryable(errors.New("429 rate limited")) {
		t.Fatalf("rate limit should be retryable")
	}
	if Retryable(errors.New("bad request")) {
		t.Fatalf("permanent error should not be retryable")
	}
	if Retryable(nil) {
		t.Fatalf("nil error should not be retryable")
	}
}
