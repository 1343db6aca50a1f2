package httpx

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"
)

type codedErr struct{ code int }

func (e *codedErr) Error() string       { return fmt.Sprintf("status %d", e.code) }
func (e *codedErr) HTTPStatusCode() int { return e.code }

func TestIsRetryableHTTPStatus(t *testing.T) {
	cases := []struct {
		code int
		want bool
	}{
		{200, false},
		{400, false},
		{404, false},
		{408, true},
		{429, true},
		{500, true},
		{503, true},
		{599, true},
		{600, false},
	}
	for _, tc := range cases {
		if got := IsRetryableHTTPStatus(tc.code); got != tc.want {
			t.Fatalf("status %d: got %v want %v", tc.code, got, tc.want)
		}
	}
}

func TestIsRetryableError(t *testing.T) {
	if IsRetryableError(nil) {
		t.Fatalf("nil error must not retry")
	}
	if !IsRetryableError(context.DeadlineExceeded) {
		t.Fatalf("deadline exceeded should retry")
	}
	if !IsRetryableError(fmt.Errorf("wrap: %w", &codedErr{code: 502})) {
		t.Fatalf("wrapped 502 should retry")
	}
	if IsRetryableError(fmt.Errorf("wrap: %w", &codedErr{code: 401})) {
		t.Fatalf("401 must not retry")
	}
	if IsRetryableError(errors.New("plain failure")) {
		t.Fatalf("plain error must not retry")
	}
}

func TestRetryAfterDuration(t *testing.T) {
	resp := &http.Response{Header: http.Header{"Retry-After": []string{"3"}}}
	if got := RetryAfterDuration(resp, time.Second, time.Minute); got != 3*time.Second {
		t.Fatalf("expected header honored, got %v", got)
	}
	if got := RetryAfterDuration(resp, time.Second, 2*time.Second); got != 2*time.Second {
		t.Fatalf("expected cap applied, got %v", got)
	}
	if got := RetryAfterDuration(nil, time.Second, time.Minute); got != time.Second {
		t.Fatalf("expected fallback without response, got %v", got)
	}
}

func TestJitterSleep_StaysWithinBounds(t *testing.T) {
	base := time.Second
	for i := 0; i < 100; i++ {
		got := JitterSleep(base)
		if got < 800*time.Millisecond || got > 1200*time.Millisecond {
			t.Fatalf("jitter out of bounds: %v", got)
		}
	}
	if JitterSleep(0) != 0 {
		t.Fatalf("non-positive base must return 0")
	}
}
