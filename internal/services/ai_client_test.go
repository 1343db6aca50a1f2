package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/yungbote/courseforge-backend/internal/data/repos/testutil"
)

const completionBody = `{"choices":[{"message":{"role":"assistant","content":"ok"}}]}`

func newTestOpenAIClient(t *testing.T, baseURL string) AIClient {
	t.Helper()
	t.Setenv("OPENAI_API_KEY", "test-key")
	t.Setenv("OPENAI_BASE_URL", baseURL)
	t.Setenv("OPENAI_MAX_RETRIES", "2")
	client, err := NewOpenAIClient(testutil.Logger(t))
	if err != nil {
		t.Fatalf("NewOpenAIClient: %v", err)
	}
	return client
}

func TestOpenAIClient_HonorsRetryAfterOnThrottle(t *testing.T) {
	if testing.Short() {
		t.Skip("sleeps through a throttle window")
	}

	var mu sync.Mutex
	var hits []time.Time
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits = append(hits, time.Now())
		n := len(hits)
		mu.Unlock()
		if n == 1 {
			w.Header().Set("Retry-After", "2")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionBody))
	}))
	defer srv.Close()

	client := newTestOpenAIClient(t, srv.URL)
	out, err := client.Complete(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if out.Content != "ok" {
		t.Fatalf("unexpected content %q", out.Content)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(hits) != 2 {
		t.Fatalf("expected 2 attempts, got %d", len(hits))
	}
	// Retry-After of 2s must override the 1s first backoff; with jitter the
	// gap lands in [1.6s, 2.4s].
	if gap := hits[1].Sub(hits[0]); gap < 1400*time.Millisecond {
		t.Fatalf("retry came back after %v, before the advertised window", gap)
	}
}

func TestOpenAIClient_NoRetryOnClientError(t *testing.T) {
	var mu sync.Mutex
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		attempts++
		mu.Unlock()
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"bad request"}}`))
	}))
	defer srv.Close()

	client := newTestOpenAIClient(t, srv.URL)
	_, err := client.Complete(context.Background(), "hello")
	if err == nil {
		t.Fatalf("expected an error for 400 response")
	}
	var httpErr *openAIHTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("unexpected error %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if attempts != 1 {
		t.Fatalf("expected a single attempt for a 400, got %d", attempts)
	}
}
