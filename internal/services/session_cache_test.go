package services

import (
	"context"
	"strings"
	"testing"
)

func TestTurnKey_ScopedPerUserAndSession(t *testing.T) {
	key := "client-chosen-key"
	a := turnKey("user-a", "session-1", key)
	b := turnKey("user-b", "session-1", key)
	c := turnKey("user-a", "session-2", key)

	if a == b {
		t.Fatalf("same idempotency key collides across users: %q", a)
	}
	if a == c {
		t.Fatalf("same idempotency key collides across sessions: %q", a)
	}
	if !strings.Contains(a, "user-a") || !strings.Contains(a, "session-1") {
		t.Fatalf("turn key is missing its scope: %q", a)
	}
}

func TestSessionCache_NilReceiverIsInert(t *testing.T) {
	var cache *SessionCache
	ctx := context.Background()

	if got := cache.GetTurnResult(ctx, "u", "s", "k"); got != nil {
		t.Fatalf("expected nil turn result from nil cache, got %+v", got)
	}
	cache.StoreTurnResult(ctx, "u", "s", "k", &TurnResult{})
	if got := cache.GetSessionList(ctx, "u"); got != nil {
		t.Fatalf("expected nil session list from nil cache, got %q", got)
	}
	cache.StoreSessionList(ctx, "u", []byte("x"))
	cache.InvalidateSessionList(ctx, "u")
	if err := cache.Close(); err != nil {
		t.Fatalf("nil cache close: %v", err)
	}
}
