package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/courseforge-backend/internal/pkg/logger"
)

// SessionCache is an optional Redis layer: turn results keyed per user and
// session by idempotency key, and a short-lived per-user session listing.
// All methods are safe on a nil receiver so the service runs without Redis.
type SessionCache struct {
	log *logger.Logger
	rdb *goredis.Client
	ttl time.Duration
}

func NewSessionCache(log *logger.Logger) (*SessionCache, error) {
	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &SessionCache{
		log: log.With("service", "SessionCache"),
		rdb: rdb,
		ttl: 10 * time.Minute,
	}, nil
}

func (c *SessionCache) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

// turnKey scopes the idempotency key to its owner and session. Clients pick
// idempotency keys freely, so an unscoped key would let one user replay
// another user's cached result.
func turnKey(userID, sessionID, idempotencyKey string) string {
	return "courseforge:turn:" + userID + ":" + sessionID + ":" + idempotencyKey
}

func listKey(userID string) string {
	return "courseforge:sessions:" + userID
}

// GetTurnResult returns a previously stored result for the user's
// idempotency key, or nil on any miss or decode problem.
func (c *SessionCache) GetTurnResult(ctx context.Context, userID, sessionID, idempotencyKey string) *TurnResult {
	if c == nil || c.rdb == nil || strings.TrimSpace(idempotencyKey) == "" {
		return nil
	}
	raw, err := c.rdb.Get(ctx, turnKey(userID, sessionID, idempotencyKey)).Bytes()
	if err != nil {
		return nil
	}
	var out TurnResult
	if err := json.Unmarshal(raw, &out); err != nil {
		c.log.Warn("Failed to decode cached turn result", "error", err)
		return nil
	}
	return &out
}

func (c *SessionCache) StoreTurnResult(ctx context.Context, userID, sessionID, idempotencyKey string, result *TurnResult) {
	if c == nil || c.rdb == nil || strings.TrimSpace(idempotencyKey) == "" || result == nil {
		return
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, turnKey(userID, sessionID, idempotencyKey), raw, c.ttl).Err(); err != nil {
		c.log.Warn("Failed to cache turn result", "error", err)
	}
}

func (c *SessionCache) GetSessionList(ctx context.Context, userID string) []byte {
	if c == nil || c.rdb == nil {
		return nil
	}
	raw, err := c.rdb.Get(ctx, listKey(userID)).Bytes()
	if err != nil {
		return nil
	}
	return raw
}

func (c *SessionCache) StoreSessionList(ctx context.Context, userID string, payload []byte) {
	if c == nil || c.rdb == nil || len(payload) == 0 {
		return
	}
	if err := c.rdb.Set(ctx, listKey(userID), payload, 30*time.Second).Err(); err != nil {
		c.log.Warn("Failed to cache session list", "error", err)
	}
}

func (c *SessionCache) InvalidateSessionList(ctx context.Context, userID string) {
	if c == nil || c.rdb == nil {
		return
	}
	if err := c.rdb.Del(ctx, listKey(userID)).Err(); err != nil {
		c.log.Warn("Failed to invalidate session list", "error", err)
	}
}
