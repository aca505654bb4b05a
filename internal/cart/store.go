package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/linkcart/storefront-core/internal/pricing"
	"github.com/linkcart/storefront-core/pkg/logger"
	"github.com/linkcart/storefront-core/pkg/redis"
)

// kvStore is the slice of the Redis client used for cart sessions.
type kvStore interface {
	GetWithTTL(ctx context.Context, key string, ttl time.Duration) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CartKey(sessionID string) string
}

// SessionStore persists pricing snapshots per cart session with a sliding TTL.
type SessionStore struct {
	kv   kvStore
	ttl  time.Duration
	logg *logger.Logger
}

// NewSessionStore wraps the key-value store.
func NewSessionStore(kv kvStore, ttl time.Duration, logg *logger.Logger) (*SessionStore, error) {
	if kv == nil {
		return nil, fmt.Errorf("cart key-value store required")
	}
	return &SessionStore{kv: kv, ttl: ttl, logg: logg}, nil
}

// Load restores the session's cart. A missing key is an empty cart, and so is
// an unreadable snapshot, which is logged and discarded.
func (s *SessionStore) Load(ctx context.Context, sessionID string) (*pricing.Cart, error) {
	raw, err := s.kv.GetWithTTL(ctx, s.kv.CartKey(sessionID), s.ttl)
	if errors.Is(err, redis.ErrNil) {
		return pricing.NewCart(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cart session: %w", err)
	}

	var snap pricing.Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		if s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "cart.snapshot_discarded")
		}
		return pricing.NewCart(), nil
	}
	return pricing.Restore(snap), nil
}

// Save writes the cart snapshot and refreshes the TTL.
func (s *SessionStore) Save(ctx context.Context, sessionID string, c *pricing.Cart) error {
	payload, err := json.Marshal(c.Snapshot())
	if err != nil {
		return fmt.Errorf("encode cart snapshot: %w", err)
	}
	if err := s.kv.Set(ctx, s.kv.CartKey(sessionID), string(payload), s.ttl); err != nil {
		return fmt.Errorf("write cart session: %w", err)
	}
	return nil
}

// Delete drops the session's cart.
func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.kv.Del(ctx, s.kv.CartKey(sessionID)); err != nil {
		return fmt.Errorf("delete cart session: %w", err)
	}
	return nil
}
