// Package idempotency implements a claim-then-commit guard on top of Redis.
//
// A caller first claims a key with a short lease. While the lease is held the
// key carries a pending marker; concurrent callers see the claim as in flight.
// Commit replaces the marker with the final value and the long retention TTL,
// Release drops the claim so the work can be retried.
package idempotency

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/linkcart/storefront-core/pkg/redis"
)

const (
	pendingMarker = "pending"
	doneMarker    = "done"

	// DefaultLease bounds how long a crashed holder can block a key.
	DefaultLease = 30 * time.Second
)

// Store is the subset of the redis client the guard needs.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	IdempotencyKey(scope, id string) string
}

// State is the outcome of a claim.
type State int

const (
	// Claimed means the caller owns the key and must Commit or Release it.
	Claimed State = iota
	// InFlight means another holder has the key leased.
	InFlight
	// Completed means the work already ran; Claim.Value holds its result.
	Completed
)

func (s State) String() string {
	switch s {
	case Claimed:
		return "claimed"
	case InFlight:
		return "in_flight"
	case Completed:
		return "completed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

type Claim struct {
	State State
	Key   string
	Value string
}

// Guard claims and commits namespaced keys.
type Guard struct {
	store Store
	lease time.Duration
}

func NewGuard(store Store, lease time.Duration) (*Guard, error) {
	if store == nil {
		return nil, errors.New("idempotency store is required")
	}
	if lease <= 0 {
		lease = DefaultLease
	}
	return &Guard{store: store, lease: lease}, nil
}

// Claim tries to take scope/id. A key that expires between the failed SETNX
// and the read is retried once.
func (g *Guard) Claim(ctx context.Context, scope, id string) (Claim, error) {
	if strings.TrimSpace(scope) == "" || strings.TrimSpace(id) == "" {
		return Claim{}, errors.New("idempotency scope and id are required")
	}
	key := g.store.IdempotencyKey(scope, id)

	for attempt := 0; attempt < 2; attempt++ {
		ok, err := g.store.SetNX(ctx, key, pendingMarker, g.lease)
		if err != nil {
			return Claim{}, fmt.Errorf("claim %s: %w", key, err)
		}
		if ok {
			return Claim{State: Claimed, Key: key}, nil
		}

		value, err := g.store.Get(ctx, key)
		if errors.Is(err, redis.ErrNil) {
			continue
		}
		if err != nil {
			return Claim{}, fmt.Errorf("read %s: %w", key, err)
		}
		if value == pendingMarker {
			return Claim{State: InFlight, Key: key}, nil
		}
		return Claim{State: Completed, Key: key, Value: value}, nil
	}
	return Claim{State: InFlight, Key: key}, nil
}

// Commit stores the final value for a claimed key and keeps it for ttl.
func (g *Guard) Commit(ctx context.Context, claim Claim, value string, ttl time.Duration) error {
	if claim.State != Claimed {
		return fmt.Errorf("commit %s: key not claimed (%s)", claim.Key, claim.State)
	}
	if value == "" || value == pendingMarker {
		value = doneMarker
	}
	return g.store.Set(ctx, claim.Key, value, ttl)
}

// Release gives a claimed key back.
func (g *Guard) Release(ctx context.Context, claim Claim) error {
	if claim.State != Claimed {
		return nil
	}
	return g.store.Del(ctx, claim.Key)
}

// Events de-duplicates consumed messages per consumer name.
type Events struct {
	guard     *Guard
	retention time.Duration
}

// NewEvents keeps processed event ids for retention.
func NewEvents(store Store, lease, retention time.Duration) (*Events, error) {
	if retention < 0 {
		return nil, errors.New("retention must be non-negative")
	}
	guard, err := NewGuard(store, lease)
	if err != nil {
		return nil, err
	}
	return &Events{guard: guard, retention: retention}, nil
}

func (e *Events) Begin(ctx context.Context, consumer string, eventID uuid.UUID) (Claim, error) {
	if strings.TrimSpace(consumer) == "" {
		return Claim{}, errors.New("consumer name is required")
	}
	if eventID == uuid.Nil {
		return Claim{}, errors.New("event id is required")
	}
	return e.guard.Claim(ctx, "evt:"+consumer, eventID.String())
}

func (e *Events) Done(ctx context.Context, claim Claim) error {
	return e.guard.Commit(ctx, claim, doneMarker, e.retention)
}

func (e *Events) Abort(ctx context.Context, claim Claim) error {
	return e.guard.Release(ctx, claim)
}
