package shortlinks

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/linkcart/storefront-core/pkg/enums"
	"github.com/linkcart/storefront-core/pkg/logger"
	"github.com/linkcart/storefront-core/pkg/metrics"
)

const (
	defaultLookupTimeout = 3 * time.Second
	unavailableResource  = "unavailable"
)

// Collision names the resource that already owns a path.
type Collision struct {
	Namespace  enums.CollisionNamespace `json:"namespace"`
	Resource   string                   `json:"resource"`
	ResourceID string                   `json:"resource_id,omitempty"`
}

// CollisionResult aggregates every namespace hit, sorted by namespace priority.
type CollisionResult struct {
	Path         string                     `json:"path"`
	HasCollision bool                       `json:"has_collision"`
	Collisions   []Collision                `json:"collisions"`
	Degraded     []enums.CollisionNamespace `json:"degraded,omitempty"`
}

// First returns the collision shown to users, or nil.
func (r CollisionResult) First() *Collision {
	if len(r.Collisions) == 0 {
		return nil
	}
	c := r.Collisions[0]
	return &c
}

// CheckerOptions tunes the collision checker.
type CheckerOptions struct {
	LookupTimeout time.Duration
	// FailClosed reports a failed namespace as a collision instead of ignoring it.
	FailClosed bool
}

// Checker fans a candidate path out to every namespace concurrently.
type Checker struct {
	lookups []Lookup
	opts    CheckerOptions
	metrics *metrics.ShortlinkMetrics
	logg    *logger.Logger
}

func NewChecker(lookups []Lookup, opts CheckerOptions, m *metrics.ShortlinkMetrics, logg *logger.Logger) (*Checker, error) {
	if len(lookups) == 0 {
		return nil, fmt.Errorf("at least one namespace lookup required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if opts.LookupTimeout <= 0 {
		opts.LookupTimeout = defaultLookupTimeout
	}
	return &Checker{lookups: lookups, opts: opts, metrics: m, logg: logg}, nil
}

type lookupOutcome struct {
	hit *Collision
	err error
}

// Check never fails: namespace errors degrade the result instead.
func (c *Checker) Check(ctx context.Context, path string, excludeID uuid.UUID) CollisionResult {
	started := time.Now()
	normalized := NormalizePath(path)

	outcomes := make([]lookupOutcome, len(c.lookups))
	var wg sync.WaitGroup
	for i, lookup := range c.lookups {
		wg.Add(1)
		go func(i int, lookup Lookup) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					outcomes[i] = lookupOutcome{err: fmt.Errorf("lookup panicked: %v", r)}
				}
			}()
			lookupCtx, cancel := context.WithTimeout(ctx, c.opts.LookupTimeout)
			defer cancel()
			hit, err := lookup.Find(lookupCtx, normalized, excludeID)
			outcomes[i] = lookupOutcome{hit: hit, err: err}
		}(i, lookup)
	}
	wg.Wait()

	result := CollisionResult{Path: normalized, Collisions: []Collision{}}
	var errs error
	for i, outcome := range outcomes {
		ns := c.lookups[i].Namespace()
		if outcome.err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", ns, outcome.err))
			result.Degraded = append(result.Degraded, ns)
			c.metrics.IncNamespaceFailure(ns.String())
			if c.opts.FailClosed {
				result.Collisions = append(result.Collisions, Collision{Namespace: ns, Resource: unavailableResource})
			}
			continue
		}
		if outcome.hit != nil {
			hit := *outcome.hit
			hit.Namespace = ns
			result.Collisions = append(result.Collisions, hit)
		}
	}

	sort.SliceStable(result.Collisions, func(i, j int) bool {
		return result.Collisions[i].Namespace.Priority() < result.Collisions[j].Namespace.Priority()
	})
	sort.SliceStable(result.Degraded, func(i, j int) bool {
		return result.Degraded[i].Priority() < result.Degraded[j].Priority()
	})
	result.HasCollision = len(result.Collisions) > 0

	if errs != nil {
		logCtx := c.logg.WithFields(ctx, map[string]any{
			"path":        normalized,
			"fail_closed": c.opts.FailClosed,
			"error":       errs.Error(),
		})
		c.logg.Warn(logCtx, "collision check degraded")
	}
	c.metrics.ObserveCollisionCheck(time.Since(started), result.HasCollision)
	return result
}
