package shortlinks

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/linkcart/storefront-core/internal/analytics"
	"github.com/linkcart/storefront-core/pkg/enums"
	"github.com/linkcart/storefront-core/pkg/logger"
	"github.com/linkcart/storefront-core/pkg/metrics"
)

const defaultRecordTimeout = 5 * time.Second

// Visit describes the request that hit a short path.
type Visit struct {
	Referrer  string
	UserAgent string
	IPAddress string
}

// Resolution is the terminal state of a lookup plus the states it passed through.
type Resolution struct {
	State          enums.ResolutionState
	Path           string
	ShortlinkID    uuid.UUID
	DestinationURL string
	Trace          []enums.ResolutionState
}

// Redirect reports whether the caller should redirect to DestinationURL.
func (r Resolution) Redirect() bool {
	return r.State == enums.ResolutionStateRedirect
}

type clickRecorder interface {
	RecordClick(ctx context.Context, event analytics.ClickEvent) error
}

// ResolverOptions tunes click recording after a redirect.
type ResolverOptions struct {
	RecordTimeout time.Duration
	Now           func() time.Time
	// Dispatch runs click recording off the request path; defaults to a new goroutine.
	Dispatch func(func())
}

// Resolver turns request paths into redirect decisions.
type Resolver struct {
	links    pathFinder
	recorder clickRecorder
	opts     ResolverOptions
	metrics  *metrics.ShortlinkMetrics
	logg     *logger.Logger
}

// NewResolver builds a resolver. recorder may be nil to skip click recording.
func NewResolver(links pathFinder, recorder clickRecorder, opts ResolverOptions, m *metrics.ShortlinkMetrics, logg *logger.Logger) (*Resolver, error) {
	if links == nil {
		return nil, fmt.Errorf("shortlink finder required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if opts.RecordTimeout <= 0 {
		opts.RecordTimeout = defaultRecordTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Dispatch == nil {
		opts.Dispatch = func(fn func()) { go fn() }
	}
	return &Resolver{links: links, recorder: recorder, opts: opts, metrics: m, logg: logg}, nil
}

// Resolve walks checking -> found_active -> redirect, or ends in not_found.
// Only a failed lookup returns an error; click recording never does.
func (r *Resolver) Resolve(ctx context.Context, path string, visit Visit) (Resolution, error) {
	res := Resolution{State: enums.ResolutionStateChecking, Path: NormalizePath(path)}
	res.Trace = []enums.ResolutionState{res.State}

	validation := ValidatePathFormat(path)
	if !validation.Valid {
		r.finish(&res, enums.ResolutionStateNotFound)
		return res, nil
	}
	res.Path = validation.Path

	link, err := r.links.FindByPath(ctx, res.Path)
	if err != nil {
		return res, fmt.Errorf("lookup shortlink %q: %w", res.Path, err)
	}
	if link == nil {
		r.finish(&res, enums.ResolutionStateNotFound)
		return res, nil
	}

	res.ShortlinkID = link.ID
	if !link.IsActive {
		r.advance(&res, enums.ResolutionStateFoundInactive)
		r.finish(&res, enums.ResolutionStateNotFound)
		return res, nil
	}

	r.advance(&res, enums.ResolutionStateFoundActive)
	res.DestinationURL = link.DestinationURL
	r.finish(&res, enums.ResolutionStateRedirect)
	r.dispatchClick(ctx, res, visit)
	return res, nil
}

func (r *Resolver) advance(res *Resolution, state enums.ResolutionState) {
	res.State = state
	res.Trace = append(res.Trace, state)
}

func (r *Resolver) finish(res *Resolution, state enums.ResolutionState) {
	r.advance(res, state)
	r.metrics.IncResolution(state.String())
}

func (r *Resolver) dispatchClick(ctx context.Context, res Resolution, visit Visit) {
	if r.recorder == nil {
		return
	}
	event := analytics.ClickEvent{
		EventID:        uuid.New(),
		ShortlinkID:    res.ShortlinkID,
		Path:           res.Path,
		DestinationURL: res.DestinationURL,
		Referrer:       visit.Referrer,
		UserAgent:      visit.UserAgent,
		IPAddress:      visit.IPAddress,
		OccurredAt:     r.opts.Now().UTC(),
	}
	detached := context.WithoutCancel(ctx)
	r.opts.Dispatch(func() {
		recordCtx, cancel := context.WithTimeout(detached, r.opts.RecordTimeout)
		defer cancel()
		defer func() {
			if p := recover(); p != nil {
				r.logg.Error(recordCtx, "click recording panicked", fmt.Errorf("%v", p))
			}
		}()
		if err := r.recorder.RecordClick(recordCtx, event); err != nil {
			logCtx := r.logg.WithFields(recordCtx, map[string]any{
				"shortlink_id": event.ShortlinkID.String(),
				"path":         event.Path,
				"error":        err.Error(),
			})
			r.logg.Warn(logCtx, "click recording failed")
		}
	})
}
