package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/linkcart/storefront-core/pkg/metrics"
)

const (
	stageCount   = "count"
	stagePublish = "publish"
)

type clickCounter interface {
	IncrementClicks(ctx context.Context, id uuid.UUID, at time.Time) error
}

type clickPublisher interface {
	Publish(ctx context.Context, data []byte, attrs map[string]string) error
}

// ClickRecorder persists the click counter and publishes the click event.
type ClickRecorder struct {
	counter   clickCounter
	publisher clickPublisher
	metrics   *metrics.ShortlinkMetrics
}

// NewClickRecorder builds a recorder. publisher may be nil when click events are disabled.
func NewClickRecorder(counter clickCounter, publisher clickPublisher, m *metrics.ShortlinkMetrics) (*ClickRecorder, error) {
	if counter == nil {
		return nil, fmt.Errorf("click counter required")
	}
	return &ClickRecorder{counter: counter, publisher: publisher, metrics: m}, nil
}

// RecordClick attempts both stages even when the first fails.
func (r *ClickRecorder) RecordClick(ctx context.Context, event ClickEvent) error {
	if event.EventID == uuid.Nil {
		event.EventID = uuid.New()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	var errs error
	if err := r.counter.IncrementClicks(ctx, event.ShortlinkID, event.OccurredAt); err != nil {
		r.metrics.IncClickFailure(stageCount)
		errs = multierr.Append(errs, fmt.Errorf("increment click count: %w", err))
	}

	if r.publisher != nil {
		if err := r.publish(ctx, event); err != nil {
			r.metrics.IncClickFailure(stagePublish)
			errs = multierr.Append(errs, fmt.Errorf("publish click event: %w", err))
		}
	}
	return errs
}

func (r *ClickRecorder) publish(ctx context.Context, event ClickEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return r.publisher.Publish(ctx, data, map[string]string{
		"event_id":     event.EventID.String(),
		"shortlink_id": event.ShortlinkID.String(),
		"occurred_at":  event.OccurredAt.UTC().Format(time.RFC3339Nano),
	})
}
