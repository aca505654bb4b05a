package worker

import (
	"context"
	"errors"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/linkcart/storefront-core/internal/analytics"
	"github.com/linkcart/storefront-core/pkg/idempotency"
	"github.com/linkcart/storefront-core/pkg/logger"
	"github.com/linkcart/storefront-core/pkg/metrics"
)

const clicksConsumerName = "clicks-bq"

const (
	outcomeInserted  = "inserted"
	outcomeDuplicate = "duplicate"
	outcomeInFlight  = "in_flight"
	outcomeMalformed = "malformed"
	outcomeRejected  = "rejected"
	outcomeFailed    = "failed"
)

// Handler defines how to process decoded click events.
type Handler interface {
	Handle(ctx context.Context, event analytics.ClickEvent) error
}

// HandlerFunc adapts functions to the Handler interface.
type HandlerFunc func(ctx context.Context, event analytics.ClickEvent) error

// Handle calls the underlying function.
func (fn HandlerFunc) Handle(ctx context.Context, event analytics.ClickEvent) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, event)
}

type eventGuard interface {
	Begin(ctx context.Context, consumer string, eventID uuid.UUID) (idempotency.Claim, error)
	Done(ctx context.Context, claim idempotency.Claim) error
	Abort(ctx context.Context, claim idempotency.Claim) error
}

// Service consumes click events from Pub/Sub while honoring Redis idempotency.
type Service struct {
	subscription *gcppubsub.Subscriber
	handler      Handler
	events       eventGuard
	metrics      *metrics.ClickConsumerMetrics
	logg         *logger.Logger
}

// NewService creates a new click consumer.
func NewService(subscription *gcppubsub.Subscriber, handler Handler, events eventGuard, m *metrics.ClickConsumerMetrics, logg *logger.Logger) (*Service, error) {
	if subscription == nil {
		return nil, errors.New("clicks subscription is required")
	}
	if handler == nil {
		return nil, errors.New("click handler is required")
	}
	if events == nil {
		return nil, errors.New("event guard is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}

	return &Service{
		subscription: subscription,
		handler:      handler,
		events:       events,
		metrics:      m,
		logg:         logg,
	}, nil
}

type processResult struct {
	nack bool
}

// Run starts consuming click messages until the context is canceled.
func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return s.subscription.Receive(ctx, func(innerCtx context.Context, msg *gcppubsub.Message) {
		if s.process(innerCtx, msg).nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

func (s *Service) process(ctx context.Context, msg *gcppubsub.Message) processResult {
	fields := map[string]any{"message_id": msg.ID}

	event, err := analytics.DecodeClickEvent(msg.Data)
	if err != nil {
		fields["error"] = err.Error()
		s.logg.Warn(s.logg.WithFields(ctx, fields), "invalid click event")
		s.metrics.Inc(outcomeMalformed)
		return processResult{}
	}
	fields["event_id"] = event.EventID.String()
	fields["shortlink_id"] = event.ShortlinkID.String()
	fields["path"] = event.Path
	logCtx := s.logg.WithFields(ctx, fields)

	claim, err := s.events.Begin(logCtx, clicksConsumerName, event.EventID)
	if err != nil {
		s.logg.Error(logCtx, "idempotency check failed", err)
		s.metrics.Inc(outcomeFailed)
		return processResult{nack: true}
	}
	switch claim.State {
	case idempotency.Completed:
		s.logg.Info(logCtx, "click event already processed")
		s.metrics.Inc(outcomeDuplicate)
		return processResult{}
	case idempotency.InFlight:
		// another delivery holds the lease; redeliver once it settles
		s.logg.Debug(logCtx, "click event in flight elsewhere")
		s.metrics.Inc(outcomeInFlight)
		return processResult{nack: true}
	}

	if err := s.handler.Handle(logCtx, event); err != nil {
		if errors.Is(err, analytics.ErrRejected) {
			// settle the claim so redeliveries of a poison event ack straight away
			s.logg.Error(logCtx, "click event rejected, dropping", err)
			if doneErr := s.events.Done(logCtx, claim); doneErr != nil {
				s.logg.Warn(logCtx, "rejected click not marked processed")
			}
			s.metrics.Inc(outcomeRejected)
			return processResult{}
		}
		s.logg.Error(logCtx, "click handler error", err)
		if abortErr := s.events.Abort(logCtx, claim); abortErr != nil {
			s.logg.Error(logCtx, "release idempotency claim", abortErr)
		}
		s.metrics.Inc(outcomeFailed)
		return processResult{nack: true}
	}

	if err := s.events.Done(logCtx, claim); err != nil {
		s.logg.Warn(logCtx, "click stored but not marked processed")
	}
	s.logg.Debug(logCtx, "click event stored")
	s.metrics.Inc(outcomeInserted)
	return processResult{}
}
