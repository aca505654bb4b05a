package writer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	cbigquery "cloud.google.com/go/bigquery"
	"github.com/sethvargo/go-retry"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/linkcart/storefront-core/internal/analytics"
	pkgbigquery "github.com/linkcart/storefront-core/pkg/bigquery"
)

type Config struct {
	ClicksTable string
	RetryPolicy RetryPolicy
}

// RetryPolicy bounds the exponential backoff between insert attempts.
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaximumBackoff time.Duration
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 3
	}
	if p.InitialBackoff <= 0 {
		p.InitialBackoff = 250 * time.Millisecond
	}
	if p.MaximumBackoff < p.InitialBackoff {
		p.MaximumBackoff = max(2*time.Second, p.InitialBackoff)
	}
	return p
}

func (p RetryPolicy) backoff() retry.Backoff {
	b := retry.NewExponential(p.InitialBackoff)
	b = retry.WithCappedDuration(p.MaximumBackoff, b)
	return retry.WithMaxRetries(uint64(p.MaxAttempts-1), b)
}

type rowInserter interface {
	InsertRows(ctx context.Context, table string, rows []any) error
}

// ClickWriter streams one click row per call. Rows carry the event id as
// insert id, so a redelivered event is de-duplicated by BigQuery as well.
type ClickWriter struct {
	client rowInserter
	table  string
	retry  RetryPolicy
	now    func() time.Time
}

func New(client *pkgbigquery.Client, cfg Config) (*ClickWriter, error) {
	if client == nil {
		return nil, errors.New("bigquery client required")
	}
	table := strings.TrimSpace(cfg.ClicksTable)
	if table == "" {
		return nil, errors.New("clicks table is required")
	}
	return &ClickWriter{
		client: client,
		table:  table,
		retry:  cfg.RetryPolicy.withDefaults(),
		now:    time.Now,
	}, nil
}

// WriteClick inserts the event. Transient failures are retried; a refusal is
// returned wrapped in analytics.ErrRejected.
func (w *ClickWriter) WriteClick(ctx context.Context, event analytics.ClickEvent) error {
	row := event.Row(w.now())
	saver := &cbigquery.StructSaver{Struct: row, InsertID: row.EventID}

	err := retry.Do(ctx, w.retry.backoff(), func(ctx context.Context) error {
		err := w.client.InsertRows(ctx, w.table, []any{saver})
		if err != nil && retryable(err) {
			return retry.RetryableError(err)
		}
		return err
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded), retryable(err):
		return fmt.Errorf("insert click into %s: %w", w.table, err)
	default:
		return fmt.Errorf("%w: %s: %w", analytics.ErrRejected, w.table, err)
	}
}

// retryable reports whether every underlying failure is transient.
func retryable(err error) bool {
	var (
		multi  cbigquery.PutMultiError
		rowErr *cbigquery.RowInsertionError
		bqErr  *cbigquery.Error
		apiErr *googleapi.Error
	)
	switch {
	case errors.As(err, &multi):
		if len(multi) == 0 {
			return false
		}
		for i := range multi {
			if !allRetryable(multi[i].Errors) {
				return false
			}
		}
		return true
	case errors.As(err, &rowErr):
		return allRetryable(rowErr.Errors)
	case errors.As(err, &bqErr):
		switch bqErr.Reason {
		case "backendError", "internalError", "rateLimitExceeded", "timeout":
			return true
		}
		return false
	case errors.As(err, &apiErr):
		switch apiErr.Code {
		case http.StatusTooManyRequests, http.StatusRequestTimeout, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true
		}
		return false
	}

	if st, ok := status.FromError(err); ok {
		switch st.Code() {
		case codes.Aborted, codes.DeadlineExceeded, codes.Internal, codes.ResourceExhausted, codes.Unavailable:
			return true
		}
	}
	return false
}

func allRetryable(errs cbigquery.MultiError) bool {
	if len(errs) == 0 {
		return false
	}
	for _, inner := range errs {
		if !retryable(inner) {
			return false
		}
	}
	return true
}
