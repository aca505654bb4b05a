package analytics

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/google/uuid"

	pkgbigquery "github.com/linkcart/storefront-core/pkg/bigquery"
)

// ErrRejected marks a click the warehouse refused outright. Redelivering it
// cannot succeed, so consumers ack it.
var ErrRejected = errors.New("click rejected by warehouse")

// ClickEvent is published to the clicks topic after every redirect.
type ClickEvent struct {
	EventID        uuid.UUID `json:"event_id"`
	ShortlinkID    uuid.UUID `json:"shortlink_id"`
	Path           string    `json:"path"`
	DestinationURL string    `json:"destination_url"`
	Referrer       string    `json:"referrer,omitempty"`
	UserAgent      string    `json:"user_agent,omitempty"`
	IPAddress      string    `json:"ip_address,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// DecodeClickEvent parses a published event and checks the fields the warehouse needs.
func DecodeClickEvent(data []byte) (ClickEvent, error) {
	var event ClickEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return ClickEvent{}, fmt.Errorf("decode click event: %w", err)
	}
	if event.EventID == uuid.Nil {
		return ClickEvent{}, fmt.Errorf("event_id missing")
	}
	if event.ShortlinkID == uuid.Nil {
		return ClickEvent{}, fmt.Errorf("shortlink_id missing")
	}
	if strings.TrimSpace(event.Path) == "" {
		return ClickEvent{}, fmt.Errorf("path missing")
	}
	if event.OccurredAt.IsZero() {
		return ClickEvent{}, fmt.Errorf("occurred_at missing")
	}
	return event, nil
}

// ClickRow is one row of the BigQuery clicks table.
type ClickRow struct {
	EventID        string              `bigquery:"event_id"`
	ShortlinkID    string              `bigquery:"shortlink_id"`
	Path           string              `bigquery:"path"`
	DestinationURL string              `bigquery:"destination_url"`
	Referrer       bigquery.NullString `bigquery:"referrer"`
	UserAgent      bigquery.NullString `bigquery:"user_agent"`
	IPAddress      bigquery.NullString `bigquery:"ip_address"`
	OccurredAt     time.Time           `bigquery:"occurred_at"`
	IngestedAt     time.Time           `bigquery:"ingested_at"`
}

// ClicksTableSpec describes the clicks table, partitioned by day on occurred_at.
func ClicksTableSpec(name string) pkgbigquery.TableSpec {
	schema, err := bigquery.InferSchema(ClickRow{})
	if err != nil {
		// ClickRow only uses supported field types.
		panic(fmt.Sprintf("infer click row schema: %v", err))
	}
	return pkgbigquery.TableSpec{
		Name:           name,
		Schema:         schema,
		PartitionField: "occurred_at",
	}
}

func (e ClickEvent) Row(ingestedAt time.Time) ClickRow {
	return ClickRow{
		EventID:        e.EventID.String(),
		ShortlinkID:    e.ShortlinkID.String(),
		Path:           e.Path,
		DestinationURL: e.DestinationURL,
		Referrer:       nullString(e.Referrer),
		UserAgent:      nullString(e.UserAgent),
		IPAddress:      nullString(e.IPAddress),
		OccurredAt:     e.OccurredAt.UTC(),
		IngestedAt:     ingestedAt.UTC(),
	}
}

func nullString(v string) bigquery.NullString {
	if strings.TrimSpace(v) == "" {
		return bigquery.NullString{}
	}
	return bigquery.NullString{StringVal: v, Valid: true}
}
