package analytics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCounter struct {
	ids []uuid.UUID
	err error
}

func (s *stubCounter) IncrementClicks(_ context.Context, id uuid.UUID, _ time.Time) error {
	s.ids = append(s.ids, id)
	return s.err
}

type stubPublisher struct {
	payloads [][]byte
	attrs    []map[string]string
	err      error
}

func (s *stubPublisher) Publish(_ context.Context, data []byte, attrs map[string]string) error {
	s.payloads = append(s.payloads, data)
	s.attrs = append(s.attrs, attrs)
	return s.err
}

func TestRecordClickCountsAndPublishes(t *testing.T) {
	counter := &stubCounter{}
	publisher := &stubPublisher{}
	recorder, err := NewClickRecorder(counter, publisher, nil)
	require.NoError(t, err)

	linkID := uuid.New()
	require.NoError(t, recorder.RecordClick(context.Background(), ClickEvent{ShortlinkID: linkID, Path: "spring"}))

	assert.Equal(t, []uuid.UUID{linkID}, counter.ids)
	require.Len(t, publisher.payloads, 1)
	decoded, err := DecodeClickEvent(publisher.payloads[0])
	require.NoError(t, err)
	assert.Equal(t, linkID, decoded.ShortlinkID)
	assert.Equal(t, decoded.EventID.String(), publisher.attrs[0]["event_id"])
}

func TestRecordClickAttemptsBothStages(t *testing.T) {
	counter := &stubCounter{err: errors.New("db down")}
	publisher := &stubPublisher{err: errors.New("topic missing")}
	recorder, err := NewClickRecorder(counter, publisher, nil)
	require.NoError(t, err)

	err = recorder.RecordClick(context.Background(), ClickEvent{ShortlinkID: uuid.New(), Path: "spring"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
	assert.Contains(t, err.Error(), "topic missing")
	assert.Len(t, publisher.payloads, 1)
}

func TestRecordClickWithoutPublisher(t *testing.T) {
	counter := &stubCounter{}
	recorder, err := NewClickRecorder(counter, nil, nil)
	require.NoError(t, err)

	require.NoError(t, recorder.RecordClick(context.Background(), ClickEvent{ShortlinkID: uuid.New(), Path: "spring"}))
	assert.Len(t, counter.ids, 1)

	_, err = NewClickRecorder(nil, nil, nil)
	assert.Error(t, err)
}
