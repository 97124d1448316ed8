package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/linkfolio/profile-service/internal/ports"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type queuedConsumer struct {
	mu    sync.Mutex
	queue []Message
}

func (c *queuedConsumer) Poll(_ context.Context, max int) ([]Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.queue) == 0 {
		return nil, nil
	}
	n := max
	if n > len(c.queue) {
		n = len(c.queue)
	}
	batch := c.queue[:n]
	c.queue = c.queue[n:]
	return batch, nil
}

func TestConsumerWorkerDispatchesByTopic(t *testing.T) {
	t.Parallel()

	consumer := &queuedConsumer{queue: []Message{
		{Topic: "user.registered", Payload: []byte(`{"user_id":"u1"}`)},
		{Topic: "user.deleted", Payload: []byte(`{"user_id":"u2"}`)},
		{Topic: "unknown.topic", Payload: []byte(`{}`)},
	}}

	var mu sync.Mutex
	seen := map[string]int{}
	handler := func(topic string) Handler {
		return func(_ context.Context, _ []byte) error {
			mu.Lock()
			seen[topic]++
			mu.Unlock()
			return nil
		}
	}
	w := NewConsumerWorker(testLogger(), consumer, map[string]Handler{
		"user.registered": handler("user.registered"),
		"user.deleted":    handler("user.deleted"),
	}, time.Second)

	if err := w.processOnce(context.Background()); err != nil {
		t.Fatalf("processOnce: %v", err)
	}
	if seen["user.registered"] != 1 || seen["user.deleted"] != 1 {
		t.Fatalf("dispatch counts = %v", seen)
	}
}

func TestConsumerWorkerSurvivesHandlerError(t *testing.T) {
	t.Parallel()

	consumer := &queuedConsumer{queue: []Message{
		{Topic: "user.registered", Payload: []byte(`bad`)},
		{Topic: "user.registered", Payload: []byte(`good`)},
	}}
	calls := 0
	w := NewConsumerWorker(testLogger(), consumer, map[string]Handler{
		"user.registered": func(_ context.Context, payload []byte) error {
			calls++
			if string(payload) == "bad" {
				return errors.New("boom")
			}
			return nil
		},
	}, time.Second)

	if err := w.processOnce(context.Background()); err != nil {
		t.Fatalf("processOnce: %v", err)
	}
	if calls != 2 {
		t.Fatalf("handler calls = %d, want 2 (error must not stop the batch)", calls)
	}
}

type memOutbox struct {
	mu        sync.Mutex
	records   []ports.OutboxRecord
	published map[uuid.UUID]bool
	failed    map[uuid.UUID]string
}

func (o *memOutbox) Enqueue(_ context.Context, event ports.OutboxEvent) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.records = append(o.records, ports.OutboxRecord{
		OutboxID:     event.EventID,
		EventType:    event.EventType,
		PartitionKey: event.PartitionKey,
		Payload:      event.Payload,
		FirstSeenAt:  event.OccurredAt,
	})
	return nil
}

func (o *memOutbox) FetchUnpublished(_ context.Context, limit int) ([]ports.OutboxRecord, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	var out []ports.OutboxRecord
	for _, rec := range o.records {
		if !o.published[rec.OutboxID] && len(out) < limit {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (o *memOutbox) MarkPublished(_ context.Context, id uuid.UUID, _ time.Time) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.published == nil {
		o.published = make(map[uuid.UUID]bool)
	}
	o.published[id] = true
	return nil
}

func (o *memOutbox) MarkFailed(_ context.Context, id uuid.UUID, msg string, _ time.Time) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.failed == nil {
		o.failed = make(map[uuid.UUID]string)
	}
	o.failed[id] = msg
	return nil
}

type flakyPublisher struct {
	failType string
	events   []string
}

func (p *flakyPublisher) Publish(_ context.Context, eventType string, _ []byte, _ string) error {
	if eventType == p.failType {
		return errors.New("broker unavailable")
	}
	p.events = append(p.events, eventType)
	return nil
}

func TestOutboxWorkerPublishesAndMarks(t *testing.T) {
	t.Parallel()

	outbox := &memOutbox{}
	ctx := context.Background()
	okID := uuid.New()
	badID := uuid.New()
	_ = outbox.Enqueue(ctx, ports.OutboxEvent{EventID: okID, EventType: "profile.updated", Payload: []byte(`{}`)})
	_ = outbox.Enqueue(ctx, ports.OutboxEvent{EventID: badID, EventType: "broken.event", Payload: []byte(`{}`)})

	publisher := &flakyPublisher{failType: "broken.event"}
	w := NewOutboxWorker(testLogger(), outbox, publisher, time.Second, 10)

	if err := w.processOnce(ctx); err != nil {
		t.Fatalf("processOnce: %v", err)
	}
	if !outbox.published[okID] {
		t.Fatalf("successful publish not marked")
	}
	if outbox.published[badID] {
		t.Fatalf("failed publish marked as published")
	}
	if outbox.failed[badID] == "" {
		t.Fatalf("failed publish not recorded")
	}
	if len(publisher.events) != 1 || publisher.events[0] != "profile.updated" {
		t.Fatalf("published events = %v", publisher.events)
	}
}
