package workers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"castellan/contexts/governance/sod-service/adapters/memory"
	"castellan/contexts/governance/sod-service/ports"
)

type recordingPublisher struct {
	published []publishedEvent
	fail      error
}

type publishedEvent struct {
	Topic    string
	Envelope ports.EventEnvelope
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, event ports.EventEnvelope) error {
	if p.fail != nil {
		return p.fail
	}
	p.published = append(p.published, publishedEvent{Topic: topic, Envelope: event})
	return nil
}

func appendOutboxEvent(t *testing.T, store *memory.Store, eventID string) {
	t.Helper()
	data, err := json.Marshal(map[string]string{"violation_id": "v-" + eventID})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	err = store.AppendOutbox(context.Background(), ports.EventEnvelope{
		EventID:       eventID,
		EventType:     "sod.critical_violation",
		OccurredAt:    store.Now(),
		SourceService: "governance/sod-service",
		PartitionKey:  "tenant-1",
		Data:          data,
	})
	if err != nil {
		t.Fatalf("append outbox: %v", err)
	}
}

func TestOutboxRelayPublishesAndMarksRows(t *testing.T) {
	store := memory.NewStore()
	store.SetNow(time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC))
	appendOutboxEvent(t, store, "evt-1")
	appendOutboxEvent(t, store, "evt-2")

	publisher := &recordingPublisher{}
	relay := OutboxRelay{Outbox: store, Publisher: publisher, Clock: store, BatchSize: 10}

	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}
	if len(publisher.published) != 2 {
		t.Fatalf("expected two published events, got %d", len(publisher.published))
	}
	first := publisher.published[0]
	if first.Topic != "sod.critical_violation" || first.Envelope.EventID != "evt-1" || first.Envelope.PartitionKey != "tenant-1" {
		t.Fatalf("unexpected published event %+v", first)
	}

	// Published rows must not be relayed again.
	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if len(publisher.published) != 2 {
		t.Fatalf("expected no republish, got %d events", len(publisher.published))
	}
}

func TestOutboxRelayKeepsRowsPendingOnPublishFailure(t *testing.T) {
	store := memory.NewStore()
	store.SetNow(time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC))
	appendOutboxEvent(t, store, "evt-1")

	publisher := &recordingPublisher{fail: errors.New("broker unavailable")}
	relay := OutboxRelay{Outbox: store, Publisher: publisher, Clock: store, BatchSize: 10}

	if err := relay.RunOnce(context.Background()); err == nil {
		t.Fatal("expected publish error")
	}

	pending, err := store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected row to stay pending, got %d", len(pending))
	}

	publisher.fail = nil
	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("retry run: %v", err)
	}
	if len(publisher.published) != 1 {
		t.Fatalf("expected one published event after retry, got %d", len(publisher.published))
	}
}
