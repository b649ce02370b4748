package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/opsenary/apptracker/internal/core/domain"
)

type dispatchOutbox struct {
	mu         sync.Mutex
	pending    []domain.OutboxEvent
	dispatched []int64
	failed     []int64
	dead       []int64
}

func (o *dispatchOutbox) Enqueue(_ context.Context, topic string, event domain.ChangeEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.pending = append(o.pending, domain.OutboxEvent{
		ID:          int64(len(o.pending) + 1),
		EventID:     event.EventID,
		Topic:       topic,
		PayloadJSON: payload,
		Status:      "pending",
	})
	return nil
}

func (o *dispatchOutbox) FetchPending(_ context.Context, limit int) ([]domain.OutboxEvent, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := append([]domain.OutboxEvent(nil), o.pending...)
	if len(out) > limit {
		out = out[:limit]
	}
	o.pending = nil
	return out, nil
}

func (o *dispatchOutbox) MarkDispatched(_ context.Context, id int64) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.dispatched = append(o.dispatched, id)
	return nil
}

func (o *dispatchOutbox) MarkFailed(_ context.Context, id int64, attempts int, _ string, _ string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.failed = append(o.failed, id)
	return nil
}

func (o *dispatchOutbox) MarkDead(_ context.Context, id int64, _ int, _ string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.dead = append(o.dead, id)
	return nil
}

type capturePublisher struct {
	mu     sync.Mutex
	topics []string
	events []domain.ChangeEvent
	err    error
}

func (p *capturePublisher) Publish(_ context.Context, topic string, event domain.ChangeEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.topics = append(p.topics, topic)
	p.events = append(p.events, event)
	return nil
}

func queuedEvent(id int64, attempts int) domain.OutboxEvent {
	payload, _ := json.Marshal(domain.ChangeEvent{
		EventID:  "evt-1",
		Kind:     "inventory.Server",
		EntityID: "3",
		Action:   domain.ActionCreate,
		Actor:    "alice",
	})
	return domain.OutboxEvent{
		ID:          id,
		EventID:     "evt-1",
		Topic:       "changes.inventory.Server",
		PayloadJSON: payload,
		Status:      "pending",
		Attempts:    attempts,
	}
}

func TestDispatcherDeliversPending(t *testing.T) {
	outbox := &dispatchOutbox{pending: []domain.OutboxEvent{queuedEvent(1, 0)}}
	pub := &capturePublisher{}
	d := NewOutboxDispatcher(outbox, pub, time.Second, 10, discardLogger())

	if err := d.deliverBatch(context.Background()); err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if len(pub.events) != 1 || pub.events[0].Kind != "inventory.Server" {
		t.Fatalf("publish mismatch: %+v", pub.events)
	}
	if pub.topics[0] != "changes.inventory.Server" {
		t.Fatalf("topic mismatch: %q", pub.topics[0])
	}
	if len(outbox.dispatched) != 1 || outbox.dispatched[0] != 1 {
		t.Fatalf("not marked dispatched: %+v", outbox.dispatched)
	}
	if m := d.Metrics(); m.DeliverSuccessTotal != 1 {
		t.Fatalf("metrics mismatch: %+v", m)
	}
}

func TestDispatcherRetriesFailure(t *testing.T) {
	outbox := &dispatchOutbox{pending: []domain.OutboxEvent{queuedEvent(1, 0)}}
	pub := &capturePublisher{err: errors.New("connection refused")}
	d := NewOutboxDispatcher(outbox, pub, time.Second, 10, discardLogger())

	if err := d.deliverBatch(context.Background()); err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if len(outbox.failed) != 1 {
		t.Fatalf("expected retry scheduling: %+v", outbox)
	}
	if len(outbox.dead) != 0 {
		t.Fatalf("first failure must not dead-letter: %+v", outbox.dead)
	}
	if m := d.Metrics(); m.DeliverFailureTotal != 1 {
		t.Fatalf("metrics mismatch: %+v", m)
	}
}

func TestDispatcherDeadLettersAfterMaxRetries(t *testing.T) {
	outbox := &dispatchOutbox{pending: []domain.OutboxEvent{queuedEvent(1, 4)}}
	pub := &capturePublisher{err: errors.New("still refusing")}
	d := NewOutboxDispatcher(outbox, pub, time.Second, 10, discardLogger())

	if err := d.deliverBatch(context.Background()); err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if len(outbox.dead) != 1 {
		t.Fatalf("expected dead letter: %+v", outbox)
	}
	if m := d.Metrics(); m.DeliverDeadTotal != 1 {
		t.Fatalf("metrics mismatch: %+v", m)
	}
}

func TestDispatcherSkipsUndecodablePayload(t *testing.T) {
	bad := queuedEvent(1, 0)
	bad.PayloadJSON = json.RawMessage(`{broken`)
	outbox := &dispatchOutbox{pending: []domain.OutboxEvent{bad, queuedEvent(2, 0)}}
	pub := &capturePublisher{}
	d := NewOutboxDispatcher(outbox, pub, time.Second, 10, discardLogger())

	if err := d.deliverBatch(context.Background()); err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if len(pub.events) != 1 {
		t.Fatalf("good event must still deliver: %+v", pub.events)
	}
	if len(outbox.failed) != 1 {
		t.Fatalf("bad payload must be scheduled for retry: %+v", outbox)
	}
}

func TestRetryBackoffGrowsAndCaps(t *testing.T) {
	if retryBackoff(1) != time.Second {
		t.Fatalf("first backoff = %v", retryBackoff(1))
	}
	if retryBackoff(3) != 9*time.Second {
		t.Fatalf("third backoff = %v", retryBackoff(3))
	}
	if retryBackoff(100) != 5*time.Minute {
		t.Fatalf("backoff must cap at 5m, got %v", retryBackoff(100))
	}
}

func TestDispatcherStartClose(t *testing.T) {
	outbox := &dispatchOutbox{pending: []domain.OutboxEvent{queuedEvent(1, 0)}}
	pub := &capturePublisher{}
	d := NewOutboxDispatcher(outbox, pub, 10*time.Millisecond, 10, discardLogger())

	d.Start(context.Background())
	deadline := time.After(2 * time.Second)
	for {
		pub.mu.Lock()
		delivered := len(pub.events)
		pub.mu.Unlock()
		if delivered > 0 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("dispatcher never delivered")
		case <-time.After(5 * time.Millisecond):
		}
	}
	if err := d.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}
