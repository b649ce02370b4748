package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/opsenary/apptracker/internal/actorctx"
	"github.com/opsenary/apptracker/internal/core/domain"
)

type stubSink struct {
	mu     sync.Mutex
	events []domain.AuditEvent
	err    error
}

func (s *stubSink) Append(event domain.AuditEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, event)
	return nil
}

func (s *stubSink) all() []domain.AuditEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.AuditEvent(nil), s.events...)
}

type stubOutbox struct {
	mu      sync.Mutex
	topics  []string
	changes []domain.ChangeEvent
}

func (o *stubOutbox) Enqueue(_ context.Context, topic string, event domain.ChangeEvent) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.topics = append(o.topics, topic)
	o.changes = append(o.changes, event)
	return nil
}

func (o *stubOutbox) FetchPending(context.Context, int) ([]domain.OutboxEvent, error) {
	return nil, nil
}
func (o *stubOutbox) MarkDispatched(context.Context, int64) error             { return nil }
func (o *stubOutbox) MarkFailed(context.Context, int64, int, string, string) error { return nil }
func (o *stubOutbox) MarkDead(context.Context, int64, int, string) error      { return nil }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func actorContext(name string, id int64, role string) context.Context {
	return actorctx.WithActor(context.Background(), actorctx.Actor{Name: name, ID: id, Role: role})
}

func TestRecordCreateAttributesActor(t *testing.T) {
	sink := &stubSink{}
	recorder := NewAuditRecorder(sink, &stubResolver{}, nil, nil, discardLogger())

	server := domain.Server{ID: 3, Hostname: "web01", IPAddress: "10.0.0.1"}
	recorder.RecordCreate(actorContext("alice", 7, domain.RoleApplicationAdmin), server)

	events := sink.all()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	got := events[0]
	if got.Action != domain.ActionCreate || got.Model != "inventory.Server" || got.ObjectID != "3" {
		t.Fatalf("event header mismatch: %+v", got)
	}
	if got.User != "alice" || got.UserID == nil || *got.UserID != 7 {
		t.Fatalf("actor attribution mismatch: user=%q id=%v", got.User, got.UserID)
	}
	if got.ObjectStr != server.AuditLabel() {
		t.Fatalf("object label mismatch: %q", got.ObjectStr)
	}
	if got.Timestamp == "" {
		t.Fatal("timestamp must be set at build time")
	}
	if got.Changes == nil || got.AdditionalInfo == nil {
		t.Fatal("changes and info must be empty maps, not nil")
	}
}

func TestRecordWithoutActorUsesSystemSentinel(t *testing.T) {
	sink := &stubSink{}
	recorder := NewAuditRecorder(sink, &stubResolver{}, nil, nil, discardLogger())

	recorder.RecordDelete(context.Background(), domain.Server{ID: 3, Hostname: "web01", IPAddress: "10.0.0.1"})

	events := sink.all()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].User != domain.SystemActor {
		t.Fatalf("expected SYSTEM attribution, got %q", events[0].User)
	}
	if events[0].UserID != nil {
		t.Fatalf("system events must carry no user id: %v", *events[0].UserID)
	}
}

func TestRecordUpdateFormatsChoiceChanges(t *testing.T) {
	sink := &stubSink{}
	recorder := NewAuditRecorder(sink, &stubResolver{}, nil, nil, discardLogger())

	app := domain.Application{Name: "billing", LifecycleStage: "development", Criticality: "high", PrimaryServerID: 1, Active: true}
	prev := domain.CaptureSnapshot(app.AuditFields())
	app.LifecycleStage = "testing"

	recorder.RecordUpdate(actorContext("bob", 2, domain.RoleSystemsManager), app, prev)

	events := sink.all()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	change, ok := events[0].Changes["lifecycle_stage"]
	if !ok {
		t.Fatalf("missing lifecycle_stage change: %+v", events[0].Changes)
	}
	if change.Old != "development (Development)" || change.New != "testing (Testing)" {
		t.Fatalf("choice rendering mismatch: %+v", change)
	}
}

func TestRecordUpdateSkipsNoop(t *testing.T) {
	sink := &stubSink{}
	recorder := NewAuditRecorder(sink, &stubResolver{}, nil, nil, discardLogger())

	app := domain.Application{Name: "billing", LifecycleStage: "testing", Criticality: "high", PrimaryServerID: 1}
	prev := domain.CaptureSnapshot(app.AuditFields())

	recorder.RecordUpdate(actorContext("bob", 2, domain.RoleSystemsManager), app, prev)

	if events := sink.all(); len(events) != 0 {
		t.Fatalf("no-op update must emit nothing, got %+v", events)
	}
}

func TestRecorderDenylist(t *testing.T) {
	sink := &stubSink{}
	recorder := NewAuditRecorder(sink, &stubResolver{}, nil, []string{"inventory.Server"}, discardLogger())

	if !recorder.Excluded("auth.UserToken") {
		t.Fatal("default exclusions must remain in effect")
	}
	if !recorder.Excluded("inventory.Server") {
		t.Fatal("configured exclusion not applied")
	}

	recorder.RecordCreate(actorContext("alice", 7, domain.RoleApplicationAdmin),
		domain.Server{ID: 3, Hostname: "web01", IPAddress: "10.0.0.1"})
	if events := sink.all(); len(events) != 0 {
		t.Fatalf("denylisted kind must emit nothing, got %+v", events)
	}
}

func TestRecorderFailsOpenOnSinkError(t *testing.T) {
	sink := &stubSink{err: errors.New("disk full")}
	recorder := NewAuditRecorder(sink, &stubResolver{}, nil, nil, discardLogger())

	// must not panic or propagate
	recorder.RecordCreate(actorContext("alice", 7, domain.RoleApplicationAdmin),
		domain.Server{ID: 3, Hostname: "web01", IPAddress: "10.0.0.1"})
}

func TestRecorderEnqueuesChangeEvent(t *testing.T) {
	sink := &stubSink{}
	outbox := &stubOutbox{}
	recorder := NewAuditRecorder(sink, &stubResolver{}, outbox, nil, discardLogger())

	recorder.RecordCreate(actorContext("alice", 7, domain.RoleApplicationAdmin),
		domain.Server{ID: 3, Hostname: "web01", IPAddress: "10.0.0.1"})

	if len(outbox.changes) != 1 {
		t.Fatalf("expected 1 enqueued change, got %d", len(outbox.changes))
	}
	if outbox.topics[0] != "changes.inventory.Server" {
		t.Fatalf("topic mismatch: %q", outbox.topics[0])
	}
	change := outbox.changes[0]
	if change.Kind != "inventory.Server" || change.Action != domain.ActionCreate || change.Actor != "alice" {
		t.Fatalf("change event mismatch: %+v", change)
	}
	if change.EventID == "" || len(change.Payload) == 0 {
		t.Fatalf("change event missing id or payload: %+v", change)
	}
}

func TestRecorderConcurrentActorIsolation(t *testing.T) {
	sink := &stubSink{}
	recorder := NewAuditRecorder(sink, &stubResolver{}, nil, nil, discardLogger())

	actors := []string{"alice", "bob", "carol", "dave"}
	var wg sync.WaitGroup
	for i, name := range actors {
		wg.Add(1)
		go func(name string, id int64) {
			defer wg.Done()
			ctx := actorContext(name, id, domain.RoleTechnician)
			for j := 0; j < 20; j++ {
				recorder.RecordCreate(ctx, domain.Server{ID: id, Hostname: "h" + name, IPAddress: "10.0.0.1"})
			}
		}(name, int64(i+1))
	}
	wg.Wait()

	counts := map[string]int{}
	for _, event := range sink.all() {
		counts[event.User]++
		if event.UserID == nil {
			t.Fatalf("event lost its actor id: %+v", event)
		}
	}
	for _, name := range actors {
		if counts[name] != 20 {
			t.Fatalf("actor %s recorded %d events, want 20", name, counts[name])
		}
	}
}
