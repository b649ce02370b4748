package usecase

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/opsenary/apptracker/internal/actorctx"
	"github.com/opsenary/apptracker/internal/core/domain"
	"github.com/opsenary/apptracker/internal/core/ports"
)

// defaultAuditExclusions lists internal record kinds that never reach the
// change log. The set is extended, never replaced, by configuration.
var defaultAuditExclusions = []string{
	"auth.UserToken",
	"outbox.ChangeEvent",
	"goose.Migration",
}

// AuditRecorder is the single entry point for recording entity changes. It
// resolves the actor from the request context, builds the event, and hands
// it to the sink. Sink failures are reported to the operational logger and
// never propagate: auditing is best-effort and must not abort the business
// write that triggered it.
type AuditRecorder struct {
	sink     ports.AuditSink
	resolver ports.RelationResolver
	outbox   ports.OutboxRepository // optional change-event delivery
	exclude  map[string]struct{}
	logger   *slog.Logger
}

func NewAuditRecorder(sink ports.AuditSink, resolver ports.RelationResolver, outbox ports.OutboxRepository, exclude []string, logger *slog.Logger) *AuditRecorder {
	if logger == nil {
		logger = slog.Default()
	}
	skip := make(map[string]struct{}, len(defaultAuditExclusions)+len(exclude))
	for _, kind := range defaultAuditExclusions {
		skip[kind] = struct{}{}
	}
	for _, kind := range exclude {
		skip[kind] = struct{}{}
	}
	return &AuditRecorder{
		sink:     sink,
		resolver: resolver,
		outbox:   outbox,
		exclude:  skip,
		logger:   logger,
	}
}

// Excluded reports whether kind is denylisted. Checked before any diff work.
func (r *AuditRecorder) Excluded(kind string) bool {
	_, ok := r.exclude[kind]
	return ok
}

func (r *AuditRecorder) RecordCreate(ctx context.Context, entity domain.Audited) {
	if r.Excluded(entity.AuditKind()) {
		return
	}
	r.Record(ctx, domain.ActionCreate, entity.AuditKind(), entity.AuditID(), entity.AuditLabel(), nil, nil)
}

// RecordUpdate diffs the entity against the snapshot captured before the
// write. No-op updates emit nothing.
func (r *AuditRecorder) RecordUpdate(ctx context.Context, entity domain.Audited, prev domain.Snapshot) {
	if r.Excluded(entity.AuditKind()) {
		return
	}
	changes := ComputeChanges(ctx, prev, entity.AuditFields(), entity.AuditMeta(), r.resolver)
	if len(changes) == 0 {
		return
	}
	r.Record(ctx, domain.ActionUpdate, entity.AuditKind(), entity.AuditID(), entity.AuditLabel(), changes, nil)
}

func (r *AuditRecorder) RecordDelete(ctx context.Context, entity domain.Audited) {
	if r.Excluded(entity.AuditKind()) {
		return
	}
	r.Record(ctx, domain.ActionDelete, entity.AuditKind(), entity.AuditID(), entity.AuditLabel(), nil, nil)
}

// Record builds and persists one audit event. The actor comes from the
// request context; without one the SYSTEM sentinel is attributed. The
// timestamp is captured here, at build time.
func (r *AuditRecorder) Record(ctx context.Context, action, kind, id, label string, changes map[string]domain.FieldChange, info map[string]string) {
	user := domain.SystemActor
	var userID *int64
	if actor, ok := actorctx.ActorFrom(ctx); ok {
		user = actor.Name
		if actor.ID != 0 {
			uid := actor.ID
			userID = &uid
		}
	}
	if changes == nil {
		changes = map[string]domain.FieldChange{}
	}
	if info == nil {
		info = map[string]string{}
	}

	event := domain.AuditEvent{
		Timestamp:      time.Now().Format(domain.AuditTimeFormat),
		Action:         action,
		Model:          kind,
		ObjectID:       id,
		ObjectStr:      label,
		User:           user,
		UserID:         userID,
		Changes:        changes,
		AdditionalInfo: info,
	}

	if err := r.sink.Append(event); err != nil {
		r.logger.Error("append audit log", "model", kind, "object_id", id, "error", err)
	}

	r.enqueueChangeEvent(ctx, event)
}

func (r *AuditRecorder) enqueueChangeEvent(ctx context.Context, event domain.AuditEvent) {
	if r.outbox == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		r.logger.Error("marshal change event", "model", event.Model, "error", err)
		return
	}
	change := domain.ChangeEvent{
		EventID:    uuid.NewString(),
		Kind:       event.Model,
		EntityID:   event.ObjectID,
		Action:     event.Action,
		Actor:      event.User,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
	if err := r.outbox.Enqueue(ctx, changeTopic(event.Model), change); err != nil {
		r.logger.Error("enqueue change event", "model", event.Model, "error", err)
	}
}

func changeTopic(kind string) string {
	return "changes." + kind
}
