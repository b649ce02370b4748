package ports

import (
	"context"

	"github.com/opsenary/apptracker/internal/core/domain"
)

// AuditSink appends events to the durable change log. Implementations must
// write each event as one atomic line so concurrent writers never interleave.
type AuditSink interface {
	Append(event domain.AuditEvent) error
}

// AuditTrailFilter narrows a read of the persisted change log. All filters
// are conjunctive; zero values match everything.
type AuditTrailFilter struct {
	User   string // case-insensitive exact match
	Action string // case-insensitive exact match
	Model  string // case-insensitive substring match
	Since  string // inclusive lower bound, AuditTimeFormat
	Tail   int    // keep only the last N raw lines before parsing
}

// AuditTrailReader reads the persisted change log back into events. Each call
// re-reads the log from the start; there is no durable cursor.
type AuditTrailReader interface {
	Read(ctx context.Context, filter AuditTrailFilter) ([]domain.AuditEvent, error)
}

// RelationResolver turns a related entity's key into its display string.
// Implementations return domain.ErrNotFound when the related entity is gone,
// in which case callers fall back to the raw key.
type RelationResolver interface {
	Display(ctx context.Context, kind, key string) (string, error)
}
