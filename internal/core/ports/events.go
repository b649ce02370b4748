package ports

import (
	"context"

	"github.com/opsenary/apptracker/internal/core/domain"
)

// EventPublisher delivers change events to downstream receivers.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, event domain.ChangeEvent) error
}

type OutboxRepository interface {
	Enqueue(ctx context.Context, topic string, event domain.ChangeEvent) error
	FetchPending(ctx context.Context, limit int) ([]domain.OutboxEvent, error)
	MarkDispatched(ctx context.Context, id int64) error
	MarkFailed(ctx context.Context, id int64, attempts int, nextAttemptAt string, errMsg string) error
	MarkDead(ctx context.Context, id int64, attempts int, errMsg string) error
}
