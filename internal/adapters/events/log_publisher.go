package events

import (
	"context"
	"log/slog"

	"github.com/opsenary/apptracker/internal/core/domain"
)

// LogPublisher writes change events to the operational log. Used when no
// webhook endpoint is configured.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(_ context.Context, topic string, event domain.ChangeEvent) error {
	p.logger.Info("change event",
		"topic", topic,
		"event_id", event.EventID,
		"kind", event.Kind,
		"entity_id", event.EntityID,
		"action", event.Action,
		"actor", event.Actor,
	)
	return nil
}
