package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/opsenary/apptracker/internal/core/domain"
	"github.com/opsenary/apptracker/internal/core/ports"
)

// OutboxDispatcher drains queued change events and hands them to the
// configured publisher, with square backoff and a dead-letter cutoff.
type OutboxDispatcher struct {
	repo      ports.OutboxRepository
	publisher ports.EventPublisher
	interval  time.Duration
	batchSize int
	maxRetry  int
	logger    *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup

	deliverSuccessTotal atomic.Int64
	deliverFailureTotal atomic.Int64
	deliverDeadTotal    atomic.Int64
}

type OutboxDispatcherMetrics struct {
	DeliverSuccessTotal int64
	DeliverFailureTotal int64
	DeliverDeadTotal    int64
}

func NewOutboxDispatcher(repo ports.OutboxRepository, publisher ports.EventPublisher, interval time.Duration, batchSize int, logger *slog.Logger) *OutboxDispatcher {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if batchSize <= 0 {
		batchSize = 50
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OutboxDispatcher{
		repo:      repo,
		publisher: publisher,
		interval:  interval,
		batchSize: batchSize,
		maxRetry:  5,
		logger:    logger,
	}
}

func (d *OutboxDispatcher) Start(parent context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(parent)
	d.cancel = cancel
	d.wg.Add(1)
	go d.loop(ctx)
}

func (d *OutboxDispatcher) Close() error {
	d.mu.Lock()
	cancel := d.cancel
	d.cancel = nil
	d.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	d.wg.Wait()
	return nil
}

func (d *OutboxDispatcher) loop(ctx context.Context) {
	defer d.wg.Done()
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		if err := d.deliverBatch(ctx); err != nil {
			d.logger.Error("outbox deliver batch", "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (d *OutboxDispatcher) deliverBatch(ctx context.Context) error {
	pending, err := d.repo.FetchPending(ctx, d.batchSize)
	if err != nil {
		return err
	}

	for _, queued := range pending {
		var change domain.ChangeEvent
		if err := json.Unmarshal(queued.PayloadJSON, &change); err != nil {
			if markErr := d.markFailure(ctx, queued, fmt.Sprintf("decode payload: %v", err)); markErr != nil {
				return markErr
			}
			d.deliverFailureTotal.Add(1)
			continue
		}

		if err := d.publisher.Publish(ctx, queued.Topic, change); err != nil {
			if markErr := d.markFailure(ctx, queued, err.Error()); markErr != nil {
				return markErr
			}
			d.deliverFailureTotal.Add(1)
			continue
		}

		if err := d.repo.MarkDispatched(ctx, queued.ID); err != nil {
			return err
		}
		d.deliverSuccessTotal.Add(1)
	}

	return nil
}

func (d *OutboxDispatcher) markFailure(ctx context.Context, queued domain.OutboxEvent, errMsg string) error {
	attempts := queued.Attempts + 1
	if attempts >= d.maxRetry {
		if err := d.repo.MarkDead(ctx, queued.ID, attempts, errMsg); err != nil {
			return err
		}
		d.deliverDeadTotal.Add(1)
		return nil
	}
	next := time.Now().UTC().Add(retryBackoff(attempts)).Format(time.RFC3339Nano)
	return d.repo.MarkFailed(ctx, queued.ID, attempts, next, errMsg)
}

func (d *OutboxDispatcher) Metrics() OutboxDispatcherMetrics {
	return OutboxDispatcherMetrics{
		DeliverSuccessTotal: d.deliverSuccessTotal.Load(),
		DeliverFailureTotal: d.deliverFailureTotal.Load(),
		DeliverDeadTotal:    d.deliverDeadTotal.Load(),
	}
}

func retryBackoff(attempt int) time.Duration {
	if attempt <= 1 {
		return 1 * time.Second
	}
	d := time.Duration(attempt*attempt) * time.Second
	if d > 5*time.Minute {
		return 5 * time.Minute
	}
	return d
}
