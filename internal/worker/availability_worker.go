package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/prohmpiriya/session-ticketing/internal/domain"
	"github.com/prohmpiriya/session-ticketing/internal/metrics"
	"github.com/prohmpiriya/session-ticketing/internal/service"
	"github.com/prohmpiriya/session-ticketing/pkg/kafka"
	"github.com/prohmpiriya/session-ticketing/pkg/logger"
	"github.com/prohmpiriya/session-ticketing/pkg/retry"
	"go.uber.org/zap"
)

// AvailabilityWorkerConfig holds configuration for the availability worker
type AvailabilityWorkerConfig struct {
	FlushInterval  time.Duration
	MaxBatchSize   int
	RebuildOnStart bool
	Retry          retry.Policy
}

// RecordConsumer is the subset of kafka.Consumer the worker needs
type RecordConsumer interface {
	Poll(ctx context.Context) ([]*kafka.Record, error)
	CommitRecords(ctx context.Context, records []*kafka.Record) error
}

// Refresher recomputes and caches availability for one event
type Refresher interface {
	Refresh(ctx context.Context, eventID string) ([]domain.Availability, error)
}

// EventLister enumerates events for a full rebuild
type EventLister interface {
	ListIDs(ctx context.Context) ([]string, error)
}

// AvailabilityWorker consumes registration events and keeps the
// availability cache warm. Events touched within one flush interval are
// refreshed once.
type AvailabilityWorker struct {
	config    *AvailabilityWorkerConfig
	consumer  RecordConsumer
	refresher Refresher
	events    EventLister
	log       *logger.Logger

	mu      sync.Mutex
	pending map[string]struct{}
}

// NewAvailabilityWorker creates a new availability worker
func NewAvailabilityWorker(
	cfg *AvailabilityWorkerConfig,
	consumer RecordConsumer,
	refresher Refresher,
	events EventLister,
	log *logger.Logger,
) *AvailabilityWorker {
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = time.Second
	}
	if cfg.MaxBatchSize <= 0 {
		cfg.MaxBatchSize = 100
	}
	if cfg.Retry.Attempts <= 0 {
		cfg.Retry = retry.DefaultPolicy()
	}
	if log == nil {
		log = logger.NewNop()
	}

	return &AvailabilityWorker{
		config:    cfg,
		consumer:  consumer,
		refresher: refresher,
		events:    events,
		log:       log,
		pending:   make(map[string]struct{}),
	}
}

// Start consumes until ctx is cancelled, then flushes what is pending
func (w *AvailabilityWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.config.FlushInterval)
	defer ticker.Stop()

	flushCh := make(chan struct{}, 1)
	go w.consumeLoop(ctx, flushCh)

	for {
		select {
		case <-ctx.Done():
			w.log.Info("availability worker stopping, flushing pending events")
			w.flush(context.Background())
			return
		case <-ticker.C:
			w.flush(ctx)
		case <-flushCh:
			w.flush(ctx)
		}
	}
}

func (w *AvailabilityWorker) consumeLoop(ctx context.Context, flushCh chan<- struct{}) {
	for {
		if ctx.Err() != nil {
			return
		}

		records, err := w.consumer.Poll(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, kafka.ErrClosed) {
				return
			}
			w.log.Error("failed to poll registration events", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}

		if len(records) == 0 {
			continue
		}

		for _, record := range records {
			if err := w.processRecord(record); err != nil {
				w.log.Warn("skipping registration event",
					zap.String("topic", record.Topic),
					zap.Int64("offset", record.Offset),
					zap.Error(err),
				)
			}
		}

		if err := w.consumer.CommitRecords(ctx, records); err != nil {
			w.log.Error("failed to commit offsets", zap.Error(err))
		}

		if w.pendingCount() >= w.config.MaxBatchSize {
			select {
			case flushCh <- struct{}{}:
			default:
			}
		}
	}
}

// processRecord marks the record's event for refresh
func (w *AvailabilityWorker) processRecord(record *kafka.Record) error {
	var event domain.RegistrationEvent
	if err := json.Unmarshal(record.Value, &event); err != nil {
		return fmt.Errorf("failed to unmarshal registration event: %w", err)
	}
	if event.EventID == "" {
		return errors.New("registration event has no event id")
	}

	switch event.Type {
	case domain.RegistrationEventCreated, domain.RegistrationEventCancelled:
	default:
		return fmt.Errorf("unknown registration event type %q", event.Type)
	}

	w.mu.Lock()
	w.pending[event.EventID] = struct{}{}
	w.mu.Unlock()
	return nil
}

func (w *AvailabilityWorker) pendingCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pending)
}

// flush refreshes every pending event and reports how many succeeded
func (w *AvailabilityWorker) flush(ctx context.Context) int {
	w.mu.Lock()
	if len(w.pending) == 0 {
		w.mu.Unlock()
		return 0
	}
	pending := w.pending
	w.pending = make(map[string]struct{})
	w.mu.Unlock()

	refreshed := 0
	for eventID := range pending {
		if err := w.refresh(ctx, eventID); err != nil {
			w.log.Error("failed to refresh availability",
				zap.String("event_id", eventID),
				zap.Error(err),
			)
			continue
		}
		refreshed++
	}

	w.log.Debug("availability flushed",
		zap.Int("events", len(pending)),
		zap.Int("refreshed", refreshed),
	)
	return refreshed
}

func (w *AvailabilityWorker) refresh(ctx context.Context, eventID string) error {
	err := retry.Do(ctx, w.config.Retry, func(ctx context.Context) error {
		_, err := w.refresher.Refresh(ctx, eventID)
		if errors.Is(err, service.ErrEventNotFound) {
			return retry.Permanent(err)
		}
		return err
	}, func(attempt int, err error, wait time.Duration) {
		w.log.Warn("retrying availability refresh",
			zap.String("event_id", eventID),
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
	})

	switch {
	case err == nil:
		metrics.TrackWorkerRefresh("success")
	case errors.Is(err, service.ErrEventNotFound):
		metrics.TrackWorkerRefresh("not_found")
	default:
		metrics.TrackWorkerRefresh("error")
	}
	return err
}

// Rebuild refreshes availability of every stored event
func (w *AvailabilityWorker) Rebuild(ctx context.Context) error {
	ids, err := w.events.ListIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list events: %w", err)
	}

	var failed int
	for _, id := range ids {
		if err := w.refresh(ctx, id); err != nil {
			failed++
			w.log.Error("failed to rebuild availability",
				zap.String("event_id", id),
				zap.Error(err),
			)
		}
	}

	w.log.Info("availability cache rebuilt",
		zap.Int("events", len(ids)),
		zap.Int("failed", failed),
	)
	if failed > 0 {
		return fmt.Errorf("%d of %d events failed to rebuild", failed, len(ids))
	}
	return nil
}
