package events

import (
	"context"
	"fmt"

	"github.com/mattressworks/stockboard/pkg/logger"
	"github.com/mattressworks/stockboard/pkg/messaging"
)

// Routing patterns the invalidator listens on
var invalidationPatterns = []string{"stock.#", "product.#"}

// SnapshotCache is the part of the snapshot cache the invalidator clears
type SnapshotCache interface {
	Invalidate(ctx context.Context) error
}

// Refresher rebuilds the dashboard snapshot
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Invalidator keeps replicas in step: events published by another instance
// clear the shared cache and trigger a local refresh.
type Invalidator struct {
	source    string
	cache     SnapshotCache
	refresher Refresher
	logger    *logger.Logger
}

// NewInvalidator creates an invalidator for the instance identified by source
func NewInvalidator(source string, cache SnapshotCache, refresher Refresher, log *logger.Logger) *Invalidator {
	return &Invalidator{
		source:    source,
		cache:     cache,
		refresher: refresher,
		logger:    log.WithComponent("invalidator"),
	}
}

// QueueName is the per-instance queue consumed by this invalidator
func (i *Invalidator) QueueName() string {
	return "stockboard.invalidate." + i.source
}

// Register subscribes the consumer to every stock and product event
func (i *Invalidator) Register(consumer *messaging.Consumer) error {
	for _, pattern := range invalidationPatterns {
		if err := consumer.Subscribe(messaging.ExchangeStockEvents, pattern); err != nil {
			return fmt.Errorf("failed to subscribe %s: %w", pattern, err)
		}
	}

	for _, eventType := range []string{
		messaging.EventStockAdjusted,
		messaging.EventAlertRaised,
		messaging.EventAlertCleared,
		messaging.EventProductProduced,
		messaging.EventProductUpdated,
	} {
		consumer.RegisterHandler(eventType, i.Handle)
	}

	return nil
}

// Handle reacts to a single event. Returning an error requeues the delivery.
func (i *Invalidator) Handle(ctx context.Context, event *messaging.Event) error {
	if event.Source == i.source {
		return nil
	}

	// Alert events follow a refresh elsewhere and carry no new stock data.
	if event.Type == messaging.EventAlertRaised || event.Type == messaging.EventAlertCleared {
		return nil
	}

	i.logger.Debug().
		Str("event_type", event.Type).
		Str("event_id", event.ID).
		Str("source", event.Source).
		Msg("remote change, invalidating snapshot")

	if i.cache != nil {
		if err := i.cache.Invalidate(ctx); err != nil {
			return fmt.Errorf("failed to invalidate cache: %w", err)
		}
	}

	if err := i.refresher.Refresh(ctx); err != nil {
		return fmt.Errorf("failed to refresh snapshot: %w", err)
	}

	return nil
}
