package events

import (
	"context"

	"github.com/mattressworks/stockboard/internal/stock/domain"
	"github.com/mattressworks/stockboard/pkg/logger"
	"github.com/mattressworks/stockboard/pkg/messaging"
)

// EventPublisher is satisfied by *messaging.Publisher
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, data interface{}) error
}

// Publisher emits stock domain events. A nil *Publisher drops every event.
type Publisher struct {
	pub    EventPublisher
	logger *logger.Logger
}

// NewPublisher wraps pub. Passing a nil pub yields a nil *Publisher.
func NewPublisher(pub EventPublisher, log *logger.Logger) *Publisher {
	if pub == nil {
		return nil
	}
	return &Publisher{pub: pub, logger: log.WithComponent("events")}
}

// PublishStockAdjusted announces a material mutation
func (p *Publisher) PublishStockAdjusted(ctx context.Context, materialID string, kind domain.TransactionKind, quantity float64, performedBy string) {
	p.publish(ctx, messaging.EventStockAdjusted, messaging.StockAdjustedEvent{
		MaterialID:  materialID,
		Action:      string(kind),
		Quantity:    quantity,
		PerformedBy: performedBy,
	})
}

// PublishAlertRaised announces a material that fell to or below its limit
func (p *Publisher) PublishAlertRaised(ctx context.Context, alert domain.StockAlert) {
	p.publish(ctx, messaging.EventAlertRaised, messaging.AlertRaisedEvent{
		MaterialID:    alert.MaterialID,
		Name:          alert.Name,
		Available:     alert.Available,
		MinStockLimit: alert.MinStockLimit,
	})
}

// PublishAlertCleared announces a material that is no longer alerting
func (p *Publisher) PublishAlertCleared(ctx context.Context, alert domain.StockAlert) {
	p.publish(ctx, messaging.EventAlertCleared, messaging.AlertClearedEvent{
		MaterialID: alert.MaterialID,
		Name:       alert.Name,
	})
}

// PublishProductProduced announces a completed production run
func (p *Publisher) PublishProductProduced(ctx context.Context, product domain.Product, units int, performedBy string) {
	p.publish(ctx, messaging.EventProductProduced, messaging.ProductProducedEvent{
		ProductID:   product.ID,
		Name:        product.Name,
		Units:       units,
		PerformedBy: performedBy,
	})
}

// PublishProductUpdated announces a created product or a replaced bill of materials
func (p *Publisher) PublishProductUpdated(ctx context.Context, product domain.Product, action, performedBy string) {
	p.publish(ctx, messaging.EventProductUpdated, messaging.ProductUpdatedEvent{
		ProductID:   product.ID,
		Name:        product.Name,
		Action:      action,
		PerformedBy: performedBy,
	})
}

// publish never fails the caller; delivery errors are only logged
func (p *Publisher) publish(ctx context.Context, eventType string, data interface{}) {
	if p == nil {
		return
	}
	if err := p.pub.Publish(ctx, eventType, data); err != nil {
		p.logger.Warn().Err(err).Str("event_type", eventType).Msg("failed to publish event")
	}
}
