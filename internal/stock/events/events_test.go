package events

import (
	"context"
	"errors"
	"testing"

	"github.com/mattressworks/stockboard/internal/stock/domain"
	"github.com/mattressworks/stockboard/pkg/logger"
	"github.com/mattressworks/stockboard/pkg/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	eventType string
	data      interface{}
}

type recordingPublisher struct {
	events []published
	err    error
}

func (r *recordingPublisher) Publish(_ context.Context, eventType string, data interface{}) error {
	r.events = append(r.events, published{eventType: eventType, data: data})
	return r.err
}

type countingCache struct {
	calls int
	err   error
}

func (c *countingCache) Invalidate(context.Context) error {
	c.calls++
	return c.err
}

type countingRefresher struct {
	calls int
	err   error
}

func (r *countingRefresher) Refresh(context.Context) error {
	r.calls++
	return r.err
}

func TestPublisher_NilIsNoop(t *testing.T) {
	p := NewPublisher(nil, logger.Nop())
	require.Nil(t, p)

	assert.NotPanics(t, func() {
		p.PublishStockAdjusted(context.Background(), "m-foam", domain.TransactionAdd, 5, "user-1")
		p.PublishAlertRaised(context.Background(), domain.StockAlert{MaterialID: "m-foam"})
		p.PublishAlertCleared(context.Background(), domain.StockAlert{MaterialID: "m-foam"})
		p.PublishProductProduced(context.Background(), domain.Product{ID: "p-classic"}, 2, "user-1")
	})
}

func TestPublisher_Payloads(t *testing.T) {
	rec := &recordingPublisher{}
	p := NewPublisher(rec, logger.Nop())
	ctx := context.Background()

	p.PublishStockAdjusted(ctx, "m-foam", domain.TransactionSubtract, 7.5, "user-1")
	p.PublishAlertRaised(ctx, domain.StockAlert{MaterialID: "m-springs", Name: "Springs", Available: 150, MinStockLimit: 400})
	p.PublishAlertCleared(ctx, domain.StockAlert{MaterialID: "m-springs", Name: "Springs"})
	p.PublishProductProduced(ctx, domain.Product{ID: "p-classic", Name: "Classic 90x200"}, 3, "user-2")

	require.Len(t, rec.events, 4)

	assert.Equal(t, messaging.EventStockAdjusted, rec.events[0].eventType)
	assert.Equal(t, messaging.StockAdjustedEvent{
		MaterialID: "m-foam", Action: "subtract", Quantity: 7.5, PerformedBy: "user-1",
	}, rec.events[0].data)

	assert.Equal(t, messaging.EventAlertRaised, rec.events[1].eventType)
	assert.Equal(t, messaging.AlertRaisedEvent{
		MaterialID: "m-springs", Name: "Springs", Available: 150, MinStockLimit: 400,
	}, rec.events[1].data)

	assert.Equal(t, messaging.EventAlertCleared, rec.events[2].eventType)
	assert.Equal(t, messaging.EventProductProduced, rec.events[3].eventType)
	assert.Equal(t, messaging.ProductProducedEvent{
		ProductID: "p-classic", Name: "Classic 90x200", Units: 3, PerformedBy: "user-2",
	}, rec.events[3].data)
}

func TestPublisher_SwallowsErrors(t *testing.T) {
	rec := &recordingPublisher{err: errors.New("channel closed")}
	p := NewPublisher(rec, logger.Nop())

	assert.NotPanics(t, func() {
		p.PublishStockAdjusted(context.Background(), "m-foam", domain.TransactionAdd, 1, "user-1")
	})
	assert.Len(t, rec.events, 1)
}

func TestInvalidator_Handle(t *testing.T) {
	tests := []struct {
		name           string
		event          messaging.Event
		wantInvalidate int
		wantRefresh    int
	}{
		{
			name:  "own event is ignored",
			event: messaging.Event{Type: messaging.EventStockAdjusted, Source: "stockboard-a"},
		},
		{
			name:           "remote stock adjustment",
			event:          messaging.Event{Type: messaging.EventStockAdjusted, Source: "stockboard-b"},
			wantInvalidate: 1,
			wantRefresh:    1,
		},
		{
			name:           "remote production",
			event:          messaging.Event{Type: messaging.EventProductProduced, Source: "stockboard-b"},
			wantInvalidate: 1,
			wantRefresh:    1,
		},
		{
			name:  "remote alert is ignored",
			event: messaging.Event{Type: messaging.EventAlertRaised, Source: "stockboard-b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache := &countingCache{}
			refresher := &countingRefresher{}
			inv := NewInvalidator("stockboard-a", cache, refresher, logger.Nop())

			err := inv.Handle(context.Background(), &tt.event)

			require.NoError(t, err)
			assert.Equal(t, tt.wantInvalidate, cache.calls)
			assert.Equal(t, tt.wantRefresh, refresher.calls)
		})
	}
}

func TestInvalidator_Handle_Errors(t *testing.T) {
	remote := &messaging.Event{Type: messaging.EventStockAdjusted, Source: "stockboard-b"}

	t.Run("cache failure stops before refresh", func(t *testing.T) {
		cache := &countingCache{err: errors.New("redis down")}
		refresher := &countingRefresher{}
		inv := NewInvalidator("stockboard-a", cache, refresher, logger.Nop())

		err := inv.Handle(context.Background(), remote)

		require.Error(t, err)
		assert.Zero(t, refresher.calls)
	})

	t.Run("refresh failure is returned", func(t *testing.T) {
		refresher := &countingRefresher{err: errors.New("upstream unavailable")}
		inv := NewInvalidator("stockboard-a", nil, refresher, logger.Nop())

		err := inv.Handle(context.Background(), remote)

		require.Error(t, err)
		assert.Equal(t, 1, refresher.calls)
	})
}

func TestInvalidator_QueueName(t *testing.T) {
	inv := NewInvalidator("stockboard-web-1", nil, &countingRefresher{}, logger.Nop())
	assert.Equal(t, "stockboard.invalidate.stockboard-web-1", inv.QueueName())
}
