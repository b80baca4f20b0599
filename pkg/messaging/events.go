package messaging

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	EventStockAdjusted   = "stock.adjusted"
	EventAlertRaised     = "stock.alert.raised"
	EventAlertCleared    = "stock.alert.cleared"
	EventProductProduced = "product.produced"
	EventProductUpdated  = "product.updated"
)

// ExchangeStockEvents is the topic exchange every stockboard instance publishes to
const ExchangeStockEvents = "stock.events"

// Event is the envelope around every message on the exchange
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            uuid.NewString(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into the provided struct
func (e *Event) UnmarshalData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// StockAdjustedEvent is published after any material mutation issued through the dashboard
type StockAdjustedEvent struct {
	MaterialID  string  `json:"material_id"`
	Action      string  `json:"action"`
	Quantity    float64 `json:"quantity"`
	PerformedBy string  `json:"performed_by"`
}

// AlertRaisedEvent is published when a material drops to or below its minimum limit
type AlertRaisedEvent struct {
	MaterialID    string  `json:"material_id"`
	Name          string  `json:"name"`
	Available     float64 `json:"available"`
	MinStockLimit float64 `json:"min_stock_limit"`
}

// AlertClearedEvent is published when a previously alerting material is back above its limit
type AlertClearedEvent struct {
	MaterialID string `json:"material_id"`
	Name       string `json:"name"`
}

// ProductProducedEvent is published after a production run is booked
type ProductProducedEvent struct {
	ProductID   string `json:"product_id"`
	Name        string `json:"name"`
	Units       int    `json:"units"`
	PerformedBy string `json:"performed_by"`
}

// ProductUpdatedEvent is published after a product or its bill of materials changes
type ProductUpdatedEvent struct {
	ProductID   string `json:"product_id"`
	Name        string `json:"name"`
	Action      string `json:"action"`
	PerformedBy string `json:"performed_by"`
}
