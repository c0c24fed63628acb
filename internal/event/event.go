package event

import "time"

// Lifecycle event names emitted by the surrounding order-management system.
const (
	OrderCreated       = "order_created"
	StatusChanged      = "status_changed"
	PaymentReceived    = "payment_received"
	PaymentFailed      = "payment_failed"
	FulfillmentCreated = "fulfillment_created"
	FulfillmentShipped = "fulfillment_shipped"
)

// Event is the canonical input model for all incoming lifecycle events.
type Event struct {
	ID         string         `json:"id"`
	Name       string         `json:"event"` // "order_created", "status_changed", etc.
	OrderID    int64          `json:"order_id"`
	OccurredAt time.Time      `json:"occurred_at"`
	ReceivedAt time.Time      `json:"-"`
	Context    map[string]any `json:"context"` // transition metadata (old status, gateway, etc.)
}
