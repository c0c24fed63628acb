package order

import "context"

// Snapshot is a read-only view of an order at evaluation time.
// The engine never mutates a snapshot; all writes go through Store.
type Snapshot struct {
	ID            int64             `json:"id"`
	Status        string            `json:"status"`
	PaymentStatus string            `json:"payment_status"`
	TotalAmount   float64           `json:"total_amount"`
	CustomerEmail string            `json:"customer_email"`
	Tags          []string          `json:"tags"`
	CustomFields  map[string]string `json:"custom_fields"`
	Workflow      string            `json:"workflow"`
	Priority      int               `json:"priority"`
}

// HasTag reports whether the snapshot carries the given tag.
func (s Snapshot) HasTag(tag string) bool {
	for _, t := range s.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Store is the order backend the engine reads snapshots from and
// mutates through. Implementations decide transition legality; the
// engine surfaces their rejections as action failures.
type Store interface {
	Snapshot(ctx context.Context, orderID int64) (Snapshot, error)
	SetStatus(ctx context.Context, orderID int64, status string) error
	AddTag(ctx context.Context, orderID int64, tag string) error
	SetCustomField(ctx context.Context, orderID int64, field, value string) error
	AssignWorkflow(ctx context.Context, orderID int64, workflow string) error
	AssignPriority(ctx context.Context, orderID int64, priority int) error
}
