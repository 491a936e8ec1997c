package event

import "time"

const (
	// OrderLifecycleTopic delivers every committed state change of an order
	// and its ledger.
	OrderLifecycleTopic = "orders.lifecycle"
	// TableStatusTopic delivers authoritative availability changes for tables.
	TableStatusTopic = "tables.status"

	EventOrderOpened      = "order.opened"
	EventOrderClosed      = "order.closed"
	EventOrderItemAdded   = "order.item.added"
	EventOrderItemUpdated = "order.item.updated"
	EventOrderItemRemoved = "order.item.removed"

	// EventTableStatusChanged identifies a table availability change payload.
	EventTableStatusChanged = "table.status.changed"
)

// OrderEvent is published after every committed order mutation. Consumers
// (receipt generation, reporting) get the denormalized fields they need for
// display without a follow-up read.
type OrderEvent struct {
	EventType   string    `json:"event_type"`
	OccurredAt  time.Time `json:"occurred_at"`
	OrderID     string    `json:"order_id"`
	TableID     string    `json:"table_id"`
	TableNumber int       `json:"table_number,omitempty"`
	ActorID     string    `json:"actor_id,omitempty"`
	Total       float64   `json:"total"`

	// Line item fields, set for item-level events only.
	LineItemID string  `json:"line_item_id,omitempty"`
	MenuItemID string  `json:"menu_item_id,omitempty"`
	DishName   string  `json:"dish_name,omitempty"`
	Quantity   int     `json:"quantity,omitempty"`
	UnitPrice  float64 `json:"unit_price,omitempty"`
}

// TableStatusEvent captures the minimal information downstream services need
// to reason about a table's availability.
type TableStatusEvent struct {
	EventType      string    `json:"event_type"`
	TableID        string    `json:"table_id"`
	Status         string    `json:"status"`
	PreviousStatus string    `json:"previous_status,omitempty"`
	OrderID        string    `json:"order_id,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}
