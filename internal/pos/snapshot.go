package pos

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// OrderSnapshot is the complete, consistent read returned by every order
// operation. Callers never need a second read to stay in sync; each mutation
// response is the new source of truth.
type OrderSnapshot struct {
	ID          uuid.UUID          `json:"id"`
	TableID     uuid.UUID          `json:"table_id"`
	TableNumber int                `json:"table_number"`
	WaiterID    string             `json:"waiter_id"`
	WaiterName  string             `json:"waiter_name,omitempty"`
	Status      string             `json:"status"`
	Items       []LineItemSnapshot `json:"items"`
	Total       float64            `json:"total_amount"`
	ClosedAt    *time.Time         `json:"closed_at,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

func (s OrderSnapshot) GetID() uuid.UUID {
	return s.ID
}

func (s OrderSnapshot) ResourceType() string {
	return "order"
}

type LineItemSnapshot struct {
	ID           uuid.UUID `json:"id"`
	MenuItemID   uuid.UUID `json:"menu_item_id"`
	DishName     string    `json:"dish_name"`
	Category     string    `json:"category"`
	Quantity     int       `json:"quantity"`
	PriceAtOrder float64   `json:"price_at_order"`
	Notes        string    `json:"notes,omitempty"`
	Subtotal     float64   `json:"subtotal"`
}

// TableSnapshot is the dashboard view of one table: availability plus the
// open order bound to it, if any.
type TableSnapshot struct {
	ID      uuid.UUID  `json:"id"`
	Number  int        `json:"table_number"`
	Status  string     `json:"status"`
	OrderID *uuid.UUID `json:"order_id,omitempty"`
}

func (s TableSnapshot) GetID() uuid.UUID {
	return s.ID
}

func (s TableSnapshot) ResourceType() string {
	return "table"
}

// SnapshotOrder projects an order into its caller-facing view. Money is
// rounded to cents here, at the edge; the ledger itself stays unrounded.
func SnapshotOrder(o *Order) OrderSnapshot {
	items := make([]LineItemSnapshot, 0, len(o.Items))
	for i := range o.Items {
		li := &o.Items[i]
		items = append(items, LineItemSnapshot{
			ID:           li.ID,
			MenuItemID:   li.MenuItemID,
			DishName:     li.DishName,
			Category:     li.Category,
			Quantity:     li.Quantity,
			PriceAtOrder: li.PriceAtOrder,
			Notes:        li.Notes,
			Subtotal:     roundCents(li.Subtotal()),
		})
	}
	return OrderSnapshot{
		ID:          o.ID,
		TableID:     o.TableID,
		TableNumber: o.TableNumber,
		WaiterID:    o.WaiterID,
		WaiterName:  o.WaiterName,
		Status:      o.Status,
		Items:       items,
		Total:       roundCents(o.Total()),
		ClosedAt:    o.ClosedAt,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
