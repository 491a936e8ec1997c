package pos

import (
	"time"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"
)

// LineItem is one ledger entry of an order. The unit price is frozen when
// the entry is created; catalog price edits never reach existing entries.
type LineItem struct {
	ID           uuid.UUID `json:"id" bson:"id"`
	OrderID      uuid.UUID `json:"order_id" bson:"order_id"`
	MenuItemID   uuid.UUID `json:"menu_item_id" bson:"menu_item_id"`
	DishName     string    `json:"dish_name" bson:"dish_name"`
	Category     string    `json:"category" bson:"category"`
	Quantity     int       `json:"quantity" bson:"quantity"`
	PriceAtOrder float64   `json:"price_at_order" bson:"price_at_order"`
	Notes        string    `json:"notes,omitempty" bson:"notes,omitempty"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
	CreatedBy    string    `json:"created_by" bson:"created_by"`
	UpdatedAt    time.Time `json:"updated_at" bson:"updated_at"`
	UpdatedBy    string    `json:"updated_by" bson:"updated_by"`
}

func (li *LineItem) GetID() uuid.UUID {
	return li.ID
}

func (li *LineItem) ResourceType() string {
	return "line-item"
}

func NewLineItem(orderID uuid.UUID) *LineItem {
	return &LineItem{
		ID:      apt.GenerateNewID(),
		OrderID: orderID,
	}
}

func (li *LineItem) EnsureID() {
	if li.ID == uuid.Nil {
		li.ID = apt.GenerateNewID()
	}
}

func (li *LineItem) BeforeCreate() {
	li.EnsureID()
	li.CreatedAt = time.Now()
	li.UpdatedAt = time.Now()
}

func (li *LineItem) BeforeUpdate() {
	li.UpdatedAt = time.Now()
}

func (li *LineItem) Subtotal() float64 {
	return float64(li.Quantity) * li.PriceAtOrder
}
