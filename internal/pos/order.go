package pos

import (
	"time"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"
)

const (
	OrderOpen   = "open"
	OrderClosed = "closed"
)

// Order is the aggregate root of one dining party's tab. It exclusively owns
// its line items; they are embedded and never shared across orders. The
// total is always derived from the items, never stored on its own.
type Order struct {
	ID          uuid.UUID  `json:"id" bson:"_id"`
	TableID     uuid.UUID  `json:"table_id" bson:"table_id"`
	TableNumber int        `json:"table_number" bson:"table_number"`
	WaiterID    string     `json:"waiter_id" bson:"waiter_id"`
	WaiterName  string     `json:"waiter_name,omitempty" bson:"waiter_name,omitempty"`
	Status      string     `json:"status" bson:"status"`
	Items       []LineItem `json:"items" bson:"items"`
	ClosedAt    *time.Time `json:"closed_at,omitempty" bson:"closed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at" bson:"created_at"`
	CreatedBy   string     `json:"created_by" bson:"created_by"`
	UpdatedAt   time.Time  `json:"updated_at" bson:"updated_at"`
	UpdatedBy   string     `json:"updated_by" bson:"updated_by"`
}

func (o *Order) GetID() uuid.UUID {
	return o.ID
}

func (o *Order) ResourceType() string {
	return "order"
}

func (o *Order) SetID(id uuid.UUID) {
	o.ID = id
}

func NewOrder(tableID uuid.UUID) *Order {
	return &Order{
		ID:      apt.GenerateNewID(),
		TableID: tableID,
		Status:  OrderOpen,
		Items:   []LineItem{},
	}
}

func (o *Order) EnsureID() {
	if o.ID == uuid.Nil {
		o.ID = apt.GenerateNewID()
	}
}

func (o *Order) BeforeCreate() {
	o.EnsureID()
	o.CreatedAt = time.Now()
	o.UpdatedAt = time.Now()
}

func (o *Order) BeforeUpdate() {
	o.UpdatedAt = time.Now()
}

func (o *Order) IsOpen() bool {
	return o.Status == OrderOpen
}

// Total recomputes the order total from the current line items on every
// call. Nothing caches it, so item edits and the visible total cannot drift.
func (o *Order) Total() float64 {
	var total float64
	for i := range o.Items {
		total += o.Items[i].Subtotal()
	}
	return total
}

// AddItem appends a ledger entry with the given frozen unit price.
func (o *Order) AddItem(menuItemID uuid.UUID, dishName, category string, quantity int, unitPrice float64, notes string) (*LineItem, error) {
	if !o.IsOpen() {
		return nil, Errf(KindOrderClosed, "order %s is closed", o.ID)
	}
	if quantity < 1 {
		return nil, Errf(KindInvalidQuantity, "quantity must be at least 1")
	}

	item := NewLineItem(o.ID)
	item.MenuItemID = menuItemID
	item.DishName = dishName
	item.Category = category
	item.Quantity = quantity
	item.PriceAtOrder = unitPrice
	item.Notes = notes
	item.BeforeCreate()

	o.Items = append(o.Items, *item)
	o.BeforeUpdate()
	return &o.Items[len(o.Items)-1], nil
}

// SetQuantity replaces a line item's quantity. Zero and negative targets are
// rejected; removal is the only path below 1. Setting the current value
// again is a no-op and safe to retry.
func (o *Order) SetQuantity(lineItemID uuid.UUID, quantity int) (*LineItem, error) {
	if !o.IsOpen() {
		return nil, Errf(KindOrderClosed, "order %s is closed", o.ID)
	}
	if quantity < 1 {
		return nil, Errf(KindInvalidQuantity, "quantity must be at least 1, use remove instead")
	}

	item := o.findItem(lineItemID)
	if item == nil {
		return nil, Errf(KindLineItemNotFound, "line item %s not found", lineItemID)
	}
	if item.Quantity == quantity {
		return item, nil
	}

	item.Quantity = quantity
	item.BeforeUpdate()
	o.BeforeUpdate()
	return item, nil
}

// SetNotes replaces a line item's free-text note.
func (o *Order) SetNotes(lineItemID uuid.UUID, notes string) (*LineItem, error) {
	if !o.IsOpen() {
		return nil, Errf(KindOrderClosed, "order %s is closed", o.ID)
	}

	item := o.findItem(lineItemID)
	if item == nil {
		return nil, Errf(KindLineItemNotFound, "line item %s not found", lineItemID)
	}

	item.Notes = notes
	item.BeforeUpdate()
	o.BeforeUpdate()
	return item, nil
}

// RemoveItem deletes a ledger entry.
func (o *Order) RemoveItem(lineItemID uuid.UUID) error {
	if !o.IsOpen() {
		return Errf(KindOrderClosed, "order %s is closed", o.ID)
	}

	for i := range o.Items {
		if o.Items[i].ID == lineItemID {
			o.Items = append(o.Items[:i], o.Items[i+1:]...)
			o.BeforeUpdate()
			return nil
		}
	}
	return Errf(KindLineItemNotFound, "line item %s not found", lineItemID)
}

// Close finalizes the order. Closing is irreversible and requires a
// non-empty ledger; afterwards every mutation fails with the closed kind.
func (o *Order) Close() error {
	if !o.IsOpen() {
		return Errf(KindOrderClosed, "order %s is already closed", o.ID)
	}
	if len(o.Items) == 0 {
		return Errf(KindEmptyOrder, "order %s has no items to finalize", o.ID)
	}

	now := time.Now()
	o.Status = OrderClosed
	o.ClosedAt = &now
	o.UpdatedAt = now
	return nil
}

// Clone returns a deep copy of the order. Mutations run against a clone so
// a failed save discards them wholesale instead of leaking partial state
// into whatever the repo handed out.
func (o *Order) Clone() *Order {
	dup := *o
	dup.Items = make([]LineItem, len(o.Items))
	copy(dup.Items, o.Items)
	if o.ClosedAt != nil {
		at := *o.ClosedAt
		dup.ClosedAt = &at
	}
	return &dup
}

func (o *Order) findItem(id uuid.UUID) *LineItem {
	for i := range o.Items {
		if o.Items[i].ID == id {
			return &o.Items[i]
		}
	}
	return nil
}
