package pos

import (
	"testing"

	"github.com/google/uuid"
)

func TestNewOrder(t *testing.T) {
	tableID := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	o := NewOrder(tableID)

	if o.ID == uuid.Nil {
		t.Error("expected order ID to be generated")
	}
	if o.TableID != tableID {
		t.Errorf("expected table ID %s, got %s", tableID, o.TableID)
	}
	if o.Status != OrderOpen {
		t.Errorf("expected status %s, got %s", OrderOpen, o.Status)
	}
	if len(o.Items) != 0 {
		t.Errorf("expected empty ledger, got %d items", len(o.Items))
	}
	if o.Total() != 0 {
		t.Errorf("expected zero total, got %f", o.Total())
	}
}

func TestOrderAddItem(t *testing.T) {
	o := NewOrder(uuid.New())
	menuItemID := uuid.MustParse("22222222-2222-2222-2222-222222222222")

	item, err := o.AddItem(menuItemID, "Classic Burger", CategoryFood, 2, 5.00, "no onions")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if item.MenuItemID != menuItemID {
		t.Errorf("expected menu item ID %s, got %s", menuItemID, item.MenuItemID)
	}
	if item.Quantity != 2 {
		t.Errorf("expected quantity 2, got %d", item.Quantity)
	}
	if item.PriceAtOrder != 5.00 {
		t.Errorf("expected frozen price 5.00, got %f", item.PriceAtOrder)
	}
	if item.Subtotal() != 10.00 {
		t.Errorf("expected subtotal 10.00, got %f", item.Subtotal())
	}
	if o.Total() != 10.00 {
		t.Errorf("expected total 10.00, got %f", o.Total())
	}
}

func TestOrderAddItemValidation(t *testing.T) {
	tests := []struct {
		name     string
		quantity int
		closed   bool
		wantKind Kind
	}{
		{name: "zero quantity", quantity: 0, wantKind: KindInvalidQuantity},
		{name: "negative quantity", quantity: -3, wantKind: KindInvalidQuantity},
		{name: "closed order", quantity: 1, closed: true, wantKind: KindOrderClosed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := NewOrder(uuid.New())
			if tt.closed {
				if _, err := o.AddItem(uuid.New(), "Fries", CategoryFood, 1, 2.50, ""); err != nil {
					t.Fatalf("setup add failed: %v", err)
				}
				if err := o.Close(); err != nil {
					t.Fatalf("setup close failed: %v", err)
				}
			}

			_, err := o.AddItem(uuid.New(), "Fries", CategoryFood, tt.quantity, 2.50, "")
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if KindOf(err) != tt.wantKind {
				t.Errorf("expected kind %s, got %s", tt.wantKind, KindOf(err))
			}
		})
	}
}

func TestOrderSetQuantity(t *testing.T) {
	o := NewOrder(uuid.New())
	item, err := o.AddItem(uuid.New(), "Classic Burger", CategoryFood, 2, 5.00, "")
	if err != nil {
		t.Fatalf("setup add failed: %v", err)
	}

	updated, err := o.SetQuantity(item.ID, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Quantity != 3 {
		t.Errorf("expected quantity 3, got %d", updated.Quantity)
	}
	if o.Total() != 15.00 {
		t.Errorf("expected total 15.00, got %f", o.Total())
	}
}

func TestOrderSetQuantityIdempotent(t *testing.T) {
	o := NewOrder(uuid.New())
	item, err := o.AddItem(uuid.New(), "Classic Burger", CategoryFood, 2, 5.00, "")
	if err != nil {
		t.Fatalf("setup add failed: %v", err)
	}

	first, err := o.SetQuantity(item.ID, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := o.SetQuantity(item.ID, 3)
	if err != nil {
		t.Fatalf("unexpected error on repeat: %v", err)
	}

	if first.Quantity != second.Quantity {
		t.Errorf("expected identical quantity, got %d and %d", first.Quantity, second.Quantity)
	}
	if o.Total() != 15.00 {
		t.Errorf("expected total 15.00, got %f", o.Total())
	}
}

func TestOrderSetQuantityValidation(t *testing.T) {
	tests := []struct {
		name     string
		quantity int
		wantKind Kind
	}{
		{name: "zero is not removal", quantity: 0, wantKind: KindInvalidQuantity},
		{name: "negative", quantity: -1, wantKind: KindInvalidQuantity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := NewOrder(uuid.New())
			item, err := o.AddItem(uuid.New(), "Fries", CategoryFood, 1, 2.50, "")
			if err != nil {
				t.Fatalf("setup add failed: %v", err)
			}

			_, err = o.SetQuantity(item.ID, tt.quantity)
			if KindOf(err) != tt.wantKind {
				t.Errorf("expected kind %s, got %v", tt.wantKind, err)
			}
		})
	}

	t.Run("unknown line item", func(t *testing.T) {
		o := NewOrder(uuid.New())
		if _, err := o.AddItem(uuid.New(), "Fries", CategoryFood, 1, 2.50, ""); err != nil {
			t.Fatalf("setup add failed: %v", err)
		}

		_, err := o.SetQuantity(uuid.New(), 2)
		if KindOf(err) != KindLineItemNotFound {
			t.Errorf("expected kind %s, got %v", KindLineItemNotFound, err)
		}
	})
}

func TestOrderRemoveItem(t *testing.T) {
	o := NewOrder(uuid.New())
	item, err := o.AddItem(uuid.New(), "Classic Burger", CategoryFood, 2, 5.00, "")
	if err != nil {
		t.Fatalf("setup add failed: %v", err)
	}

	if err := o.RemoveItem(item.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(o.Items) != 0 {
		t.Errorf("expected empty ledger, got %d items", len(o.Items))
	}
	if o.Total() != 0 {
		t.Errorf("expected zero total, got %f", o.Total())
	}

	if err := o.RemoveItem(item.ID); KindOf(err) != KindLineItemNotFound {
		t.Errorf("expected kind %s, got %v", KindLineItemNotFound, err)
	}
}

func TestOrderTotalTracksLedger(t *testing.T) {
	o := NewOrder(uuid.New())

	burger, err := o.AddItem(uuid.New(), "Classic Burger", CategoryFood, 2, 5.00, "")
	if err != nil {
		t.Fatalf("add burger failed: %v", err)
	}
	cola, err := o.AddItem(uuid.New(), "Cola", CategoryDrink, 3, 1.50, "")
	if err != nil {
		t.Fatalf("add cola failed: %v", err)
	}

	if o.Total() != 14.50 {
		t.Errorf("expected total 14.50, got %f", o.Total())
	}

	if _, err := o.SetQuantity(burger.ID, 1); err != nil {
		t.Fatalf("set quantity failed: %v", err)
	}
	if o.Total() != 9.50 {
		t.Errorf("expected total 9.50, got %f", o.Total())
	}

	if err := o.RemoveItem(cola.ID); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if o.Total() != 5.00 {
		t.Errorf("expected total 5.00, got %f", o.Total())
	}
}

func TestOrderClose(t *testing.T) {
	t.Run("close with items", func(t *testing.T) {
		o := NewOrder(uuid.New())
		if _, err := o.AddItem(uuid.New(), "Classic Burger", CategoryFood, 1, 5.00, ""); err != nil {
			t.Fatalf("setup add failed: %v", err)
		}

		if err := o.Close(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if o.Status != OrderClosed {
			t.Errorf("expected status %s, got %s", OrderClosed, o.Status)
		}
		if o.ClosedAt == nil {
			t.Error("expected closed_at to be set")
		}
	})

	t.Run("empty order cannot close", func(t *testing.T) {
		o := NewOrder(uuid.New())
		if err := o.Close(); KindOf(err) != KindEmptyOrder {
			t.Errorf("expected kind %s, got %v", KindEmptyOrder, err)
		}
		if o.Status != OrderOpen {
			t.Errorf("expected order to stay open, got %s", o.Status)
		}
	})

	t.Run("close is irreversible", func(t *testing.T) {
		o := NewOrder(uuid.New())
		if _, err := o.AddItem(uuid.New(), "Fries", CategoryFood, 1, 2.50, ""); err != nil {
			t.Fatalf("setup add failed: %v", err)
		}
		if err := o.Close(); err != nil {
			t.Fatalf("setup close failed: %v", err)
		}

		if err := o.Close(); KindOf(err) != KindOrderClosed {
			t.Errorf("expected kind %s on double close, got %v", KindOrderClosed, err)
		}
	})
}

func TestClosedOrderRejectsMutations(t *testing.T) {
	o := NewOrder(uuid.New())
	item, err := o.AddItem(uuid.New(), "Classic Burger", CategoryFood, 2, 5.00, "")
	if err != nil {
		t.Fatalf("setup add failed: %v", err)
	}
	itemID := item.ID
	if err := o.Close(); err != nil {
		t.Fatalf("setup close failed: %v", err)
	}
	totalBefore := o.Total()

	if _, err := o.AddItem(uuid.New(), "Fries", CategoryFood, 1, 2.50, ""); KindOf(err) != KindOrderClosed {
		t.Errorf("add: expected kind %s, got %v", KindOrderClosed, err)
	}
	if _, err := o.SetQuantity(itemID, 5); KindOf(err) != KindOrderClosed {
		t.Errorf("set quantity: expected kind %s, got %v", KindOrderClosed, err)
	}
	if _, err := o.SetNotes(itemID, "late note"); KindOf(err) != KindOrderClosed {
		t.Errorf("set notes: expected kind %s, got %v", KindOrderClosed, err)
	}
	if err := o.RemoveItem(itemID); KindOf(err) != KindOrderClosed {
		t.Errorf("remove: expected kind %s, got %v", KindOrderClosed, err)
	}

	if o.Total() != totalBefore {
		t.Errorf("closed order total changed: %f -> %f", totalBefore, o.Total())
	}
}

func TestSnapshotOrderRoundsCents(t *testing.T) {
	o := NewOrder(uuid.New())
	if _, err := o.AddItem(uuid.New(), "Espresso", CategoryDrink, 3, 1.10, ""); err != nil {
		t.Fatalf("setup add failed: %v", err)
	}

	snap := SnapshotOrder(o)
	if snap.Total != 3.30 {
		t.Errorf("expected rounded total 3.30, got %v", snap.Total)
	}
	if len(snap.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(snap.Items))
	}
	if snap.Items[0].Subtotal != 3.30 {
		t.Errorf("expected rounded subtotal 3.30, got %v", snap.Items[0].Subtotal)
	}
}
