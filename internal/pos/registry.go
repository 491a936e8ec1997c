package pos

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"
	"github.com/appetiteclub/tabpos/pkg/event"
	"github.com/google/uuid"
)

// TableRegistry is the sole authority over table availability. A table is
// occupied exactly when it is bound to one open order; the stored table
// status is a projection of the binding, never a second source of truth.
//
// Bind is an atomic check-and-set under the registry mutex, so two
// concurrent opens on one table resolve to exactly one winner.
type TableRegistry struct {
	mu       sync.RWMutex
	bindings map[uuid.UUID]uuid.UUID

	tables    TableRepo
	orders    OrderRepo
	publisher events.Publisher
	logger    apt.Logger
}

func NewTableRegistry(tables TableRepo, orders OrderRepo, publisher events.Publisher, logger apt.Logger) *TableRegistry {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &TableRegistry{
		bindings:  make(map[uuid.UUID]uuid.UUID),
		tables:    tables,
		orders:    orders,
		publisher: publisher,
		logger:    logger,
	}
}

// Warm rebuilds the binding map from the open orders in the store. Run once
// at startup before the HTTP surface accepts traffic.
func (reg *TableRegistry) Warm(ctx context.Context) error {
	if reg.orders == nil {
		return nil
	}
	open, err := reg.orders.ListByStatus(ctx, OrderOpen)
	if err != nil {
		return Wrap(KindUnavailable, "cannot warm table registry", err)
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()
	for _, o := range open {
		reg.bindings[o.TableID] = o.ID
	}
	reg.logger.Info("table registry warmed", "open_orders", len(open))
	return nil
}

// Bind associates an available table with an open order. Binding the same
// pair again is a no-op; a table bound to a different order rejects with the
// already-occupied kind.
func (reg *TableRegistry) Bind(ctx context.Context, tableID, orderID uuid.UUID) error {
	reg.mu.Lock()
	if bound, ok := reg.bindings[tableID]; ok {
		reg.mu.Unlock()
		if bound == orderID {
			return nil
		}
		return Errf(KindAlreadyOccupied, "table %s already has an open order", tableID)
	}
	reg.bindings[tableID] = orderID
	reg.mu.Unlock()

	if err := reg.flipStatus(ctx, tableID, orderID, TableOccupied); err != nil {
		reg.mu.Lock()
		delete(reg.bindings, tableID)
		reg.mu.Unlock()
		return err
	}
	return nil
}

// Unbind releases a table. Unbinding a table that holds no binding is a
// no-op, so close retries stay safe.
func (reg *TableRegistry) Unbind(ctx context.Context, tableID uuid.UUID) error {
	reg.mu.Lock()
	orderID, ok := reg.bindings[tableID]
	if ok {
		delete(reg.bindings, tableID)
	}
	reg.mu.Unlock()

	if !ok {
		return nil
	}
	return reg.flipStatus(ctx, tableID, orderID, TableAvailable)
}

// Availability derives a table's status strictly from the presence of a
// binding.
func (reg *TableRegistry) Availability(tableID uuid.UUID) string {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	if _, ok := reg.bindings[tableID]; ok {
		return TableOccupied
	}
	return TableAvailable
}

// BoundOrder returns the open order currently bound to the table, if any.
func (reg *TableRegistry) BoundOrder(tableID uuid.UUID) (uuid.UUID, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	orderID, ok := reg.bindings[tableID]
	return orderID, ok
}

// flipStatus projects the binding change onto the stored table and announces
// it. Store failures roll the binding back at the caller.
func (reg *TableRegistry) flipStatus(ctx context.Context, tableID, orderID uuid.UUID, status string) error {
	if reg.tables == nil {
		return nil
	}

	table, err := reg.tables.Get(ctx, tableID)
	if err != nil {
		return Wrap(KindUnavailable, "cannot load table", err)
	}
	if table == nil {
		return Errf(KindNotFound, "table %s not found", tableID)
	}

	previous := table.Status
	if status == TableOccupied {
		table.MarkOccupied()
	} else {
		table.MarkAvailable()
	}
	if err := reg.tables.Save(ctx, table); err != nil {
		return Wrap(KindUnavailable, "cannot save table status", err)
	}

	reg.publishStatusChanged(ctx, table, previous, orderID)
	return nil
}

func (reg *TableRegistry) publishStatusChanged(ctx context.Context, table *Table, previous string, orderID uuid.UUID) {
	if reg.publisher == nil {
		return
	}
	evt := event.TableStatusEvent{
		EventType:      event.EventTableStatusChanged,
		TableID:        table.ID.String(),
		Status:         table.Status,
		PreviousStatus: previous,
		OrderID:        orderID.String(),
		OccurredAt:     time.Now().UTC(),
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		reg.logger.Error("cannot marshal table status event", "error", err, "table_id", table.ID.String())
		return
	}
	if err := reg.publisher.Publish(ctx, event.TableStatusTopic, payload); err != nil {
		reg.logger.Error("cannot publish table status event", "error", err, "table_id", table.ID.String())
	}
}
