package pos

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"
	"github.com/appetiteclub/tabpos/pkg/event"
	"github.com/google/uuid"
)

const (
	defaultLockTimeout = 2 * time.Second
	defaultDedupWindow = 30 * time.Second
)

// OrderService orchestrates the order lifecycle: it gates every mutation on
// the permission policy, serializes mutations per order, composes order and
// table state as one logical step, and answers every call with a full
// snapshot.
type OrderService struct {
	repos     Repos
	registry  *TableRegistry
	catalog   *MenuCatalog
	policy    PermissionPolicy
	locks     *orderLocks
	dedup     *dedupWindow
	publisher events.Publisher
	logger    apt.Logger
}

type OrderServiceDeps struct {
	Repos     Repos
	Registry  *TableRegistry
	Catalog   *MenuCatalog
	Policy    PermissionPolicy
	Publisher events.Publisher
}

func NewOrderService(deps OrderServiceDeps, config *apt.Config, logger apt.Logger) *OrderService {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}

	lockTimeout := durationSetting(config, "service.lock_timeout_ms", defaultLockTimeout)
	dedupWindow := durationSetting(config, "service.dedup_window_ms", defaultDedupWindow)

	return &OrderService{
		repos:     deps.Repos,
		registry:  deps.Registry,
		catalog:   deps.Catalog,
		policy:    deps.Policy,
		locks:     newOrderLocks(lockTimeout),
		dedup:     newDedupWindow(dedupWindow),
		publisher: deps.Publisher,
		logger:    logger,
	}
}

func durationSetting(config *apt.Config, key string, def time.Duration) time.Duration {
	if config == nil {
		return def
	}
	raw := config.GetStringOrDef(key, "")
	if raw == "" {
		return def
	}
	ms, err := strconv.Atoi(raw)
	if err != nil || ms <= 0 {
		return def
	}
	return time.Duration(ms) * time.Millisecond
}

// OpenOrder creates an order against an available table. Binding and
// creation succeed or fail together: the registry slot is taken first (it is
// the contended authority) and handed back if the store rejects the order.
func (s *OrderService) OpenOrder(ctx context.Context, actor Actor, tableID uuid.UUID) (OrderSnapshot, error) {
	if !s.policy.CanEditItems(actor) {
		return OrderSnapshot{}, Errf(KindForbidden, "actor %s may not open orders", actor.ID)
	}

	table, err := s.repos.TableRepo.Get(ctx, tableID)
	if err != nil {
		return OrderSnapshot{}, Wrap(KindUnavailable, "cannot load table", err)
	}
	if table == nil {
		return OrderSnapshot{}, Errf(KindNotFound, "table %s not found", tableID)
	}

	order := NewOrder(tableID)
	order.TableNumber = table.Number
	order.WaiterID = actor.ID
	order.WaiterName = actor.Name
	order.CreatedBy = actor.ID
	order.UpdatedBy = actor.ID
	order.BeforeCreate()

	if err := s.registry.Bind(ctx, tableID, order.ID); err != nil {
		return OrderSnapshot{}, err
	}

	if err := s.repos.OrderRepo.Create(ctx, order); err != nil {
		if ubErr := s.registry.Unbind(ctx, tableID); ubErr != nil {
			s.logger.Error("cannot release table after failed order create", "error", ubErr, "table_id", tableID.String())
		}
		return OrderSnapshot{}, Wrap(KindUnavailable, "cannot create order", err)
	}

	s.publishOrderEvent(ctx, event.EventOrderOpened, order, nil, actor)
	return SnapshotOrder(order), nil
}

// AddItemRequest carries one add-item command. DedupToken is optional; a
// token replayed within the dedup window is absorbed instead of creating a
// second line item.
type AddItemRequest struct {
	MenuItemID uuid.UUID
	Quantity   int
	Notes      string
	DedupToken string
}

func (s *OrderService) AddItem(ctx context.Context, actor Actor, orderID uuid.UUID, req AddItemRequest) (OrderSnapshot, error) {
	if !s.policy.CanEditItems(actor) {
		return OrderSnapshot{}, Errf(KindForbidden, "actor %s may not edit order items", actor.ID)
	}
	if req.Quantity < 1 {
		return OrderSnapshot{}, Errf(KindInvalidQuantity, "quantity must be at least 1")
	}

	// Resolve the price before entering the critical section so the lock
	// never covers catalog I/O.
	quote, err := s.catalog.Lookup(ctx, req.MenuItemID)
	if err != nil {
		return OrderSnapshot{}, err
	}

	release, err := s.locks.acquire(ctx, orderID)
	if err != nil {
		return OrderSnapshot{}, err
	}
	defer release()

	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return OrderSnapshot{}, err
	}

	if s.dedup.isDuplicate(orderID, req.DedupToken) {
		s.logger.Debug("absorbed duplicate add-item", "order_id", orderID.String(), "dedup_token", req.DedupToken)
		return SnapshotOrder(order), nil
	}

	item, err := order.AddItem(quote.MenuItemID, quote.Name, quote.Category, req.Quantity, quote.UnitPrice, req.Notes)
	if err != nil {
		return OrderSnapshot{}, err
	}
	item.CreatedBy = actor.ID
	item.UpdatedBy = actor.ID
	order.UpdatedBy = actor.ID

	if err := s.repos.OrderRepo.Save(ctx, order); err != nil {
		return OrderSnapshot{}, Wrap(KindUnavailable, "cannot save order", err)
	}
	s.dedup.record(orderID, req.DedupToken)

	s.publishOrderEvent(ctx, event.EventOrderItemAdded, order, item, actor)
	return SnapshotOrder(order), nil
}

// UpdateItemRequest carries a partial line item edit. Nil fields are left
// untouched.
type UpdateItemRequest struct {
	Quantity *int
	Notes    *string
}

// UpdateItem changes a line item's quantity or note. Repeating the same
// quantity yields the same snapshot, so retries are safe.
func (s *OrderService) UpdateItem(ctx context.Context, actor Actor, orderID, lineItemID uuid.UUID, req UpdateItemRequest) (OrderSnapshot, error) {
	if !s.policy.CanEditItems(actor) {
		return OrderSnapshot{}, Errf(KindForbidden, "actor %s may not edit order items", actor.ID)
	}
	if req.Quantity != nil && *req.Quantity < 1 {
		return OrderSnapshot{}, Errf(KindInvalidQuantity, "quantity must be at least 1, use remove instead")
	}

	release, err := s.locks.acquire(ctx, orderID)
	if err != nil {
		return OrderSnapshot{}, err
	}
	defer release()

	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return OrderSnapshot{}, err
	}

	var item *LineItem
	if req.Quantity != nil {
		item, err = order.SetQuantity(lineItemID, *req.Quantity)
		if err != nil {
			return OrderSnapshot{}, err
		}
	}
	if req.Notes != nil {
		item, err = order.SetNotes(lineItemID, *req.Notes)
		if err != nil {
			return OrderSnapshot{}, err
		}
	}
	if item == nil {
		return SnapshotOrder(order), nil
	}
	item.UpdatedBy = actor.ID
	order.UpdatedBy = actor.ID

	if err := s.repos.OrderRepo.Save(ctx, order); err != nil {
		return OrderSnapshot{}, Wrap(KindUnavailable, "cannot save order", err)
	}

	s.publishOrderEvent(ctx, event.EventOrderItemUpdated, order, item, actor)
	return SnapshotOrder(order), nil
}

// RemoveItem deletes a line item. This is the only legal path below a
// quantity of 1.
func (s *OrderService) RemoveItem(ctx context.Context, actor Actor, orderID, lineItemID uuid.UUID) (OrderSnapshot, error) {
	if !s.policy.CanEditItems(actor) {
		return OrderSnapshot{}, Errf(KindForbidden, "actor %s may not edit order items", actor.ID)
	}

	release, err := s.locks.acquire(ctx, orderID)
	if err != nil {
		return OrderSnapshot{}, err
	}
	defer release()

	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return OrderSnapshot{}, err
	}

	if err := order.RemoveItem(lineItemID); err != nil {
		return OrderSnapshot{}, err
	}
	order.UpdatedBy = actor.ID

	if err := s.repos.OrderRepo.Save(ctx, order); err != nil {
		return OrderSnapshot{}, Wrap(KindUnavailable, "cannot save order", err)
	}

	s.publishOrderEvent(ctx, event.EventOrderItemRemoved, order, nil, actor)
	return SnapshotOrder(order), nil
}

// CloseOrder finalizes payment. The close is irreversible; the table is
// released in the same logical step so it can seat the next party.
func (s *OrderService) CloseOrder(ctx context.Context, actor Actor, orderID uuid.UUID) (OrderSnapshot, error) {
	if !s.policy.CanCloseOrder(actor) {
		return OrderSnapshot{}, Errf(KindForbidden, "actor %s may not close orders", actor.ID)
	}

	release, err := s.locks.acquire(ctx, orderID)
	if err != nil {
		return OrderSnapshot{}, err
	}
	defer release()

	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return OrderSnapshot{}, err
	}

	if err := order.Close(); err != nil {
		return OrderSnapshot{}, err
	}
	order.UpdatedBy = actor.ID

	if err := s.repos.OrderRepo.Save(ctx, order); err != nil {
		return OrderSnapshot{}, Wrap(KindUnavailable, "cannot save order", err)
	}

	// The close is committed once saved. A failed table projection is
	// logged and heals on the next registry warm-up rather than undoing an
	// irreversible close.
	if err := s.registry.Unbind(ctx, order.TableID); err != nil {
		s.logger.Error("cannot release table after close", "error", err, "table_id", order.TableID.String())
	}

	s.publishOrderEvent(ctx, event.EventOrderClosed, order, nil, actor)
	return SnapshotOrder(order), nil
}

// GetOrder reads one order, open or closed. Closed orders stay readable;
// this is the feed for receipt generation.
func (s *OrderService) GetOrder(ctx context.Context, actor Actor, orderID uuid.UUID) (OrderSnapshot, error) {
	if !s.policy.CanViewHistory(actor) {
		return OrderSnapshot{}, Errf(KindForbidden, "actor %s may not view orders", actor.ID)
	}

	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return OrderSnapshot{}, err
	}
	return SnapshotOrder(order), nil
}

// ListOrders returns snapshots filtered by status and a free-text search
// over waiter name and table number.
func (s *OrderService) ListOrders(ctx context.Context, actor Actor, status, search string) ([]OrderSnapshot, error) {
	if !s.policy.CanViewHistory(actor) {
		return nil, Errf(KindForbidden, "actor %s may not view orders", actor.ID)
	}

	var orders []*Order
	var err error
	if status != "" {
		orders, err = s.repos.OrderRepo.ListByStatus(ctx, status)
	} else {
		orders, err = s.repos.OrderRepo.List(ctx)
	}
	if err != nil {
		return nil, Wrap(KindUnavailable, "cannot list orders", err)
	}

	needle := strings.ToLower(strings.TrimSpace(search))
	result := make([]OrderSnapshot, 0, len(orders))
	for _, o := range orders {
		if needle != "" && !orderMatches(o, needle) {
			continue
		}
		result = append(result, SnapshotOrder(o))
	}
	return result, nil
}

func orderMatches(o *Order, needle string) bool {
	if strings.Contains(strings.ToLower(o.WaiterName), needle) {
		return true
	}
	if strings.Contains(strconv.Itoa(o.TableNumber), needle) {
		return true
	}
	return strings.HasPrefix(strings.ToLower(o.ID.String()), needle)
}

// ListTables returns the dashboard view of all tables. Availability comes
// from the registry, never from the stored rows alone.
func (s *OrderService) ListTables(ctx context.Context, actor Actor) ([]TableSnapshot, error) {
	if !s.policy.CanViewHistory(actor) {
		return nil, Errf(KindForbidden, "actor %s may not view tables", actor.ID)
	}

	tables, err := s.repos.TableRepo.List(ctx)
	if err != nil {
		return nil, Wrap(KindUnavailable, "cannot list tables", err)
	}

	result := make([]TableSnapshot, 0, len(tables))
	for _, t := range tables {
		snap := TableSnapshot{
			ID:     t.ID,
			Number: t.Number,
			Status: s.registry.Availability(t.ID),
		}
		if orderID, ok := s.registry.BoundOrder(t.ID); ok {
			id := orderID
			snap.OrderID = &id
		}
		result = append(result, snap)
	}
	return result, nil
}

// Catalog management. The engine only reads prices; these exist for the
// admin food-master surface and keep the price cache honest.

func (s *OrderService) ListMenu(ctx context.Context, actor Actor) ([]*MenuItem, error) {
	if !s.policy.CanViewHistory(actor) {
		return nil, Errf(KindForbidden, "actor %s may not view the menu", actor.ID)
	}
	items, err := s.repos.MenuItemRepo.List(ctx)
	if err != nil {
		return nil, Wrap(KindUnavailable, "cannot list menu items", err)
	}
	return items, nil
}

func (s *OrderService) GetMenuItem(ctx context.Context, actor Actor, id uuid.UUID) (*MenuItem, error) {
	if !s.policy.CanViewHistory(actor) {
		return nil, Errf(KindForbidden, "actor %s may not view the menu", actor.ID)
	}
	item, err := s.repos.MenuItemRepo.Get(ctx, id)
	if err != nil {
		return nil, Wrap(KindUnavailable, "cannot load menu item", err)
	}
	if item == nil {
		return nil, Errf(KindNotFound, "menu item %s not found", id)
	}
	return item, nil
}

func (s *OrderService) CreateMenuItem(ctx context.Context, actor Actor, item *MenuItem) (*MenuItem, error) {
	if !s.policy.CanManageCatalog(actor) {
		return nil, Errf(KindForbidden, "actor %s may not manage the catalog", actor.ID)
	}
	item.CreatedBy = actor.ID
	item.UpdatedBy = actor.ID
	item.BeforeCreate()
	if err := s.repos.MenuItemRepo.Create(ctx, item); err != nil {
		return nil, Wrap(KindUnavailable, "cannot create menu item", err)
	}
	return item, nil
}

func (s *OrderService) UpdateMenuItem(ctx context.Context, actor Actor, item *MenuItem) (*MenuItem, error) {
	if !s.policy.CanManageCatalog(actor) {
		return nil, Errf(KindForbidden, "actor %s may not manage the catalog", actor.ID)
	}
	item.UpdatedBy = actor.ID
	item.BeforeUpdate()
	if err := s.repos.MenuItemRepo.Save(ctx, item); err != nil {
		return nil, Wrap(KindUnavailable, "cannot save menu item", err)
	}
	s.catalog.Invalidate(item.ID)
	return item, nil
}

func (s *OrderService) DeleteMenuItem(ctx context.Context, actor Actor, id uuid.UUID) error {
	if !s.policy.CanManageCatalog(actor) {
		return Errf(KindForbidden, "actor %s may not manage the catalog", actor.ID)
	}
	if err := s.repos.MenuItemRepo.Delete(ctx, id); err != nil {
		return Wrap(KindUnavailable, "cannot delete menu item", err)
	}
	s.catalog.Invalidate(id)
	return nil
}

// loadOrder returns a deep copy of the stored order. Mutations happen on
// the copy and reach the store only through a successful Save, regardless of
// whether the repo shares its documents.
func (s *OrderService) loadOrder(ctx context.Context, id uuid.UUID) (*Order, error) {
	order, err := s.repos.OrderRepo.Get(ctx, id)
	if err != nil {
		return nil, Wrap(KindUnavailable, "cannot load order", err)
	}
	if order == nil {
		return nil, Errf(KindNotFound, "order %s not found", id)
	}
	return order.Clone(), nil
}

func (s *OrderService) publishOrderEvent(ctx context.Context, eventType string, order *Order, item *LineItem, actor Actor) {
	if s.publisher == nil {
		return
	}

	evt := event.OrderEvent{
		EventType:   eventType,
		OccurredAt:  time.Now().UTC(),
		OrderID:     order.ID.String(),
		TableID:     order.TableID.String(),
		TableNumber: order.TableNumber,
		ActorID:     actor.ID,
		Total:       roundCents(order.Total()),
	}
	if item != nil {
		evt.LineItemID = item.ID.String()
		evt.MenuItemID = item.MenuItemID.String()
		evt.DishName = item.DishName
		evt.Quantity = item.Quantity
		evt.UnitPrice = item.PriceAtOrder
	}

	payload, err := json.Marshal(evt)
	if err != nil {
		s.logger.Error("cannot marshal order event", "error", err, "order_id", order.ID.String())
		return
	}
	if err := s.publisher.Publish(ctx, event.OrderLifecycleTopic, payload); err != nil {
		s.logger.Error("cannot publish order event", "error", err, "order_id", order.ID.String())
	}
}
