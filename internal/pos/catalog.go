package pos

import (
	"context"
	"sync"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"
)

// PriceQuote is the point-in-time catalog read the ledger freezes onto a
// line item.
type PriceQuote struct {
	MenuItemID uuid.UUID
	Name       string
	Category   string
	UnitPrice  float64
}

// MenuCatalog answers price lookups from a read-through cache over the menu
// item store, so the order critical section never waits on catalog I/O.
// Catalog writes go through Invalidate to keep quotes honest.
type MenuCatalog struct {
	mu     sync.RWMutex
	quotes map[uuid.UUID]PriceQuote
	repo   MenuItemRepo
	logger apt.Logger
}

func NewMenuCatalog(repo MenuItemRepo, logger apt.Logger) *MenuCatalog {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &MenuCatalog{
		quotes: make(map[uuid.UUID]PriceQuote),
		repo:   repo,
		logger: logger,
	}
}

// Warm preloads quotes for all active menu items.
func (c *MenuCatalog) Warm(ctx context.Context) error {
	if c.repo == nil {
		return nil
	}
	items, err := c.repo.List(ctx)
	if err != nil {
		return Wrap(KindUnavailable, "cannot warm menu catalog", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, item := range items {
		if !item.Active {
			continue
		}
		c.quotes[item.ID] = quoteFor(item)
	}
	c.logger.Info("menu catalog warmed", "items", len(c.quotes))
	return nil
}

// Lookup resolves the current unit price for a menu item. Missing or
// inactive items answer with the unknown-menu-item kind.
func (c *MenuCatalog) Lookup(ctx context.Context, id uuid.UUID) (PriceQuote, error) {
	c.mu.RLock()
	quote, ok := c.quotes[id]
	c.mu.RUnlock()
	if ok {
		return quote, nil
	}

	if c.repo == nil {
		return PriceQuote{}, Errf(KindUnknownMenuItem, "menu item %s not found", id)
	}
	item, err := c.repo.Get(ctx, id)
	if err != nil {
		return PriceQuote{}, Wrap(KindUnavailable, "cannot look up menu item", err)
	}
	if item == nil || !item.Active {
		return PriceQuote{}, Errf(KindUnknownMenuItem, "menu item %s not found", id)
	}

	quote = quoteFor(item)
	c.mu.Lock()
	c.quotes[id] = quote
	c.mu.Unlock()
	return quote, nil
}

// Invalidate drops a cached quote after a catalog write.
func (c *MenuCatalog) Invalidate(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.quotes, id)
}

func quoteFor(item *MenuItem) PriceQuote {
	return PriceQuote{
		MenuItemID: item.ID,
		Name:       item.Name,
		Category:   item.Category,
		UnitPrice:  item.Price,
	}
}
