package pos

import (
	"context"

	"github.com/google/uuid"
)

// Repos return (nil, nil) when a document does not exist; the service layer
// translates that into the not-found kind.

type OrderRepo interface {
	Create(ctx context.Context, order *Order) error
	Get(ctx context.Context, id uuid.UUID) (*Order, error)
	List(ctx context.Context) ([]*Order, error)
	ListByStatus(ctx context.Context, status string) ([]*Order, error)
	Save(ctx context.Context, order *Order) error
}

type TableRepo interface {
	Create(ctx context.Context, table *Table) error
	Get(ctx context.Context, id uuid.UUID) (*Table, error)
	List(ctx context.Context) ([]*Table, error)
	Save(ctx context.Context, table *Table) error
}

type MenuItemRepo interface {
	Create(ctx context.Context, item *MenuItem) error
	Get(ctx context.Context, id uuid.UUID) (*MenuItem, error)
	List(ctx context.Context) ([]*MenuItem, error)
	Save(ctx context.Context, item *MenuItem) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type Repos struct {
	OrderRepo    OrderRepo
	TableRepo    TableRepo
	MenuItemRepo MenuItemRepo
}
