package pos

import (
	"time"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"
)

const (
	TableAvailable = "available"
	TableOccupied  = "occupied"
)

// Table is a physical table. Its status is never written directly by
// callers: the registry flips it as a side effect of binding and unbinding
// the table's open order.
type Table struct {
	ID        uuid.UUID `json:"id" bson:"_id"`
	Number    int       `json:"table_number" bson:"table_number"`
	Status    string    `json:"status" bson:"status"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	CreatedBy string    `json:"created_by" bson:"created_by"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
	UpdatedBy string    `json:"updated_by" bson:"updated_by"`
}

func (t *Table) GetID() uuid.UUID {
	return t.ID
}

func (t *Table) ResourceType() string {
	return "table"
}

func (t *Table) SetID(id uuid.UUID) {
	t.ID = id
}

func NewTable(number int) *Table {
	return &Table{
		ID:     apt.GenerateNewID(),
		Number: number,
		Status: TableAvailable,
	}
}

func (t *Table) EnsureID() {
	if t.ID == uuid.Nil {
		t.ID = apt.GenerateNewID()
	}
}

func (t *Table) BeforeCreate() {
	t.EnsureID()
	t.CreatedAt = time.Now()
	t.UpdatedAt = time.Now()
}

func (t *Table) BeforeUpdate() {
	t.UpdatedAt = time.Now()
}

func (t *Table) MarkOccupied() {
	t.Status = TableOccupied
	t.UpdatedAt = time.Now()
}

func (t *Table) MarkAvailable() {
	t.Status = TableAvailable
	t.UpdatedAt = time.Now()
}
