package pos

import (
	"time"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"
)

const (
	CategoryFood  = "food"
	CategoryDrink = "drink"
)

// MenuItem is a catalog entry the engine only ever reads. Its price is copied
// onto a line item at add time; later catalog edits never touch open orders.
type MenuItem struct {
	ID        uuid.UUID `json:"id" bson:"_id"`
	Name      string    `json:"name" bson:"name"`
	Category  string    `json:"category" bson:"category"`
	Price     float64   `json:"price" bson:"price"`
	ImageURL  string    `json:"image_url,omitempty" bson:"image_url,omitempty"`
	Active    bool      `json:"active" bson:"active"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	CreatedBy string    `json:"created_by" bson:"created_by"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
	UpdatedBy string    `json:"updated_by" bson:"updated_by"`
}

func (m *MenuItem) GetID() uuid.UUID {
	return m.ID
}

func (m *MenuItem) ResourceType() string {
	return "food"
}

func (m *MenuItem) SetID(id uuid.UUID) {
	m.ID = id
}

func NewMenuItem() *MenuItem {
	return &MenuItem{
		ID:     apt.GenerateNewID(),
		Active: true,
	}
}

func (m *MenuItem) EnsureID() {
	if m.ID == uuid.Nil {
		m.ID = apt.GenerateNewID()
	}
}

func (m *MenuItem) BeforeCreate() {
	m.EnsureID()
	m.CreatedAt = time.Now()
	m.UpdatedAt = time.Now()
}

func (m *MenuItem) BeforeUpdate() {
	m.UpdatedAt = time.Now()
}
