package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MovementKind string

const (
	MovementIn  MovementKind = "in"
	MovementOut MovementKind = "out"
)

// StockMovement is the append-only ledger of every stock change.
// Rows are written exactly once per stock-affecting event (adjustment,
// sale line, cancellation line) and never updated or deleted.
type StockMovement struct {
	ID        uuid.UUID    `gorm:"type:uuid;primary_key;" json:"id"`
	ProductID uuid.UUID    `gorm:"type:uuid;not null;index" json:"product_id"`
	Product   *Product     `json:"product,omitempty"`
	Kind      MovementKind `gorm:"type:varchar(10);not null" json:"kind"`
	Quantity  int          `gorm:"not null" json:"quantity"` // always positive, direction lives in Kind

	// Snapshot of the stock counter around this movement.
	// Invariant: StockAfter = StockBefore + Quantity (in) or StockBefore - Quantity (out).
	StockBefore int `gorm:"not null" json:"stock_before"`
	StockAfter  int `gorm:"not null" json:"stock_after"`

	Reference string    `gorm:"type:varchar(50);index" json:"reference,omitempty"` // e.g. transaction code
	Note      string    `gorm:"type:text" json:"note,omitempty"`
	UserID    uuid.UUID `gorm:"type:uuid" json:"user_id"`
	User      *User     `json:"user,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (m *StockMovement) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return
}
