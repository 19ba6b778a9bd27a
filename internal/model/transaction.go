package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TransactionStatus string

const (
	StatusCompleted TransactionStatus = "completed"
	StatusCancelled TransactionStatus = "cancelled"
)

// Transaction is a sale header. Status only ever moves completed -> cancelled.
type Transaction struct {
	BaseModel
	Code          string            `gorm:"type:varchar(30);uniqueIndex;not null" json:"code"`
	CashierID     uuid.UUID         `gorm:"type:uuid;not null;index" json:"cashier_id"`
	Cashier       *User             `gorm:"foreignKey:CashierID" json:"cashier,omitempty"`
	TotalItems    int               `gorm:"not null" json:"total_items"`
	Subtotal      int64             `gorm:"not null" json:"subtotal"`
	TotalDue      int64             `gorm:"not null" json:"total_due"`
	CashReceived  int64             `gorm:"not null" json:"cash_received"`
	ChangeDue     int64             `gorm:"not null" json:"change_due"`
	PaymentMethod string            `gorm:"type:varchar(20);default:'cash'" json:"payment_method"`
	Status        TransactionStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	Note          string            `gorm:"type:text" json:"note,omitempty"`

	Items []TransactionItem `gorm:"foreignKey:TransactionID" json:"items,omitempty"`
}

// TransactionItem is one sale line. Product code/name/price are denormalized
// snapshots taken at sale time so the line survives later product changes.
type TransactionItem struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key;" json:"id"`
	TransactionID uuid.UUID `gorm:"type:uuid;not null;index" json:"transaction_id"`
	ProductID     uuid.UUID `gorm:"type:uuid;not null;index" json:"product_id"`
	ProductCode   string    `gorm:"type:varchar(50);not null" json:"product_code"`
	ProductName   string    `gorm:"type:varchar(255);not null" json:"product_name"`
	UnitPrice     int64     `gorm:"not null" json:"unit_price"`
	Quantity      int       `gorm:"not null" json:"quantity"`
	Subtotal      int64     `gorm:"not null" json:"subtotal"`
	CreatedAt     time.Time `json:"created_at"`
}

func (i *TransactionItem) BeforeCreate(tx *gorm.DB) (err error) {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return
}

// TransactionCounter backs the per-day sale code sequence.
// One row per day, bumped atomically with an upsert inside the sale's
// database transaction.
type TransactionCounter struct {
	Day   string `gorm:"type:varchar(8);primaryKey"`
	Value int64  `gorm:"not null"`
}
