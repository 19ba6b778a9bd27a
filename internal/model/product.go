package model

import "github.com/google/uuid"

type Product struct {
	BaseModel
	Code       string     `gorm:"type:varchar(50);uniqueIndex;not null" json:"code" validate:"required,max=50"`
	Name       string     `gorm:"type:varchar(255);not null" json:"name" validate:"required,max=255"`
	CategoryID *uuid.UUID `gorm:"type:uuid;index" json:"category_id,omitempty"`
	Category   *Category  `json:"category,omitempty" validate:"-"`
	Price      int64      `gorm:"not null;default:0" json:"price" validate:"gte=0"`
	Stock      int        `gorm:"not null;default:0" json:"stock" validate:"gte=0"`
	MinStock   int        `gorm:"not null;default:5" json:"min_stock" validate:"gte=0"`
	Unit       string     `gorm:"type:varchar(20);default:'pcs'" json:"unit"`
	IsActive   bool       `gorm:"default:true" json:"is_active"`
}
