package service

import (
	"go-pos-api/internal/apperr"
	"go-pos-api/internal/model"
	"go-pos-api/pkg/validator"

	"github.com/google/uuid"
)

// Actor identifies the authenticated user performing an operation. Handlers
// build it from the JWT claims set by the auth middleware.
type Actor struct {
	ID    uuid.UUID
	Name  string
	Email string
	Role  model.UserRole
}

type SaleItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"uuid_required"`
	UnitPrice int64     `json:"unit_price" validate:"gte=0"`
	Quantity  int       `json:"quantity" validate:"required,gt=0"`
	Subtotal  int64     `json:"subtotal" validate:"gte=0"`
}

// CreateSaleRequest carries one checkout. Unit prices and subtotals come from
// the caller as-is; the engine does not re-price against the product table.
type CreateSaleRequest struct {
	CashierID     uuid.UUID         `json:"cashier_id"` // defaults to the acting user
	Items         []SaleItemRequest `json:"items" validate:"required,min=1,dive"`
	CashReceived  int64             `json:"cash_received" validate:"gte=0"`
	PaymentMethod string            `json:"payment_method" validate:"omitempty,oneof=cash debit credit qris transfer"`
	Note          string            `json:"note" validate:"max=500"`
}

type CancelSaleRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// AdjustStockRequest is a manual correction. Positive delta is stock-in,
// negative is stock-out; zero is rejected.
type AdjustStockRequest struct {
	Delta int    `json:"delta" validate:"required"`
	Note  string `json:"note" validate:"max=500"`
}

type CreateProductRequest struct {
	Code       string     `json:"code" validate:"required,max=50"`
	Name       string     `json:"name" validate:"required,max=255"`
	CategoryID *uuid.UUID `json:"category_id"`
	Price      int64      `json:"price" validate:"gte=0"`
	Stock      int        `json:"stock" validate:"gte=0"`
	MinStock   int        `json:"min_stock" validate:"gte=0"`
	Unit       string     `json:"unit" validate:"max=20"`
}

// UpdateProductRequest uses pointers so omitted fields keep their stored
// values. Stock is deliberately absent: the counter only moves through the
// adjustment, sale, and cancellation operations.
type UpdateProductRequest struct {
	Code       *string    `json:"code" validate:"omitempty,max=50"`
	Name       *string    `json:"name" validate:"omitempty,max=255"`
	CategoryID *uuid.UUID `json:"category_id"`
	Price      *int64     `json:"price" validate:"omitempty,gte=0"`
	MinStock   *int       `json:"min_stock" validate:"omitempty,gte=0"`
	Unit       *string    `json:"unit" validate:"omitempty,max=20"`
	IsActive   *bool      `json:"is_active"`
}

type CreateUserRequest struct {
	Email       string         `json:"email" validate:"required,email"`
	Password    string         `json:"password" validate:"required,min=6"`
	FullName    string         `json:"full_name" validate:"required"`
	PhoneNumber string         `json:"phone_number"`
	Role        model.UserRole `json:"role" validate:"required,oneof=admin manager cashier"`
}

type UpdateUserRequest struct {
	Email       *string         `json:"email" validate:"omitempty,email"`
	Password    *string         `json:"password,omitempty" validate:"omitempty,min=6"`
	FullName    *string         `json:"full_name"`
	PhoneNumber *string         `json:"phone_number"`
	Role        *model.UserRole `json:"role" validate:"omitempty,oneof=admin manager cashier"`
	IsActive    *bool           `json:"is_active"`
}

type CreateCategoryRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description"`
}

// validateRequest runs struct validation and converts the first failure into
// the shared taxonomy.
func validateRequest(req interface{}) error {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		first := errs[0]
		return &apperr.ValidationError{Field: first.FailedField, Tag: first.Tag}
	}
	return nil
}
