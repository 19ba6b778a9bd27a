// Package apperr defines the business error taxonomy shared by the service
// layer. Every error here represents a rule violation detected before (or
// rolled back with) any durable write; transport and database failures are
// passed through untouched.
package apperr

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// NotFoundError reports a missing referenced record.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

func NewNotFound(resource string, id uuid.UUID) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id.String()}
}

// InsufficientStockError aborts a sale whose line quantity exceeds the
// product's current stock.
type InsufficientStockError struct {
	ProductID   uuid.UUID
	ProductName string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d",
		e.ProductName, e.Requested, e.Available)
}

// InsufficientPaymentError aborts a sale where cash received does not cover
// the total due. Shortfall is the missing amount.
type InsufficientPaymentError struct {
	Shortfall int64
}

func (e *InsufficientPaymentError) Error() string {
	return fmt.Sprintf("insufficient payment: short by %d", e.Shortfall)
}

// NegativeStockError aborts a manual adjustment that would drive stock below
// zero.
type NegativeStockError struct {
	ProductID uuid.UUID
	Current   int
	Delta     int
}

func (e *NegativeStockError) Error() string {
	return fmt.Sprintf("stock cannot go negative: current %d, delta %d", e.Current, e.Delta)
}

// InvalidStateError reports an operation applied to a record in the wrong
// state, e.g. cancelling an already-cancelled transaction.
type InvalidStateError struct {
	Current  string
	Expected string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("invalid state %q, expected %q", e.Current, e.Expected)
}

// ConflictError reports a uniqueness violation (duplicate product code,
// duplicate email).
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// ValidationError wraps a request-body validation failure.
type ValidationError struct {
	Field   string
	Tag     string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("validation failed: field %q failed on tag %q", e.Field, e.Tag)
}

// Kind predicates, for handler status mapping.

func IsNotFound(err error) bool {
	var t *NotFoundError
	return errors.As(err, &t)
}

func IsInsufficientStock(err error) bool {
	var t *InsufficientStockError
	return errors.As(err, &t)
}

func IsInsufficientPayment(err error) bool {
	var t *InsufficientPaymentError
	return errors.As(err, &t)
}

func IsNegativeStock(err error) bool {
	var t *NegativeStockError
	return errors.As(err, &t)
}

func IsInvalidState(err error) bool {
	var t *InvalidStateError
	return errors.As(err, &t)
}

func IsConflict(err error) bool {
	var t *ConflictError
	return errors.As(err, &t)
}

func IsValidation(err error) bool {
	var t *ValidationError
	return errors.As(err, &t)
}
