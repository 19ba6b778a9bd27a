package apperr_test

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"go-pos-api/internal/apperr"
)

func TestPredicates_MatchThroughWrapping(t *testing.T) {
	id := uuid.New()
	wrapped := fmt.Errorf("while checking out: %w", &apperr.InsufficientStockError{
		ProductID: id, ProductName: "Kopi", Requested: 3, Available: 1,
	})

	assert.True(t, apperr.IsInsufficientStock(wrapped))
	assert.False(t, apperr.IsNotFound(wrapped))
	assert.False(t, apperr.IsInsufficientPayment(wrapped))
}

func TestPredicates_NilAndForeignErrors(t *testing.T) {
	assert.False(t, apperr.IsNotFound(nil))
	assert.False(t, apperr.IsConflict(fmt.Errorf("some other error")))
}

func TestErrorMessages(t *testing.T) {
	id := uuid.New()
	assert.Equal(t,
		fmt.Sprintf("product %s not found", id),
		apperr.NewNotFound("product", id).Error())

	assert.Equal(t,
		"insufficient payment: short by 5000",
		(&apperr.InsufficientPaymentError{Shortfall: 5000}).Error())

	assert.Equal(t,
		"stock cannot go negative: current 3, delta -5",
		(&apperr.NegativeStockError{Current: 3, Delta: -5}).Error())

	assert.Equal(t,
		`invalid state "cancelled", expected "completed"`,
		(&apperr.InvalidStateError{Current: "cancelled", Expected: "completed"}).Error())
}
