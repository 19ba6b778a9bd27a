package validator_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"go-pos-api/pkg/validator"
)

type checkoutLine struct {
	ProductID uuid.UUID `validate:"uuid_required"`
	Quantity  int       `validate:"required,gt=0"`
}

func TestValidateStruct_UUIDRequired(t *testing.T) {
	errs := validator.ValidateStruct(&checkoutLine{Quantity: 1})
	assert.Len(t, errs, 1)
	assert.Equal(t, "uuid_required", errs[0].Tag)

	errs = validator.ValidateStruct(&checkoutLine{ProductID: uuid.New(), Quantity: 1})
	assert.Empty(t, errs)
}

func TestValidateStruct_QuantityBounds(t *testing.T) {
	errs := validator.ValidateStruct(&checkoutLine{ProductID: uuid.New(), Quantity: 0})
	assert.Len(t, errs, 1)
	assert.Equal(t, "required", errs[0].Tag)

	errs = validator.ValidateStruct(&checkoutLine{ProductID: uuid.New(), Quantity: -2})
	assert.Len(t, errs, 1)
	assert.Equal(t, "gt", errs[0].Tag)
}
