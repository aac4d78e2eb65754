package validation

import (
	"testing"

	apperrors "hydrofund/internal/errors"
	"hydrofund/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestIsPhone(t *testing.T) {
	valid := []string{"0712345678", "0112345678", "254712345678", "+254712345678", "0712 345 678"}
	invalid := []string{"", "12345", "0812345678", "+1 415 555 0100", "07123456789"}

	for _, p := range valid {
		assert.True(t, IsPhone(p), p)
	}
	for _, p := range invalid {
		assert.False(t, IsPhone(p), p)
	}
}

func TestOrderItems(t *testing.T) {
	good := models.OrderItem{
		ProductID:   1,
		Quantity:    2,
		Price:       decimal.NewFromInt(1000),
		DailyIncome: decimal.NewFromInt(50),
		TotalIncome: decimal.NewFromInt(1500),
		CycleDays:   30,
	}

	v := New()
	v.OrderItems([]models.OrderItem{good}, 5)
	assert.True(t, v.Valid())
	assert.NoError(t, v.Err(apperrors.ErrInvalidOrder))

	bad := good
	bad.Quantity = 0
	bad.Price = decimal.RequireFromString("10.005")
	v = New()
	v.OrderItems([]models.OrderItem{good, bad}, 5)
	assert.Contains(t, v.Errors, "items[1].quantity")
	assert.Contains(t, v.Errors, "items[1].price")

	err := v.Err(apperrors.ErrInvalidOrder)
	assert.ErrorIs(t, err, apperrors.ErrInvalidOrder)
	de, ok := apperrors.As(err)
	assert.True(t, ok)
	assert.Len(t, de.Details, 2)
}

func TestOrderItems_Empty(t *testing.T) {
	v := New()
	v.OrderItems(nil, 5)
	assert.False(t, v.Valid())
	assert.Equal(t, "must contain at least one item", v.Errors["items"])
}

func TestRange(t *testing.T) {
	v := New()
	v.Range("amount", decimal.NewFromInt(499), decimal.NewFromInt(500), decimal.NewFromInt(500000))
	assert.Equal(t, "must be between 500.00 and 500000.00", v.Errors["amount"])
}
