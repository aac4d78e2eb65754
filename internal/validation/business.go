package validation

import (
	"fmt"

	"hydrofund/internal/models"
)

// OrderItems validates the product facts copied into an order.
func (v *Validator) OrderItems(items []models.OrderItem, maxItems int) {
	v.Check(len(items) > 0, "items", "must contain at least one item")
	v.Check(len(items) <= maxItems, "items", fmt.Sprintf("must not contain more than %d items", maxItems))

	for i, item := range items {
		field := func(name string) string { return fmt.Sprintf("items[%d].%s", i, name) }

		v.Required(field("product_id"), item.ProductID)
		v.Check(item.Quantity > 0 && item.Quantity <= MaxItemQuantity, field("quantity"),
			fmt.Sprintf("must be between 1 and %d", MaxItemQuantity))
		v.Positive(field("price"), item.Price)
		v.Cents(field("price"), item.Price)
		v.Positive(field("daily_income"), item.DailyIncome)
		v.Positive(field("total_income"), item.TotalIncome)
		v.Check(item.DailyIncome.LessThanOrEqual(item.TotalIncome), field("daily_income"),
			"must not exceed total_income")
		v.Check(item.CycleDays > 0 && item.CycleDays <= MaxCycleDays, field("cycle_days"),
			fmt.Sprintf("must be between 1 and %d", MaxCycleDays))
	}
}

// RequestID validates an optional client idempotency key.
func (v *Validator) RequestID(requestID string) {
	v.MaxLength("request_id", requestID, MaxRequestIDLength)
}
