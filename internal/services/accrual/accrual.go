// Package accrual computes investment earnings from elapsed time. It is pure:
// nothing here reads a clock or touches storage.
package accrual

import (
	"time"

	"hydrofund/internal/models"

	"github.com/shopspring/decimal"
)

const day = 24 * time.Hour

// DaysPassed is the number of whole 24h periods since createdAt, never
// negative.
func DaysPassed(createdAt, now time.Time) int {
	if now.Before(createdAt) {
		return 0
	}
	return int(now.Sub(createdAt) / day)
}

// ItemEarnings is min(days × daily, total) × quantity at full precision.
func ItemEarnings(item models.OrderItem, now time.Time) decimal.Decimal {
	days := decimal.NewFromInt(int64(DaysPassed(item.CreatedAt, now)))
	perUnit := decimal.Min(days.Mul(item.DailyIncome), item.TotalIncome)
	return perUnit.Mul(decimal.NewFromInt(int64(item.Quantity)))
}

func IsItemComplete(item models.OrderItem, now time.Time) bool {
	return DaysPassed(item.CreatedAt, now) >= item.CycleDays
}

// EndDate is when the item's cycle finishes, in UTC.
func EndDate(item models.OrderItem) time.Time {
	return item.CreatedAt.UTC().Add(time.Duration(item.CycleDays) * day)
}

func PotentialEarnings(item models.OrderItem) decimal.Decimal {
	return item.TotalIncome.Mul(decimal.NewFromInt(int64(item.Quantity)))
}

// OrderEarnings sums item earnings.
func OrderEarnings(order models.InvestmentOrder, now time.Time) decimal.Decimal {
	total := decimal.Zero
	for _, item := range order.Items {
		total = total.Add(ItemEarnings(item, now))
	}
	return total
}

// IsOrderComplete reports whether every item finished its cycle. An order
// without items is never complete.
func IsOrderComplete(order models.InvestmentOrder, now time.Time) bool {
	if len(order.Items) == 0 {
		return false
	}
	for _, item := range order.Items {
		if !IsItemComplete(item, now) {
			return false
		}
	}
	return true
}

func OrderPotential(order models.InvestmentOrder) decimal.Decimal {
	total := decimal.Zero
	for _, item := range order.Items {
		total = total.Add(PotentialEarnings(item))
	}
	return total
}

// Payout is the amount credited on claim.
func Payout(order models.InvestmentOrder, now time.Time) decimal.Decimal {
	return OrderEarnings(order, now).Round(2)
}

// ItemView is an item with its live accrual figures.
type ItemView struct {
	models.OrderItem
	DaysPassed        int             `json:"days_passed"`
	CurrentEarnings   decimal.Decimal `json:"current_earnings"`
	PotentialEarnings decimal.Decimal `json:"potential_earnings"`
	EndDate           time.Time       `json:"end_date"`
	Completed         bool            `json:"completed"`
}

// OrderView is an order as a reader sees it at now. Status is derived, not
// taken from the stored column.
type OrderView struct {
	ID                string             `json:"id"`
	UserID            uint               `json:"user_id"`
	TotalAmount       decimal.Decimal    `json:"total_amount"`
	Status            models.OrderStatus `json:"status"`
	Claimed           bool               `json:"claimed"`
	ClaimedAmount     *decimal.Decimal   `json:"claimed_amount,omitempty"`
	ClaimedAt         *time.Time         `json:"claimed_at,omitempty"`
	CurrentEarnings   decimal.Decimal    `json:"current_earnings"`
	PotentialEarnings decimal.Decimal    `json:"potential_earnings"`
	EndDate           time.Time          `json:"end_date"`
	CreatedAt         time.Time          `json:"created_at"`
	Items             []ItemView         `json:"items"`
}

// View evaluates order at now.
func View(order models.InvestmentOrder, now time.Time) OrderView {
	v := OrderView{
		ID:                order.ID,
		UserID:            order.UserID,
		TotalAmount:       order.TotalAmount,
		Status:            models.OrderStatusActive,
		Claimed:           order.Claimed,
		ClaimedAmount:     order.ClaimedAmount,
		ClaimedAt:         order.ClaimedAt,
		CurrentEarnings:   OrderEarnings(order, now),
		PotentialEarnings: OrderPotential(order),
		CreatedAt:         order.CreatedAt,
		Items:             make([]ItemView, 0, len(order.Items)),
	}
	if order.Claimed || IsOrderComplete(order, now) {
		v.Status = models.OrderStatusCompleted
	}
	for _, item := range order.Items {
		end := EndDate(item)
		if end.After(v.EndDate) {
			v.EndDate = end
		}
		v.Items = append(v.Items, ItemView{
			OrderItem:         item,
			DaysPassed:        DaysPassed(item.CreatedAt, now),
			CurrentEarnings:   ItemEarnings(item, now),
			PotentialEarnings: PotentialEarnings(item),
			EndDate:           end,
			Completed:         IsItemComplete(item, now),
		})
	}
	return v
}
