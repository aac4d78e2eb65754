package accrual

import (
	"testing"
	"time"

	"hydrofund/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

var t0 = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func item(daily, total string, cycle, qty int) models.OrderItem {
	return models.OrderItem{
		Quantity:    qty,
		Price:       decimal.NewFromInt(100),
		DailyIncome: decimal.RequireFromString(daily),
		TotalIncome: decimal.RequireFromString(total),
		CycleDays:   cycle,
		CreatedAt:   t0,
	}
}

func TestDaysPassed(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want int
	}{
		{"before creation", t0.Add(-time.Hour), 0},
		{"same instant", t0, 0},
		{"one minute short of a day", t0.Add(23*time.Hour + 59*time.Minute), 0},
		{"exactly one day", t0.Add(24 * time.Hour), 1},
		{"forty days and change", t0.Add(40*24*time.Hour + 5*time.Hour), 40},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DaysPassed(t0, tt.now))
		})
	}
}

func TestItemEarnings_CappedAtTotal(t *testing.T) {
	it := item("1368", "41040", 30, 1)

	day40 := t0.Add(40 * 24 * time.Hour)
	assert.True(t, ItemEarnings(it, day40).Equal(decimal.NewFromInt(41040)))
	assert.True(t, IsItemComplete(it, day40))

	day10 := t0.Add(10 * 24 * time.Hour)
	assert.True(t, ItemEarnings(it, day10).Equal(decimal.NewFromInt(13680)))
	assert.False(t, IsItemComplete(it, day10))
}

func TestItemEarnings_ScalesByQuantity(t *testing.T) {
	it := item("10.5", "105", 10, 3)
	got := ItemEarnings(it, t0.Add(4*24*time.Hour))
	assert.True(t, got.Equal(decimal.RequireFromString("126")), got.String())
}

func TestOrderCompletion(t *testing.T) {
	order := models.InvestmentOrder{Items: []models.OrderItem{
		item("100", "1000", 10, 1),
		item("50", "1500", 30, 2),
	}}

	day10 := t0.Add(10 * 24 * time.Hour)
	assert.False(t, IsOrderComplete(order, day10))
	assert.True(t, OrderEarnings(order, day10).Equal(decimal.NewFromInt(1000+1000)))

	day30 := t0.Add(30 * 24 * time.Hour)
	assert.True(t, IsOrderComplete(order, day30))
	assert.True(t, OrderEarnings(order, day30).Equal(decimal.NewFromInt(4000)))
	assert.True(t, OrderPotential(order).Equal(decimal.NewFromInt(4000)))
}

func TestIsOrderComplete_NoItems(t *testing.T) {
	assert.False(t, IsOrderComplete(models.InvestmentOrder{}, t0.Add(1000*24*time.Hour)))
}

func TestPayout_RoundsOnlyAtTheEnd(t *testing.T) {
	order := models.InvestmentOrder{Items: []models.OrderItem{
		item("0.333", "100", 3, 1),
		item("0.333", "100", 3, 1),
		item("0.333", "100", 3, 1),
	}}
	now := t0.Add(3 * 24 * time.Hour)
	assert.True(t, OrderEarnings(order, now).Equal(decimal.RequireFromString("2.997")))
	assert.True(t, Payout(order, now).Equal(decimal.NewFromInt(3)))
}

func TestEndDate(t *testing.T) {
	it := item("1", "30", 30, 1)
	assert.Equal(t, t0.Add(30*24*time.Hour), EndDate(it))
}

func TestView_DerivesStatusFromTime(t *testing.T) {
	order := models.InvestmentOrder{
		ID:     "o1",
		Status: models.OrderStatusActive,
		Items:  []models.OrderItem{item("100", "1000", 10, 1)},
	}
	v := View(order, t0.Add(11*24*time.Hour))
	assert.Equal(t, models.OrderStatusCompleted, v.Status)
	assert.Equal(t, 10, v.Items[0].DaysPassed)
	assert.True(t, v.CurrentEarnings.Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, t0.Add(10*24*time.Hour), v.EndDate)
}
