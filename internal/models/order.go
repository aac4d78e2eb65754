package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusActive    OrderStatus = "active"
	OrderStatusCompleted OrderStatus = "completed"
)

// InvestmentOrder groups the items bought in one checkout. Status is stored
// but only written back by mutating commands; readers re-derive it from time.
type InvestmentOrder struct {
	ID            string           `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID        uint             `gorm:"not null;index;uniqueIndex:idx_orders_user_request,priority:1" json:"user_id"`
	RequestID     *string          `gorm:"size:64;uniqueIndex:idx_orders_user_request,priority:2" json:"request_id,omitempty"`
	TotalAmount   decimal.Decimal  `gorm:"type:numeric(20,2);not null" json:"total_amount"`
	Status        OrderStatus      `gorm:"size:16;not null;default:'active';index" json:"status"`
	Claimed       bool             `gorm:"not null;default:false;index" json:"claimed"`
	ClaimedAmount *decimal.Decimal `gorm:"type:numeric(20,2)" json:"claimed_amount,omitempty"`
	ClaimedAt     *time.Time       `json:"claimed_at,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`

	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
}

func (InvestmentOrder) TableName() string {
	return "investment_orders"
}

// OrderItem is a product purchase with the catalog facts copied in at
// checkout. Later catalog edits never touch existing items.
type OrderItem struct {
	ID          uint            `gorm:"primarykey" json:"id"`
	OrderID     string          `gorm:"type:varchar(36);not null;index" json:"order_id"`
	Position    int             `gorm:"not null" json:"position"`
	ProductID   uint            `gorm:"not null" json:"product_id"`
	Quantity    int             `gorm:"not null" json:"quantity"`
	Price       decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"price"`
	DailyIncome decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"daily_income"`
	TotalIncome decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"total_income"`
	CycleDays   int             `gorm:"not null" json:"cycle_days"`
	CreatedAt   time.Time       `json:"created_at"`
}

func (OrderItem) TableName() string {
	return "order_items"
}

// Subtotal is price × quantity.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
