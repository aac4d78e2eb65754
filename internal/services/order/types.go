package order

import (
	"context"
	"time"

	"hydrofund/internal/models"
	"hydrofund/internal/services/accrual"

	"github.com/shopspring/decimal"
)

// Service is the order/claim state machine: active → completed → claimed.
type Service interface {
	CreateOrder(ctx context.Context, actor models.Actor, req CreateOrderRequest) (*accrual.OrderView, error)
	// ClaimOrder credits the earnings of a completed order once. A repeated
	// claim returns the original result together with ErrAlreadyClaimed.
	ClaimOrder(ctx context.Context, actor models.Actor, orderID string) (*ClaimResult, error)
	GetOrder(ctx context.Context, actor models.Actor, orderID string) (*accrual.OrderView, error)
	ListOrders(ctx context.Context, actor models.Actor, limit, offset int) ([]accrual.OrderView, int64, error)
	// Reconcile repairs orders whose claim credit committed without the flag.
	Reconcile(ctx context.Context) (*ReconcileReport, error)
}

// ItemInput is one catalog product as supplied at checkout.
type ItemInput struct {
	ProductID   uint            `json:"product_id" validate:"required"`
	Quantity    int             `json:"quantity" validate:"required,min=1"`
	Price       decimal.Decimal `json:"price"`
	DailyIncome decimal.Decimal `json:"daily_income"`
	TotalIncome decimal.Decimal `json:"total_income"`
	CycleDays   int             `json:"cycle_days" validate:"required,min=1"`
}

type CreateOrderRequest struct {
	Items     []ItemInput `json:"items" validate:"required,min=1,dive"`
	RequestID string      `json:"request_id" validate:"omitempty,max=64"`
}

type ClaimResult struct {
	OrderID   string          `json:"order_id"`
	Amount    decimal.Decimal `json:"amount"`
	Balance   decimal.Decimal `json:"balance"`
	ClaimedAt time.Time       `json:"claimed_at"`
}

type ReconcileReport struct {
	Scanned  int      `json:"scanned"`
	Repaired []string `json:"repaired"`
}
