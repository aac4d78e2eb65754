package repositories

import (
	"context"
	"time"

	"hydrofund/internal/models"

	"github.com/shopspring/decimal"
)

type OrderRepository interface {
	// Create stores the order with its items.
	Create(ctx context.Context, order *models.InvestmentOrder) error
	GetByID(ctx context.Context, id string) (*models.InvestmentOrder, error)
	LockByID(ctx context.Context, id string) (*models.InvestmentOrder, error)
	GetByRequestID(ctx context.Context, userID uint, requestID string) (*models.InvestmentOrder, error)
	ListByUser(ctx context.Context, userID uint, limit, offset int) ([]models.InvestmentOrder, int64, error)
	// ListUnclaimed returns unclaimed orders with items, oldest first.
	ListUnclaimed(ctx context.Context, afterID string, limit int) ([]models.InvestmentOrder, error)

	// MarkClaimed flips claimed false→true. It reports false when the order was
	// already claimed.
	MarkClaimed(ctx context.Context, id string, amount decimal.Decimal, at time.Time) (bool, error)
	UpdateStatus(ctx context.Context, id string, from, to models.OrderStatus) (bool, error)
	ClaimedTotals(ctx context.Context) (models.StatusAggregate, error)
}
