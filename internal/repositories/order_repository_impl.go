package repositories

import (
	"context"
	"time"

	"hydrofund/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type orderRepository struct {
	db *gorm.DB
}

func orderedItems(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

func withItems(db *gorm.DB) *gorm.DB {
	return db.Preload("Items", orderedItems)
}

func (r *orderRepository) Create(ctx context.Context, order *models.InvestmentOrder) error {
	return translateError("create order", r.db.WithContext(ctx).Create(order).Error)
}

func (r *orderRepository) GetByID(ctx context.Context, id string) (*models.InvestmentOrder, error) {
	var order models.InvestmentOrder
	err := r.db.WithContext(ctx).
		Preload("Items", orderedItems).
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, translateError("get order", err)
	}
	return &order, nil
}

// LockByID locks the order row only; items are immutable and loaded plainly.
func (r *orderRepository) LockByID(ctx context.Context, id string) (*models.InvestmentOrder, error) {
	var order models.InvestmentOrder
	db := r.db.WithContext(ctx)
	if err := db.Clauses(forUpdate()).Where("id = ?", id).First(&order).Error; err != nil {
		return nil, translateError("lock order", err)
	}
	if err := db.Where("order_id = ?", id).Order("position ASC").Find(&order.Items).Error; err != nil {
		return nil, translateError("load order items", err)
	}
	return &order, nil
}

func (r *orderRepository) GetByRequestID(ctx context.Context, userID uint, requestID string) (*models.InvestmentOrder, error) {
	var order models.InvestmentOrder
	err := r.db.WithContext(ctx).
		Preload("Items", orderedItems).
		Where("user_id = ? AND request_id = ?", userID, requestID).
		First(&order).Error
	if err != nil {
		return nil, translateError("get order by request id", err)
	}
	return &order, nil
}

func (r *orderRepository) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]models.InvestmentOrder, int64, error) {
	var orders []models.InvestmentOrder
	q := r.db.WithContext(ctx).Model(&models.InvestmentOrder{}).Where("user_id = ?", userID)
	total, err := paginate(q, limit, offset, "created_at DESC", &orders, withItems)
	if err != nil {
		return nil, 0, translateError("list orders", err)
	}
	return orders, total, nil
}

func (r *orderRepository) ListUnclaimed(ctx context.Context, afterID string, limit int) ([]models.InvestmentOrder, error) {
	var orders []models.InvestmentOrder
	err := r.db.WithContext(ctx).
		Preload("Items", orderedItems).
		Where("claimed = ? AND id > ?", false, afterID).
		Order("id ASC").
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, translateError("list unclaimed orders", err)
	}
	return orders, nil
}

func (r *orderRepository) MarkClaimed(ctx context.Context, id string, amount decimal.Decimal, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.InvestmentOrder{}).
		Where("id = ? AND claimed = ?", id, false).
		Updates(map[string]interface{}{
			"claimed":        true,
			"claimed_amount": amount,
			"claimed_at":     at,
			"status":         models.OrderStatusCompleted,
		})
	if result.Error != nil {
		return false, translateError("mark order claimed", result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id string, from, to models.OrderStatus) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.InvestmentOrder{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if result.Error != nil {
		return false, translateError("update order status", result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (r *orderRepository) ClaimedTotals(ctx context.Context) (models.StatusAggregate, error) {
	var agg models.StatusAggregate
	err := r.db.WithContext(ctx).
		Model(&models.InvestmentOrder{}).
		Select("COUNT(*), COALESCE(SUM(claimed_amount), 0)").
		Where("claimed = ?", true).
		Row().
		Scan(&agg.Count, &agg.Amount)
	if err != nil {
		return models.StatusAggregate{}, translateError("claimed order totals", err)
	}
	return agg, nil
}
