package repositories

import (
	"context"
	"time"

	"hydrofund/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type withdrawalRepository struct {
	db *gorm.DB
}

func (r *withdrawalRepository) Create(ctx context.Context, w *models.Withdrawal) error {
	return translateError("create withdrawal", r.db.WithContext(ctx).Create(w).Error)
}

func (r *withdrawalRepository) GetByID(ctx context.Context, id string) (*models.Withdrawal, error) {
	var w models.Withdrawal
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&w).Error; err != nil {
		return nil, translateError("get withdrawal", err)
	}
	return &w, nil
}

func (r *withdrawalRepository) LockByID(ctx context.Context, id string) (*models.Withdrawal, error) {
	var w models.Withdrawal
	if err := r.db.WithContext(ctx).Clauses(forUpdate()).Where("id = ?", id).First(&w).Error; err != nil {
		return nil, translateError("lock withdrawal", err)
	}
	return &w, nil
}

func (r *withdrawalRepository) GetPendingByUser(ctx context.Context, userID uint) (*models.Withdrawal, error) {
	var w models.Withdrawal
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, models.WithdrawalPending).
		First(&w).Error
	if err != nil {
		return nil, translateError("get pending withdrawal", err)
	}
	return &w, nil
}

func (r *withdrawalRepository) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]models.Withdrawal, int64, error) {
	var list []models.Withdrawal
	q := r.db.WithContext(ctx).Model(&models.Withdrawal{}).Where("user_id = ?", userID)
	total, err := paginate(q, limit, offset, "created_at DESC", &list)
	if err != nil {
		return nil, 0, translateError("list withdrawals", err)
	}
	return list, total, nil
}

func (r *withdrawalRepository) ListByStatus(ctx context.Context, status models.WithdrawalStatus, limit, offset int) ([]models.Withdrawal, int64, error) {
	var list []models.Withdrawal
	q := r.db.WithContext(ctx).Model(&models.Withdrawal{}).Where("status = ?", status)
	total, err := paginate(q, limit, offset, "created_at ASC", &list)
	if err != nil {
		return nil, 0, translateError("list withdrawals by status", err)
	}
	return list, total, nil
}

func (r *withdrawalRepository) Transition(ctx context.Context, id string, from, to models.WithdrawalStatus, update models.WithdrawalTransition) (bool, error) {
	fields := map[string]interface{}{
		"status":       to,
		"processed_by": update.ProcessedBy,
		"processed_at": update.ProcessedAt,
	}
	if update.AdminInfo != nil {
		fields["admin_info"] = *update.AdminInfo
	}
	if update.RejectionCode != nil {
		fields["rejection_code"] = *update.RejectionCode
	}
	result := r.db.WithContext(ctx).
		Model(&models.Withdrawal{}).
		Where("id = ? AND status = ?", id, from).
		Updates(fields)
	if result.Error != nil {
		return false, translateError("transition withdrawal", result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (r *withdrawalRepository) Aggregate(ctx context.Context) (map[models.WithdrawalStatus]models.StatusAggregate, error) {
	rows, err := r.db.WithContext(ctx).
		Model(&models.Withdrawal{}).
		Select("status, COUNT(*), COALESCE(SUM(amount), 0)").
		Group("status").
		Rows()
	if err != nil {
		return nil, translateError("aggregate withdrawals", err)
	}
	defer rows.Close()

	out := make(map[models.WithdrawalStatus]models.StatusAggregate)
	for rows.Next() {
		var status models.WithdrawalStatus
		var agg models.StatusAggregate
		if err := rows.Scan(&status, &agg.Count, &agg.Amount); err != nil {
			return nil, translateError("scan withdrawal aggregate", err)
		}
		out[status] = agg
	}
	return out, translateError("aggregate withdrawals", rows.Err())
}

type depositRepository struct {
	db *gorm.DB
}

func (r *depositRepository) Create(ctx context.Context, d *models.Deposit) error {
	return translateError("create deposit", r.db.WithContext(ctx).Create(d).Error)
}

func (r *depositRepository) GetByID(ctx context.Context, id string) (*models.Deposit, error) {
	var d models.Deposit
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&d).Error; err != nil {
		return nil, translateError("get deposit", err)
	}
	return &d, nil
}

func (r *depositRepository) LockByID(ctx context.Context, id string) (*models.Deposit, error) {
	var d models.Deposit
	if err := r.db.WithContext(ctx).Clauses(forUpdate()).Where("id = ?", id).First(&d).Error; err != nil {
		return nil, translateError("lock deposit", err)
	}
	return &d, nil
}

func (r *depositRepository) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]models.Deposit, int64, error) {
	var list []models.Deposit
	q := r.db.WithContext(ctx).Model(&models.Deposit{}).Where("user_id = ?", userID)
	total, err := paginate(q, limit, offset, "created_at DESC", &list)
	if err != nil {
		return nil, 0, translateError("list deposits", err)
	}
	return list, total, nil
}

func (r *depositRepository) ListByStatus(ctx context.Context, status models.DepositStatus, limit, offset int) ([]models.Deposit, int64, error) {
	var list []models.Deposit
	q := r.db.WithContext(ctx).Model(&models.Deposit{}).Where("status = ?", status)
	total, err := paginate(q, limit, offset, "created_at ASC", &list)
	if err != nil {
		return nil, 0, translateError("list deposits by status", err)
	}
	return list, total, nil
}

func (r *depositRepository) Complete(ctx context.Context, id string, adminID uint, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Deposit{}).
		Where("id = ? AND status = ?", id, models.DepositPending).
		Updates(map[string]interface{}{
			"status":      models.DepositCompleted,
			"approved_by": adminID,
			"approved_at": at,
		})
	if result.Error != nil {
		return false, translateError("complete deposit", result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (r *depositRepository) Aggregate(ctx context.Context) (map[models.DepositStatus]models.StatusAggregate, error) {
	rows, err := r.db.WithContext(ctx).
		Model(&models.Deposit{}).
		Select("status, COUNT(*), COALESCE(SUM(amount), 0)").
		Group("status").
		Rows()
	if err != nil {
		return nil, translateError("aggregate deposits", err)
	}
	defer rows.Close()

	out := make(map[models.DepositStatus]models.StatusAggregate)
	for rows.Next() {
		var status models.DepositStatus
		var count int64
		var amount decimal.Decimal
		if err := rows.Scan(&status, &count, &amount); err != nil {
			return nil, translateError("scan deposit aggregate", err)
		}
		out[status] = models.StatusAggregate{Count: count, Amount: amount}
	}
	return out, translateError("aggregate deposits", rows.Err())
}
