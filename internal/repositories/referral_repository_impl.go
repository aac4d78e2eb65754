package repositories

import (
	"context"
	"time"

	"hydrofund/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type referralRepository struct {
	db *gorm.DB
}

func (r *referralRepository) CreatePair(ctx context.Context, bonus *models.ReferralBonus) error {
	return translateError("create referral", r.db.WithContext(ctx).Create(bonus).Error)
}

func (r *referralRepository) GetPair(ctx context.Context, referrerID, referredID uint) (*models.ReferralBonus, error) {
	var bonus models.ReferralBonus
	err := r.db.WithContext(ctx).
		Where("referrer_id = ? AND referred_user_id = ?", referrerID, referredID).
		First(&bonus).Error
	if err != nil {
		return nil, translateError("get referral", err)
	}
	return &bonus, nil
}

func (r *referralRepository) LockPair(ctx context.Context, referrerID, referredID uint) (*models.ReferralBonus, error) {
	var bonus models.ReferralBonus
	err := r.db.WithContext(ctx).
		Clauses(forUpdate()).
		Where("referrer_id = ? AND referred_user_id = ?", referrerID, referredID).
		First(&bonus).Error
	if err != nil {
		return nil, translateError("lock referral", err)
	}
	return &bonus, nil
}

func (r *referralRepository) ListByReferrer(ctx context.Context, referrerID uint, limit, offset int) ([]models.ReferralBonus, int64, error) {
	var list []models.ReferralBonus
	q := r.db.WithContext(ctx).Model(&models.ReferralBonus{}).Where("referrer_id = ?", referrerID)
	total, err := paginate(q, limit, offset, "created_at DESC", &list)
	if err != nil {
		return nil, 0, translateError("list referrals", err)
	}
	return list, total, nil
}

func (r *referralRepository) TransitionPair(ctx context.Context, id string, from, to models.BonusStatus, at *time.Time) (bool, error) {
	fields := map[string]interface{}{"bonus_status": to}
	if at != nil {
		fields["claimed_at"] = *at
	}
	result := r.db.WithContext(ctx).
		Model(&models.ReferralBonus{}).
		Where("id = ? AND bonus_status = ?", id, from).
		Updates(fields)
	if result.Error != nil {
		return false, translateError("transition referral", result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (r *referralRepository) CreateAccountBonus(ctx context.Context, bonus *models.AccountBonus) error {
	return translateError("create account bonus", r.db.WithContext(ctx).Create(bonus).Error)
}

func (r *referralRepository) GetAccountBonus(ctx context.Context, userID uint) (*models.AccountBonus, error) {
	var bonus models.AccountBonus
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&bonus).Error; err != nil {
		return nil, translateError("get account bonus", err)
	}
	return &bonus, nil
}

func (r *referralRepository) LockAccountBonus(ctx context.Context, userID uint) (*models.AccountBonus, error) {
	var bonus models.AccountBonus
	err := r.db.WithContext(ctx).
		Clauses(forUpdate()).
		Where("user_id = ?", userID).
		First(&bonus).Error
	if err != nil {
		return nil, translateError("lock account bonus", err)
	}
	return &bonus, nil
}

func (r *referralRepository) TransitionAccountBonus(ctx context.Context, userID uint, from, to models.BonusStatus, at *time.Time) (bool, error) {
	fields := map[string]interface{}{"status": to}
	if at != nil {
		fields["claimed_at"] = *at
	}
	result := r.db.WithContext(ctx).
		Model(&models.AccountBonus{}).
		Where("user_id = ? AND status = ?", userID, from).
		Updates(fields)
	if result.Error != nil {
		return false, translateError("transition account bonus", result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (r *referralRepository) Aggregate(ctx context.Context) (map[models.BonusStatus]models.StatusAggregate, error) {
	rows, err := r.db.WithContext(ctx).
		Model(&models.ReferralBonus{}).
		Select("bonus_status, COUNT(*), COALESCE(SUM(bonus_amount), 0)").
		Group("bonus_status").
		Rows()
	if err != nil {
		return nil, translateError("aggregate referrals", err)
	}
	defer rows.Close()

	out := make(map[models.BonusStatus]models.StatusAggregate)
	for rows.Next() {
		var status models.BonusStatus
		var agg models.StatusAggregate
		if err := rows.Scan(&status, &agg.Count, &agg.Amount); err != nil {
			return nil, translateError("scan referral aggregate", err)
		}
		out[status] = agg
	}
	return out, translateError("aggregate referrals", rows.Err())
}

type securityRepository struct {
	db *gorm.DB
}

func (r *securityRepository) Get(ctx context.Context, userID uint) (*models.AccountSecurity, error) {
	var sec models.AccountSecurity
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&sec).Error; err != nil {
		return nil, translateError("get account security", err)
	}
	return &sec, nil
}

func (r *securityRepository) Save(ctx context.Context, sec *models.AccountSecurity) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(sec).Error
	return translateError("save account security", err)
}
