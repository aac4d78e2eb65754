package repositories

import (
	"context"

	"hydrofund/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type walletRepository struct {
	db *gorm.DB
}

func (r *walletRepository) Ensure(ctx context.Context, wallet *models.Wallet) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(wallet).Error
	return translateError("ensure wallet", err)
}

func (r *walletRepository) GetByUserID(ctx context.Context, userID uint) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&wallet).Error; err != nil {
		return nil, translateError("get wallet", err)
	}
	return &wallet, nil
}

func (r *walletRepository) LockByUserID(ctx context.Context, userID uint) (*models.Wallet, error) {
	var wallet models.Wallet
	err := r.db.WithContext(ctx).
		Clauses(forUpdate()).
		Where("user_id = ?", userID).
		First(&wallet).Error
	if err != nil {
		return nil, translateError("lock wallet", err)
	}
	return &wallet, nil
}

func (r *walletRepository) Update(ctx context.Context, wallet *models.Wallet) error {
	result := r.db.WithContext(ctx).
		Model(wallet).
		Select("balance", "total_invested", "total_withdrawn", "version", "updated_at").
		Updates(wallet)
	if result.Error != nil {
		return translateError("update wallet", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *walletRepository) TotalBalance(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.WithContext(ctx).
		Model(&models.Wallet{}).
		Select("COALESCE(SUM(balance), 0)").
		Row().
		Scan(&total)
	if err != nil {
		return decimal.Zero, translateError("total balance", err)
	}
	return total, nil
}

func (r *walletRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Wallet{}).Count(&count).Error; err != nil {
		return 0, translateError("count wallets", err)
	}
	return count, nil
}

type ledgerEntryRepository struct {
	db *gorm.DB
}

func (r *ledgerEntryRepository) Create(ctx context.Context, entry *models.LedgerEntry) error {
	return translateError("create ledger entry", r.db.WithContext(ctx).Create(entry).Error)
}

func (r *ledgerEntryRepository) GetByKey(ctx context.Context, key string) (*models.LedgerEntry, error) {
	var entry models.LedgerEntry
	if err := r.db.WithContext(ctx).Where("idempotency_key = ?", key).First(&entry).Error; err != nil {
		return nil, translateError("get ledger entry", err)
	}
	return &entry, nil
}

func (r *ledgerEntryRepository) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]models.LedgerEntry, int64, error) {
	var entries []models.LedgerEntry
	q := r.db.WithContext(ctx).Model(&models.LedgerEntry{}).Where("user_id = ?", userID)
	total, err := paginate(q, limit, offset, "created_at DESC, id DESC", &entries)
	if err != nil {
		return nil, 0, translateError("list ledger entries", err)
	}
	return entries, total, nil
}
