package repositories

import (
	"context"
	"errors"
	"fmt"

	apperrors "hydrofund/internal/errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type gormStore struct {
	db *gorm.DB
}

// NewStore returns a Store backed by db.
func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Wallets() WalletRepository         { return &walletRepository{db: s.db} }
func (s *gormStore) Entries() LedgerEntryRepository    { return &ledgerEntryRepository{db: s.db} }
func (s *gormStore) Orders() OrderRepository           { return &orderRepository{db: s.db} }
func (s *gormStore) Withdrawals() WithdrawalRepository { return &withdrawalRepository{db: s.db} }
func (s *gormStore) Deposits() DepositRepository       { return &depositRepository{db: s.db} }
func (s *gormStore) Referrals() ReferralRepository     { return &referralRepository{db: s.db} }
func (s *gormStore) Security() SecurityRepository      { return &securityRepository{db: s.db} }

func (s *gormStore) ExecuteInTransaction(ctx context.Context, fn func(Store) error) error {
	var fnErr error
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fnErr = fn(&gormStore{db: tx})
		return fnErr
	})
	if err != nil && err != fnErr {
		// begin or commit failed; the outcome is unknown to the caller
		return apperrors.Transient(fmt.Errorf("transaction: %w", err))
	}
	return err
}

func (s *gormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return apperrors.Transient(err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return apperrors.Transient(err)
	}
	return nil
}

// translateError maps gorm failures onto repository sentinels. Anything else
// is a transient store failure.
func translateError(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	}
	return apperrors.Transient(fmt.Errorf("%s: %w", op, err))
}

func forUpdate() clause.Locking {
	return clause.Locking{Strength: "UPDATE"}
}

// paginate counts the matching rows and loads one page into dest. Scopes
// apply to the page query only.
func paginate(q *gorm.DB, limit, offset int, order string, dest interface{}, scopes ...func(*gorm.DB) *gorm.DB) (int64, error) {
	base := q.Session(&gorm.Session{})
	var total int64
	if err := base.Count(&total).Error; err != nil {
		return 0, err
	}
	if total == 0 {
		return 0, nil
	}
	err := base.Scopes(scopes...).
		Order(order).
		Limit(limit).
		Offset(offset).
		Find(dest).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}
