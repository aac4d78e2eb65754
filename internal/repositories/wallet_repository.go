package repositories

import (
	"context"

	"hydrofund/internal/models"

	"github.com/shopspring/decimal"
)

// WalletRepository defines wallet persistence. LockByUserID must be called
// inside a transaction; the row stays locked until it ends.
type WalletRepository interface {
	// Ensure inserts wallet unless the user already has one. It never fails
	// on a duplicate, so it is safe inside a transaction.
	Ensure(ctx context.Context, wallet *models.Wallet) error
	GetByUserID(ctx context.Context, userID uint) (*models.Wallet, error)
	LockByUserID(ctx context.Context, userID uint) (*models.Wallet, error)
	Update(ctx context.Context, wallet *models.Wallet) error

	// Analytics
	TotalBalance(ctx context.Context) (decimal.Decimal, error)
	Count(ctx context.Context) (int64, error)
}

// LedgerEntryRepository is append-only.
type LedgerEntryRepository interface {
	Create(ctx context.Context, entry *models.LedgerEntry) error
	GetByKey(ctx context.Context, key string) (*models.LedgerEntry, error)
	ListByUser(ctx context.Context, userID uint, limit, offset int) ([]models.LedgerEntry, int64, error)
}
