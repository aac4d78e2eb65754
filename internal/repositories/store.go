// Package repositories provides the data access layer.
// Every money-moving command runs inside one Store transaction.
package repositories

import (
	"context"
	"errors"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

// MapNotFound swaps ErrNotFound for the caller's domain error and passes
// every other error through.
func MapNotFound(err, domain error) error {
	if errors.Is(err, ErrNotFound) {
		return domain
	}
	return err
}

// MapDuplicate swaps ErrDuplicate for the caller's domain error.
func MapDuplicate(err, domain error) error {
	if errors.Is(err, ErrDuplicate) {
		return domain
	}
	return err
}

// Store is the unit of work. Repositories obtained from a Store handed to an
// ExecuteInTransaction callback share that transaction.
type Store interface {
	Wallets() WalletRepository
	Entries() LedgerEntryRepository
	Orders() OrderRepository
	Withdrawals() WithdrawalRepository
	Deposits() DepositRepository
	Referrals() ReferralRepository
	Security() SecurityRepository

	// ExecuteInTransaction commits when fn returns nil and rolls back otherwise.
	// Nested calls join the outer transaction.
	ExecuteInTransaction(ctx context.Context, fn func(Store) error) error
	Ping(ctx context.Context) error
}
