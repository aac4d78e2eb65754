package ledger

import (
	"context"
	"time"

	"hydrofund/internal/models"
	"hydrofund/internal/repositories"

	"github.com/shopspring/decimal"
)

// Service defines the wallet ledger.
type Service interface {
	// ApplyDelta runs the delta in its own transaction.
	ApplyDelta(ctx context.Context, d Delta) (*Result, error)
	// ApplyDeltaTx joins the caller's transaction. The caller must call
	// Invalidate after commit.
	ApplyDeltaTx(ctx context.Context, tx repositories.Store, d Delta) (*Result, error)

	GetWallet(ctx context.Context, userID uint) (*models.Wallet, error)
	EnsureWallet(ctx context.Context, userID uint) (*models.Wallet, error)
	ListEntries(ctx context.Context, userID uint, limit, offset int) ([]models.LedgerEntry, int64, error)
	GetEntry(ctx context.Context, key string) (*models.LedgerEntry, error)

	// Invalidate refreshes cached snapshots from the store. Failures are
	// logged, not returned.
	Invalidate(ctx context.Context, userIDs ...uint)
}

// Delta is one requested balance change.
type Delta struct {
	UserID         uint
	Amount         decimal.Decimal // signed; debits are negative
	Reason         models.EntryReason
	IdempotencyKey string
	ActorID        uint
	// MinBalance is the floor the balance may not cross. Zero unless part of
	// the balance is reserved.
	MinBalance decimal.Decimal
}

// Result is the outcome of an applied or replayed delta.
type Result struct {
	Entry    *models.LedgerEntry
	Wallet   *models.Wallet
	Replayed bool
}

// WalletCache holds read-only wallet snapshots. CacheWallet must not replace
// a snapshot whose Version is equal or higher.
type WalletCache interface {
	GetWallet(ctx context.Context, userID uint) (*models.Wallet, error)
	CacheWallet(ctx context.Context, wallet *models.Wallet) error
	InvalidateWallet(ctx context.Context, userID uint) error
}

// MetricsCollector defines the interface for collecting ledger metrics
type MetricsCollector interface {
	RecordOperationDuration(operation string, duration time.Duration)
	RecordCacheHit(key string)
	RecordCacheMiss(key string)
	RecordBalanceChange(userID uint, oldBalance, newBalance decimal.Decimal)
	RecordReplay(reason models.EntryReason)
	RecordError(operation, errType string)
}

type Option func(*service)

// WithClock overrides time.Now for entry timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *service) {
		s.now = now
	}
}
