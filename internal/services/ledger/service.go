package ledger

import (
	"context"
	"errors"
	"log"
	"time"

	"hydrofund/internal/config"
	apperrors "hydrofund/internal/errors"
	"hydrofund/internal/models"
	"hydrofund/internal/repositories"
)

type service struct {
	store   repositories.Store
	cache   WalletCache
	metrics MetricsCollector
	now     func() time.Time
}

// NewService creates a new ledger service
func NewService(store repositories.Store, cache WalletCache, metrics MetricsCollector, opts ...Option) Service {
	if store == nil {
		panic("store is required")
	}
	if cache == nil {
		cache = NoopCache{}
	}
	// Metrics is optional, create no-op collector if nil
	if metrics == nil {
		metrics = &NoopMetricsCollector{}
	}

	s := &service{
		store:   store,
		cache:   cache,
		metrics: metrics,
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) ApplyDelta(ctx context.Context, d Delta) (*Result, error) {
	start := time.Now()
	defer func() {
		s.metrics.RecordOperationDuration("apply_delta", time.Since(start))
	}()

	var res *Result
	err := s.store.ExecuteInTransaction(ctx, func(tx repositories.Store) error {
		var err error
		res, err = s.ApplyDeltaTx(ctx, tx, d)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.Invalidate(ctx, d.UserID)
	return res, nil
}

func (s *service) ApplyDeltaTx(ctx context.Context, tx repositories.Store, d Delta) (*Result, error) {
	if err := d.validate(); err != nil {
		s.metrics.RecordError("apply_delta", string(apperrors.KindOf(err)))
		return nil, err
	}

	wallet, err := s.lockWallet(ctx, tx, d)
	if err != nil {
		s.metrics.RecordError("apply_delta", string(apperrors.KindOf(err)))
		return nil, err
	}

	// The key is checked under the wallet lock, so two deltas with the same
	// key for the same user cannot both miss.
	existing, err := tx.Entries().GetByKey(ctx, d.IdempotencyKey)
	switch {
	case err == nil:
		if existing.UserID != d.UserID || !existing.Amount.Equal(d.Amount) {
			return nil, apperrors.ErrIdempotencyMismatch
		}
		s.metrics.RecordReplay(d.Reason)
		return &Result{Entry: existing, Wallet: wallet, Replayed: true}, nil
	case !errors.Is(err, repositories.ErrNotFound):
		return nil, err
	}

	oldBalance := wallet.Balance
	newBalance := oldBalance.Add(d.Amount)
	if newBalance.LessThan(d.MinBalance) {
		s.metrics.RecordError("apply_delta", string(apperrors.KindInsufficientFunds))
		return nil, apperrors.ErrInsufficientBalance
	}

	wallet.Balance = newBalance
	wallet.Version++
	switch d.Reason {
	case models.ReasonOrderCreate:
		wallet.TotalInvested = wallet.TotalInvested.Add(d.Amount.Neg())
	case models.ReasonWithdrawal:
		wallet.TotalWithdrawn = wallet.TotalWithdrawn.Add(d.Amount.Neg())
	}
	if err := tx.Wallets().Update(ctx, wallet); err != nil {
		return nil, err
	}

	entry := &models.LedgerEntry{
		UserID:         d.UserID,
		Amount:         d.Amount,
		Reason:         d.Reason,
		IdempotencyKey: d.IdempotencyKey,
		BalanceAfter:   newBalance,
		ActorID:        d.ActorID,
		CreatedAt:      s.now(),
	}
	if err := tx.Entries().Create(ctx, entry); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			// another user's delta took this key
			return nil, apperrors.ErrIdempotencyMismatch
		}
		return nil, err
	}

	s.metrics.RecordBalanceChange(d.UserID, oldBalance, newBalance)
	return &Result{Entry: entry, Wallet: wallet}, nil
}

// lockWallet locks the user's wallet, opening an empty one for a credit.
func (s *service) lockWallet(ctx context.Context, tx repositories.Store, d Delta) (*models.Wallet, error) {
	wallet, err := tx.Wallets().LockByUserID(ctx, d.UserID)
	if err == nil {
		return wallet, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}
	if d.Amount.IsNegative() {
		return nil, apperrors.ErrWalletNotFound
	}
	if err := tx.Wallets().Ensure(ctx, &models.Wallet{UserID: d.UserID, Currency: config.Currency}); err != nil {
		return nil, err
	}
	wallet, err = tx.Wallets().LockByUserID(ctx, d.UserID)
	return wallet, repositories.MapNotFound(err, apperrors.ErrWalletNotFound)
}

func (d Delta) validate() error {
	if d.UserID == 0 {
		return apperrors.ErrInvalidRequest.WithMessage("user id is required")
	}
	if d.Amount.IsZero() || !d.Amount.Equal(d.Amount.Round(2)) {
		return apperrors.ErrInvalidAmount
	}
	if d.MinBalance.IsNegative() {
		return apperrors.ErrInvalidAmount.WithMessage("balance floor cannot be negative")
	}
	if !d.Reason.Valid() {
		return apperrors.ErrInvalidReason
	}
	if d.IdempotencyKey == "" || len(d.IdempotencyKey) > 128 {
		return apperrors.ErrMissingIdempotencyKey
	}
	return nil
}

func (s *service) GetWallet(ctx context.Context, userID uint) (*models.Wallet, error) {
	// Try cache first
	wallet, err := s.cache.GetWallet(ctx, userID)
	if err == nil && wallet != nil {
		s.metrics.RecordCacheHit("wallet")
		return wallet, nil
	}
	if err != nil {
		log.Printf("wallet cache read failed for user %d: %v", userID, err)
	}
	s.metrics.RecordCacheMiss("wallet")

	wallet, err = s.store.Wallets().GetByUserID(ctx, userID)
	if err != nil {
		return nil, repositories.MapNotFound(err, apperrors.ErrWalletNotFound)
	}

	if err := s.cache.CacheWallet(ctx, wallet); err != nil {
		log.Printf("wallet cache write failed for user %d: %v", userID, err)
	}
	return wallet, nil
}

func (s *service) EnsureWallet(ctx context.Context, userID uint) (*models.Wallet, error) {
	wallet, err := s.GetWallet(ctx, userID)
	if !errors.Is(err, apperrors.ErrWalletNotFound) {
		return wallet, err
	}
	if err := s.store.Wallets().Ensure(ctx, &models.Wallet{UserID: userID, Currency: config.Currency}); err != nil {
		return nil, err
	}
	return s.GetWallet(ctx, userID)
}

func (s *service) ListEntries(ctx context.Context, userID uint, limit, offset int) ([]models.LedgerEntry, int64, error) {
	return s.store.Entries().ListByUser(ctx, userID, limit, offset)
}

func (s *service) GetEntry(ctx context.Context, key string) (*models.LedgerEntry, error) {
	entry, err := s.store.Entries().GetByKey(ctx, key)
	if err != nil {
		return nil, repositories.MapNotFound(err, apperrors.ErrEntryNotFound)
	}
	return entry, nil
}

// Invalidate replaces each cached snapshot with the committed wallet. A
// reader that loaded an older version before the commit can no longer
// overwrite it, since the cache keeps the higher version. When the refresh
// fails the key is dropped instead.
func (s *service) Invalidate(ctx context.Context, userIDs ...uint) {
	for _, id := range userIDs {
		wallet, err := s.store.Wallets().GetByUserID(ctx, id)
		if err == nil {
			if err = s.cache.CacheWallet(ctx, wallet); err == nil {
				continue
			}
		}
		if !errors.Is(err, repositories.ErrNotFound) {
			log.Printf("wallet cache refresh failed for user %d: %v", id, err)
		}
		if err := s.cache.InvalidateWallet(ctx, id); err != nil {
			log.Printf("wallet cache invalidation failed for user %d: %v", id, err)
		}
	}
}
