// Package dashboard builds the read-only overviews. Order figures are
// evaluated with the accrual engine at request time, never read from the
// stored status column.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "hydrofund/internal/errors"
	"hydrofund/internal/models"
	"hydrofund/internal/repositories"
	"hydrofund/internal/services/accrual"
	"hydrofund/internal/services/ledger"

	"github.com/shopspring/decimal"
)

const (
	scanBatch     = 500
	recentEntries = 10
)

type Service interface {
	GetAdminDashboard(ctx context.Context, actor models.Actor) (*models.AdminDashboard, error)
	GetUserDashboard(ctx context.Context, actor models.Actor) (*models.UserDashboard, error)
}

type service struct {
	store  repositories.Store
	ledger ledger.Service
	now    func() time.Time
}

type Option func(*service)

func WithClock(now func() time.Time) Option {
	return func(s *service) {
		s.now = now
	}
}

func NewService(store repositories.Store, ledgerSvc ledger.Service, opts ...Option) Service {
	s := &service{
		store:  store,
		ledger: ledgerSvc,
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) GetAdminDashboard(ctx context.Context, actor models.Actor) (*models.AdminDashboard, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.ErrForbidden
	}
	now := s.now()
	dash := &models.AdminDashboard{GeneratedAt: now}

	count, err := s.store.Wallets().Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count wallets: %w", err)
	}
	total, err := s.store.Wallets().TotalBalance(ctx)
	if err != nil {
		return nil, fmt.Errorf("sum balances: %w", err)
	}
	dash.Wallets = models.WalletStats{Count: count, TotalBalance: total}

	if dash.Orders, err = s.orderStats(ctx, now); err != nil {
		return nil, err
	}
	if dash.Withdrawals, err = s.store.Withdrawals().Aggregate(ctx); err != nil {
		return nil, fmt.Errorf("aggregate withdrawals: %w", err)
	}
	if dash.Deposits, err = s.store.Deposits().Aggregate(ctx); err != nil {
		return nil, fmt.Errorf("aggregate deposits: %w", err)
	}
	if dash.Referrals, err = s.store.Referrals().Aggregate(ctx); err != nil {
		return nil, fmt.Errorf("aggregate referrals: %w", err)
	}
	return dash, nil
}

// orderStats walks every unclaimed order in id order and buckets it by its
// live status. Claimed orders come from the stored totals.
func (s *service) orderStats(ctx context.Context, now time.Time) (models.OrderStats, error) {
	stats := models.OrderStats{AccruedEarnings: decimal.Zero}

	after := ""
	for {
		batch, err := s.store.Orders().ListUnclaimed(ctx, after, scanBatch)
		if err != nil {
			return stats, fmt.Errorf("scan orders: %w", err)
		}
		for _, o := range batch {
			if accrual.IsOrderComplete(o, now) {
				stats.CompletedPending = stats.CompletedPending.Add(o.TotalAmount)
			} else {
				stats.Active = stats.Active.Add(o.TotalAmount)
			}
			stats.AccruedEarnings = stats.AccruedEarnings.Add(accrual.OrderEarnings(o, now))
		}
		if len(batch) < scanBatch {
			break
		}
		after = batch[len(batch)-1].ID
	}

	claimed, err := s.store.Orders().ClaimedTotals(ctx)
	if err != nil {
		return stats, fmt.Errorf("claimed totals: %w", err)
	}
	stats.Claimed = claimed
	stats.ClaimedEarnings = claimed.Amount
	return stats, nil
}

func (s *service) GetUserDashboard(ctx context.Context, actor models.Actor) (*models.UserDashboard, error) {
	now := s.now()
	wallet, err := s.ledger.EnsureWallet(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	dash := &models.UserDashboard{
		Wallet:          wallet,
		AccruedEarnings: decimal.Zero,
		GeneratedAt:     now,
	}

	for offset := 0; ; offset += scanBatch {
		orders, total, err := s.store.Orders().ListByUser(ctx, actor.UserID, scanBatch, offset)
		if err != nil {
			return nil, err
		}
		for _, o := range orders {
			if o.Claimed {
				continue
			}
			if accrual.IsOrderComplete(o, now) {
				dash.ClaimableOrders++
			} else {
				dash.ActiveOrders++
			}
			dash.AccruedEarnings = dash.AccruedEarnings.Add(accrual.OrderEarnings(o, now))
		}
		if int64(offset+len(orders)) >= total || len(orders) == 0 {
			break
		}
	}

	pending, err := s.store.Withdrawals().GetPendingByUser(ctx, actor.UserID)
	switch {
	case err == nil:
		dash.PendingWithdrawal = pending
	case !errors.Is(err, repositories.ErrNotFound):
		return nil, err
	}

	for offset := 0; ; offset += scanBatch {
		pairs, total, err := s.store.Referrals().ListByReferrer(ctx, actor.UserID, scanBatch, offset)
		if err != nil {
			return nil, err
		}
		for _, p := range pairs {
			if p.BonusStatus == models.BonusPending {
				dash.PendingReferrals++
			}
		}
		if int64(offset+len(pairs)) >= total || len(pairs) == 0 {
			break
		}
	}

	dash.RecentEntries, _, err = s.ledger.ListEntries(ctx, actor.UserID, recentEntries, 0)
	if err != nil {
		return nil, err
	}
	return dash, nil
}
