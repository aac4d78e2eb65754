// Package order places investment orders and pays out their earnings.
package order

import (
	"context"
	"errors"
	"log"
	"time"

	"hydrofund/internal/config"
	apperrors "hydrofund/internal/errors"
	"hydrofund/internal/models"
	"hydrofund/internal/repositories"
	"hydrofund/internal/services/accrual"
	"hydrofund/internal/services/ledger"
	"hydrofund/internal/services/notification"
	"hydrofund/internal/validation"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const reconcileBatch = 200

type service struct {
	store     repositories.Store
	ledger    ledger.Service
	publisher notification.Publisher
	cfg       config.LedgerConfig
	now       func() time.Time
}

type Option func(*service)

func WithClock(now func() time.Time) Option {
	return func(s *service) {
		s.now = now
	}
}

func NewService(store repositories.Store, ledgerSvc ledger.Service, publisher notification.Publisher, cfg config.LedgerConfig, opts ...Option) Service {
	if publisher == nil {
		publisher = notification.Discard{}
	}
	s := &service{
		store:     store,
		ledger:    ledgerSvc,
		publisher: publisher,
		cfg:       cfg,
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) CreateOrder(ctx context.Context, actor models.Actor, req CreateOrderRequest) (*accrual.OrderView, error) {
	now := s.now()
	order := &models.InvestmentOrder{
		ID:          uuid.NewString(),
		UserID:      actor.UserID,
		TotalAmount: decimal.Zero,
		Status:      models.OrderStatusActive,
		CreatedAt:   now,
	}
	for i, in := range req.Items {
		item := models.OrderItem{
			OrderID:     order.ID,
			Position:    i,
			ProductID:   in.ProductID,
			Quantity:    in.Quantity,
			Price:       in.Price,
			DailyIncome: in.DailyIncome,
			TotalIncome: in.TotalIncome,
			CycleDays:   in.CycleDays,
			CreatedAt:   now,
		}
		order.Items = append(order.Items, item)
		order.TotalAmount = order.TotalAmount.Add(item.Subtotal())
	}

	v := validation.New()
	v.Required("user_id", actor.UserID)
	v.OrderItems(order.Items, s.cfg.MaxOrderItems)
	v.RequestID(req.RequestID)
	if err := v.Err(apperrors.ErrInvalidOrder); err != nil {
		return nil, err
	}
	if req.RequestID != "" {
		order.RequestID = &req.RequestID
		if existing, err := s.store.Orders().GetByRequestID(ctx, actor.UserID, req.RequestID); err == nil {
			view := accrual.View(*existing, now)
			return &view, nil
		} else if !errors.Is(err, repositories.ErrNotFound) {
			return nil, err
		}
	}

	err := s.store.ExecuteInTransaction(ctx, func(tx repositories.Store) error {
		// Lock the wallet before reading the reservation so a concurrent
		// withdrawal request cannot slip in between.
		if _, err := tx.Wallets().LockByUserID(ctx, actor.UserID); err != nil {
			return repositories.MapNotFound(err, apperrors.ErrInsufficientBalance)
		}
		// A pending withdrawal keeps amount+fee reserved.
		floor := decimal.Zero
		if pending, err := tx.Withdrawals().GetPendingByUser(ctx, actor.UserID); err == nil {
			floor = pending.Debit()
		} else if !errors.Is(err, repositories.ErrNotFound) {
			return err
		}

		_, err := s.ledger.ApplyDeltaTx(ctx, tx, ledger.Delta{
			UserID:         actor.UserID,
			Amount:         order.TotalAmount.Neg(),
			Reason:         models.ReasonOrderCreate,
			IdempotencyKey: models.OrderCreateKey(order.ID),
			ActorID:        actor.UserID,
			MinBalance:     floor,
		})
		if err != nil {
			return err
		}
		return tx.Orders().Create(ctx, order)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicate) && order.RequestID != nil {
			// lost a race with the same request id
			existing, getErr := s.store.Orders().GetByRequestID(ctx, actor.UserID, req.RequestID)
			if getErr == nil {
				view := accrual.View(*existing, now)
				return &view, nil
			}
		}
		return nil, err
	}
	s.ledger.Invalidate(ctx, actor.UserID)

	log.Printf("order %s placed by user %d for %s", order.ID, actor.UserID, order.TotalAmount.StringFixed(2))
	view := accrual.View(*order, now)
	return &view, nil
}

func (s *service) ClaimOrder(ctx context.Context, actor models.Actor, orderID string) (*ClaimResult, error) {
	var result *ClaimResult
	var claimErr error

	err := s.store.ExecuteInTransaction(ctx, func(tx repositories.Store) error {
		order, err := tx.Orders().LockByID(ctx, orderID)
		if err != nil {
			return repositories.MapNotFound(err, apperrors.ErrOrderNotFound)
		}
		if order.UserID != actor.UserID {
			return apperrors.ErrOrderNotFound
		}
		if order.Claimed {
			result, err = s.priorClaim(ctx, tx, order)
			if err != nil {
				return err
			}
			claimErr = apperrors.ErrAlreadyClaimed
			return nil
		}

		// A credit that committed without the flag is repaired from its
		// entry. Earnings may have grown since, so the amount is not
		// recomputed.
		entry, err := tx.Entries().GetByKey(ctx, models.OrderClaimKey(order.ID))
		switch {
		case err == nil:
			if _, err := tx.Orders().MarkClaimed(ctx, order.ID, entry.Amount, entry.CreatedAt); err != nil {
				return err
			}
			result = claimResultFrom(order.ID, entry)
			claimErr = apperrors.ErrAlreadyClaimed
			return nil
		case !errors.Is(err, repositories.ErrNotFound):
			return err
		}

		now := s.now()
		if !accrual.IsOrderComplete(*order, now) {
			return apperrors.ErrNotCompleted
		}

		amount := accrual.Payout(*order, now)
		res, err := s.ledger.ApplyDeltaTx(ctx, tx, ledger.Delta{
			UserID:         order.UserID,
			Amount:         amount,
			Reason:         models.ReasonOrderClaim,
			IdempotencyKey: models.OrderClaimKey(order.ID),
			ActorID:        actor.UserID,
		})
		if err != nil {
			return err
		}
		// A replayed entry means an earlier claim committed its credit; pay
		// out nothing new and report what that claim paid.
		ok, err := tx.Orders().MarkClaimed(ctx, order.ID, res.Entry.Amount, res.Entry.CreatedAt)
		if err != nil {
			return err
		}
		if !ok {
			return apperrors.ErrAlreadyClaimed
		}
		result = &ClaimResult{
			OrderID:   order.ID,
			Amount:    res.Entry.Amount,
			Balance:   res.Wallet.Balance,
			ClaimedAt: res.Entry.CreatedAt,
		}
		if res.Replayed {
			claimErr = apperrors.ErrAlreadyClaimed
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if claimErr == nil {
		s.ledger.Invalidate(ctx, actor.UserID)
		log.Printf("order %s claimed by user %d: %s", orderID, actor.UserID, result.Amount.StringFixed(2))
		s.publisher.Publish(notification.Event{
			Kind:     notification.OrderClaimed,
			UserID:   actor.UserID,
			RecordID: result.OrderID,
			Amount:   result.Amount,
			At:       result.ClaimedAt,
		})
	}
	return result, claimErr
}

// priorClaim rebuilds the result of the claim that already happened.
func (s *service) priorClaim(ctx context.Context, tx repositories.Store, order *models.InvestmentOrder) (*ClaimResult, error) {
	entry, err := tx.Entries().GetByKey(ctx, models.OrderClaimKey(order.ID))
	if err != nil {
		return nil, repositories.MapNotFound(err, apperrors.ErrAlreadyClaimed)
	}
	return claimResultFrom(order.ID, entry), nil
}

func claimResultFrom(orderID string, entry *models.LedgerEntry) *ClaimResult {
	return &ClaimResult{
		OrderID:   orderID,
		Amount:    entry.Amount,
		Balance:   entry.BalanceAfter,
		ClaimedAt: entry.CreatedAt,
	}
}

func (s *service) GetOrder(ctx context.Context, actor models.Actor, orderID string) (*accrual.OrderView, error) {
	order, err := s.store.Orders().GetByID(ctx, orderID)
	if err != nil {
		return nil, repositories.MapNotFound(err, apperrors.ErrOrderNotFound)
	}
	if order.UserID != actor.UserID && !actor.IsAdmin() {
		return nil, apperrors.ErrOrderNotFound
	}
	view := accrual.View(*order, s.now())
	return &view, nil
}

func (s *service) ListOrders(ctx context.Context, actor models.Actor, limit, offset int) ([]accrual.OrderView, int64, error) {
	orders, total, err := s.store.Orders().ListByUser(ctx, actor.UserID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	now := s.now()
	views := make([]accrual.OrderView, 0, len(orders))
	for _, o := range orders {
		views = append(views, accrual.View(o, now))
	}
	return views, total, nil
}

func (s *service) Reconcile(ctx context.Context) (*ReconcileReport, error) {
	report := &ReconcileReport{Repaired: []string{}}
	after := ""
	for {
		batch, err := s.store.Orders().ListUnclaimed(ctx, after, reconcileBatch)
		if err != nil {
			return report, err
		}
		if len(batch) == 0 {
			return report, nil
		}
		for _, o := range batch {
			report.Scanned++
			after = o.ID

			repaired, err := s.reconcileOne(ctx, o.ID)
			if err != nil {
				return report, err
			}
			if repaired {
				report.Repaired = append(report.Repaired, o.ID)
			}
		}
	}
}

func (s *service) reconcileOne(ctx context.Context, orderID string) (bool, error) {
	var repaired bool
	err := s.store.ExecuteInTransaction(ctx, func(tx repositories.Store) error {
		order, err := tx.Orders().LockByID(ctx, orderID)
		if err != nil || order.Claimed {
			return err
		}
		entry, err := tx.Entries().GetByKey(ctx, models.OrderClaimKey(orderID))
		if errors.Is(err, repositories.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		repaired, err = tx.Orders().MarkClaimed(ctx, orderID, entry.Amount, entry.CreatedAt)
		return err
	})
	if repaired {
		log.Printf("reconcile: order %s marked claimed from existing ledger entry", orderID)
	}
	return repaired, err
}
