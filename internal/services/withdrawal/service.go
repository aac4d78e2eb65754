// Package withdrawal runs payout requests through admin approval:
// pending → completed | rejected | canceled. Money moves only on approval.
package withdrawal

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"hydrofund/internal/config"
	apperrors "hydrofund/internal/errors"
	"hydrofund/internal/models"
	"hydrofund/internal/repositories"
	"hydrofund/internal/services/ledger"
	"hydrofund/internal/services/notification"
	"hydrofund/internal/validation"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Service interface {
	Quote(amount decimal.Decimal) Quote
	Request(ctx context.Context, actor models.Actor, req Request) (*models.Withdrawal, error)
	Approve(ctx context.Context, actor models.Actor, id string) (*models.Withdrawal, error)
	Reject(ctx context.Context, actor models.Actor, id string, req Rejection) (*models.Withdrawal, error)
	// Cancel is owner-only. A non-empty reason is stored as admin_info.
	Cancel(ctx context.Context, actor models.Actor, id, reason string) (*models.Withdrawal, error)

	Get(ctx context.Context, actor models.Actor, id string) (*models.Withdrawal, error)
	ListByUser(ctx context.Context, actor models.Actor, limit, offset int) ([]models.Withdrawal, int64, error)
	ListByStatus(ctx context.Context, actor models.Actor, status models.WithdrawalStatus, limit, offset int) ([]models.Withdrawal, int64, error)
}

type Request struct {
	Amount decimal.Decimal `json:"amount"`
	Phone  string          `json:"phone" validate:"required"`
}

type Rejection struct {
	Reason string                `json:"reason" validate:"required,max=500"`
	Code   *models.RejectionCode `json:"code,omitempty"`
}

// Quote is the fee breakdown for an amount.
type Quote struct {
	Amount decimal.Decimal `json:"amount"`
	Fee    decimal.Decimal `json:"fee"`
	Net    decimal.Decimal `json:"net_amount"`
	Debit  decimal.Decimal `json:"debit"`
}

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

func (s *service) Quote(amount decimal.Decimal) Quote {
	fee := amount.Mul(s.cfg.WithdrawalFeeRate).Round(2)
	return Quote{
		Amount: amount,
		Fee:    fee,
		Net:    amount.Sub(fee),
		Debit:  amount.Add(fee),
	}
}

func (s *service) Request(ctx context.Context, actor models.Actor, req Request) (*models.Withdrawal, error) {
	if !req.Amount.Equal(req.Amount.Round(2)) ||
		req.Amount.LessThan(s.cfg.WithdrawalMin) || req.Amount.GreaterThan(s.cfg.WithdrawalMax) {
		return nil, apperrors.ErrInvalidAmount.WithMessage("withdrawal amount must be between %s and %s",
			s.cfg.WithdrawalMin.StringFixed(2), s.cfg.WithdrawalMax.StringFixed(2))
	}
	phone := strings.ReplaceAll(req.Phone, " ", "")
	if !validation.IsPhone(phone) {
		return nil, apperrors.ErrInvalidPhone
	}

	q := s.Quote(req.Amount)
	w := &models.Withdrawal{
		ID:        uuid.NewString(),
		UserID:    actor.UserID,
		Amount:    q.Amount,
		Fee:       q.Fee,
		NetAmount: q.Net,
		Phone:     phone,
		Status:    models.WithdrawalPending,
		CreatedAt: s.now(),
	}

	err := s.store.ExecuteInTransaction(ctx, func(tx repositories.Store) error {
		wallet, err := tx.Wallets().LockByUserID(ctx, actor.UserID)
		if err != nil {
			return repositories.MapNotFound(err, apperrors.ErrInsufficientBalance)
		}
		if _, err := tx.Withdrawals().GetPendingByUser(ctx, actor.UserID); err == nil {
			return apperrors.ErrDuplicatePending
		} else if !errors.Is(err, repositories.ErrNotFound) {
			return err
		}
		if q.Debit.GreaterThan(wallet.Balance) {
			return apperrors.ErrInsufficientBalance
		}
		if err := tx.Withdrawals().Create(ctx, w); err != nil {
			return repositories.MapDuplicate(err, apperrors.ErrDuplicatePending)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("withdrawal %s requested by user %d: %s (fee %s)", w.ID, w.UserID, w.Amount.StringFixed(2), w.Fee.StringFixed(2))
	s.publish(notification.WithdrawalRequested, w, w.Phone)
	return w, nil
}

func (s *service) Approve(ctx context.Context, actor models.Actor, id string) (*models.Withdrawal, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.ErrForbidden
	}

	var out *models.Withdrawal
	var stateErr error
	err := s.store.ExecuteInTransaction(ctx, func(tx repositories.Store) error {
		w, err := tx.Withdrawals().LockByID(ctx, id)
		if err != nil {
			return repositories.MapNotFound(err, apperrors.ErrWithdrawalNotFound)
		}
		switch w.Status {
		case models.WithdrawalCompleted:
			out, stateErr = w, apperrors.ErrWithdrawalAlreadyCompleted
			return nil
		case models.WithdrawalRejected, models.WithdrawalCanceled:
			return apperrors.ErrWithdrawalClosed.WithMessage("withdrawal is %s", w.Status)
		}

		_, err = s.ledger.ApplyDeltaTx(ctx, tx, ledger.Delta{
			UserID:         w.UserID,
			Amount:         w.Debit().Neg(),
			Reason:         models.ReasonWithdrawal,
			IdempotencyKey: models.WithdrawalSettleKey(w.ID),
			ActorID:        actor.UserID,
		})
		if err != nil {
			return err
		}

		out, err = s.transition(ctx, tx, w, models.WithdrawalCompleted, models.WithdrawalTransition{ProcessedBy: actor.UserID})
		return err
	})
	if err != nil {
		return nil, err
	}
	if stateErr != nil {
		return out, stateErr
	}

	s.ledger.Invalidate(ctx, out.UserID)
	log.Printf("withdrawal %s approved by admin %d", out.ID, actor.UserID)
	s.publish(notification.WithdrawalCompleted, out, "")
	return out, nil
}

func (s *service) Reject(ctx context.Context, actor models.Actor, id string, req Rejection) (*models.Withdrawal, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.ErrForbidden
	}
	if strings.TrimSpace(req.Reason) == "" {
		return nil, apperrors.ErrMissingReason
	}
	if len(req.Reason) > validation.MaxAdminInfoLength {
		return nil, apperrors.ErrInvalidRequest.WithMessage("reason must not exceed %d characters", validation.MaxAdminInfoLength)
	}
	if req.Code != nil && !req.Code.Valid() {
		return nil, apperrors.ErrInvalidRejectionCode
	}

	reason := req.Reason
	update := models.WithdrawalTransition{ProcessedBy: actor.UserID, AdminInfo: &reason, RejectionCode: req.Code}
	out, err := s.close(ctx, id, models.WithdrawalRejected, update, func(w *models.Withdrawal) error {
		switch w.Status {
		case models.WithdrawalRejected:
			return apperrors.ErrWithdrawalAlreadyRejected
		case models.WithdrawalPending:
			return nil
		}
		return apperrors.ErrWithdrawalClosed.WithMessage("withdrawal is %s", w.Status)
	})
	if err != nil {
		return out, err
	}

	log.Printf("withdrawal %s rejected by admin %d", out.ID, actor.UserID)
	s.publish(notification.WithdrawalRejected, out, reason)
	return out, nil
}

func (s *service) Cancel(ctx context.Context, actor models.Actor, id, reason string) (*models.Withdrawal, error) {
	reason = strings.TrimSpace(reason)
	if len(reason) > validation.MaxAdminInfoLength {
		return nil, apperrors.ErrInvalidRequest.WithMessage("reason must not exceed %d characters", validation.MaxAdminInfoLength)
	}
	update := models.WithdrawalTransition{ProcessedBy: actor.UserID}
	if reason != "" {
		update.AdminInfo = &reason
	}
	out, err := s.close(ctx, id, models.WithdrawalCanceled, update, func(w *models.Withdrawal) error {
		if w.UserID != actor.UserID {
			return apperrors.ErrForbidden
		}
		switch w.Status {
		case models.WithdrawalCanceled:
			return apperrors.ErrWithdrawalAlreadyCanceled
		case models.WithdrawalPending:
			return nil
		}
		return apperrors.ErrWithdrawalClosed.WithMessage("withdrawal is %s", w.Status)
	})
	if err != nil {
		return out, err
	}

	log.Printf("withdrawal %s canceled by user %d", out.ID, actor.UserID)
	s.publish(notification.WithdrawalCanceled, out, reason)
	return out, nil
}

// close moves a pending request to a terminal state without touching the
// wallet. check decides whether the locked record may move; an
// already-processed error comes back with the record.
func (s *service) close(ctx context.Context, id string, to models.WithdrawalStatus, update models.WithdrawalTransition, check func(*models.Withdrawal) error) (*models.Withdrawal, error) {
	var out *models.Withdrawal
	var stateErr error
	err := s.store.ExecuteInTransaction(ctx, func(tx repositories.Store) error {
		w, err := tx.Withdrawals().LockByID(ctx, id)
		if err != nil {
			return repositories.MapNotFound(err, apperrors.ErrWithdrawalNotFound)
		}
		if err := check(w); err != nil {
			if apperrors.IsAlreadyProcessed(err) {
				out, stateErr = w, err
				return nil
			}
			return err
		}
		out, err = s.transition(ctx, tx, w, to, update)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, stateErr
}

func (s *service) transition(ctx context.Context, tx repositories.Store, w *models.Withdrawal, to models.WithdrawalStatus, update models.WithdrawalTransition) (*models.Withdrawal, error) {
	update.ProcessedAt = s.now()
	ok, err := tx.Withdrawals().Transition(ctx, w.ID, models.WithdrawalPending, to, update)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.ErrWithdrawalClosed
	}
	return tx.Withdrawals().GetByID(ctx, w.ID)
}

func (s *service) publish(kind notification.EventKind, w *models.Withdrawal, note string) {
	s.publisher.Publish(notification.Event{
		Kind:     kind,
		UserID:   w.UserID,
		RecordID: w.ID,
		Amount:   w.Amount,
		Note:     note,
		At:       s.now(),
	})
}

func (s *service) Get(ctx context.Context, actor models.Actor, id string) (*models.Withdrawal, error) {
	w, err := s.store.Withdrawals().GetByID(ctx, id)
	if err != nil {
		return nil, repositories.MapNotFound(err, apperrors.ErrWithdrawalNotFound)
	}
	if w.UserID != actor.UserID && !actor.IsAdmin() {
		return nil, apperrors.ErrWithdrawalNotFound
	}
	return w, nil
}

func (s *service) ListByUser(ctx context.Context, actor models.Actor, limit, offset int) ([]models.Withdrawal, int64, error) {
	return s.store.Withdrawals().ListByUser(ctx, actor.UserID, limit, offset)
}

func (s *service) ListByStatus(ctx context.Context, actor models.Actor, status models.WithdrawalStatus, limit, offset int) ([]models.Withdrawal, int64, error) {
	if !actor.IsAdmin() {
		return nil, 0, apperrors.ErrForbidden
	}
	return s.store.Withdrawals().ListByStatus(ctx, status, limit, offset)
}
