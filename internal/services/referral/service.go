// Package referral pays out the one-time referral and signup bonuses.
// Eligibility is decided elsewhere; this package only moves pending
// bonuses to completed (crediting the wallet) or expired.
package referral

import (
	"context"
	"log"
	"time"

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
	RegisterReferral(ctx context.Context, actor models.Actor, referrerID, referredID uint, amount decimal.Decimal) (*models.ReferralBonus, error)
	GrantAccountBonus(ctx context.Context, actor models.Actor, userID uint, amount decimal.Decimal) (*models.AccountBonus, error)

	ClaimReferralBonus(ctx context.Context, actor models.Actor, referrerID, referredID uint) (*models.ReferralBonus, error)
	ClaimAccountBonus(ctx context.Context, actor models.Actor, userID uint) (*models.AccountBonus, error)
	ExpireReferralBonus(ctx context.Context, actor models.Actor, referrerID, referredID uint) (*models.ReferralBonus, error)

	ListReferrals(ctx context.Context, actor models.Actor, limit, offset int) ([]models.ReferralBonus, int64, error)
	GetAccountBonus(ctx context.Context, actor models.Actor) (*models.AccountBonus, error)
}

type service struct {
	store     repositories.Store
	ledger    ledger.Service
	publisher notification.Publisher
	now       func() time.Time
}

type Option func(*service)

func WithClock(now func() time.Time) Option {
	return func(s *service) {
		s.now = now
	}
}

func NewService(store repositories.Store, ledgerSvc ledger.Service, publisher notification.Publisher, opts ...Option) Service {
	if publisher == nil {
		publisher = notification.Discard{}
	}
	s := &service{
		store:     store,
		ledger:    ledgerSvc,
		publisher: publisher,
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func validateBonus(amount decimal.Decimal) error {
	v := validation.New()
	v.Positive("amount", amount)
	v.Cents("amount", amount)
	return v.Err(apperrors.ErrInvalidAmount)
}

func (s *service) RegisterReferral(ctx context.Context, actor models.Actor, referrerID, referredID uint, amount decimal.Decimal) (*models.ReferralBonus, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.ErrForbidden
	}
	if referrerID == 0 || referredID == 0 {
		return nil, apperrors.ErrInvalidRequest.WithMessage("referrer and referred user are required")
	}
	if referrerID == referredID {
		return nil, apperrors.ErrSelfReferral
	}
	if err := validateBonus(amount); err != nil {
		return nil, err
	}

	bonus := &models.ReferralBonus{
		ID:             uuid.NewString(),
		ReferrerID:     referrerID,
		ReferredUserID: referredID,
		BonusAmount:    amount,
		BonusStatus:    models.BonusPending,
		CreatedAt:      s.now(),
	}
	if err := s.store.Referrals().CreatePair(ctx, bonus); err != nil {
		return nil, repositories.MapDuplicate(err, apperrors.ErrDuplicateReferral)
	}
	log.Printf("referral %d -> %d registered: %s", referrerID, referredID, amount.StringFixed(2))
	return bonus, nil
}

func (s *service) GrantAccountBonus(ctx context.Context, actor models.Actor, userID uint, amount decimal.Decimal) (*models.AccountBonus, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.ErrForbidden
	}
	if userID == 0 {
		return nil, apperrors.ErrInvalidRequest.WithMessage("user_id is required")
	}
	if err := validateBonus(amount); err != nil {
		return nil, err
	}

	bonus := &models.AccountBonus{
		UserID:    userID,
		Amount:    amount,
		Status:    models.BonusPending,
		CreatedAt: s.now(),
	}
	if err := s.store.Referrals().CreateAccountBonus(ctx, bonus); err != nil {
		return nil, repositories.MapDuplicate(err, apperrors.ErrDuplicateReferral.WithMessage("account bonus already granted"))
	}
	log.Printf("account bonus granted to user %d: %s", userID, amount.StringFixed(2))
	return bonus, nil
}

func (s *service) ClaimReferralBonus(ctx context.Context, actor models.Actor, referrerID, referredID uint) (*models.ReferralBonus, error) {
	if actor.UserID != referrerID && !actor.IsAdmin() {
		return nil, apperrors.ErrForbidden
	}

	var out *models.ReferralBonus
	var stateErr error
	err := s.store.ExecuteInTransaction(ctx, func(tx repositories.Store) error {
		pair, err := tx.Referrals().LockPair(ctx, referrerID, referredID)
		if err != nil {
			return repositories.MapNotFound(err, apperrors.ErrReferralNotFound)
		}
		switch pair.BonusStatus {
		case models.BonusCompleted:
			out, stateErr = pair, apperrors.ErrBonusAlreadyClaimed
			return nil
		case models.BonusPending:
		default:
			return apperrors.ErrNotPending.WithMessage("referral bonus is %s", pair.BonusStatus)
		}

		_, err = s.ledger.ApplyDeltaTx(ctx, tx, ledger.Delta{
			UserID:         pair.ReferrerID,
			Amount:         pair.BonusAmount,
			Reason:         models.ReasonReferralBonus,
			IdempotencyKey: models.ReferralBonusKey(pair.ID),
			ActorID:        actor.UserID,
		})
		if err != nil {
			return err
		}

		at := s.now()
		ok, err := tx.Referrals().TransitionPair(ctx, pair.ID, models.BonusPending, models.BonusCompleted, &at)
		if err != nil {
			return err
		}
		if !ok {
			return apperrors.ErrNotPending
		}
		out, err = tx.Referrals().GetPair(ctx, referrerID, referredID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if stateErr != nil {
		return out, stateErr
	}

	s.ledger.Invalidate(ctx, out.ReferrerID)
	log.Printf("referral bonus %s claimed by user %d: %s", out.ID, out.ReferrerID, out.BonusAmount.StringFixed(2))
	s.publisher.Publish(notification.Event{
		Kind:     notification.BonusClaimed,
		UserID:   out.ReferrerID,
		RecordID: out.ID,
		Amount:   out.BonusAmount,
		Note:     "referral",
		At:       s.now(),
	})
	return out, nil
}

func (s *service) ClaimAccountBonus(ctx context.Context, actor models.Actor, userID uint) (*models.AccountBonus, error) {
	if actor.UserID != userID && !actor.IsAdmin() {
		return nil, apperrors.ErrForbidden
	}

	var out *models.AccountBonus
	var stateErr error
	err := s.store.ExecuteInTransaction(ctx, func(tx repositories.Store) error {
		bonus, err := tx.Referrals().LockAccountBonus(ctx, userID)
		if err != nil {
			return repositories.MapNotFound(err, apperrors.ErrAccountBonusNotFound)
		}
		switch bonus.Status {
		case models.BonusCompleted:
			out, stateErr = bonus, apperrors.ErrBonusAlreadyClaimed
			return nil
		case models.BonusPending:
		default:
			return apperrors.ErrNotPending.WithMessage("account bonus is %s", bonus.Status)
		}

		_, err = s.ledger.ApplyDeltaTx(ctx, tx, ledger.Delta{
			UserID:         userID,
			Amount:         bonus.Amount,
			Reason:         models.ReasonAccountBonus,
			IdempotencyKey: models.AccountBonusKey(userID),
			ActorID:        actor.UserID,
		})
		if err != nil {
			return err
		}

		at := s.now()
		ok, err := tx.Referrals().TransitionAccountBonus(ctx, userID, models.BonusPending, models.BonusCompleted, &at)
		if err != nil {
			return err
		}
		if !ok {
			return apperrors.ErrNotPending
		}
		out, err = tx.Referrals().GetAccountBonus(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if stateErr != nil {
		return out, stateErr
	}

	s.ledger.Invalidate(ctx, userID)
	log.Printf("account bonus claimed by user %d: %s", userID, out.Amount.StringFixed(2))
	s.publisher.Publish(notification.Event{
		Kind:     notification.BonusClaimed,
		UserID:   userID,
		RecordID: "account-bonus",
		Amount:   out.Amount,
		Note:     "account",
		At:       s.now(),
	})
	return out, nil
}

// ExpireReferralBonus records an expiry decided outside the ledger.
// Only a pending bonus can expire.
func (s *service) ExpireReferralBonus(ctx context.Context, actor models.Actor, referrerID, referredID uint) (*models.ReferralBonus, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.ErrForbidden
	}

	var out *models.ReferralBonus
	err := s.store.ExecuteInTransaction(ctx, func(tx repositories.Store) error {
		pair, err := tx.Referrals().LockPair(ctx, referrerID, referredID)
		if err != nil {
			return repositories.MapNotFound(err, apperrors.ErrReferralNotFound)
		}
		ok, err := tx.Referrals().TransitionPair(ctx, pair.ID, models.BonusPending, models.BonusExpired, nil)
		if err != nil {
			return err
		}
		if !ok {
			return apperrors.ErrNotPending.WithMessage("referral bonus is %s", pair.BonusStatus)
		}
		out, err = tx.Referrals().GetPair(ctx, referrerID, referredID)
		return err
	})
	if err != nil {
		return nil, err
	}
	log.Printf("referral bonus %s expired by admin %d", out.ID, actor.UserID)
	return out, nil
}

func (s *service) ListReferrals(ctx context.Context, actor models.Actor, limit, offset int) ([]models.ReferralBonus, int64, error) {
	return s.store.Referrals().ListByReferrer(ctx, actor.UserID, limit, offset)
}

func (s *service) GetAccountBonus(ctx context.Context, actor models.Actor) (*models.AccountBonus, error) {
	bonus, err := s.store.Referrals().GetAccountBonus(ctx, actor.UserID)
	if err != nil {
		return nil, repositories.MapNotFound(err, apperrors.ErrAccountBonusNotFound)
	}
	return bonus, nil
}
