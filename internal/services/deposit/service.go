// Package deposit records user-reported mobile-money payments and credits
// them once an admin confirms the money arrived.
package deposit

import (
	"context"
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

const maxApproveBatch = 100

type Outcome string

const (
	OutcomeApproved         Outcome = "approved"
	OutcomeAlreadyCompleted Outcome = "already_completed"
	OutcomeFailed           Outcome = "error"
)

type Service interface {
	Submit(ctx context.Context, actor models.Actor, req SubmitRequest) (*models.Deposit, error)
	ApproveOne(ctx context.Context, actor models.Actor, id string) (*models.Deposit, error)
	Approve(ctx context.Context, actor models.Actor, ids ...string) ([]ApprovalResult, error)

	Get(ctx context.Context, actor models.Actor, id string) (*models.Deposit, error)
	ListByUser(ctx context.Context, actor models.Actor, limit, offset int) ([]models.Deposit, int64, error)
	ListByStatus(ctx context.Context, actor models.Actor, status models.DepositStatus, limit, offset int) ([]models.Deposit, int64, error)
}

type SubmitRequest struct {
	Amount decimal.Decimal
	Phone  string
	Code   string
	Proof  *Proof
}

// ApprovalResult is the per-id outcome of a batch approval.
type ApprovalResult struct {
	ID      string          `json:"id"`
	Outcome Outcome         `json:"outcome"`
	Deposit *models.Deposit `json:"deposit,omitempty"`
	Reason  string          `json:"reason,omitempty"`
	Message string          `json:"message,omitempty"`
}

type service struct {
	store     repositories.Store
	ledger    ledger.Service
	proofs    ProofStore
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

// WithProofStore enables proof uploads. Without one, proofs are dropped.
func WithProofStore(p ProofStore) Option {
	return func(s *service) {
		s.proofs = p
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

func (s *service) Submit(ctx context.Context, actor models.Actor, req SubmitRequest) (*models.Deposit, error) {
	if !req.Amount.Equal(req.Amount.Round(2)) ||
		req.Amount.LessThan(s.cfg.DepositMin) || req.Amount.GreaterThan(s.cfg.DepositMax) {
		return nil, apperrors.ErrInvalidAmount.WithMessage("deposit amount must be between %s and %s",
			s.cfg.DepositMin.StringFixed(2), s.cfg.DepositMax.StringFixed(2))
	}
	phone := strings.ReplaceAll(req.Phone, " ", "")
	if !validation.IsPhone(phone) {
		return nil, apperrors.ErrInvalidPhone
	}
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if len(code) < validation.MinDepositCode || len(code) > validation.MaxDepositCode {
		return nil, apperrors.ErrInvalidDepositCode.WithMessage("payment reference code must be %d to %d characters",
			validation.MinDepositCode, validation.MaxDepositCode)
	}

	d := &models.Deposit{
		ID:        uuid.NewString(),
		UserID:    actor.UserID,
		Amount:    req.Amount,
		Phone:     phone,
		Code:      code,
		Status:    models.DepositPending,
		CreatedAt: s.now(),
	}

	if req.Proof != nil && req.Proof.Body != nil {
		if s.proofs == nil {
			log.Printf("deposit %s: proof %q dropped, no proof store configured", d.ID, req.Proof.Name)
		} else {
			key, contentType := proofKey(d.ID, req.Proof.Name)
			if err := s.proofs.Put(ctx, key, req.Proof.Body, contentType); err != nil {
				log.Printf("deposit %s: proof upload failed: %v", d.ID, err)
				return nil, apperrors.ErrProofUpload.Wrap(err)
			}
			d.ProofKey = &key
		}
	}

	if err := s.store.Deposits().Create(ctx, d); err != nil {
		return nil, repositories.MapDuplicate(err, apperrors.ErrDuplicateDepositCode)
	}

	log.Printf("deposit %s submitted by user %d: %s ref %s", d.ID, d.UserID, d.Amount.StringFixed(2), d.Code)
	s.publish(notification.DepositSubmitted, d, d.Code)
	return d, nil
}

func (s *service) ApproveOne(ctx context.Context, actor models.Actor, id string) (*models.Deposit, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.ErrForbidden
	}

	var out *models.Deposit
	var stateErr error
	err := s.store.ExecuteInTransaction(ctx, func(tx repositories.Store) error {
		d, err := tx.Deposits().LockByID(ctx, id)
		if err != nil {
			return repositories.MapNotFound(err, apperrors.ErrDepositNotFound)
		}
		if d.Status == models.DepositCompleted {
			out, stateErr = d, apperrors.ErrDepositAlreadyCompleted
			return nil
		}

		_, err = s.ledger.ApplyDeltaTx(ctx, tx, ledger.Delta{
			UserID:         d.UserID,
			Amount:         d.Amount,
			Reason:         models.ReasonDepositApprove,
			IdempotencyKey: models.DepositApproveKey(d.ID),
			ActorID:        actor.UserID,
		})
		if err != nil {
			return err
		}

		ok, err := tx.Deposits().Complete(ctx, d.ID, actor.UserID, s.now())
		if err != nil {
			return err
		}
		if !ok {
			return apperrors.ErrDepositAlreadyCompleted
		}
		out, err = tx.Deposits().GetByID(ctx, d.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if stateErr != nil {
		return out, stateErr
	}

	s.ledger.Invalidate(ctx, out.UserID)
	log.Printf("deposit %s approved by admin %d: %s credited to user %d", out.ID, actor.UserID, out.Amount.StringFixed(2), out.UserID)
	s.publish(notification.DepositApproved, out, "")
	return out, nil
}

// Approve settles each id in its own transaction. One failing id never
// blocks the others; the per-id outcome says what happened.
func (s *service) Approve(ctx context.Context, actor models.Actor, ids ...string) ([]ApprovalResult, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.ErrForbidden
	}
	if len(ids) == 0 || len(ids) > maxApproveBatch {
		return nil, apperrors.ErrInvalidRequest.WithMessage("ids must contain 1 to %d deposits", maxApproveBatch)
	}

	results := make([]ApprovalResult, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true

		d, err := s.ApproveOne(ctx, actor, id)
		res := ApprovalResult{ID: id, Deposit: d}
		switch {
		case err == nil:
			res.Outcome = OutcomeApproved
		case apperrors.IsAlreadyProcessed(err):
			res.Outcome = OutcomeAlreadyCompleted
		default:
			res.Outcome = OutcomeFailed
			res.Message = err.Error()
			if de, ok := apperrors.As(err); ok {
				res.Reason = de.Code
			}
		}
		results = append(results, res)
	}
	return results, nil
}

func (s *service) publish(kind notification.EventKind, d *models.Deposit, note string) {
	s.publisher.Publish(notification.Event{
		Kind:     kind,
		UserID:   d.UserID,
		RecordID: d.ID,
		Amount:   d.Amount,
		Note:     note,
		At:       s.now(),
	})
}

func (s *service) Get(ctx context.Context, actor models.Actor, id string) (*models.Deposit, error) {
	d, err := s.store.Deposits().GetByID(ctx, id)
	if err != nil {
		return nil, repositories.MapNotFound(err, apperrors.ErrDepositNotFound)
	}
	if d.UserID != actor.UserID && !actor.IsAdmin() {
		return nil, apperrors.ErrDepositNotFound
	}
	return d, nil
}

func (s *service) ListByUser(ctx context.Context, actor models.Actor, limit, offset int) ([]models.Deposit, int64, error) {
	return s.store.Deposits().ListByUser(ctx, actor.UserID, limit, offset)
}

func (s *service) ListByStatus(ctx context.Context, actor models.Actor, status models.DepositStatus, limit, offset int) ([]models.Deposit, int64, error) {
	if !actor.IsAdmin() {
		return nil, 0, apperrors.ErrForbidden
	}
	return s.store.Deposits().ListByStatus(ctx, status, limit, offset)
}
