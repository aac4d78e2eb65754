package repositories

import (
	"context"
	"time"

	"hydrofund/internal/models"
)

type WithdrawalRepository interface {
	// Create returns ErrDuplicate when the user already has a pending request.
	Create(ctx context.Context, w *models.Withdrawal) error
	GetByID(ctx context.Context, id string) (*models.Withdrawal, error)
	LockByID(ctx context.Context, id string) (*models.Withdrawal, error)
	GetPendingByUser(ctx context.Context, userID uint) (*models.Withdrawal, error)
	ListByUser(ctx context.Context, userID uint, limit, offset int) ([]models.Withdrawal, int64, error)
	ListByStatus(ctx context.Context, status models.WithdrawalStatus, limit, offset int) ([]models.Withdrawal, int64, error)

	// Transition moves a request from one status to another and writes the
	// processing fields. It reports false when the stored status is not from.
	Transition(ctx context.Context, id string, from, to models.WithdrawalStatus, update models.WithdrawalTransition) (bool, error)
	Aggregate(ctx context.Context) (map[models.WithdrawalStatus]models.StatusAggregate, error)
}

type DepositRepository interface {
	// Create returns ErrDuplicate when the code was already submitted.
	Create(ctx context.Context, d *models.Deposit) error
	GetByID(ctx context.Context, id string) (*models.Deposit, error)
	LockByID(ctx context.Context, id string) (*models.Deposit, error)
	ListByUser(ctx context.Context, userID uint, limit, offset int) ([]models.Deposit, int64, error)
	ListByStatus(ctx context.Context, status models.DepositStatus, limit, offset int) ([]models.Deposit, int64, error)
	Complete(ctx context.Context, id string, adminID uint, at time.Time) (bool, error)
	Aggregate(ctx context.Context) (map[models.DepositStatus]models.StatusAggregate, error)
}
