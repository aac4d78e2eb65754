package repositories

import (
	"context"
	"time"

	"hydrofund/internal/models"
)

type ReferralRepository interface {
	CreatePair(ctx context.Context, bonus *models.ReferralBonus) error
	GetPair(ctx context.Context, referrerID, referredID uint) (*models.ReferralBonus, error)
	LockPair(ctx context.Context, referrerID, referredID uint) (*models.ReferralBonus, error)
	ListByReferrer(ctx context.Context, referrerID uint, limit, offset int) ([]models.ReferralBonus, int64, error)
	TransitionPair(ctx context.Context, id string, from, to models.BonusStatus, at *time.Time) (bool, error)

	CreateAccountBonus(ctx context.Context, bonus *models.AccountBonus) error
	GetAccountBonus(ctx context.Context, userID uint) (*models.AccountBonus, error)
	LockAccountBonus(ctx context.Context, userID uint) (*models.AccountBonus, error)
	TransitionAccountBonus(ctx context.Context, userID uint, from, to models.BonusStatus, at *time.Time) (bool, error)

	Aggregate(ctx context.Context) (map[models.BonusStatus]models.StatusAggregate, error)
}

type SecurityRepository interface {
	Get(ctx context.Context, userID uint) (*models.AccountSecurity, error)
	Save(ctx context.Context, sec *models.AccountSecurity) error
}
