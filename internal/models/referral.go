package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type BonusStatus string

const (
	BonusPending   BonusStatus = "pending"
	BonusCompleted BonusStatus = "completed"
	BonusExpired   BonusStatus = "expired"
)

// ReferralBonus is one row per (referrer, referred) pair.
type ReferralBonus struct {
	ID             string          `gorm:"type:varchar(36);primaryKey" json:"id"`
	ReferrerID     uint            `gorm:"not null;uniqueIndex:idx_referral_pair,priority:1" json:"referrer_id"`
	ReferredUserID uint            `gorm:"not null;uniqueIndex:idx_referral_pair,priority:2" json:"referred_user_id"`
	BonusAmount    decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"bonus_amount"`
	BonusStatus    BonusStatus     `gorm:"size:16;not null;default:'pending';index" json:"bonus_status"`
	ClaimedAt      *time.Time      `json:"claimed_at,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func (ReferralBonus) TableName() string {
	return "referral_bonuses"
}

// AccountBonus is the single-use signup bonus of a user.
type AccountBonus struct {
	UserID    uint            `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	Amount    decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"amount"`
	Status    BonusStatus     `gorm:"size:16;not null;default:'pending'" json:"status"`
	ClaimedAt *time.Time      `json:"claimed_at,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (AccountBonus) TableName() string {
	return "account_bonuses"
}
