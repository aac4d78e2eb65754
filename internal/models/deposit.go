package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type DepositStatus string

const (
	DepositPending   DepositStatus = "pending"
	DepositCompleted DepositStatus = "completed"
)

// Deposit is an unverified claim that money was paid to the platform's
// mobile-money account. It credits the wallet once, on admin approval.
type Deposit struct {
	ID         string          `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID     uint            `gorm:"not null;index" json:"user_id"`
	Amount     decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"amount"`
	Phone      string          `gorm:"size:20;not null" json:"phone"`
	Code       string          `gorm:"size:64;not null;uniqueIndex" json:"code"`
	ProofKey   *string         `gorm:"size:255" json:"proof_key,omitempty"`
	Status     DepositStatus   `gorm:"size:16;not null;default:'pending';index" json:"status"`
	ApprovedBy *uint           `json:"approved_by,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	ApprovedAt *time.Time      `json:"approved_at,omitempty"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

func (Deposit) TableName() string {
	return "deposits"
}
