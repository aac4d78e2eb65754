package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type WithdrawalStatus string

const (
	WithdrawalPending   WithdrawalStatus = "pending"
	WithdrawalCompleted WithdrawalStatus = "completed"
	WithdrawalRejected  WithdrawalStatus = "rejected"
	WithdrawalCanceled  WithdrawalStatus = "canceled"
)

// RejectionCode is the optional fixed reason an admin picks next to the
// free-text admin_info.
type RejectionCode string

const (
	RejectInsufficientFunds  RejectionCode = "insufficient_funds"
	RejectSuspiciousActivity RejectionCode = "suspicious_activity"
	RejectInvalidAccount     RejectionCode = "invalid_account"
	RejectOther              RejectionCode = "other"
)

func (c RejectionCode) Valid() bool {
	switch c {
	case RejectInsufficientFunds, RejectSuspiciousActivity, RejectInvalidAccount, RejectOther:
		return true
	}
	return false
}

// Withdrawal is a payout request. Amount plus fee stays in the balance while
// pending and is debited only when an admin approves.
type Withdrawal struct {
	ID            string           `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID        uint             `gorm:"not null;index;uniqueIndex:idx_withdrawals_one_pending,where:status = 'pending'" json:"user_id"`
	Amount        decimal.Decimal  `gorm:"type:numeric(20,2);not null" json:"amount"`
	Fee           decimal.Decimal  `gorm:"type:numeric(20,2);not null" json:"fee"`
	NetAmount     decimal.Decimal  `gorm:"type:numeric(20,2);not null" json:"net_amount"`
	Phone         string           `gorm:"size:20;not null" json:"phone"`
	Status        WithdrawalStatus `gorm:"size:16;not null;default:'pending';index" json:"status"`
	AdminInfo     *string          `gorm:"type:text" json:"admin_info,omitempty"`
	RejectionCode *RejectionCode   `gorm:"size:32" json:"rejection_code,omitempty"`
	ProcessedBy   *uint            `json:"processed_by,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	ProcessedAt   *time.Time       `json:"processed_at,omitempty"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

func (Withdrawal) TableName() string {
	return "withdrawals"
}

// Debit is what approval takes from the wallet.
func (w Withdrawal) Debit() decimal.Decimal {
	return w.Amount.Add(w.Fee)
}

// WithdrawalTransition carries the fields written with a status change.
type WithdrawalTransition struct {
	ProcessedBy   uint
	AdminInfo     *string
	RejectionCode *RejectionCode
	ProcessedAt   time.Time
}
