package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Wallet holds a user's spendable balance plus reporting counters.
// Balance only moves through a LedgerEntry; Version counts applied entries
// and orders cached snapshots.
type Wallet struct {
	ID             uint            `gorm:"primarykey" json:"id"`
	UserID         uint            `gorm:"uniqueIndex;not null" json:"user_id"`
	Balance        decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0" json:"balance"`
	TotalInvested  decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0" json:"total_invested"`
	TotalWithdrawn decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0" json:"total_withdrawn"`
	Currency       string          `gorm:"size:3;not null" json:"currency"`
	Version        int64           `gorm:"not null;default:0" json:"version"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func (w *Wallet) BeforeCreate(tx *gorm.DB) error {
	// Wallets are always opened empty; money arrives through the ledger.
	w.Balance = decimal.Zero
	w.TotalInvested = decimal.Zero
	w.TotalWithdrawn = decimal.Zero
	w.Version = 0
	return nil
}

// EntryReason names why a ledger delta was applied.
type EntryReason string

const (
	ReasonOrderCreate     EntryReason = "order-create"
	ReasonOrderClaim      EntryReason = "order-claim"
	ReasonWithdrawal      EntryReason = "withdrawal-settle"
	ReasonDepositApprove  EntryReason = "deposit-approve"
	ReasonReferralBonus   EntryReason = "referral-bonus"
	ReasonAccountBonus    EntryReason = "account-bonus"
	ReasonAdminAdjustment EntryReason = "admin-adjustment"
)

// Valid reports whether r is a known reason.
func (r EntryReason) Valid() bool {
	switch r {
	case ReasonOrderCreate, ReasonOrderClaim, ReasonWithdrawal, ReasonDepositApprove,
		ReasonReferralBonus, ReasonAccountBonus, ReasonAdminAdjustment:
		return true
	}
	return false
}

// LedgerEntry records one applied balance delta. The idempotency key is
// unique: a replayed delta finds its entry and applies nothing.
type LedgerEntry struct {
	ID             uint            `gorm:"primarykey" json:"id"`
	UserID         uint            `gorm:"index;not null" json:"user_id"`
	Amount         decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"amount"`
	Reason         EntryReason     `gorm:"size:32;not null" json:"reason"`
	IdempotencyKey string          `gorm:"size:128;uniqueIndex;not null" json:"idempotency_key"`
	BalanceAfter   decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"balance_after"`
	ActorID        uint            `gorm:"not null;default:0" json:"actor_id"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Idempotency keys, one per money-moving transition.

func OrderCreateKey(orderID string) string { return "order:" + orderID + ":create" }

func OrderClaimKey(orderID string) string { return "order:" + orderID + ":claim" }

func WithdrawalSettleKey(id string) string { return "withdrawal:" + id + ":settle" }

func DepositApproveKey(id string) string { return "deposit:" + id + ":approve" }

func ReferralBonusKey(pairID string) string { return "referral:" + pairID }

func AccountBonusKey(userID uint) string { return fmt.Sprintf("account-bonus:%d", userID) }
