package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// StatusAggregate is a count and sum for one status bucket.
type StatusAggregate struct {
	Count  int64           `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

// Add folds one record into the bucket.
func (a StatusAggregate) Add(amount decimal.Decimal) StatusAggregate {
	return StatusAggregate{Count: a.Count + 1, Amount: a.Amount.Add(amount)}
}

// OrderStats is computed from accrual on read, never from stored status.
type OrderStats struct {
	Active           StatusAggregate `json:"active"`
	CompletedPending StatusAggregate `json:"completed_unclaimed"`
	Claimed          StatusAggregate `json:"claimed"`
	AccruedEarnings  decimal.Decimal `json:"accrued_earnings"`
	ClaimedEarnings  decimal.Decimal `json:"claimed_earnings"`
}

type WalletStats struct {
	Count        int64           `json:"count"`
	TotalBalance decimal.Decimal `json:"total_balance"`
}

// AdminDashboard is the platform overview for operators.
type AdminDashboard struct {
	Wallets     WalletStats                          `json:"wallets"`
	Orders      OrderStats                           `json:"orders"`
	Withdrawals map[WithdrawalStatus]StatusAggregate `json:"withdrawals"`
	Deposits    map[DepositStatus]StatusAggregate    `json:"deposits"`
	Referrals   map[BonusStatus]StatusAggregate      `json:"referrals"`
	GeneratedAt time.Time                            `json:"generated_at"`
}

// UserDashboard is what a user sees on their home screen.
type UserDashboard struct {
	Wallet            *Wallet         `json:"wallet"`
	ActiveOrders      int             `json:"active_orders"`
	ClaimableOrders   int             `json:"claimable_orders"`
	AccruedEarnings   decimal.Decimal `json:"accrued_earnings"`
	PendingWithdrawal *Withdrawal     `json:"pending_withdrawal,omitempty"`
	PendingReferrals  int             `json:"pending_referrals"`
	RecentEntries     []LedgerEntry   `json:"recent_entries"`
	GeneratedAt       time.Time       `json:"generated_at"`
}
