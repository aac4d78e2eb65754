package dashboard

import (
	"context"
	"testing"
	"time"

	apperrors "hydrofund/internal/errors"
	"hydrofund/internal/models"
	"hydrofund/internal/repositories/memstore"
	"hydrofund/internal/services/ledger"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	now   = time.Date(2024, 7, 10, 12, 0, 0, 0, time.UTC)
	user  = models.Actor{UserID: 10, Role: models.RoleUser}
	admin = models.Actor{UserID: 1, Role: models.RoleAdmin}
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func seedOrder(t *testing.T, store *memstore.Store, id string, userID uint, age time.Duration, daily, total string) {
	t.Helper()
	created := now.Add(-age)
	err := store.Orders().Create(context.Background(), &models.InvestmentOrder{
		ID:          id,
		UserID:      userID,
		TotalAmount: dec("1000"),
		Status:      models.OrderStatusActive,
		CreatedAt:   created,
		Items: []models.OrderItem{{
			OrderID:     id,
			ProductID:   1,
			Quantity:    1,
			Price:       dec("1000"),
			DailyIncome: dec(daily),
			TotalIncome: dec(total),
			CycleDays:   30,
			CreatedAt:   created,
		}},
	})
	require.NoError(t, err)
}

func setup(t *testing.T) (Service, *memstore.Store) {
	t.Helper()
	clock := func() time.Time { return now }
	store := memstore.New()
	ledgerSvc := ledger.NewService(store, nil, nil, ledger.WithClock(clock))
	ctx := context.Background()

	_, err := ledgerSvc.ApplyDelta(ctx, ledger.Delta{
		UserID: user.UserID, Amount: dec("5000"), Reason: models.ReasonDepositApprove, IdempotencyKey: "seed:1",
	})
	require.NoError(t, err)

	seedOrder(t, store, "o-active", user.UserID, 5*24*time.Hour, "100", "3000")
	seedOrder(t, store, "o-complete", user.UserID, 40*24*time.Hour, "1000", "30000")
	seedOrder(t, store, "o-claimed", user.UserID, 60*24*time.Hour, "100", "3000")
	ok, err := store.Orders().MarkClaimed(ctx, "o-claimed", dec("3000"), now)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, store.Withdrawals().Create(ctx, &models.Withdrawal{
		ID: "w1", UserID: user.UserID, Amount: dec("1000"), Fee: dec("80"), NetAmount: dec("920"),
		Phone: "0712345678", Status: models.WithdrawalPending,
	}))
	require.NoError(t, store.Referrals().CreatePair(ctx, &models.ReferralBonus{
		ID: "r1", ReferrerID: user.UserID, ReferredUserID: 20, BonusAmount: dec("150"), BonusStatus: models.BonusPending,
	}))

	return NewService(store, ledgerSvc, WithClock(clock)), store
}

func TestGetAdminDashboard(t *testing.T) {
	svc, _ := setup(t)

	dash, err := svc.GetAdminDashboard(context.Background(), admin)
	require.NoError(t, err)

	assert.Equal(t, int64(1), dash.Wallets.Count)
	assert.True(t, dash.Wallets.TotalBalance.Equal(dec("5000")))

	assert.Equal(t, int64(1), dash.Orders.Active.Count)
	assert.Equal(t, int64(1), dash.Orders.CompletedPending.Count)
	assert.Equal(t, int64(1), dash.Orders.Claimed.Count)
	// 5 days × 100 plus the capped 30000
	assert.True(t, dash.Orders.AccruedEarnings.Equal(dec("30500")), dash.Orders.AccruedEarnings.String())
	assert.True(t, dash.Orders.ClaimedEarnings.Equal(dec("3000")))

	assert.Equal(t, int64(1), dash.Withdrawals[models.WithdrawalPending].Count)
	assert.Equal(t, int64(1), dash.Referrals[models.BonusPending].Count)
	assert.Empty(t, dash.Deposits)
	assert.Equal(t, now, dash.GeneratedAt)
}

func TestGetAdminDashboard_RequiresAdmin(t *testing.T) {
	svc, _ := setup(t)
	_, err := svc.GetAdminDashboard(context.Background(), user)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestGetUserDashboard(t *testing.T) {
	svc, _ := setup(t)

	dash, err := svc.GetUserDashboard(context.Background(), user)
	require.NoError(t, err)
	assert.True(t, dash.Wallet.Balance.Equal(dec("5000")))
	assert.Equal(t, 1, dash.ActiveOrders)
	assert.Equal(t, 1, dash.ClaimableOrders)
	assert.True(t, dash.AccruedEarnings.Equal(dec("30500")))
	require.NotNil(t, dash.PendingWithdrawal)
	assert.Equal(t, "w1", dash.PendingWithdrawal.ID)
	assert.Equal(t, 1, dash.PendingReferrals)
	assert.Len(t, dash.RecentEntries, 1)
}

func TestGetUserDashboard_NewUser(t *testing.T) {
	svc, _ := setup(t)

	dash, err := svc.GetUserDashboard(context.Background(), models.Actor{UserID: 99})
	require.NoError(t, err)
	assert.True(t, dash.Wallet.Balance.IsZero())
	assert.Nil(t, dash.PendingWithdrawal)
	assert.Zero(t, dash.ActiveOrders)
	assert.Empty(t, dash.RecentEntries)
}
