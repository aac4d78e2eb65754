package withdrawal

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"hydrofund/internal/config"
	apperrors "hydrofund/internal/errors"
	"hydrofund/internal/models"
	"hydrofund/internal/repositories/memstore"
	"hydrofund/internal/services/ledger"
	"hydrofund/internal/services/notification"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []notification.Event
}

func (p *recordingPublisher) Publish(e notification.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) kinds() []notification.EventKind {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []notification.EventKind
	for _, e := range p.events {
		out = append(out, e.Kind)
	}
	return out
}

var (
	now   = time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC)
	user  = models.Actor{UserID: 10, Role: models.RoleUser}
	admin = models.Actor{UserID: 1, Role: models.RoleAdmin}
)

type fixture struct {
	store  *memstore.Store
	ledger ledger.Service
	svc    Service
	pub    *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := func() time.Time { return now }
	store := memstore.New()
	ledgerSvc := ledger.NewService(store, nil, nil, ledger.WithClock(clock))
	pub := &recordingPublisher{}
	svc := NewService(store, ledgerSvc, pub, config.DefaultLedgerConfig(), WithClock(clock))
	return &fixture{store: store, ledger: ledgerSvc, svc: svc, pub: pub}
}

func (f *fixture) fund(t *testing.T, userID uint, amount string) {
	t.Helper()
	_, err := f.ledger.ApplyDelta(context.Background(), ledger.Delta{
		UserID:         userID,
		Amount:         dec(amount),
		Reason:         models.ReasonDepositApprove,
		IdempotencyKey: "seed:" + amount,
	})
	require.NoError(t, err)
}

func (f *fixture) wallet(t *testing.T, userID uint) *models.Wallet {
	t.Helper()
	w, err := f.store.Wallets().GetByUserID(context.Background(), userID)
	require.NoError(t, err)
	return w
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestQuote(t *testing.T) {
	f := newFixture(t)
	q := f.svc.Quote(dec("1000"))
	assert.Equal(t, "80.00", q.Fee.StringFixed(2))
	assert.Equal(t, "920.00", q.Net.StringFixed(2))
	assert.Equal(t, "1080.00", q.Debit.StringFixed(2))

	q = f.svc.Quote(dec("512.37"))
	assert.True(t, q.Fee.Equal(dec("40.99")))
	assert.True(t, q.Net.Equal(dec("471.38")))
}

func TestRequest_Validation(t *testing.T) {
	f := newFixture(t)
	f.fund(t, user.UserID, "100000")
	ctx := context.Background()

	tests := []struct {
		name string
		req  Request
		want error
	}{
		{"below minimum", Request{Amount: dec("499.99"), Phone: "0712345678"}, apperrors.ErrInvalidAmount},
		{"above maximum", Request{Amount: dec("500000.01"), Phone: "0712345678"}, apperrors.ErrInvalidAmount},
		{"fractional cents", Request{Amount: dec("600.001"), Phone: "0712345678"}, apperrors.ErrInvalidAmount},
		{"bad phone", Request{Amount: dec("600"), Phone: "12345"}, apperrors.ErrInvalidPhone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Request(ctx, user, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRequest_DoesNotDebit(t *testing.T) {
	f := newFixture(t)
	f.fund(t, user.UserID, "1080")

	w, err := f.svc.Request(context.Background(), user, Request{Amount: dec("1000"), Phone: "0712 345 678"})
	require.NoError(t, err)
	assert.Equal(t, models.WithdrawalPending, w.Status)
	assert.Equal(t, "0712345678", w.Phone)
	assert.True(t, w.Fee.Equal(dec("80")))
	assert.True(t, w.NetAmount.Equal(dec("920")))
	assert.True(t, f.wallet(t, user.UserID).Balance.Equal(dec("1080")))
	assert.Equal(t, []notification.EventKind{notification.WithdrawalRequested}, f.pub.kinds())
}

func TestRequest_InsufficientBalanceIncludesFee(t *testing.T) {
	f := newFixture(t)
	f.fund(t, user.UserID, "1079.99")

	_, err := f.svc.Request(context.Background(), user, Request{Amount: dec("1000"), Phone: "0712345678"})
	assert.ErrorIs(t, err, apperrors.ErrInsufficientBalance)

	_, err = f.svc.Request(context.Background(), models.Actor{UserID: 99}, Request{Amount: dec("1000"), Phone: "0712345678"})
	assert.ErrorIs(t, err, apperrors.ErrInsufficientBalance)
}

func TestRequest_OnePendingPerUser(t *testing.T) {
	f := newFixture(t)
	f.fund(t, user.UserID, "10000")
	ctx := context.Background()

	_, err := f.svc.Request(ctx, user, Request{Amount: dec("1000"), Phone: "0712345678"})
	require.NoError(t, err)
	_, err = f.svc.Request(ctx, user, Request{Amount: dec("500"), Phone: "0712345678"})
	assert.ErrorIs(t, err, apperrors.ErrDuplicatePending)
}

func TestRequest_ConcurrentRequestsLeaveOnePending(t *testing.T) {
	f := newFixture(t)
	f.fund(t, user.UserID, "100000")
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Request(ctx, user, Request{Amount: dec("1000"), Phone: "0712345678"})
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
		} else {
			assert.ErrorIs(t, err, apperrors.ErrDuplicatePending)
		}
	}
	assert.Equal(t, 1, ok)
}

func TestApprove_DebitsAmountPlusFee(t *testing.T) {
	f := newFixture(t)
	f.fund(t, user.UserID, "5000")
	ctx := context.Background()

	req, err := f.svc.Request(ctx, user, Request{Amount: dec("1000"), Phone: "0712345678"})
	require.NoError(t, err)

	w, err := f.svc.Approve(ctx, admin, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.WithdrawalCompleted, w.Status)
	require.NotNil(t, w.ProcessedAt)
	assert.Equal(t, now, *w.ProcessedAt)
	require.NotNil(t, w.ProcessedBy)
	assert.Equal(t, admin.UserID, *w.ProcessedBy)

	wallet := f.wallet(t, user.UserID)
	assert.True(t, wallet.Balance.Equal(dec("3920")))
	assert.True(t, wallet.TotalWithdrawn.Equal(dec("1080")))

	again, err := f.svc.Approve(ctx, admin, req.ID)
	assert.ErrorIs(t, err, apperrors.ErrWithdrawalAlreadyCompleted)
	assert.True(t, apperrors.IsAlreadyProcessed(err))
	require.NotNil(t, again)
	assert.Equal(t, req.ID, again.ID)
	assert.True(t, f.wallet(t, user.UserID).Balance.Equal(dec("3920")))

	assert.Equal(t, []notification.EventKind{notification.WithdrawalRequested, notification.WithdrawalCompleted}, f.pub.kinds())
}

func TestApprove_ConcurrentApprovalsDebitOnce(t *testing.T) {
	f := newFixture(t)
	f.fund(t, user.UserID, "5000")
	ctx := context.Background()
	req, err := f.svc.Request(ctx, user, Request{Amount: dec("1000"), Phone: "0712345678"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Approve(ctx, admin, req.ID)
			if err != nil {
				assert.ErrorIs(t, err, apperrors.ErrWithdrawalAlreadyCompleted)
			}
		}()
	}
	wg.Wait()

	assert.True(t, f.wallet(t, user.UserID).Balance.Equal(dec("3920")))
}

func TestApprove_RequiresAdmin(t *testing.T) {
	f := newFixture(t)
	f.fund(t, user.UserID, "5000")
	req, err := f.svc.Request(context.Background(), user, Request{Amount: dec("1000"), Phone: "0712345678"})
	require.NoError(t, err)

	_, err = f.svc.Approve(context.Background(), user, req.ID)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = f.svc.Approve(context.Background(), admin, "nope")
	assert.ErrorIs(t, err, apperrors.ErrWithdrawalNotFound)
}

func TestApprove_FailsWhenBalanceWasSpent(t *testing.T) {
	f := newFixture(t)
	f.fund(t, user.UserID, "1080")
	ctx := context.Background()
	req, err := f.svc.Request(ctx, user, Request{Amount: dec("1000"), Phone: "0712345678"})
	require.NoError(t, err)

	_, err = f.ledger.ApplyDelta(ctx, ledger.Delta{
		UserID: user.UserID, Amount: dec("-100"), Reason: models.ReasonAdminAdjustment, IdempotencyKey: "adj:1",
	})
	require.NoError(t, err)

	_, err = f.svc.Approve(ctx, admin, req.ID)
	assert.ErrorIs(t, err, apperrors.ErrInsufficientBalance)

	got, err := f.svc.Get(ctx, admin, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.WithdrawalPending, got.Status)
	assert.True(t, f.wallet(t, user.UserID).Balance.Equal(dec("980")))
}

func TestRejectedWithdrawalScenario(t *testing.T) {
	f := newFixture(t)
	f.fund(t, user.UserID, "2000")
	ctx := context.Background()

	req, err := f.svc.Request(ctx, user, Request{Amount: dec("1000"), Phone: "0712345678"})
	require.NoError(t, err)

	code := models.RejectInvalidAccount
	reason := "  M-Pesa name does not match the account holder  "
	w, err := f.svc.Reject(ctx, admin, req.ID, Rejection{Reason: reason, Code: &code})
	require.NoError(t, err)
	assert.Equal(t, models.WithdrawalRejected, w.Status)
	require.NotNil(t, w.AdminInfo)
	assert.Equal(t, reason, *w.AdminInfo)
	require.NotNil(t, w.RejectionCode)
	assert.Equal(t, code, *w.RejectionCode)
	assert.True(t, f.wallet(t, user.UserID).Balance.Equal(dec("2000")))

	_, err = f.svc.Approve(ctx, admin, req.ID)
	assert.ErrorIs(t, err, apperrors.ErrWithdrawalClosed)

	_, err = f.svc.Reject(ctx, admin, req.ID, Rejection{Reason: "again"})
	assert.ErrorIs(t, err, apperrors.ErrWithdrawalAlreadyRejected)

	// a rejected request no longer blocks a new one
	_, err = f.svc.Request(ctx, user, Request{Amount: dec("500"), Phone: "0712345678"})
	assert.NoError(t, err)
}

func TestReject_Validation(t *testing.T) {
	f := newFixture(t)
	bad := models.RejectionCode("vibes")

	_, err := f.svc.Reject(context.Background(), admin, "w", Rejection{Reason: "   "})
	assert.ErrorIs(t, err, apperrors.ErrMissingReason)
	_, err = f.svc.Reject(context.Background(), admin, "w", Rejection{Reason: "x", Code: &bad})
	assert.ErrorIs(t, err, apperrors.ErrInvalidRejectionCode)
	_, err = f.svc.Reject(context.Background(), user, "w", Rejection{Reason: "x"})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestCancel(t *testing.T) {
	f := newFixture(t)
	f.fund(t, user.UserID, "2000")
	ctx := context.Background()
	req, err := f.svc.Request(ctx, user, Request{Amount: dec("1000"), Phone: "0712345678"})
	require.NoError(t, err)

	_, err = f.svc.Cancel(ctx, models.Actor{UserID: 11}, req.ID, "")
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	w, err := f.svc.Cancel(ctx, user, req.ID, "")
	require.NoError(t, err)
	assert.Equal(t, models.WithdrawalCanceled, w.Status)
	assert.Nil(t, w.AdminInfo)

	_, err = f.svc.Cancel(ctx, user, req.ID, "")
	assert.ErrorIs(t, err, apperrors.ErrWithdrawalAlreadyCanceled)

	_, err = f.svc.Approve(ctx, admin, req.ID)
	assert.ErrorIs(t, err, apperrors.ErrWithdrawalClosed)
	assert.True(t, f.wallet(t, user.UserID).Balance.Equal(dec("2000")))
}

func TestListByStatus_AdminOnly(t *testing.T) {
	f := newFixture(t)
	f.fund(t, user.UserID, "2000")
	ctx := context.Background()
	_, err := f.svc.Request(ctx, user, Request{Amount: dec("1000"), Phone: "0712345678"})
	require.NoError(t, err)

	list, total, err := f.svc.ListByStatus(ctx, admin, models.WithdrawalPending, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, list, 1)

	_, _, err = f.svc.ListByStatus(ctx, user, models.WithdrawalPending, 10, 0)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestCancel_StoresReason(t *testing.T) {
	f := newFixture(t)
	f.fund(t, user.UserID, "2000")
	ctx := context.Background()
	req, err := f.svc.Request(ctx, user, Request{Amount: dec("1000"), Phone: "0712345678"})
	require.NoError(t, err)

	_, err = f.svc.Cancel(ctx, user, req.ID, strings.Repeat("x", 501))
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	w, err := f.svc.Cancel(ctx, user, req.ID, "  wrong phone number  ")
	require.NoError(t, err)
	require.NotNil(t, w.AdminInfo)
	assert.Equal(t, "wrong phone number", *w.AdminInfo)

	stored, err := f.svc.Get(ctx, user, req.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.AdminInfo)
	assert.Equal(t, "wrong phone number", *stored.AdminInfo)
}
