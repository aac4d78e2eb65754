package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	apperrors "hydrofund/internal/errors"
	"hydrofund/internal/models"
	"hydrofund/internal/repositories/memstore"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockCache struct {
	mock.Mock
}

func (m *MockCache) GetWallet(ctx context.Context, userID uint) (*models.Wallet, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Wallet), args.Error(1)
}

func (m *MockCache) CacheWallet(ctx context.Context, wallet *models.Wallet) error {
	args := m.Called(ctx, wallet)
	return args.Error(0)
}

func (m *MockCache) InvalidateWallet(ctx context.Context, userID uint) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestService(cache WalletCache) (Service, *memstore.Store) {
	store := memstore.New()
	svc := NewService(store, cache, nil, WithClock(func() time.Time { return fixedNow }))
	return svc, store
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func credit(userID uint, amount, key string) Delta {
	return Delta{UserID: userID, Amount: dec(amount), Reason: models.ReasonAdminAdjustment, IdempotencyKey: key}
}

func TestApplyDelta_CreditOpensWallet(t *testing.T) {
	cache := new(MockCache)
	cache.On("CacheWallet", mock.Anything, mock.MatchedBy(func(w *models.Wallet) bool {
		return w.UserID == 1 && w.Version == 1 && w.Balance.Equal(dec("1500.50"))
	})).Return(nil).Once()
	svc, store := newTestService(cache)

	res, err := svc.ApplyDelta(context.Background(), credit(1, "1500.50", "seed:1"))
	require.NoError(t, err)
	assert.False(t, res.Replayed)
	assert.True(t, res.Entry.BalanceAfter.Equal(dec("1500.50")))
	assert.Equal(t, fixedNow, res.Entry.CreatedAt)

	w, err := store.Wallets().GetByUserID(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, w.Balance.Equal(dec("1500.50")))
	assert.Equal(t, "KES", w.Currency)
	cache.AssertExpectations(t)
}

func TestApplyDelta_RejectsNegativeBalance(t *testing.T) {
	svc, store := newTestService(nil)
	ctx := context.Background()
	_, err := svc.ApplyDelta(ctx, credit(1, "100", "seed"))
	require.NoError(t, err)

	_, err = svc.ApplyDelta(ctx, Delta{UserID: 1, Amount: dec("-100.01"), Reason: models.ReasonOrderCreate, IdempotencyKey: "order:x:create"})
	assert.ErrorIs(t, err, apperrors.ErrInsufficientBalance)

	w, _ := store.Wallets().GetByUserID(ctx, 1)
	assert.True(t, w.Balance.Equal(dec("100")))
	_, err = store.Entries().GetByKey(ctx, "order:x:create")
	assert.Error(t, err)
}

func TestApplyDelta_DebitWithoutWallet(t *testing.T) {
	svc, _ := newTestService(nil)
	_, err := svc.ApplyDelta(context.Background(), Delta{UserID: 9, Amount: dec("-1"), Reason: models.ReasonOrderCreate, IdempotencyKey: "k"})
	assert.ErrorIs(t, err, apperrors.ErrWalletNotFound)
}

func TestApplyDelta_ReplayAppliesOnce(t *testing.T) {
	svc, store := newTestService(nil)
	ctx := context.Background()

	first, err := svc.ApplyDelta(ctx, credit(1, "250", "deposit:d1:approve"))
	require.NoError(t, err)

	second, err := svc.ApplyDelta(ctx, credit(1, "250", "deposit:d1:approve"))
	require.NoError(t, err)
	assert.True(t, second.Replayed)
	assert.Equal(t, first.Entry.ID, second.Entry.ID)

	w, _ := store.Wallets().GetByUserID(ctx, 1)
	assert.True(t, w.Balance.Equal(dec("250")))
}

func TestApplyDelta_KeyReuseWithDifferentAmount(t *testing.T) {
	svc, _ := newTestService(nil)
	ctx := context.Background()

	_, err := svc.ApplyDelta(ctx, credit(1, "250", "k1"))
	require.NoError(t, err)
	_, err = svc.ApplyDelta(ctx, credit(1, "300", "k1"))
	assert.ErrorIs(t, err, apperrors.ErrIdempotencyMismatch)
}

func TestApplyDelta_Validation(t *testing.T) {
	svc, _ := newTestService(nil)
	tests := []struct {
		name  string
		delta Delta
		want  error
	}{
		{"zero amount", credit(1, "0", "k"), apperrors.ErrInvalidAmount},
		{"sub-cent amount", credit(1, "0.001", "k"), apperrors.ErrInvalidAmount},
		{"missing key", credit(1, "10", ""), apperrors.ErrMissingIdempotencyKey},
		{"unknown reason", Delta{UserID: 1, Amount: dec("10"), Reason: "gift", IdempotencyKey: "k"}, apperrors.ErrInvalidReason},
		{"missing user", credit(0, "10", "k"), apperrors.ErrInvalidRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ApplyDelta(context.Background(), tt.delta)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestApplyDelta_MinBalanceFloor(t *testing.T) {
	svc, _ := newTestService(nil)
	ctx := context.Background()
	_, err := svc.ApplyDelta(ctx, credit(1, "2000", "seed"))
	require.NoError(t, err)

	floor := Delta{UserID: 1, Amount: dec("-1000"), Reason: models.ReasonOrderCreate, IdempotencyKey: "o1", MinBalance: dec("1080")}
	_, err = svc.ApplyDelta(ctx, floor)
	assert.ErrorIs(t, err, apperrors.ErrInsufficientBalance)

	floor.Amount = dec("-920")
	res, err := svc.ApplyDelta(ctx, floor)
	require.NoError(t, err)
	assert.True(t, res.Wallet.Balance.Equal(dec("1080")))
}

func TestApplyDelta_Counters(t *testing.T) {
	svc, store := newTestService(nil)
	ctx := context.Background()
	_, err := svc.ApplyDelta(ctx, credit(1, "5000", "seed"))
	require.NoError(t, err)
	_, err = svc.ApplyDelta(ctx, Delta{UserID: 1, Amount: dec("-2000"), Reason: models.ReasonOrderCreate, IdempotencyKey: "order:o1:create"})
	require.NoError(t, err)
	_, err = svc.ApplyDelta(ctx, Delta{UserID: 1, Amount: dec("-1080"), Reason: models.ReasonWithdrawal, IdempotencyKey: "withdrawal:w1:settle"})
	require.NoError(t, err)

	w, _ := store.Wallets().GetByUserID(ctx, 1)
	assert.True(t, w.Balance.Equal(dec("1920")))
	assert.True(t, w.TotalInvested.Equal(dec("2000")))
	assert.True(t, w.TotalWithdrawn.Equal(dec("1080")))
}

func TestApplyDelta_ConcurrentDebitsNeverOverdraw(t *testing.T) {
	svc, store := newTestService(nil)
	ctx := context.Background()
	_, err := svc.ApplyDelta(ctx, credit(1, "1000", "seed"))
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.ApplyDelta(ctx, Delta{UserID: 1, Amount: dec("-100"), Reason: models.ReasonOrderCreate, IdempotencyKey: fmt.Sprintf("order:%d:create", i)})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, apperrors.ErrInsufficientBalance)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 10, succeeded)
	w, _ := store.Wallets().GetByUserID(ctx, 1)
	assert.True(t, w.Balance.IsZero())
}

func TestApplyDelta_TransientStoreFailure(t *testing.T) {
	svc, store := newTestService(nil)
	store.FailWith(errors.New("i/o timeout"))

	_, err := svc.ApplyDelta(context.Background(), credit(1, "10", "k"))
	assert.Equal(t, apperrors.KindTransient, apperrors.KindOf(err))
}

func TestGetWallet_CacheFirst(t *testing.T) {
	cached := &models.Wallet{UserID: 3, Balance: dec("42")}
	cache := new(MockCache)
	cache.On("GetWallet", mock.Anything, uint(3)).Return(cached, nil)
	svc, _ := newTestService(cache)

	w, err := svc.GetWallet(context.Background(), 3)
	require.NoError(t, err)
	assert.Same(t, cached, w)
	cache.AssertExpectations(t)
}

func TestGetWallet_MissFillsCache(t *testing.T) {
	cache := new(MockCache)
	cache.On("GetWallet", mock.Anything, uint(4)).Return(nil, nil)
	cache.On("CacheWallet", mock.Anything, mock.AnythingOfType("*models.Wallet")).Return(nil)
	svc, _ := newTestService(cache)

	_, err := svc.ApplyDelta(context.Background(), credit(4, "10", "seed"))
	require.NoError(t, err)

	w, err := svc.GetWallet(context.Background(), 4)
	require.NoError(t, err)
	assert.True(t, w.Balance.Equal(dec("10")))
	cache.AssertCalled(t, "CacheWallet", mock.Anything, mock.AnythingOfType("*models.Wallet"))
}

func TestEnsureWallet(t *testing.T) {
	svc, _ := newTestService(nil)
	ctx := context.Background()

	_, err := svc.GetWallet(ctx, 5)
	assert.ErrorIs(t, err, apperrors.ErrWalletNotFound)

	w, err := svc.EnsureWallet(ctx, 5)
	require.NoError(t, err)
	assert.True(t, w.Balance.IsZero())
}

func TestListEntries_NewestFirst(t *testing.T) {
	svc, _ := newTestService(nil)
	ctx := context.Background()
	for i := 1; i <= 3; i++ {
		_, err := svc.ApplyDelta(ctx, credit(1, fmt.Sprintf("%d", i*10), fmt.Sprintf("k%d", i)))
		require.NoError(t, err)
	}

	entries, total, err := svc.ListEntries(ctx, 1, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, entries, 2)
	assert.Equal(t, "k3", entries[0].IdempotencyKey)
	assert.Equal(t, "k2", entries[1].IdempotencyKey)
}

// versionedCache keeps the highest version per user. beforeStore runs once,
// ahead of the first write, to interleave a commit with a cache fill.
type versionedCache struct {
	mu          sync.Mutex
	wallets     map[uint]models.Wallet
	beforeStore func()
}

func newVersionedCache() *versionedCache {
	return &versionedCache{wallets: map[uint]models.Wallet{}}
}

func (c *versionedCache) GetWallet(_ context.Context, userID uint) (*models.Wallet, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	w, ok := c.wallets[userID]
	if !ok {
		return nil, nil
	}
	return &w, nil
}

func (c *versionedCache) CacheWallet(_ context.Context, wallet *models.Wallet) error {
	c.mu.Lock()
	hook := c.beforeStore
	c.beforeStore = nil
	c.mu.Unlock()
	if hook != nil {
		hook()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if cur, ok := c.wallets[wallet.UserID]; ok && cur.Version >= wallet.Version {
		return nil
	}
	c.wallets[wallet.UserID] = *wallet
	return nil
}

func (c *versionedCache) InvalidateWallet(_ context.Context, userID uint) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.wallets, userID)
	return nil
}

func TestGetWallet_StaleFillLosesToCommittedDelta(t *testing.T) {
	cache := newVersionedCache()
	svc, store := newTestService(cache)
	ctx := context.Background()

	_, err := svc.ApplyDelta(ctx, credit(6, "100", "seed"))
	require.NoError(t, err)
	require.NoError(t, cache.InvalidateWallet(ctx, 6))

	// The reader has loaded balance 100 from the store; a credit commits
	// before its snapshot reaches the cache.
	cache.beforeStore = func() {
		_, err := svc.ApplyDelta(ctx, credit(6, "900", "late"))
		require.NoError(t, err)
	}
	w, err := svc.GetWallet(ctx, 6)
	require.NoError(t, err)
	assert.True(t, w.Balance.Equal(dec("100")))

	w, err = svc.GetWallet(ctx, 6)
	require.NoError(t, err)
	assert.True(t, w.Balance.Equal(dec("1000")), "cached balance %s", w.Balance)
	assert.Equal(t, int64(2), w.Version)

	stored, err := store.Wallets().GetByUserID(ctx, 6)
	require.NoError(t, err)
	assert.Equal(t, stored.Version, w.Version)
}

func TestInvalidate_DropsKeyWhenRefreshFails(t *testing.T) {
	cache := new(MockCache)
	cache.On("CacheWallet", mock.Anything, mock.AnythingOfType("*models.Wallet")).Return(errors.New("redis down"))
	cache.On("InvalidateWallet", mock.Anything, uint(7)).Return(nil)
	svc, _ := newTestService(cache)

	_, err := svc.ApplyDelta(context.Background(), credit(7, "10", "seed"))
	require.NoError(t, err)
	cache.AssertCalled(t, "InvalidateWallet", mock.Anything, uint(7))
}
