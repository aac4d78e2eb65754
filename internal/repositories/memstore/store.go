// Package memstore is an in-memory repositories.Store. One mutex serializes
// every transaction, so it gives the same isolation the postgres store gets
// from row locks. It backs the test suites and STORE_DRIVER=memory.
package memstore

import (
	"context"
	"sync"
	"time"

	apperrors "hydrofund/internal/errors"
	"hydrofund/internal/models"
	"hydrofund/internal/repositories"
)

type state struct {
	wallets      map[uint]models.Wallet
	nextWalletID uint

	entries     map[string]models.LedgerEntry
	entryKeys   []string
	nextEntryID uint

	orders     map[string]models.InvestmentOrder
	nextItemID uint

	withdrawals map[string]models.Withdrawal
	deposits    map[string]models.Deposit

	referrals      map[string]models.ReferralBonus
	accountBonuses map[uint]models.AccountBonus
	security       map[uint]models.AccountSecurity
}

func newState() *state {
	return &state{
		wallets:        make(map[uint]models.Wallet),
		entries:        make(map[string]models.LedgerEntry),
		orders:         make(map[string]models.InvestmentOrder),
		withdrawals:    make(map[string]models.Withdrawal),
		deposits:       make(map[string]models.Deposit),
		referrals:      make(map[string]models.ReferralBonus),
		accountBonuses: make(map[uint]models.AccountBonus),
		security:       make(map[uint]models.AccountSecurity),
	}
}

func (st *state) clone() *state {
	cp := *st
	cp.wallets = copyMap(st.wallets)
	cp.entries = copyMap(st.entries)
	cp.entryKeys = append([]string(nil), st.entryKeys...)
	cp.orders = make(map[string]models.InvestmentOrder, len(st.orders))
	for id, o := range st.orders {
		cp.orders[id] = copyOrder(o)
	}
	cp.withdrawals = copyMap(st.withdrawals)
	cp.deposits = copyMap(st.deposits)
	cp.referrals = copyMap(st.referrals)
	cp.accountBonuses = copyMap(st.accountBonuses)
	cp.security = copyMap(st.security)
	return &cp
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyOrder(o models.InvestmentOrder) models.InvestmentOrder {
	o.Items = append([]models.OrderItem(nil), o.Items...)
	return o
}

type shared struct {
	mu   sync.Mutex
	st   *state
	fail error
	now  func() time.Time
}

// Store implements repositories.Store.
type Store struct {
	sh   *shared
	inTx bool
}

var _ repositories.Store = (*Store)(nil)

func New() *Store {
	return &Store{sh: &shared{
		st:  newState(),
		now: func() time.Time { return time.Now().UTC() },
	}}
}

// FailWith makes every following operation fail with a transient error
// wrapping err. FailWith(nil) restores normal operation.
func (s *Store) FailWith(err error) {
	s.sh.mu.Lock()
	defer s.sh.mu.Unlock()
	s.sh.fail = err
}

func (s *Store) Wallets() repositories.WalletRepository         { return &walletRepo{s} }
func (s *Store) Entries() repositories.LedgerEntryRepository    { return &entryRepo{s} }
func (s *Store) Orders() repositories.OrderRepository           { return &orderRepo{s} }
func (s *Store) Withdrawals() repositories.WithdrawalRepository { return &withdrawalRepo{s} }
func (s *Store) Deposits() repositories.DepositRepository       { return &depositRepo{s} }
func (s *Store) Referrals() repositories.ReferralRepository     { return &referralRepo{s} }
func (s *Store) Security() repositories.SecurityRepository      { return &securityRepo{s} }

func (s *Store) ExecuteInTransaction(ctx context.Context, fn func(repositories.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	s.sh.mu.Lock()
	defer s.sh.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return apperrors.Transient(err)
	}
	if s.sh.fail != nil {
		return apperrors.Transient(s.sh.fail)
	}
	snapshot := s.sh.st.clone()
	if err := fn(&Store{sh: s.sh, inTx: true}); err != nil {
		s.sh.st = snapshot
		return err
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.do(ctx, func(*state) error { return nil })
}

// do runs fn against the current state, taking the lock unless the caller is
// already inside a transaction.
func (s *Store) do(ctx context.Context, fn func(st *state) error) error {
	if !s.inTx {
		s.sh.mu.Lock()
		defer s.sh.mu.Unlock()
	}
	if err := ctx.Err(); err != nil {
		return apperrors.Transient(err)
	}
	if s.sh.fail != nil {
		return apperrors.Transient(s.sh.fail)
	}
	return fn(s.sh.st)
}

func (s *Store) stamp(created, updated *time.Time) {
	now := s.sh.now()
	if created != nil && created.IsZero() {
		*created = now
	}
	if updated != nil {
		*updated = now
	}
}

// page returns the [offset, offset+limit) window of n items.
func page(n, limit, offset int) (int, int) {
	if offset >= n || offset < 0 {
		return n, n
	}
	end := n
	if limit > 0 && offset+limit < n {
		end = offset + limit
	}
	return offset, end
}
