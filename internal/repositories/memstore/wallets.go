package memstore

import (
	"context"
	"sort"

	"hydrofund/internal/models"
	"hydrofund/internal/repositories"

	"github.com/shopspring/decimal"
)

type walletRepo struct{ s *Store }

func (r *walletRepo) Ensure(ctx context.Context, wallet *models.Wallet) error {
	return r.s.do(ctx, func(st *state) error {
		if _, ok := st.wallets[wallet.UserID]; ok {
			return nil
		}
		// same as the model's BeforeCreate hook
		wallet.Balance = decimal.Zero
		wallet.TotalInvested = decimal.Zero
		wallet.TotalWithdrawn = decimal.Zero
		wallet.Version = 0
		st.nextWalletID++
		wallet.ID = st.nextWalletID
		r.s.stamp(&wallet.CreatedAt, &wallet.UpdatedAt)
		st.wallets[wallet.UserID] = *wallet
		return nil
	})
}

func (r *walletRepo) GetByUserID(ctx context.Context, userID uint) (*models.Wallet, error) {
	var out *models.Wallet
	err := r.s.do(ctx, func(st *state) error {
		w, ok := st.wallets[userID]
		if !ok {
			return repositories.ErrNotFound
		}
		out = &w
		return nil
	})
	return out, err
}

func (r *walletRepo) LockByUserID(ctx context.Context, userID uint) (*models.Wallet, error) {
	return r.GetByUserID(ctx, userID)
}

func (r *walletRepo) Update(ctx context.Context, wallet *models.Wallet) error {
	return r.s.do(ctx, func(st *state) error {
		cur, ok := st.wallets[wallet.UserID]
		if !ok {
			return repositories.ErrNotFound
		}
		cur.Balance = wallet.Balance
		cur.TotalInvested = wallet.TotalInvested
		cur.TotalWithdrawn = wallet.TotalWithdrawn
		cur.Version = wallet.Version
		r.s.stamp(nil, &cur.UpdatedAt)
		wallet.UpdatedAt = cur.UpdatedAt
		st.wallets[wallet.UserID] = cur
		return nil
	})
}

func (r *walletRepo) TotalBalance(ctx context.Context) (decimal.Decimal, error) {
	total := decimal.Zero
	err := r.s.do(ctx, func(st *state) error {
		for _, w := range st.wallets {
			total = total.Add(w.Balance)
		}
		return nil
	})
	return total, err
}

func (r *walletRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.s.do(ctx, func(st *state) error {
		n = int64(len(st.wallets))
		return nil
	})
	return n, err
}

type entryRepo struct{ s *Store }

func (r *entryRepo) Create(ctx context.Context, entry *models.LedgerEntry) error {
	return r.s.do(ctx, func(st *state) error {
		if _, ok := st.entries[entry.IdempotencyKey]; ok {
			return repositories.ErrDuplicate
		}
		st.nextEntryID++
		entry.ID = st.nextEntryID
		r.s.stamp(&entry.CreatedAt, nil)
		st.entries[entry.IdempotencyKey] = *entry
		st.entryKeys = append(st.entryKeys, entry.IdempotencyKey)
		return nil
	})
}

func (r *entryRepo) GetByKey(ctx context.Context, key string) (*models.LedgerEntry, error) {
	var out *models.LedgerEntry
	err := r.s.do(ctx, func(st *state) error {
		e, ok := st.entries[key]
		if !ok {
			return repositories.ErrNotFound
		}
		out = &e
		return nil
	})
	return out, err
}

func (r *entryRepo) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]models.LedgerEntry, int64, error) {
	var out []models.LedgerEntry
	var total int64
	err := r.s.do(ctx, func(st *state) error {
		var all []models.LedgerEntry
		for i := len(st.entryKeys) - 1; i >= 0; i-- {
			if e := st.entries[st.entryKeys[i]]; e.UserID == userID {
				all = append(all, e)
			}
		}
		sort.SliceStable(all, func(i, j int) bool {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		})
		total = int64(len(all))
		from, to := page(len(all), limit, offset)
		out = all[from:to]
		return nil
	})
	return out, total, err
}
