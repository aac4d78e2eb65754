package memstore

import (
	"context"
	"sort"
	"time"

	"hydrofund/internal/models"
	"hydrofund/internal/repositories"
)

type referralRepo struct{ s *Store }

func (r *referralRepo) CreatePair(ctx context.Context, bonus *models.ReferralBonus) error {
	return r.s.do(ctx, func(st *state) error {
		for _, cur := range st.referrals {
			if cur.ID == bonus.ID || (cur.ReferrerID == bonus.ReferrerID && cur.ReferredUserID == bonus.ReferredUserID) {
				return repositories.ErrDuplicate
			}
		}
		r.s.stamp(&bonus.CreatedAt, &bonus.UpdatedAt)
		st.referrals[bonus.ID] = *bonus
		return nil
	})
}

func (r *referralRepo) GetPair(ctx context.Context, referrerID, referredID uint) (*models.ReferralBonus, error) {
	var out *models.ReferralBonus
	err := r.s.do(ctx, func(st *state) error {
		for _, b := range st.referrals {
			if b.ReferrerID == referrerID && b.ReferredUserID == referredID {
				out = &b
				return nil
			}
		}
		return repositories.ErrNotFound
	})
	return out, err
}

func (r *referralRepo) LockPair(ctx context.Context, referrerID, referredID uint) (*models.ReferralBonus, error) {
	return r.GetPair(ctx, referrerID, referredID)
}

func (r *referralRepo) ListByReferrer(ctx context.Context, referrerID uint, limit, offset int) ([]models.ReferralBonus, int64, error) {
	var out []models.ReferralBonus
	var total int64
	err := r.s.do(ctx, func(st *state) error {
		var all []models.ReferralBonus
		for _, b := range st.referrals {
			if b.ReferrerID == referrerID {
				all = append(all, b)
			}
		}
		sort.Slice(all, func(i, j int) bool {
			if all[i].CreatedAt.Equal(all[j].CreatedAt) {
				return all[i].ReferredUserID < all[j].ReferredUserID
			}
			return all[i].CreatedAt.After(all[j].CreatedAt)
		})
		total = int64(len(all))
		from, to := page(len(all), limit, offset)
		out = all[from:to]
		return nil
	})
	return out, total, err
}

func (r *referralRepo) TransitionPair(ctx context.Context, id string, from, to models.BonusStatus, at *time.Time) (bool, error) {
	var ok bool
	err := r.s.do(ctx, func(st *state) error {
		b, found := st.referrals[id]
		if !found || b.BonusStatus != from {
			return nil
		}
		b.BonusStatus = to
		if at != nil {
			t := *at
			b.ClaimedAt = &t
		}
		r.s.stamp(nil, &b.UpdatedAt)
		st.referrals[id] = b
		ok = true
		return nil
	})
	return ok, err
}

func (r *referralRepo) CreateAccountBonus(ctx context.Context, bonus *models.AccountBonus) error {
	return r.s.do(ctx, func(st *state) error {
		if _, ok := st.accountBonuses[bonus.UserID]; ok {
			return repositories.ErrDuplicate
		}
		r.s.stamp(&bonus.CreatedAt, &bonus.UpdatedAt)
		st.accountBonuses[bonus.UserID] = *bonus
		return nil
	})
}

func (r *referralRepo) GetAccountBonus(ctx context.Context, userID uint) (*models.AccountBonus, error) {
	var out *models.AccountBonus
	err := r.s.do(ctx, func(st *state) error {
		b, ok := st.accountBonuses[userID]
		if !ok {
			return repositories.ErrNotFound
		}
		out = &b
		return nil
	})
	return out, err
}

func (r *referralRepo) LockAccountBonus(ctx context.Context, userID uint) (*models.AccountBonus, error) {
	return r.GetAccountBonus(ctx, userID)
}

func (r *referralRepo) TransitionAccountBonus(ctx context.Context, userID uint, from, to models.BonusStatus, at *time.Time) (bool, error) {
	var ok bool
	err := r.s.do(ctx, func(st *state) error {
		b, found := st.accountBonuses[userID]
		if !found || b.Status != from {
			return nil
		}
		b.Status = to
		if at != nil {
			t := *at
			b.ClaimedAt = &t
		}
		r.s.stamp(nil, &b.UpdatedAt)
		st.accountBonuses[userID] = b
		ok = true
		return nil
	})
	return ok, err
}

func (r *referralRepo) Aggregate(ctx context.Context) (map[models.BonusStatus]models.StatusAggregate, error) {
	out := make(map[models.BonusStatus]models.StatusAggregate)
	err := r.s.do(ctx, func(st *state) error {
		for _, b := range st.referrals {
			out[b.BonusStatus] = out[b.BonusStatus].Add(b.BonusAmount)
		}
		return nil
	})
	return out, err
}

type securityRepo struct{ s *Store }

func (r *securityRepo) Get(ctx context.Context, userID uint) (*models.AccountSecurity, error) {
	var out *models.AccountSecurity
	err := r.s.do(ctx, func(st *state) error {
		sec, ok := st.security[userID]
		if !ok {
			return repositories.ErrNotFound
		}
		out = &sec
		return nil
	})
	return out, err
}

func (r *securityRepo) Save(ctx context.Context, sec *models.AccountSecurity) error {
	return r.s.do(ctx, func(st *state) error {
		if cur, ok := st.security[sec.UserID]; ok {
			sec.CreatedAt = cur.CreatedAt
		}
		r.s.stamp(&sec.CreatedAt, &sec.UpdatedAt)
		st.security[sec.UserID] = *sec
		return nil
	})
}
