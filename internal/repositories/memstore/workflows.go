package memstore

import (
	"context"
	"sort"
	"time"

	"hydrofund/internal/models"
	"hydrofund/internal/repositories"
)

type withdrawalRepo struct{ s *Store }

func (r *withdrawalRepo) Create(ctx context.Context, w *models.Withdrawal) error {
	return r.s.do(ctx, func(st *state) error {
		if _, ok := st.withdrawals[w.ID]; ok {
			return repositories.ErrDuplicate
		}
		if w.Status == models.WithdrawalPending {
			for _, cur := range st.withdrawals {
				if cur.UserID == w.UserID && cur.Status == models.WithdrawalPending {
					return repositories.ErrDuplicate
				}
			}
		}
		r.s.stamp(&w.CreatedAt, &w.UpdatedAt)
		st.withdrawals[w.ID] = *w
		return nil
	})
}

func (r *withdrawalRepo) GetByID(ctx context.Context, id string) (*models.Withdrawal, error) {
	var out *models.Withdrawal
	err := r.s.do(ctx, func(st *state) error {
		w, ok := st.withdrawals[id]
		if !ok {
			return repositories.ErrNotFound
		}
		out = &w
		return nil
	})
	return out, err
}

func (r *withdrawalRepo) LockByID(ctx context.Context, id string) (*models.Withdrawal, error) {
	return r.GetByID(ctx, id)
}

func (r *withdrawalRepo) GetPendingByUser(ctx context.Context, userID uint) (*models.Withdrawal, error) {
	var out *models.Withdrawal
	err := r.s.do(ctx, func(st *state) error {
		for _, w := range st.withdrawals {
			if w.UserID == userID && w.Status == models.WithdrawalPending {
				out = &w
				return nil
			}
		}
		return repositories.ErrNotFound
	})
	return out, err
}

func (r *withdrawalRepo) list(ctx context.Context, match func(models.Withdrawal) bool, newestFirst bool, limit, offset int) ([]models.Withdrawal, int64, error) {
	var out []models.Withdrawal
	var total int64
	err := r.s.do(ctx, func(st *state) error {
		var all []models.Withdrawal
		for _, w := range st.withdrawals {
			if match(w) {
				all = append(all, w)
			}
		}
		sort.Slice(all, func(i, j int) bool {
			if newestFirst {
				return all[i].CreatedAt.After(all[j].CreatedAt)
			}
			return all[i].CreatedAt.Before(all[j].CreatedAt)
		})
		total = int64(len(all))
		from, to := page(len(all), limit, offset)
		out = all[from:to]
		return nil
	})
	return out, total, err
}

func (r *withdrawalRepo) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]models.Withdrawal, int64, error) {
	return r.list(ctx, func(w models.Withdrawal) bool { return w.UserID == userID }, true, limit, offset)
}

func (r *withdrawalRepo) ListByStatus(ctx context.Context, status models.WithdrawalStatus, limit, offset int) ([]models.Withdrawal, int64, error) {
	return r.list(ctx, func(w models.Withdrawal) bool { return w.Status == status }, false, limit, offset)
}

func (r *withdrawalRepo) Transition(ctx context.Context, id string, from, to models.WithdrawalStatus, update models.WithdrawalTransition) (bool, error) {
	var ok bool
	err := r.s.do(ctx, func(st *state) error {
		w, found := st.withdrawals[id]
		if !found || w.Status != from {
			return nil
		}
		w.Status = to
		processedBy := update.ProcessedBy
		processedAt := update.ProcessedAt
		w.ProcessedBy = &processedBy
		w.ProcessedAt = &processedAt
		if update.AdminInfo != nil {
			info := *update.AdminInfo
			w.AdminInfo = &info
		}
		if update.RejectionCode != nil {
			code := *update.RejectionCode
			w.RejectionCode = &code
		}
		r.s.stamp(nil, &w.UpdatedAt)
		st.withdrawals[id] = w
		ok = true
		return nil
	})
	return ok, err
}

func (r *withdrawalRepo) Aggregate(ctx context.Context) (map[models.WithdrawalStatus]models.StatusAggregate, error) {
	out := make(map[models.WithdrawalStatus]models.StatusAggregate)
	err := r.s.do(ctx, func(st *state) error {
		for _, w := range st.withdrawals {
			out[w.Status] = out[w.Status].Add(w.Amount)
		}
		return nil
	})
	return out, err
}

type depositRepo struct{ s *Store }

func (r *depositRepo) Create(ctx context.Context, d *models.Deposit) error {
	return r.s.do(ctx, func(st *state) error {
		for _, cur := range st.deposits {
			if cur.ID == d.ID || cur.Code == d.Code {
				return repositories.ErrDuplicate
			}
		}
		r.s.stamp(&d.CreatedAt, &d.UpdatedAt)
		st.deposits[d.ID] = *d
		return nil
	})
}

func (r *depositRepo) GetByID(ctx context.Context, id string) (*models.Deposit, error) {
	var out *models.Deposit
	err := r.s.do(ctx, func(st *state) error {
		d, ok := st.deposits[id]
		if !ok {
			return repositories.ErrNotFound
		}
		out = &d
		return nil
	})
	return out, err
}

func (r *depositRepo) LockByID(ctx context.Context, id string) (*models.Deposit, error) {
	return r.GetByID(ctx, id)
}

func (r *depositRepo) list(ctx context.Context, match func(models.Deposit) bool, newestFirst bool, limit, offset int) ([]models.Deposit, int64, error) {
	var out []models.Deposit
	var total int64
	err := r.s.do(ctx, func(st *state) error {
		var all []models.Deposit
		for _, d := range st.deposits {
			if match(d) {
				all = append(all, d)
			}
		}
		sort.Slice(all, func(i, j int) bool {
			if newestFirst {
				return all[i].CreatedAt.After(all[j].CreatedAt)
			}
			return all[i].CreatedAt.Before(all[j].CreatedAt)
		})
		total = int64(len(all))
		from, to := page(len(all), limit, offset)
		out = all[from:to]
		return nil
	})
	return out, total, err
}

func (r *depositRepo) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]models.Deposit, int64, error) {
	return r.list(ctx, func(d models.Deposit) bool { return d.UserID == userID }, true, limit, offset)
}

func (r *depositRepo) ListByStatus(ctx context.Context, status models.DepositStatus, limit, offset int) ([]models.Deposit, int64, error) {
	return r.list(ctx, func(d models.Deposit) bool { return d.Status == status }, false, limit, offset)
}

func (r *depositRepo) Complete(ctx context.Context, id string, adminID uint, at time.Time) (bool, error) {
	var ok bool
	err := r.s.do(ctx, func(st *state) error {
		d, found := st.deposits[id]
		if !found || d.Status != models.DepositPending {
			return nil
		}
		d.Status = models.DepositCompleted
		d.ApprovedBy = &adminID
		d.ApprovedAt = &at
		r.s.stamp(nil, &d.UpdatedAt)
		st.deposits[id] = d
		ok = true
		return nil
	})
	return ok, err
}

func (r *depositRepo) Aggregate(ctx context.Context) (map[models.DepositStatus]models.StatusAggregate, error) {
	out := make(map[models.DepositStatus]models.StatusAggregate)
	err := r.s.do(ctx, func(st *state) error {
		for _, d := range st.deposits {
			out[d.Status] = out[d.Status].Add(d.Amount)
		}
		return nil
	})
	return out, err
}
