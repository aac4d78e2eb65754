package memstore

import (
	"context"
	"sort"
	"time"

	"hydrofund/internal/models"
	"hydrofund/internal/repositories"

	"github.com/shopspring/decimal"
)

type orderRepo struct{ s *Store }

func (r *orderRepo) Create(ctx context.Context, order *models.InvestmentOrder) error {
	return r.s.do(ctx, func(st *state) error {
		if _, ok := st.orders[order.ID]; ok {
			return repositories.ErrDuplicate
		}
		if order.RequestID != nil {
			for _, o := range st.orders {
				if o.UserID == order.UserID && o.RequestID != nil && *o.RequestID == *order.RequestID {
					return repositories.ErrDuplicate
				}
			}
		}
		r.s.stamp(&order.CreatedAt, &order.UpdatedAt)
		for i := range order.Items {
			st.nextItemID++
			order.Items[i].ID = st.nextItemID
			order.Items[i].OrderID = order.ID
			if order.Items[i].CreatedAt.IsZero() {
				order.Items[i].CreatedAt = order.CreatedAt
			}
		}
		st.orders[order.ID] = copyOrder(*order)
		return nil
	})
}

func (r *orderRepo) GetByID(ctx context.Context, id string) (*models.InvestmentOrder, error) {
	var out *models.InvestmentOrder
	err := r.s.do(ctx, func(st *state) error {
		o, ok := st.orders[id]
		if !ok {
			return repositories.ErrNotFound
		}
		o = copyOrder(o)
		out = &o
		return nil
	})
	return out, err
}

func (r *orderRepo) LockByID(ctx context.Context, id string) (*models.InvestmentOrder, error) {
	return r.GetByID(ctx, id)
}

func (r *orderRepo) GetByRequestID(ctx context.Context, userID uint, requestID string) (*models.InvestmentOrder, error) {
	var out *models.InvestmentOrder
	err := r.s.do(ctx, func(st *state) error {
		for _, o := range st.orders {
			if o.UserID == userID && o.RequestID != nil && *o.RequestID == requestID {
				o = copyOrder(o)
				out = &o
				return nil
			}
		}
		return repositories.ErrNotFound
	})
	return out, err
}

func (r *orderRepo) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]models.InvestmentOrder, int64, error) {
	var out []models.InvestmentOrder
	var total int64
	err := r.s.do(ctx, func(st *state) error {
		var all []models.InvestmentOrder
		for _, o := range st.orders {
			if o.UserID == userID {
				all = append(all, copyOrder(o))
			}
		}
		sort.Slice(all, func(i, j int) bool {
			if all[i].CreatedAt.Equal(all[j].CreatedAt) {
				return all[i].ID > all[j].ID
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

func (r *orderRepo) ListUnclaimed(ctx context.Context, afterID string, limit int) ([]models.InvestmentOrder, error) {
	var out []models.InvestmentOrder
	err := r.s.do(ctx, func(st *state) error {
		for _, o := range st.orders {
			if !o.Claimed && o.ID > afterID {
				out = append(out, copyOrder(o))
			}
		}
		sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
		if limit > 0 && len(out) > limit {
			out = out[:limit]
		}
		return nil
	})
	return out, err
}

func (r *orderRepo) MarkClaimed(ctx context.Context, id string, amount decimal.Decimal, at time.Time) (bool, error) {
	var ok bool
	err := r.s.do(ctx, func(st *state) error {
		o, found := st.orders[id]
		if !found || o.Claimed {
			return nil
		}
		o.Claimed = true
		o.ClaimedAmount = &amount
		o.ClaimedAt = &at
		o.Status = models.OrderStatusCompleted
		r.s.stamp(nil, &o.UpdatedAt)
		st.orders[id] = o
		ok = true
		return nil
	})
	return ok, err
}

func (r *orderRepo) UpdateStatus(ctx context.Context, id string, from, to models.OrderStatus) (bool, error) {
	var ok bool
	err := r.s.do(ctx, func(st *state) error {
		o, found := st.orders[id]
		if !found || o.Status != from {
			return nil
		}
		o.Status = to
		r.s.stamp(nil, &o.UpdatedAt)
		st.orders[id] = o
		ok = true
		return nil
	})
	return ok, err
}

func (r *orderRepo) ClaimedTotals(ctx context.Context) (models.StatusAggregate, error) {
	agg := models.StatusAggregate{Amount: decimal.Zero}
	err := r.s.do(ctx, func(st *state) error {
		for _, o := range st.orders {
			if o.Claimed && o.ClaimedAmount != nil {
				agg = agg.Add(*o.ClaimedAmount)
			}
		}
		return nil
	})
	return agg, err
}
