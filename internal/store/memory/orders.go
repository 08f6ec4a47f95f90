// AngelaMos | 2026
// orders.go

package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/carterperez-dev/coursehub/internal/core"
	"github.com/carterperez-dev/coursehub/internal/order"
)

type orderRepo struct{ s *Store }

func (r orderRepo) Create(_ context.Context, o *order.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.orders[o.ID]; ok {
		return fmt.Errorf("create order: %w", core.ErrDuplicateKey)
	}
	if o.CourseID != nil {
		if _, ok := r.s.courses[*o.CourseID]; !ok {
			return fmt.Errorf("create order: %w", core.ErrNotFound)
		}
	}
	if o.ComboID != nil {
		if _, ok := r.s.combos[*o.ComboID]; !ok {
			return fmt.Errorf("create order: %w", core.ErrNotFound)
		}
	}

	o.CreatedAt = r.s.stamp()
	o.UpdatedAt = o.CreatedAt
	r.s.orders[o.ID] = *o
	return nil
}

func (r orderRepo) GetByID(_ context.Context, id string) (*order.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	o, ok := r.s.orders[id]
	if !ok {
		return nil, fmt.Errorf("get order: %w", core.ErrNotFound)
	}
	return &o, nil
}

func (r orderRepo) GetForUpdate(ctx context.Context, id string) (*order.Order, error) {
	return r.GetByID(ctx, id)
}

func (r orderRepo) Update(_ context.Context, o *order.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.orders[o.ID]
	if !ok {
		return fmt.Errorf("update order: %w", core.ErrNotFound)
	}
	if o.IsActive && o.PaymentStatus != order.StatusApproved {
		return fmt.Errorf("update order: active requires approval: %w", core.ErrInvalidState)
	}

	existing.PaymentStatus = o.PaymentStatus
	existing.IsActive = o.IsActive
	existing.StartDate = o.StartDate
	existing.EndDate = o.EndDate
	existing.Note = o.Note
	existing.ApprovedAt = o.ApprovedAt
	existing.RejectedAt = o.RejectedAt
	existing.UpdatedAt = r.s.now()
	o.UpdatedAt = existing.UpdatedAt

	r.s.orders[o.ID] = existing
	return nil
}

func (r orderRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.orders[id]; !ok {
		return fmt.Errorf("delete order: %w", core.ErrNotFound)
	}
	delete(r.s.orders, id)
	return nil
}

func (r orderRepo) ListByUser(_ context.Context, userID string) ([]order.Order, error) {
	return r.filter(func(o *order.Order) bool { return o.UserID == userID }), nil
}

func (r orderRepo) List(_ context.Context, params order.ListOrdersParams) ([]order.Order, int, error) {
	params.Normalize()

	all := r.filter(func(o *order.Order) bool {
		if params.Status != "" && string(o.PaymentStatus) != params.Status {
			return false
		}
		if params.PlanType != "" && string(o.PlanType) != params.PlanType {
			return false
		}
		return params.UserID == "" || o.UserID == params.UserID
	})

	return paginate(all, params.Offset(), params.PageSize), len(all), nil
}

func (r orderRepo) ListActiveApproved(_ context.Context, userID string) ([]order.Order, error) {
	return r.filter(func(o *order.Order) bool {
		return o.UserID == userID && o.IsActive && o.PaymentStatus == order.StatusApproved
	}), nil
}

func (r orderRepo) DeactivateExpired(_ context.Context, now time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for id, o := range r.s.orders {
		switch o.PlanType {
		case order.PlanQuarterly, order.PlanSingle, order.PlanCombo:
		default:
			continue
		}
		if !o.IsActive || o.PaymentStatus != order.StatusApproved {
			continue
		}
		if o.EndDate == nil || !o.EndDate.Before(now) {
			continue
		}
		o.IsActive = false
		o.UpdatedAt = r.s.now()
		r.s.orders[id] = o
		n++
	}
	return n, nil
}

// filter returns matching orders newest first.
func (r orderRepo) filter(keep func(o *order.Order) bool) []order.Order {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := []order.Order{}
	for _, o := range r.s.orders {
		if keep(&o) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}
