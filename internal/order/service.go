// AngelaMos | 2026
// service.go

package order

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/coursehub/internal/combo"
	"github.com/carterperez-dev/coursehub/internal/config"
	"github.com/carterperez-dev/coursehub/internal/core"
	"github.com/carterperez-dev/coursehub/internal/course"
	"github.com/carterperez-dev/coursehub/internal/enrollment"
	"github.com/carterperez-dev/coursehub/internal/metrics"
	"github.com/carterperez-dev/coursehub/internal/notify"
)

type CourseSource interface {
	GetByID(ctx context.Context, id string) (*course.Course, error)
}

type ComboSource interface {
	GetByID(ctx context.Context, id string) (*combo.Combo, error)
}

// Enroller writes the enrollment side effects of an approval.
type Enroller interface {
	EnsureEnrolled(ctx context.Context, studentID, courseID, orderID string) (bool, error)
	EnrollInCombo(
		ctx context.Context,
		userID, comboID, orderID string,
		now time.Time,
	) (*enrollment.ComboEnrollment, error)
	RevokeOrderAccess(ctx context.Context, orderID string, now time.Time) (int64, error)
	ExpireAccess(ctx context.Context, now time.Time) (int64, error)
}

type SweepResult struct {
	OrdersExpired      int64 `json:"orders_expired"`
	EnrollmentsExpired int64 `json:"enrollments_expired"`
}

type Deps struct {
	Repo        Repository
	Courses     CourseSource
	Combos      ComboSource
	Enrollments Enroller
	Tx          core.Transactor
	Notifier    notify.Notifier
	Logger      *slog.Logger
	Clock       core.Clock
}

type Service struct {
	repo        Repository
	courses     CourseSource
	combos      ComboSource
	enrollments Enroller
	tx          core.Transactor
	notifier    notify.Notifier
	logger      *slog.Logger
	now         core.Clock
	cfg         config.AccessConfig
}

func NewService(cfg config.AccessConfig, deps Deps) *Service {
	s := &Service{
		repo:        deps.Repo,
		courses:     deps.Courses,
		combos:      deps.Combos,
		enrollments: deps.Enrollments,
		tx:          deps.Tx,
		notifier:    deps.Notifier,
		logger:      deps.Logger,
		now:         deps.Clock,
		cfg:         cfg,
	}
	if s.tx == nil {
		s.tx = core.NoTx{}
	}
	if s.notifier == nil {
		s.notifier = notify.Nop{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = core.SystemClock
	}
	return s
}

func (s *Service) Create(
	ctx context.Context,
	userID string,
	req CreateOrderRequest,
) (*Order, error) {
	if userID == "" {
		return nil, fmt.Errorf("create order: %w", core.ErrUnauthorized)
	}

	plan, err := ParsePlan(req.PlanType, req.CourseID, req.ComboID)
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	amount, err := s.price(ctx, plan, req.Amount)
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	o := NewOrder(uuid.New().String(), userID, plan)
	o.Amount = amount
	o.PaymentMethod = req.PaymentMethod
	o.PaymentRef = req.PaymentRef

	if err := s.repo.Create(ctx, o); err != nil {
		return nil, err
	}

	s.logger.Info("order created",
		"order_id", o.ID,
		"user_id", o.UserID,
		"plan_type", o.PlanType,
	)
	metrics.RecordOrderTransition("created", string(o.PlanType))
	s.notifier.OrderCreated(ctx, event(o))

	return o, nil
}

// price resolves the catalogue amount for plans that reference a product
// and checks that the product can be bought.
func (s *Service) price(
	ctx context.Context,
	plan Plan,
	requested *decimal.Decimal,
) (decimal.Decimal, error) {
	switch p := plan.(type) {
	case SinglePlan:
		c, err := s.courses.GetByID(ctx, p.CourseID)
		if err != nil {
			return decimal.Zero, err
		}
		return c.Price, nil

	case ComboPlan:
		c, err := s.combos.GetByID(ctx, p.ComboID)
		if err != nil {
			return decimal.Zero, err
		}
		if !c.IsActive {
			return decimal.Zero, fmt.Errorf("combo %s is not on sale: %w", c.ID, core.ErrInvalidState)
		}
		return c.EffectivePrice(), nil

	case QuarterlyPlan, KitPlan, SchoolPlan:
		if requested == nil {
			return decimal.Zero, nil
		}
		if requested.IsNegative() {
			return decimal.Zero, fmt.Errorf("amount must not be negative: %w", core.ErrInvalidInput)
		}
		return *requested, nil
	}

	return decimal.Zero, fmt.Errorf("unhandled plan %T: %w", plan, core.ErrInvalidInput)
}

func (s *Service) Get(ctx context.Context, id string) (*Order, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListMine(ctx context.Context, userID string) ([]Order, error) {
	if userID == "" {
		return nil, fmt.Errorf("list orders: %w", core.ErrUnauthorized)
	}
	return s.repo.ListByUser(ctx, userID)
}

// CountLive counts the user's approved, active orders whose window still
// covers now.
func (s *Service) CountLive(ctx context.Context, userID string, now time.Time) (int, error) {
	active, err := s.repo.ListActiveApproved(ctx, userID)
	if err != nil {
		return 0, err
	}

	n := 0
	for i := range active {
		if active[i].live() && active[i].WindowOpen(now) {
			n++
		}
	}
	return n, nil
}

func (s *Service) List(
	ctx context.Context,
	params ListOrdersParams,
) ([]Order, int, error) {
	return s.repo.List(ctx, params)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// Approve moves a pending order to approved and active, computing its
// access window and writing enrollment side effects in the same
// transaction. Approving an approved order returns it unchanged; approving
// a rejected order is an InvalidState error.
func (s *Service) Approve(ctx context.Context, orderID string, now time.Time) (*Order, error) {
	ctx, span := core.StartSpan(ctx, "order.approve",
		attribute.String("order.id", orderID))
	defer span.End()

	var (
		result  *Order
		changed bool
	)

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		o, err := s.repo.GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}

		switch o.PaymentStatus {
		case StatusApproved:
			result = o
			return nil
		case StatusRejected:
			return fmt.Errorf("approve order %s: already rejected: %w", o.ID, core.ErrInvalidState)
		}

		plan, err := o.Plan()
		if err != nil {
			return fmt.Errorf("approve order %s: %v: %w", o.ID, err, core.ErrInvalidState)
		}

		start, end, err := s.window(ctx, o, plan, now)
		if err != nil {
			return err
		}

		o.PaymentStatus = StatusApproved
		o.IsActive = true
		o.StartDate = &start
		o.EndDate = end
		o.ApprovedAt = &now
		o.RejectedAt = nil

		if err := s.repo.Update(ctx, o); err != nil {
			return err
		}

		result = o
		changed = true
		return nil
	})
	if err != nil {
		core.SetSpanError(ctx, err)
		return nil, err
	}

	if changed {
		s.logger.Info("order approved",
			"order_id", result.ID,
			"user_id", result.UserID,
			"plan_type", result.PlanType,
			"end_date", result.EndDate,
		)
		metrics.RecordOrderTransition("approved", string(result.PlanType))
		s.notifier.OrderApproved(ctx, event(result))
	}

	return result, nil
}

// window computes the access window for plan and performs the
// plan's enrollment side effects.
func (s *Service) window(
	ctx context.Context,
	o *Order,
	plan Plan,
	now time.Time,
) (time.Time, *time.Time, error) {
	switch p := plan.(type) {
	case QuarterlyPlan:
		start, err := s.quarterlyStart(ctx, o, now)
		if err != nil {
			return time.Time{}, nil, err
		}
		end := start.Add(s.cfg.QuarterlyPeriod)
		return start, &end, nil

	case SinglePlan:
		if _, err := s.enrollments.EnsureEnrolled(ctx, o.UserID, p.CourseID, o.ID); err != nil {
			return time.Time{}, nil, fmt.Errorf("approve order %s: %w", o.ID, err)
		}
		end := now.Add(s.cfg.SinglePeriod)
		return now, &end, nil

	case KitPlan, SchoolPlan:
		return now, nil, nil

	case ComboPlan:
		res, err := s.enrollments.EnrollInCombo(ctx, o.UserID, p.ComboID, o.ID, now)
		if err != nil {
			return time.Time{}, nil, fmt.Errorf("approve order %s: %w", o.ID, err)
		}
		return now, res.AccessEndDate, nil
	}

	return time.Time{}, nil, fmt.Errorf("approve order %s: unhandled plan %T: %w", o.ID, plan, core.ErrInvalidState)
}

// quarterlyStart stacks a new quarterly window onto the latest end date of
// the user's other live quarterly orders.
func (s *Service) quarterlyStart(ctx context.Context, o *Order, now time.Time) (time.Time, error) {
	active, err := s.repo.ListActiveApproved(ctx, o.UserID)
	if err != nil {
		return time.Time{}, err
	}

	start := now
	for i := range active {
		prev := &active[i]
		if prev.ID == o.ID || !prev.GrantsQuarterly(now) || prev.EndDate == nil {
			continue
		}
		if prev.EndDate.After(start) {
			start = *prev.EndDate
		}
	}

	return start, nil
}

// Reject marks an order rejected and inactive, appending reason to its
// note. Rejecting a rejected order returns it unchanged.
func (s *Service) Reject(ctx context.Context, orderID, reason string) (*Order, error) {
	ctx, span := core.StartSpan(ctx, "order.reject",
		attribute.String("order.id", orderID))
	defer span.End()

	now := s.now()
	var (
		result  *Order
		changed bool
	)

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		o, err := s.repo.GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}

		if o.IsRejected() {
			result = o
			return nil
		}

		if o.IsApproved() {
			if _, err := s.enrollments.RevokeOrderAccess(ctx, o.ID, now); err != nil {
				return fmt.Errorf("reject order %s: %w", o.ID, err)
			}
		}

		o.PaymentStatus = StatusRejected
		o.IsActive = false
		o.RejectedAt = &now
		if reason != "" {
			o.appendNote("rejected: " + reason)
		}

		if err := s.repo.Update(ctx, o); err != nil {
			return err
		}

		result = o
		changed = true
		return nil
	})
	if err != nil {
		core.SetSpanError(ctx, err)
		return nil, err
	}

	if changed {
		s.logger.Info("order rejected",
			"order_id", result.ID,
			"user_id", result.UserID,
			"plan_type", result.PlanType,
		)
		metrics.RecordOrderTransition("rejected", string(result.PlanType))
		s.notifier.OrderRejected(ctx, event(result))
	}

	return result, nil
}

// ExpireSweep deactivates lapsed orders and clamps lapsed enrollment
// windows to now. A second run with the same data changes nothing.
func (s *Service) ExpireSweep(ctx context.Context, now time.Time) (SweepResult, error) {
	ctx, span := core.StartSpan(ctx, "order.expire_sweep")
	defer span.End()

	start := time.Now()

	orders, err := s.repo.DeactivateExpired(ctx, now)
	if err != nil {
		core.SetSpanError(ctx, err)
		return SweepResult{}, err
	}

	enrollments, err := s.enrollments.ExpireAccess(ctx, now)
	if err != nil {
		core.SetSpanError(ctx, err)
		return SweepResult{OrdersExpired: orders}, err
	}

	core.AddSpanEvent(ctx, "expired",
		attribute.Int64("orders", orders),
		attribute.Int64("enrollments", enrollments),
	)
	metrics.RecordSweep(orders, enrollments, time.Since(start))
	s.logger.Info("expire sweep finished",
		"orders_expired", orders,
		"enrollments_expired", enrollments,
	)

	return SweepResult{
		OrdersExpired:      orders,
		EnrollmentsExpired: enrollments,
	}, nil
}

func (s *Service) Now() time.Time {
	return s.now()
}

func event(o *Order) notify.OrderEvent {
	return notify.OrderEvent{
		OrderID:  o.ID,
		UserID:   o.UserID,
		PlanType: string(o.PlanType),
		Status:   string(o.PaymentStatus),
		Note:     o.Note,
		EndDate:  o.EndDate,
	}
}
