// AngelaMos | 2026
// resolver.go

package access

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/coursehub/internal/core"
	"github.com/carterperez-dev/coursehub/internal/enrollment"
	"github.com/carterperez-dev/coursehub/internal/metrics"
	"github.com/carterperez-dev/coursehub/internal/order"
)

type Grant string

const (
	GrantQuarterly  Grant = "quarterly"
	GrantSingle     Grant = "single"
	GrantEnrollment Grant = "enrollment"
	GrantCombo      Grant = "combo"
)

// Denial reasons.
const (
	ReasonNoActiveOrder    = "no_active_order"
	ReasonDifferentCourse  = "different_course_purchased"
	ReasonKitNoAccess      = "kit_no_course_access"
	ReasonSchoolNoAccess   = "school_no_course_access"
	ReasonUnknownPlan      = "unknown_plan_type"
	ReasonEvaluationFailed = "evaluation_failed"
)

type Decision struct {
	Allowed      bool       `json:"allowed"`
	Grant        Grant      `json:"grant,omitempty"`
	Reason       string     `json:"reason"`
	OrderID      string     `json:"order_id,omitempty"`
	EnrollmentID string     `json:"enrollment_id,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
}

type OrderSource interface {
	ListActiveApproved(ctx context.Context, userID string) ([]order.Order, error)
}

type EnrollmentSource interface {
	Get(ctx context.Context, studentID, courseID string) (*enrollment.Enrollment, error)
}

type ComboMembership interface {
	ContainsCourse(ctx context.Context, comboID, courseID string) (bool, error)
}

// Resolver answers whether a user may open a course. It never writes.
type Resolver struct {
	orders      OrderSource
	enrollments EnrollmentSource
	combos      ComboMembership
	logger      *slog.Logger
}

func NewResolver(
	orders OrderSource,
	enrollments EnrollmentSource,
	combos ComboMembership,
	logger *slog.Logger,
) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		orders:      orders,
		enrollments: enrollments,
		combos:      combos,
		logger:      logger,
	}
}

// ResolveCourseAccess checks the quarterly, single, enrollment and combo
// grants in that order and reports the first that holds. When any lookup
// fails the decision is a denial with ReasonEvaluationFailed and the error
// is returned alongside it.
func (r *Resolver) ResolveCourseAccess(
	ctx context.Context,
	userID, courseID string,
	now time.Time,
) (Decision, error) {
	ctx, span := core.StartSpan(ctx, "access.resolve",
		attribute.String("user.id", userID),
		attribute.String("course.id", courseID),
	)
	defer span.End()

	d, err := r.resolve(ctx, userID, courseID, now)
	if err != nil {
		core.SetSpanError(ctx, err)
		r.logger.Error("access evaluation failed",
			"user_id", userID,
			"course_id", courseID,
			"error", err,
		)
		d = Decision{Reason: ReasonEvaluationFailed}
	}

	span.SetAttributes(
		attribute.Bool("access.allowed", d.Allowed),
		attribute.String("access.reason", d.Reason),
	)
	metrics.RecordAccessDecision(d.Allowed, d.Reason)

	return d, err
}

func (r *Resolver) resolve(
	ctx context.Context,
	userID, courseID string,
	now time.Time,
) (Decision, error) {
	orders, err := r.orders.ListActiveApproved(ctx, userID)
	if err != nil {
		return Decision{}, err
	}

	for i := range orders {
		if o := &orders[i]; o.GrantsQuarterly(now) {
			return allow(GrantQuarterly, o.ID, "", o.EndDate), nil
		}
	}

	for i := range orders {
		if o := &orders[i]; o.GrantsSingle(courseID, now) {
			return allow(GrantSingle, o.ID, "", o.EndDate), nil
		}
	}

	e, err := r.enrollments.Get(ctx, userID, courseID)
	switch {
	case errors.Is(err, core.ErrNotFound):
	case err != nil:
		return Decision{}, err
	case e.HasValidAccess(now):
		return allow(GrantEnrollment, "", e.ID, e.AccessEndDate), nil
	}

	for i := range orders {
		o := &orders[i]
		if !o.GrantsCombo(now) {
			continue
		}
		ok, err := r.combos.ContainsCourse(ctx, *o.ComboID, courseID)
		if err != nil {
			return Decision{}, err
		}
		if ok {
			return allow(GrantCombo, o.ID, "", o.EndDate), nil
		}
	}

	return Decision{Reason: denialReason(orders, now)}, nil
}

// HasActiveBroadSubscription reports whether the quarterly grant alone
// holds for the user.
func (r *Resolver) HasActiveBroadSubscription(
	ctx context.Context,
	userID string,
	now time.Time,
) (bool, error) {
	orders, err := r.orders.ListActiveApproved(ctx, userID)
	if err != nil {
		return false, err
	}

	for i := range orders {
		if orders[i].GrantsQuarterly(now) {
			return true, nil
		}
	}
	return false, nil
}

// denialReason explains a denial from the newest order whose own window is
// still open.
func denialReason(orders []order.Order, now time.Time) string {
	for i := range orders {
		o := &orders[i]
		if !o.WindowOpen(now) {
			continue
		}

		plan, err := o.Plan()
		if err != nil {
			return ReasonUnknownPlan
		}

		switch plan.(type) {
		case order.SinglePlan, order.ComboPlan:
			return ReasonDifferentCourse
		case order.KitPlan:
			return ReasonKitNoAccess
		case order.SchoolPlan:
			return ReasonSchoolNoAccess
		default:
			return ReasonUnknownPlan
		}
	}

	return ReasonNoActiveOrder
}

func allow(g Grant, orderID, enrollmentID string, expires *time.Time) Decision {
	return Decision{
		Allowed:      true,
		Grant:        g,
		Reason:       string(g),
		OrderID:      orderID,
		EnrollmentID: enrollmentID,
		ExpiresAt:    expires,
	}
}
