// AngelaMos | 2026
// entity.go

package order

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	StatusPending  PaymentStatus = "pending"
	StatusApproved PaymentStatus = "approved"
	StatusRejected PaymentStatus = "rejected"
)

type Order struct {
	ID            string          `db:"id"`
	UserID        string          `db:"user_id"`
	PlanType      PlanType        `db:"plan_type"`
	CourseID      *string         `db:"course_id"`
	ComboID       *string         `db:"combo_id"`
	Amount        decimal.Decimal `db:"amount"`
	PaymentMethod string          `db:"payment_method"`
	PaymentRef    string          `db:"payment_ref"`
	PaymentStatus PaymentStatus   `db:"payment_status"`
	IsActive      bool            `db:"is_active"`
	StartDate     *time.Time      `db:"start_date"`
	EndDate       *time.Time      `db:"end_date"`
	Note          string          `db:"note"`
	ApprovedAt    *time.Time      `db:"approved_at"`
	RejectedAt    *time.Time      `db:"rejected_at"`
	CreatedAt     time.Time       `db:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at"`
}

// NewOrder builds a pending, inactive order for plan.
func NewOrder(id, userID string, plan Plan) *Order {
	o := &Order{
		ID:            id,
		UserID:        userID,
		PlanType:      plan.Type(),
		PaymentStatus: StatusPending,
	}

	switch p := plan.(type) {
	case SinglePlan:
		o.CourseID = &p.CourseID
	case ComboPlan:
		o.ComboID = &p.ComboID
	}

	return o
}

// Plan rebuilds the tagged plan from the stored columns.
func (o *Order) Plan() (Plan, error) {
	return ParsePlan(string(o.PlanType), deref(o.CourseID), deref(o.ComboID))
}

func (o *Order) IsApproved() bool {
	return o.PaymentStatus == StatusApproved
}

func (o *Order) IsRejected() bool {
	return o.PaymentStatus == StatusRejected
}

func (o *Order) live() bool {
	return o.IsActive && o.IsApproved()
}

// GrantsQuarterly is inclusive at the end date: access holds at exactly
// EndDate.
func (o *Order) GrantsQuarterly(now time.Time) bool {
	if o.PlanType != PlanQuarterly || !o.live() {
		return false
	}
	return o.EndDate == nil || !o.EndDate.Before(now)
}

// GrantsSingle is exclusive at the end date.
func (o *Order) GrantsSingle(courseID string, now time.Time) bool {
	if o.PlanType != PlanSingle || !o.live() {
		return false
	}
	if o.CourseID == nil || *o.CourseID != courseID {
		return false
	}
	return o.EndDate == nil || o.EndDate.After(now)
}

// GrantsCombo reports whether the combo window is open. Course membership
// is checked against the combo separately.
func (o *Order) GrantsCombo(now time.Time) bool {
	if o.PlanType != PlanCombo || !o.live() || o.ComboID == nil {
		return false
	}
	return o.EndDate == nil || o.EndDate.After(now)
}

// WindowOpen reports whether the order's own dates still cover now,
// regardless of plan.
func (o *Order) WindowOpen(now time.Time) bool {
	return o.EndDate == nil || o.EndDate.After(now)
}

func (o *Order) appendNote(line string) {
	if line == "" {
		return
	}
	if o.Note == "" {
		o.Note = line
		return
	}
	o.Note += "\n" + line
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
