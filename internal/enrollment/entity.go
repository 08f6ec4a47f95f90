// AngelaMos | 2026
// entity.go

package enrollment

import (
	"time"
)

type Enrollment struct {
	ID              string     `db:"id"`
	StudentID       string     `db:"student_id"`
	CourseID        string     `db:"course_id"`
	Progress        int        `db:"progress"`
	Completed       bool       `db:"completed"`
	ComboID         *string    `db:"combo_id"`
	OrderID         *string    `db:"order_id"`
	AccessDuration  string     `db:"access_duration"`
	AccessStartDate *time.Time `db:"access_start_date"`
	AccessEndDate   *time.Time `db:"access_end_date"`
	ExpiredAt       *time.Time `db:"expired_at"`
	CreatedAt       time.Time  `db:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at"`
}

// HasValidAccess reports whether the access window is open at now. A nil
// end date never expires.
func (e *Enrollment) HasValidAccess(now time.Time) bool {
	return e.AccessEndDate == nil || e.AccessEndDate.After(now)
}

const MaxProgress = 100
