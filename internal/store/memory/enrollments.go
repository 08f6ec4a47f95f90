// AngelaMos | 2026
// enrollments.go

package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/carterperez-dev/coursehub/internal/core"
	"github.com/carterperez-dev/coursehub/internal/enrollment"
)

type enrollmentRepo struct{ s *Store }

func enrollmentKey(studentID, courseID string) string {
	return studentID + "/" + courseID
}

func (r enrollmentRepo) check(e *enrollment.Enrollment) error {
	if r.s.FailEnrollmentWrite != nil {
		return r.s.FailEnrollmentWrite(e)
	}
	return nil
}

func (r enrollmentRepo) Get(_ context.Context, studentID, courseID string) (*enrollment.Enrollment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	e, ok := r.s.enrollments[enrollmentKey(studentID, courseID)]
	if !ok {
		return nil, fmt.Errorf("get enrollment: %w", core.ErrNotFound)
	}
	return &e, nil
}

func (r enrollmentRepo) CreateIfAbsent(_ context.Context, e *enrollment.Enrollment) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.check(e); err != nil {
		return false, fmt.Errorf("create enrollment: %w", err)
	}

	key := enrollmentKey(e.StudentID, e.CourseID)
	if _, ok := r.s.enrollments[key]; ok {
		return false, nil
	}
	if _, ok := r.s.courses[e.CourseID]; !ok {
		return false, fmt.Errorf("create enrollment: %w", core.ErrNotFound)
	}

	e.CreatedAt = r.s.stamp()
	e.UpdatedAt = e.CreatedAt
	r.s.enrollments[key] = *e
	return true, nil
}

func (r enrollmentRepo) UpsertAccess(_ context.Context, e *enrollment.Enrollment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.check(e); err != nil {
		return fmt.Errorf("upsert enrollment: %w", err)
	}

	key := enrollmentKey(e.StudentID, e.CourseID)
	existing, ok := r.s.enrollments[key]
	if !ok {
		if _, known := r.s.courses[e.CourseID]; !known {
			return fmt.Errorf("upsert enrollment: %w", core.ErrNotFound)
		}
		existing = enrollment.Enrollment{
			ID:        e.ID,
			StudentID: e.StudentID,
			CourseID:  e.CourseID,
			CreatedAt: r.s.stamp(),
		}
	}

	existing.ComboID = e.ComboID
	existing.OrderID = e.OrderID
	existing.AccessDuration = e.AccessDuration
	existing.AccessStartDate = e.AccessStartDate
	existing.AccessEndDate = e.AccessEndDate
	existing.ExpiredAt = nil
	existing.UpdatedAt = r.s.now()

	r.s.enrollments[key] = existing
	*e = existing
	return nil
}

func (r enrollmentRepo) UpdateComboAccess(
	_ context.Context,
	studentID, comboID, duration string,
	start time.Time,
	end *time.Time,
) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for key, e := range r.s.enrollments {
		if e.StudentID != studentID || e.ComboID == nil || *e.ComboID != comboID {
			continue
		}
		if err := r.check(&e); err != nil {
			return n, fmt.Errorf("update combo access: %w", err)
		}
		e.AccessDuration = duration
		e.AccessStartDate = ptr(start)
		e.AccessEndDate = nil
		if end != nil {
			e.AccessEndDate = ptr(*end)
		}
		e.ExpiredAt = nil
		e.UpdatedAt = r.s.now()
		r.s.enrollments[key] = e
		n++
	}
	return n, nil
}

func (r enrollmentRepo) ExpireAccess(_ context.Context, now time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for key, e := range r.s.enrollments {
		if e.AccessEndDate == nil || !e.AccessEndDate.Before(now) || e.ExpiredAt != nil {
			continue
		}
		e.AccessEndDate = ptr(now)
		e.ExpiredAt = ptr(now)
		e.UpdatedAt = r.s.now()
		r.s.enrollments[key] = e
		n++
	}
	return n, nil
}

func (r enrollmentRepo) RevokeByOrder(_ context.Context, orderID string, now time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for key, e := range r.s.enrollments {
		if e.OrderID == nil || *e.OrderID != orderID {
			continue
		}
		if e.AccessEndDate != nil && !e.AccessEndDate.After(now) {
			continue
		}
		if err := r.check(&e); err != nil {
			return n, fmt.Errorf("revoke enrollments: %w", err)
		}
		e.AccessEndDate = ptr(now)
		e.ExpiredAt = ptr(now)
		e.UpdatedAt = r.s.now()
		r.s.enrollments[key] = e
		n++
	}
	return n, nil
}

func (r enrollmentRepo) ListByStudent(_ context.Context, studentID string) ([]enrollment.Enrollment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	list := []enrollment.Enrollment{}
	for _, e := range r.s.enrollments {
		if e.StudentID == studentID {
			list = append(list, e)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return list, nil
}

func (r enrollmentRepo) UpdateProgress(_ context.Context, e *enrollment.Enrollment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := enrollmentKey(e.StudentID, e.CourseID)
	existing, ok := r.s.enrollments[key]
	if !ok {
		return fmt.Errorf("update progress: %w", core.ErrNotFound)
	}
	if e.Progress < 0 || e.Progress > enrollment.MaxProgress {
		return fmt.Errorf("update progress: out of range: %w", core.ErrInvalidInput)
	}

	existing.Progress = e.Progress
	existing.Completed = e.Completed
	existing.UpdatedAt = r.s.now()
	e.UpdatedAt = existing.UpdatedAt
	r.s.enrollments[key] = existing
	return nil
}

func (r enrollmentRepo) SetAccessEnd(_ context.Context, e *enrollment.Enrollment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for key, existing := range r.s.enrollments {
		if existing.ID != e.ID {
			continue
		}
		if err := r.check(e); err != nil {
			return fmt.Errorf("set access end: %w", err)
		}
		existing.AccessDuration = e.AccessDuration
		existing.AccessEndDate = e.AccessEndDate
		existing.ExpiredAt = nil
		existing.UpdatedAt = r.s.now()
		e.UpdatedAt = existing.UpdatedAt
		r.s.enrollments[key] = existing
		return nil
	}
	return fmt.Errorf("set access end: %w", core.ErrNotFound)
}
