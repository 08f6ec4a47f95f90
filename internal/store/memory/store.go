// AngelaMos | 2026
// store.go

// Package memory holds in-process repositories with the same observable
// semantics as the Postgres ones. Services run against it in tests and in
// local demos without a database.
package memory

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/carterperez-dev/coursehub/internal/combo"
	"github.com/carterperez-dev/coursehub/internal/core"
	"github.com/carterperez-dev/coursehub/internal/course"
	"github.com/carterperez-dev/coursehub/internal/enrollment"
	"github.com/carterperez-dev/coursehub/internal/order"
	"github.com/carterperez-dev/coursehub/internal/user"
)

type Store struct {
	mu  sync.Mutex
	now core.Clock
	seq int64

	users       map[string]user.User
	courses     map[string]course.Course
	combos      map[string]combo.Combo
	orders      map[string]order.Order
	enrollments map[string]enrollment.Enrollment

	// FailEnrollmentWrite, when set, is consulted before every enrollment
	// write and aborts it with the returned error.
	FailEnrollmentWrite func(e *enrollment.Enrollment) error
}

func New(now core.Clock) *Store {
	if now == nil {
		now = core.SystemClock
	}
	return &Store{
		now:         now,
		users:       map[string]user.User{},
		courses:     map[string]course.Course{},
		combos:      map[string]combo.Combo{},
		orders:      map[string]order.Order{},
		enrollments: map[string]enrollment.Enrollment{},
	}
}

// stamp returns a strictly increasing creation time so newest-first
// ordering is stable even under a fixed clock.
func (s *Store) stamp() time.Time {
	s.seq++
	return s.now().Add(time.Duration(s.seq) * time.Microsecond)
}

type txKey struct{}

type snapshot struct {
	users       map[string]user.User
	courses     map[string]course.Course
	combos      map[string]combo.Combo
	orders      map[string]order.Order
	enrollments map[string]enrollment.Enrollment
}

// WithinTx restores every table to its prior state when fn fails. Nested
// calls join the outer unit.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	s.mu.Lock()
	snap := snapshot{
		users:       maps.Clone(s.users),
		courses:     maps.Clone(s.courses),
		combos:      maps.Clone(s.combos),
		orders:      maps.Clone(s.orders),
		enrollments: maps.Clone(s.enrollments),
	}
	s.mu.Unlock()

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.mu.Lock()
		s.users = snap.users
		s.courses = snap.courses
		s.combos = snap.combos
		s.orders = snap.orders
		s.enrollments = snap.enrollments
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *Store) Users() user.Repository             { return userRepo{s} }
func (s *Store) Courses() course.Repository         { return courseRepo{s} }
func (s *Store) Combos() combo.Repository           { return comboRepo{s} }
func (s *Store) Orders() order.Repository           { return orderRepo{s} }
func (s *Store) Enrollments() enrollment.Repository { return enrollmentRepo{s} }

var _ core.Transactor = (*Store)(nil)

func paginate[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := min(offset+limit, len(items))
	return items[offset:end]
}

func ptr[T any](v T) *T {
	return &v
}
