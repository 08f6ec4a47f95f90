// AngelaMos | 2026
// service.go

package enrollment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/carterperez-dev/coursehub/internal/combo"
	"github.com/carterperez-dev/coursehub/internal/core"
)

type ComboSource interface {
	GetByID(ctx context.Context, id string) (*combo.Combo, error)
}

// BatchError names the course whose upsert stopped a combo batch.
type BatchError struct {
	ComboID  string
	CourseID string
	Applied  int
	Err      error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf(
		"combo %s: enroll course %s after %d applied: %v",
		e.ComboID,
		e.CourseID,
		e.Applied,
		e.Err,
	)
}

func (e *BatchError) Unwrap() []error {
	return []error{core.ErrPartialBatch, e.Err}
}

type ComboEnrollment struct {
	Enrollments   []Enrollment
	AccessEndDate *time.Time
}

type Service struct {
	repo   Repository
	combos ComboSource
	tx     core.Transactor
	logger *slog.Logger
}

func NewService(
	repo Repository,
	combos ComboSource,
	tx core.Transactor,
	logger *slog.Logger,
) *Service {
	if tx == nil {
		tx = core.NoTx{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:   repo,
		combos: combos,
		tx:     tx,
		logger: logger,
	}
}

// EnsureEnrolled creates a zero-progress enrollment unless one exists. A
// new row records orderID as its source; an existing row keeps its own.
func (s *Service) EnsureEnrolled(
	ctx context.Context,
	studentID, courseID, orderID string,
) (bool, error) {
	return s.repo.CreateIfAbsent(ctx, &Enrollment{
		ID:        uuid.New().String(),
		StudentID: studentID,
		CourseID:  courseID,
		OrderID:   optional(orderID),
	})
}

// RevokeOrderAccess closes every still-open enrollment that orderID
// granted. Enrollments from other orders or admin grants are untouched.
func (s *Service) RevokeOrderAccess(
	ctx context.Context,
	orderID string,
	now time.Time,
) (int64, error) {
	n, err := s.repo.RevokeByOrder(ctx, orderID, now)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("order access revoked", "order_id", orderID, "enrollments", n)
	}
	return n, nil
}

func optional(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}

// EnrollInCombo upserts one enrollment per course of the combo, all sharing
// the access window derived from the combo's duration and tagged with
// orderID, empty for admin grants. The batch runs in a single transaction
// when the store supports one.
func (s *Service) EnrollInCombo(
	ctx context.Context,
	userID, comboID, orderID string,
	now time.Time,
) (*ComboEnrollment, error) {
	c, err := s.combos.GetByID(ctx, comboID)
	if err != nil {
		return nil, err
	}
	if !c.IsActive {
		return nil, fmt.Errorf("enroll in combo %s: inactive: %w", comboID, core.ErrInvalidState)
	}

	start := now
	end := c.Duration.AccessEnd(now)
	source := optional(orderID)
	result := &ComboEnrollment{
		Enrollments:   make([]Enrollment, 0, len(c.CourseIDs)),
		AccessEndDate: end,
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		for _, courseID := range c.CourseIDs {
			e := Enrollment{
				ID:              uuid.New().String(),
				StudentID:       userID,
				CourseID:        courseID,
				ComboID:         &c.ID,
				OrderID:         source,
				AccessDuration:  string(c.Duration),
				AccessStartDate: &start,
				AccessEndDate:   end,
			}
			if err := s.repo.UpsertAccess(ctx, &e); err != nil {
				return &BatchError{
					ComboID:  comboID,
					CourseID: courseID,
					Applied:  len(result.Enrollments),
					Err:      err,
				}
			}
			result.Enrollments = append(result.Enrollments, e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("combo enrollment applied",
		"user_id", userID,
		"combo_id", comboID,
		"courses", len(result.Enrollments),
	)

	return result, nil
}

// ExtendComboAccess replaces the window of every enrollment the user holds
// through comboID with [now, now+duration]. The previous window is
// discarded rather than extended.
func (s *Service) ExtendComboAccess(
	ctx context.Context,
	userID, comboID, duration string,
	now time.Time,
) (*time.Time, error) {
	d, err := combo.ParseDuration(duration)
	if err != nil {
		return nil, fmt.Errorf("extend combo access: %v: %w", err, core.ErrInvalidInput)
	}

	end := d.AccessEnd(now)
	matched, err := s.repo.UpdateComboAccess(ctx, userID, comboID, string(d), now, end)
	if err != nil {
		return nil, err
	}
	if matched == 0 {
		return nil, fmt.Errorf("extend combo access: %w", core.ErrNotFound)
	}

	s.logger.Info("combo access extended",
		"user_id", userID,
		"combo_id", comboID,
		"enrollments", matched,
	)

	return end, nil
}

// ExtendAccess pushes a single enrollment's end date out by duration,
// starting from whichever is later of its current end and now.
func (s *Service) ExtendAccess(
	ctx context.Context,
	studentID, courseID, duration string,
	now time.Time,
) (*Enrollment, error) {
	d, err := combo.ParseDuration(duration)
	if err != nil {
		return nil, fmt.Errorf("extend access: %v: %w", err, core.ErrInvalidInput)
	}

	e, err := s.repo.Get(ctx, studentID, courseID)
	if err != nil {
		return nil, err
	}

	if e.AccessEndDate == nil {
		return e, nil
	}

	base := now
	if e.AccessEndDate.After(now) {
		base = *e.AccessEndDate
	}

	e.AccessEndDate = d.AccessEnd(base)
	e.AccessDuration = string(d)
	e.ExpiredAt = nil

	if err := s.repo.SetAccessEnd(ctx, e); err != nil {
		return nil, err
	}

	return e, nil
}

func (s *Service) UpdateProgress(
	ctx context.Context,
	studentID, courseID string,
	progress int,
) (*Enrollment, error) {
	if progress < 0 || progress > MaxProgress {
		return nil, fmt.Errorf("update progress: %d out of range: %w", progress, core.ErrInvalidInput)
	}

	e, err := s.repo.Get(ctx, studentID, courseID)
	if err != nil {
		return nil, err
	}

	e.Progress = progress
	e.Completed = progress == MaxProgress

	if err := s.repo.UpdateProgress(ctx, e); err != nil {
		return nil, err
	}

	return e, nil
}

func (s *Service) ListMine(ctx context.Context, studentID string) ([]Enrollment, error) {
	if studentID == "" {
		return nil, fmt.Errorf("list enrollments: %w", core.ErrUnauthorized)
	}
	return s.repo.ListByStudent(ctx, studentID)
}

func (s *Service) ExpireAccess(ctx context.Context, now time.Time) (int64, error) {
	return s.repo.ExpireAccess(ctx, now)
}
