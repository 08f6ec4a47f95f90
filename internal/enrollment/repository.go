// AngelaMos | 2026
// repository.go

package enrollment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/carterperez-dev/coursehub/internal/core"
)

type Repository interface {
	Get(ctx context.Context, studentID, courseID string) (*Enrollment, error)
	CreateIfAbsent(ctx context.Context, e *Enrollment) (bool, error)
	UpsertAccess(ctx context.Context, e *Enrollment) error
	UpdateComboAccess(
		ctx context.Context,
		studentID, comboID, duration string,
		start time.Time,
		end *time.Time,
	) (int64, error)
	ExpireAccess(ctx context.Context, now time.Time) (int64, error)
	RevokeByOrder(ctx context.Context, orderID string, now time.Time) (int64, error)
	ListByStudent(ctx context.Context, studentID string) ([]Enrollment, error)
	UpdateProgress(ctx context.Context, e *Enrollment) error
	SetAccessEnd(ctx context.Context, e *Enrollment) error
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const enrollmentColumns = `
	id, student_id, course_id, progress, completed, combo_id, order_id,
	access_duration, access_start_date, access_end_date, expired_at,
	created_at, updated_at`

func (r *repository) Get(
	ctx context.Context,
	studentID, courseID string,
) (*Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + `
		FROM enrollments
		WHERE student_id = $1 AND course_id = $2`

	var e Enrollment
	err := core.Conn(ctx, r.db).GetContext(ctx, &e, query, studentID, courseID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get enrollment: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get enrollment: %w", err)
	}

	return &e, nil
}

// CreateIfAbsent inserts e unless (student, course) already exists. It
// reports whether a row was written.
func (r *repository) CreateIfAbsent(ctx context.Context, e *Enrollment) (bool, error) {
	query := `
		INSERT INTO enrollments (
			id, student_id, course_id, progress, completed, combo_id,
			access_duration, access_start_date, access_end_date, order_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT ON CONSTRAINT enrollments_student_course_key DO NOTHING`

	result, err := core.Conn(ctx, r.db).ExecContext(ctx, query,
		e.ID,
		e.StudentID,
		e.CourseID,
		e.Progress,
		e.Completed,
		e.ComboID,
		e.AccessDuration,
		e.AccessStartDate,
		e.AccessEndDate,
		e.OrderID,
	)
	if err != nil {
		return false, fmt.Errorf("create enrollment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("create enrollment: %w", err)
	}

	return rows == 1, nil
}

// UpsertAccess writes the access fields of e, creating the row at zero
// progress when it does not exist. Progress on an existing row is kept.
func (r *repository) UpsertAccess(ctx context.Context, e *Enrollment) error {
	query := `
		INSERT INTO enrollments (
			id, student_id, course_id, progress, completed, combo_id,
			access_duration, access_start_date, access_end_date, order_id
		)
		VALUES ($1, $2, $3, 0, FALSE, $4, $5, $6, $7, $8)
		ON CONFLICT ON CONSTRAINT enrollments_student_course_key DO UPDATE
		SET combo_id          = EXCLUDED.combo_id,
		    order_id          = EXCLUDED.order_id,
		    access_duration   = EXCLUDED.access_duration,
		    access_start_date = EXCLUDED.access_start_date,
		    access_end_date   = EXCLUDED.access_end_date,
		    expired_at        = NULL,
		    updated_at        = NOW()
		RETURNING ` + enrollmentColumns

	err := core.Conn(ctx, r.db).GetContext(ctx, e, query,
		e.ID,
		e.StudentID,
		e.CourseID,
		e.ComboID,
		e.AccessDuration,
		e.AccessStartDate,
		e.AccessEndDate,
		e.OrderID,
	)
	if err != nil {
		return fmt.Errorf("upsert enrollment: %w", err)
	}

	return nil
}

func (r *repository) UpdateComboAccess(
	ctx context.Context,
	studentID, comboID, duration string,
	start time.Time,
	end *time.Time,
) (int64, error) {
	query := `
		UPDATE enrollments
		SET access_duration = $3, access_start_date = $4, access_end_date = $5,
		    expired_at = NULL, updated_at = NOW()
		WHERE student_id = $1 AND combo_id = $2`

	result, err := core.Conn(ctx, r.db).ExecContext(ctx, query,
		studentID, comboID, duration, start, end)
	if err != nil {
		return 0, fmt.Errorf("update combo access: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("update combo access: %w", err)
	}

	return rows, nil
}

// ExpireAccess clamps every lapsed window to now in one statement. Rows
// already clamped carry expired_at and are not matched again.
func (r *repository) ExpireAccess(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE enrollments
		SET access_end_date = $1, expired_at = $1, updated_at = NOW()
		WHERE access_end_date IS NOT NULL
		  AND access_end_date < $1
		  AND expired_at IS NULL`

	result, err := core.Conn(ctx, r.db).ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("expire enrollments: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("expire enrollments: %w", err)
	}

	return rows, nil
}

// RevokeByOrder closes the window of every enrollment orderID granted
// that is still open at now.
func (r *repository) RevokeByOrder(
	ctx context.Context,
	orderID string,
	now time.Time,
) (int64, error) {
	query := `
		UPDATE enrollments
		SET access_end_date = $2, expired_at = $2, updated_at = NOW()
		WHERE order_id = $1
		  AND (access_end_date IS NULL OR access_end_date > $2)`

	result, err := core.Conn(ctx, r.db).ExecContext(ctx, query, orderID, now)
	if err != nil {
		return 0, fmt.Errorf("revoke enrollments: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("revoke enrollments: %w", err)
	}

	return rows, nil
}

func (r *repository) ListByStudent(
	ctx context.Context,
	studentID string,
) ([]Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + `
		FROM enrollments
		WHERE student_id = $1
		ORDER BY created_at DESC`

	var list []Enrollment
	if err := core.Conn(ctx, r.db).SelectContext(ctx, &list, query, studentID); err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}

	return list, nil
}

func (r *repository) UpdateProgress(ctx context.Context, e *Enrollment) error {
	query := `
		UPDATE enrollments
		SET progress = $3, completed = $4, updated_at = NOW()
		WHERE student_id = $1 AND course_id = $2
		RETURNING updated_at`

	err := core.Conn(ctx, r.db).GetContext(ctx, &e.UpdatedAt, query,
		e.StudentID, e.CourseID, e.Progress, e.Completed)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update progress: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update progress: %w", err)
	}

	return nil
}

func (r *repository) SetAccessEnd(ctx context.Context, e *Enrollment) error {
	query := `
		UPDATE enrollments
		SET access_duration = $2, access_end_date = $3, expired_at = NULL,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := core.Conn(ctx, r.db).GetContext(ctx, &e.UpdatedAt, query,
		e.ID, e.AccessDuration, e.AccessEndDate)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("set access end: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("set access end: %w", err)
	}

	return nil
}
