// AngelaMos | 2026
// repository.go

package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/carterperez-dev/coursehub/internal/core"
)

type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	GetForUpdate(ctx context.Context, id string) (*Order, error)
	Update(ctx context.Context, o *Order) error
	Delete(ctx context.Context, id string) error
	ListByUser(ctx context.Context, userID string) ([]Order, error)
	List(ctx context.Context, params ListOrdersParams) ([]Order, int, error)
	ListActiveApproved(ctx context.Context, userID string) ([]Order, error)
	DeactivateExpired(ctx context.Context, now time.Time) (int64, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const orderColumns = `
	id, user_id, plan_type, course_id, combo_id, amount, payment_method,
	payment_ref, payment_status, is_active, start_date, end_date, note,
	approved_at, rejected_at, created_at, updated_at`

func (r *repository) Create(ctx context.Context, o *Order) error {
	query := `
		INSERT INTO orders (
			id, user_id, plan_type, course_id, combo_id, amount,
			payment_method, payment_ref, payment_status, is_active
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at`

	err := core.Conn(ctx, r.db).QueryRowxContext(ctx, query,
		o.ID,
		o.UserID,
		o.PlanType,
		o.CourseID,
		o.ComboID,
		o.Amount,
		o.PaymentMethod,
		o.PaymentRef,
		o.PaymentStatus,
		o.IsActive,
	).Scan(&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return fmt.Errorf("create order: %w", core.ErrNotFound)
		}
		return fmt.Errorf("create order: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Order, error) {
	return r.get(ctx, id, "")
}

// GetForUpdate locks the row until the surrounding transaction ends.
func (r *repository) GetForUpdate(ctx context.Context, id string) (*Order, error) {
	return r.get(ctx, id, " FOR UPDATE")
}

func (r *repository) get(ctx context.Context, id, suffix string) (*Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1` + suffix

	var o Order
	err := core.Conn(ctx, r.db).GetContext(ctx, &o, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get order: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}

	return &o, nil
}

func (r *repository) Update(ctx context.Context, o *Order) error {
	query := `
		UPDATE orders
		SET payment_status = $2, is_active = $3, start_date = $4, end_date = $5,
		    note = $6, approved_at = $7, rejected_at = $8, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := core.Conn(ctx, r.db).GetContext(ctx, &o.UpdatedAt, query,
		o.ID,
		o.PaymentStatus,
		o.IsActive,
		o.StartDate,
		o.EndDate,
		o.Note,
		o.ApprovedAt,
		o.RejectedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update order: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}

	return nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	result, err := core.Conn(ctx, r.db).ExecContext(ctx,
		`DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("delete order: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	query := `SELECT ` + orderColumns + `
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC`

	var orders []Order
	if err := core.Conn(ctx, r.db).SelectContext(ctx, &orders, query, userID); err != nil {
		return nil, fmt.Errorf("list user orders: %w", err)
	}

	return orders, nil
}

func (r *repository) List(
	ctx context.Context,
	params ListOrdersParams,
) ([]Order, int, error) {
	params.Normalize()
	db := core.Conn(ctx, r.db)

	conditions := []string{"TRUE"}
	var args []any
	argIdx := 1

	if params.Status != "" {
		conditions = append(conditions, fmt.Sprintf("payment_status = $%d", argIdx))
		args = append(args, params.Status)
		argIdx++
	}

	if params.PlanType != "" {
		conditions = append(conditions, fmt.Sprintf("plan_type = $%d", argIdx))
		args = append(args, params.PlanType)
		argIdx++
	}

	if params.UserID != "" {
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", argIdx))
		args = append(args, params.UserID)
		argIdx++
	}

	whereClause := strings.Join(conditions, " AND ")

	var total int
	if err := db.GetContext(ctx, &total,
		"SELECT COUNT(*) FROM orders WHERE "+whereClause, args...); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM orders
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		orderColumns, whereClause, argIdx, argIdx+1)

	args = append(args, params.PageSize, params.Offset())

	var orders []Order
	if err := db.SelectContext(ctx, &orders, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}

	return orders, total, nil
}

// ListActiveApproved returns the user's approved, active orders, newest
// first. Date windows are left to the caller.
func (r *repository) ListActiveApproved(
	ctx context.Context,
	userID string,
) ([]Order, error) {
	query := `SELECT ` + orderColumns + `
		FROM orders
		WHERE user_id = $1 AND payment_status = 'approved' AND is_active = TRUE
		ORDER BY created_at DESC`

	var orders []Order
	if err := core.Conn(ctx, r.db).SelectContext(ctx, &orders, query, userID); err != nil {
		return nil, fmt.Errorf("list active orders: %w", err)
	}

	return orders, nil
}

// DeactivateExpired switches off every lapsed time-boxed order in one
// statement. Orders with no end date never match.
func (r *repository) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE orders
		SET is_active = FALSE, updated_at = NOW()
		WHERE plan_type IN ('quarterly', 'single', 'combo')
		  AND payment_status = 'approved'
		  AND is_active = TRUE
		  AND end_date IS NOT NULL
		  AND end_date < $1`

	result, err := core.Conn(ctx, r.db).ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("deactivate expired orders: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("deactivate expired orders: %w", err)
	}

	return rows, nil
}
