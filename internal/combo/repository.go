// AngelaMos | 2026
// repository.go

package combo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/coursehub/internal/core"
)

type Repository interface {
	Create(ctx context.Context, c *Combo) error
	Update(ctx context.Context, c *Combo) error
	SetActive(ctx context.Context, id string, active bool) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*Combo, error)
	List(ctx context.Context, activeOnly bool) ([]Combo, error)
	ContainsCourse(ctx context.Context, comboID, courseID string) (bool, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

// Create inserts the combo and its course list. Callers run it inside a
// transaction so the two writes land together.
func (r *repository) Create(ctx context.Context, c *Combo) error {
	db := core.Conn(ctx, r.db)

	query := `
		INSERT INTO combos (id, name, description, price, discount_price, duration, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`

	err := db.QueryRowxContext(ctx, query,
		c.ID,
		c.Name,
		c.Description,
		c.Price,
		c.DiscountPrice,
		c.Duration,
		c.IsActive,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create combo: %w", err)
	}

	if err := insertCourses(ctx, db, c.ID, c.CourseIDs); err != nil {
		return fmt.Errorf("create combo: %w", err)
	}

	return nil
}

func (r *repository) Update(ctx context.Context, c *Combo) error {
	db := core.Conn(ctx, r.db)

	query := `
		UPDATE combos
		SET name = $2, description = $3, price = $4, discount_price = $5,
		    duration = $6, is_active = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := db.QueryRowxContext(ctx, query,
		c.ID,
		c.Name,
		c.Description,
		c.Price,
		c.DiscountPrice,
		c.Duration,
		c.IsActive,
	).Scan(&c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update combo: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update combo: %w", err)
	}

	if _, err := db.ExecContext(ctx,
		`DELETE FROM combo_courses WHERE combo_id = $1`, c.ID); err != nil {
		return fmt.Errorf("update combo courses: %w", err)
	}

	if err := insertCourses(ctx, db, c.ID, c.CourseIDs); err != nil {
		return fmt.Errorf("update combo: %w", err)
	}

	return nil
}

func (r *repository) SetActive(ctx context.Context, id string, active bool) error {
	result, err := core.Conn(ctx, r.db).ExecContext(ctx, `
		UPDATE combos SET is_active = $2, updated_at = NOW()
		WHERE id = $1`, id, active)
	if err != nil {
		return fmt.Errorf("set combo active: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set combo active: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("set combo active: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	result, err := core.Conn(ctx, r.db).ExecContext(ctx,
		`DELETE FROM combos WHERE id = $1`, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return fmt.Errorf("delete combo: still referenced: %w", core.ErrInvalidState)
		}
		return fmt.Errorf("delete combo: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete combo: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("delete combo: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Combo, error) {
	db := core.Conn(ctx, r.db)

	query := `
		SELECT id, name, description, price, discount_price, duration, is_active,
		       created_at, updated_at
		FROM combos
		WHERE id = $1`

	var c Combo
	err := db.GetContext(ctx, &c, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get combo: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get combo: %w", err)
	}

	if err := db.SelectContext(ctx, &c.CourseIDs, `
		SELECT course_id FROM combo_courses
		WHERE combo_id = $1
		ORDER BY position`, id); err != nil {
		return nil, fmt.Errorf("get combo courses: %w", err)
	}

	return &c, nil
}

func (r *repository) List(ctx context.Context, activeOnly bool) ([]Combo, error) {
	db := core.Conn(ctx, r.db)

	query := `
		SELECT id, name, description, price, discount_price, duration, is_active,
		       created_at, updated_at
		FROM combos`
	if activeOnly {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY created_at DESC`

	var combos []Combo
	if err := db.SelectContext(ctx, &combos, query); err != nil {
		return nil, fmt.Errorf("list combos: %w", err)
	}
	if len(combos) == 0 {
		return combos, nil
	}

	ids := make([]string, 0, len(combos))
	for _, c := range combos {
		ids = append(ids, c.ID)
	}

	inQuery, args, err := sqlx.In(`
		SELECT combo_id, course_id FROM combo_courses
		WHERE combo_id IN (?)
		ORDER BY combo_id, position`, ids)
	if err != nil {
		return nil, fmt.Errorf("list combo courses: %w", err)
	}

	var links []struct {
		ComboID  string `db:"combo_id"`
		CourseID string `db:"course_id"`
	}
	if err := db.SelectContext(ctx, &links, db.Rebind(inQuery), args...); err != nil {
		return nil, fmt.Errorf("list combo courses: %w", err)
	}

	byCombo := make(map[string][]string, len(combos))
	for _, l := range links {
		byCombo[l.ComboID] = append(byCombo[l.ComboID], l.CourseID)
	}
	for i := range combos {
		combos[i].CourseIDs = byCombo[combos[i].ID]
	}

	return combos, nil
}

func (r *repository) ContainsCourse(
	ctx context.Context,
	comboID, courseID string,
) (bool, error) {
	var ok bool
	err := core.Conn(ctx, r.db).GetContext(ctx, &ok, `
		SELECT EXISTS(
			SELECT 1 FROM combo_courses WHERE combo_id = $1 AND course_id = $2
		)`, comboID, courseID)
	if err != nil {
		return false, fmt.Errorf("check combo course: %w", err)
	}
	return ok, nil
}

func insertCourses(ctx context.Context, db core.DBTX, comboID string, courseIDs []string) error {
	for i, courseID := range courseIDs {
		if _, err := db.ExecContext(ctx, `
			INSERT INTO combo_courses (combo_id, course_id, position)
			VALUES ($1, $2, $3)`, comboID, courseID, i); err != nil {
			return fmt.Errorf("insert combo course: %w", err)
		}
	}
	return nil
}
