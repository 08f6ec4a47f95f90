// AngelaMos | 2026
// repository.go

package course

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
	Create(ctx context.Context, c *Course) error
	GetByID(ctx context.Context, id string) (*Course, error)
	List(ctx context.Context, params ListCoursesParams) ([]Course, int, error)
	Exists(ctx context.Context, id string) (bool, error)
	CountExisting(ctx context.Context, ids []string) (int, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, c *Course) error {
	query := `
		INSERT INTO courses (id, title, slug, description, price, published)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`

	err := core.Conn(ctx, r.db).QueryRowxContext(ctx, query,
		c.ID,
		c.Title,
		c.Slug,
		c.Description,
		c.Price,
		c.Published,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("create course: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create course: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Course, error) {
	query := `
		SELECT id, title, slug, description, price, published, created_at, updated_at
		FROM courses
		WHERE id = $1`

	var c Course
	err := core.Conn(ctx, r.db).GetContext(ctx, &c, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get course: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get course: %w", err)
	}

	return &c, nil
}

func (r *repository) List(
	ctx context.Context,
	params ListCoursesParams,
) ([]Course, int, error) {
	params.Normalize()
	db := core.Conn(ctx, r.db)

	where := "TRUE"
	if params.PublishedOnly {
		where = "published = TRUE"
	}

	var total int
	if err := db.GetContext(ctx, &total,
		"SELECT COUNT(*) FROM courses WHERE "+where); err != nil {
		return nil, 0, fmt.Errorf("count courses: %w", err)
	}

	query := `
		SELECT id, title, slug, description, price, published, created_at, updated_at
		FROM courses
		WHERE ` + where + `
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	var courses []Course
	if err := db.SelectContext(ctx, &courses, query,
		params.PageSize, params.Offset()); err != nil {
		return nil, 0, fmt.Errorf("list courses: %w", err)
	}

	return courses, total, nil
}

func (r *repository) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := core.Conn(ctx, r.db).GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM courses WHERE id = $1)`, id)
	if err != nil {
		return false, fmt.Errorf("check course exists: %w", err)
	}
	return exists, nil
}

// CountExisting returns how many of ids refer to existing courses.
func (r *repository) CountExisting(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	query, args, err := sqlx.In(`SELECT COUNT(*) FROM courses WHERE id IN (?)`, ids)
	if err != nil {
		return 0, fmt.Errorf("count courses: %w", err)
	}

	var n int
	if err := core.Conn(ctx, r.db).GetContext(ctx, &n,
		sqlx.Rebind(sqlx.DOLLAR, query), args...); err != nil {
		return 0, fmt.Errorf("count courses: %w", err)
	}
	return n, nil
}
