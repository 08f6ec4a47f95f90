// AngelaMos | 2026
// entity.go

package course

import (
	"time"

	"github.com/shopspring/decimal"
)

type Course struct {
	ID          string          `db:"id"`
	Title       string          `db:"title"`
	Slug        string          `db:"slug"`
	Description string          `db:"description"`
	Price       decimal.Decimal `db:"price"`
	Published   bool            `db:"published"`
	CreatedAt   time.Time       `db:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at"`
}
