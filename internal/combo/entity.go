// AngelaMos | 2026
// entity.go

package combo

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Combo struct {
	ID            string              `db:"id"`
	Name          string              `db:"name"`
	Description   string              `db:"description"`
	Price         decimal.Decimal     `db:"price"`
	DiscountPrice decimal.NullDecimal `db:"discount_price"`
	Duration      Duration            `db:"duration"`
	IsActive      bool                `db:"is_active"`
	CourseIDs     []string            `db:"-"`
	CreatedAt     time.Time           `db:"created_at"`
	UpdatedAt     time.Time           `db:"updated_at"`
}

func (c *Combo) Contains(courseID string) bool {
	for _, id := range c.CourseIDs {
		if id == courseID {
			return true
		}
	}
	return false
}

// EffectivePrice is the discount price when one is set.
func (c *Combo) EffectivePrice() decimal.Decimal {
	if c.DiscountPrice.Valid {
		return c.DiscountPrice.Decimal
	}
	return c.Price
}

// Duration is an access-length label such as "3-months" or "lifetime".
type Duration string

const (
	OneMonth    Duration = "1-month"
	TwoMonths   Duration = "2-months"
	ThreeMonths Duration = "3-months"
	Lifetime    Duration = "lifetime"
)

func ParseDuration(label string) (Duration, error) {
	d := Duration(strings.ToLower(strings.TrimSpace(label)))
	switch d {
	case OneMonth, TwoMonths, ThreeMonths, Lifetime:
		return d, nil
	}
	return "", fmt.Errorf("unknown duration %q", label)
}

func (d Duration) IsLifetime() bool {
	return d == Lifetime
}

// Months reads the leading integer of the label. Lifetime and malformed
// labels report 0.
func (d Duration) Months() int {
	head, _, _ := strings.Cut(string(d), "-")
	n, err := strconv.Atoi(head)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// AccessEnd returns now plus the label's months, or nil for lifetime.
func (d Duration) AccessEnd(now time.Time) *time.Time {
	if d.IsLifetime() {
		return nil
	}
	end := now.AddDate(0, d.Months(), 0)
	return &end
}
