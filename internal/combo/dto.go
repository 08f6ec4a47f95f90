// AngelaMos | 2026
// dto.go

package combo

import (
	"time"

	"github.com/shopspring/decimal"
)

type CreateComboRequest struct {
	Name          string           `json:"name"           validate:"required,min=1,max=200"`
	Description   string           `json:"description"    validate:"max=5000"`
	CourseIDs     []string         `json:"course_ids"     validate:"required,min=1,dive,uuid"`
	Price         decimal.Decimal  `json:"price"`
	DiscountPrice *decimal.Decimal `json:"discount_price,omitempty"`
	Duration      string           `json:"duration"       validate:"required,oneof=1-month 2-months 3-months lifetime"`
}

type UpdateComboRequest struct {
	Name          *string          `json:"name,omitempty"        validate:"omitempty,min=1,max=200"`
	Description   *string          `json:"description,omitempty" validate:"omitempty,max=5000"`
	CourseIDs     []string         `json:"course_ids,omitempty"  validate:"omitempty,min=1,dive,uuid"`
	Price         *decimal.Decimal `json:"price,omitempty"`
	DiscountPrice *decimal.Decimal `json:"discount_price,omitempty"`
	Duration      *string          `json:"duration,omitempty"    validate:"omitempty,oneof=1-month 2-months 3-months lifetime"`
	IsActive      *bool            `json:"is_active,omitempty"`
}

type ComboResponse struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	Description   string           `json:"description"`
	CourseIDs     []string         `json:"course_ids"`
	Price         decimal.Decimal  `json:"price"`
	DiscountPrice *decimal.Decimal `json:"discount_price,omitempty"`
	Duration      Duration         `json:"duration"`
	IsActive      bool             `json:"is_active"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

func ToComboResponse(c *Combo) ComboResponse {
	resp := ComboResponse{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		CourseIDs:   c.CourseIDs,
		Price:       c.Price,
		Duration:    c.Duration,
		IsActive:    c.IsActive,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
	if resp.CourseIDs == nil {
		resp.CourseIDs = []string{}
	}
	if c.DiscountPrice.Valid {
		dp := c.DiscountPrice.Decimal
		resp.DiscountPrice = &dp
	}
	return resp
}

func ToComboResponseList(combos []Combo) []ComboResponse {
	out := make([]ComboResponse, 0, len(combos))
	for i := range combos {
		out = append(out, ToComboResponse(&combos[i]))
	}
	return out
}
