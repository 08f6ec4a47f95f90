// AngelaMos | 2026
// dto.go

package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateOrderRequest is checked for shape by ParsePlan, not by tags.
type CreateOrderRequest struct {
	PlanType      string           `json:"plan_type"      validate:"required"`
	CourseID      string           `json:"course_id"      validate:"omitempty,uuid"`
	ComboID       string           `json:"combo_id"       validate:"omitempty,uuid"`
	Amount        *decimal.Decimal `json:"amount,omitempty"`
	PaymentMethod string           `json:"payment_method" validate:"required,max=50"`
	PaymentRef    string           `json:"payment_ref"    validate:"max=200"`
}

type RejectOrderRequest struct {
	Reason string `json:"reason" validate:"max=1000"`
}

type OrderResponse struct {
	ID            string          `json:"id"`
	UserID        string          `json:"user_id"`
	PlanType      PlanType        `json:"plan_type"`
	CourseID      *string         `json:"course_id,omitempty"`
	ComboID       *string         `json:"combo_id,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"payment_method"`
	PaymentStatus PaymentStatus   `json:"payment_status"`
	IsActive      bool            `json:"is_active"`
	StartDate     *time.Time      `json:"start_date,omitempty"`
	EndDate       *time.Time      `json:"end_date"`
	Note          string          `json:"note,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

type ListOrdersParams struct {
	Page     int
	PageSize int
	Status   string
	PlanType string
	UserID   string
}

func (p *ListOrdersParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
}

func (p *ListOrdersParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

func ToOrderResponse(o *Order) OrderResponse {
	return OrderResponse{
		ID:            o.ID,
		UserID:        o.UserID,
		PlanType:      o.PlanType,
		CourseID:      o.CourseID,
		ComboID:       o.ComboID,
		Amount:        o.Amount,
		PaymentMethod: o.PaymentMethod,
		PaymentStatus: o.PaymentStatus,
		IsActive:      o.IsActive,
		StartDate:     o.StartDate,
		EndDate:       o.EndDate,
		Note:          o.Note,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
}

func ToOrderResponseList(orders []Order) []OrderResponse {
	out := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, ToOrderResponse(&orders[i]))
	}
	return out
}
