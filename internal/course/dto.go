// AngelaMos | 2026
// dto.go

package course

import (
	"time"

	"github.com/shopspring/decimal"
)

type CreateCourseRequest struct {
	Title       string          `json:"title"       validate:"required,min=1,max=200"`
	Slug        string          `json:"slug"        validate:"required,min=1,max=200"`
	Description string          `json:"description" validate:"max=5000"`
	Price       decimal.Decimal `json:"price"`
	Published   bool            `json:"published"`
}

type CourseResponse struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Slug        string          `json:"slug"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Published   bool            `json:"published"`
	CreatedAt   time.Time       `json:"created_at"`
}

type ListCoursesParams struct {
	Page          int
	PageSize      int
	PublishedOnly bool
}

func (p *ListCoursesParams) Normalize() {
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

func (p *ListCoursesParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

func ToCourseResponse(c *Course) CourseResponse {
	return CourseResponse{
		ID:          c.ID,
		Title:       c.Title,
		Slug:        c.Slug,
		Description: c.Description,
		Price:       c.Price,
		Published:   c.Published,
		CreatedAt:   c.CreatedAt,
	}
}

func ToCourseResponseList(courses []Course) []CourseResponse {
	out := make([]CourseResponse, 0, len(courses))
	for i := range courses {
		out = append(out, ToCourseResponse(&courses[i]))
	}
	return out
}
