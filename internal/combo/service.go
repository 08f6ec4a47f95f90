// AngelaMos | 2026
// service.go

package combo

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/carterperez-dev/coursehub/internal/core"
)

// CourseCounter reports how many of the given ids are real courses.
type CourseCounter interface {
	CountExisting(ctx context.Context, ids []string) (int, error)
}

type Service struct {
	repo       Repository
	courses    CourseCounter
	tx         core.Transactor
	maxCourses int
}

func NewService(
	repo Repository,
	courses CourseCounter,
	tx core.Transactor,
	maxCourses int,
) *Service {
	if tx == nil {
		tx = core.NoTx{}
	}
	return &Service{
		repo:       repo,
		courses:    courses,
		tx:         tx,
		maxCourses: maxCourses,
	}
}

func (s *Service) Create(ctx context.Context, req CreateComboRequest) (*Combo, error) {
	duration, err := ParseDuration(req.Duration)
	if err != nil {
		return nil, fmt.Errorf("create combo: %v: %w", err, core.ErrInvalidInput)
	}

	c := &Combo{
		ID:          uuid.New().String(),
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Price:       req.Price,
		Duration:    duration,
		IsActive:    true,
		CourseIDs:   dedupe(req.CourseIDs),
	}
	if req.DiscountPrice != nil {
		c.DiscountPrice = decimal.NewNullDecimal(*req.DiscountPrice)
	}

	if err := s.validate(ctx, c); err != nil {
		return nil, fmt.Errorf("create combo: %w", err)
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, c)
	})
	if err != nil {
		return nil, err
	}

	return c, nil
}

func (s *Service) Update(
	ctx context.Context,
	id string,
	req UpdateComboRequest,
) (*Combo, error) {
	var updated *Combo

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		c, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}

		if req.Name != nil {
			c.Name = strings.TrimSpace(*req.Name)
		}
		if req.Description != nil {
			c.Description = *req.Description
		}
		if req.Price != nil {
			c.Price = *req.Price
		}
		if req.DiscountPrice != nil {
			c.DiscountPrice = decimal.NewNullDecimal(*req.DiscountPrice)
		}
		if req.Duration != nil {
			d, err := ParseDuration(*req.Duration)
			if err != nil {
				return fmt.Errorf("update combo: %v: %w", err, core.ErrInvalidInput)
			}
			c.Duration = d
		}
		if req.IsActive != nil {
			c.IsActive = *req.IsActive
		}
		if req.CourseIDs != nil {
			c.CourseIDs = dedupe(req.CourseIDs)
		}

		if err := s.validate(ctx, c); err != nil {
			return fmt.Errorf("update combo: %w", err)
		}

		if err := s.repo.Update(ctx, c); err != nil {
			return err
		}
		updated = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// Disable hides a combo from sale while keeping orders that reference it
// resolvable.
func (s *Service) Disable(ctx context.Context, id string) error {
	return s.repo.SetActive(ctx, id, false)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) Get(ctx context.Context, id string) (*Combo, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, activeOnly bool) ([]Combo, error) {
	return s.repo.List(ctx, activeOnly)
}

func (s *Service) validate(ctx context.Context, c *Combo) error {
	n := len(c.CourseIDs)
	if n == 0 {
		return fmt.Errorf("combo needs at least one course: %w", core.ErrInvalidInput)
	}
	if n > s.maxCourses {
		return fmt.Errorf(
			"combo holds at most %d courses: %w",
			s.maxCourses,
			core.ErrInvalidInput,
		)
	}

	if c.Price.IsNegative() {
		return fmt.Errorf("price must not be negative: %w", core.ErrInvalidInput)
	}
	if c.DiscountPrice.Valid {
		dp := c.DiscountPrice.Decimal
		if dp.IsNegative() || dp.GreaterThan(c.Price) {
			return fmt.Errorf(
				"discount price must be between 0 and price: %w",
				core.ErrInvalidInput,
			)
		}
	}

	found, err := s.courses.CountExisting(ctx, c.CourseIDs)
	if err != nil {
		return err
	}
	if found != n {
		return fmt.Errorf("combo references unknown course: %w", core.ErrNotFound)
	}

	return nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
