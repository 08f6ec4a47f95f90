// AngelaMos | 2026
// service.go

package course

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/carterperez-dev/coursehub/internal/core"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(
	ctx context.Context,
	req CreateCourseRequest,
) (*Course, error) {
	if req.Price.IsNegative() {
		return nil, fmt.Errorf("create course: negative price: %w", core.ErrInvalidInput)
	}

	c := &Course{
		ID:          uuid.New().String(),
		Title:       strings.TrimSpace(req.Title),
		Slug:        strings.ToLower(strings.TrimSpace(req.Slug)),
		Description: req.Description,
		Price:       req.Price,
		Published:   req.Published,
	}

	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Course, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(
	ctx context.Context,
	params ListCoursesParams,
) ([]Course, int, error) {
	return s.repo.List(ctx, params)
}

func (s *Service) Exists(ctx context.Context, id string) (bool, error) {
	return s.repo.Exists(ctx, id)
}
