// AngelaMos | 2026
// catalogue.go

package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"

	"github.com/carterperez-dev/coursehub/internal/combo"
	"github.com/carterperez-dev/coursehub/internal/core"
	"github.com/carterperez-dev/coursehub/internal/course"
)

type courseRepo struct{ s *Store }

func (r courseRepo) Create(_ context.Context, c *course.Course) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.courses {
		if existing.Slug == c.Slug || existing.ID == c.ID {
			return fmt.Errorf("create course: %w", core.ErrDuplicateKey)
		}
	}

	c.CreatedAt = r.s.stamp()
	c.UpdatedAt = c.CreatedAt
	r.s.courses[c.ID] = *c
	return nil
}

func (r courseRepo) GetByID(_ context.Context, id string) (*course.Course, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.courses[id]
	if !ok {
		return nil, fmt.Errorf("get course: %w", core.ErrNotFound)
	}
	return &c, nil
}

func (r courseRepo) List(_ context.Context, params course.ListCoursesParams) ([]course.Course, int, error) {
	params.Normalize()

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var all []course.Course
	for _, c := range r.s.courses {
		if params.PublishedOnly && !c.Published {
			continue
		}
		all = append(all, c)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	return paginate(all, params.Offset(), params.PageSize), len(all), nil
}

func (r courseRepo) Exists(_ context.Context, id string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	_, ok := r.s.courses[id]
	return ok, nil
}

func (r courseRepo) CountExisting(_ context.Context, ids []string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	n := 0
	for _, id := range ids {
		if _, ok := r.s.courses[id]; ok {
			n++
		}
	}
	return n, nil
}

type comboRepo struct{ s *Store }

func (r comboRepo) Create(_ context.Context, c *combo.Combo) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.combos[c.ID]; ok {
		return fmt.Errorf("create combo: %w", core.ErrDuplicateKey)
	}
	for _, id := range c.CourseIDs {
		if _, ok := r.s.courses[id]; !ok {
			return fmt.Errorf("create combo: course %s: %w", id, core.ErrNotFound)
		}
	}

	c.CreatedAt = r.s.stamp()
	c.UpdatedAt = c.CreatedAt
	stored := *c
	stored.CourseIDs = slices.Clone(c.CourseIDs)
	r.s.combos[c.ID] = stored
	return nil
}

func (r comboRepo) Update(_ context.Context, c *combo.Combo) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.combos[c.ID]
	if !ok {
		return fmt.Errorf("update combo: %w", core.ErrNotFound)
	}

	c.CreatedAt = existing.CreatedAt
	c.UpdatedAt = r.s.now()
	stored := *c
	stored.CourseIDs = slices.Clone(c.CourseIDs)
	r.s.combos[c.ID] = stored
	return nil
}

func (r comboRepo) SetActive(_ context.Context, id string, active bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.combos[id]
	if !ok {
		return fmt.Errorf("set combo active: %w", core.ErrNotFound)
	}
	c.IsActive = active
	c.UpdatedAt = r.s.now()
	r.s.combos[id] = c
	return nil
}

func (r comboRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.combos[id]; !ok {
		return fmt.Errorf("delete combo: %w", core.ErrNotFound)
	}
	for _, o := range r.s.orders {
		if o.ComboID != nil && *o.ComboID == id {
			return fmt.Errorf("delete combo: referenced by orders: %w", core.ErrInvalidState)
		}
	}
	for _, e := range r.s.enrollments {
		if e.ComboID != nil && *e.ComboID == id {
			return fmt.Errorf("delete combo: referenced by enrollments: %w", core.ErrInvalidState)
		}
	}

	delete(r.s.combos, id)
	return nil
}

func (r comboRepo) GetByID(_ context.Context, id string) (*combo.Combo, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.combos[id]
	if !ok {
		return nil, fmt.Errorf("get combo: %w", core.ErrNotFound)
	}
	c.CourseIDs = slices.Clone(c.CourseIDs)
	return &c, nil
}

func (r comboRepo) List(_ context.Context, activeOnly bool) ([]combo.Combo, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var list []combo.Combo
	for _, c := range r.s.combos {
		if activeOnly && !c.IsActive {
			continue
		}
		c.CourseIDs = slices.Clone(c.CourseIDs)
		list = append(list, c)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return list, nil
}

func (r comboRepo) ContainsCourse(_ context.Context, comboID, courseID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.combos[comboID]
	if !ok {
		return false, nil
	}
	return c.Contains(courseID), nil
}
