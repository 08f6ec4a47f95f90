// AngelaMos | 2026
// service_test.go

package combo_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/coursehub/internal/combo"
	"github.com/carterperez-dev/coursehub/internal/core"
	"github.com/carterperez-dev/coursehub/internal/course"
	"github.com/carterperez-dev/coursehub/internal/enrollment"
	"github.com/carterperez-dev/coursehub/internal/store/memory"
)

func setup(t *testing.T, maxCourses int) (*memory.Store, *combo.Service, []string) {
	t.Helper()

	store := memory.New(nil)
	ids := make([]string, 3)
	for i := range ids {
		c := &course.Course{
			ID:    uuid.New().String(),
			Slug:  uuid.New().String(),
			Title: "Course",
			Price: decimal.RequireFromString("10"),
		}
		require.NoError(t, store.Courses().Create(context.Background(), c))
		ids[i] = c.ID
	}

	return store, combo.NewService(store.Combos(), store.Courses(), store, maxCourses), ids
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestService_Create(t *testing.T) {
	_, svc, ids := setup(t, 3)
	ctx := context.Background()

	c, err := svc.Create(ctx, combo.CreateComboRequest{
		Name:          "  Full Stack  ",
		CourseIDs:     []string{ids[0], ids[1], ids[0]},
		Price:         decimal.RequireFromString("50"),
		DiscountPrice: dec("40"),
		Duration:      "3-months",
	})
	require.NoError(t, err)

	assert.Equal(t, "Full Stack", c.Name)
	assert.Equal(t, []string{ids[0], ids[1]}, c.CourseIDs)
	assert.Equal(t, combo.ThreeMonths, c.Duration)
	assert.True(t, c.IsActive)

	stored, err := svc.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, stored.EffectivePrice().Equal(decimal.RequireFromString("40")))
}

func TestService_CreateValidation(t *testing.T) {
	_, svc, ids := setup(t, 2)

	tests := []struct {
		name    string
		req     combo.CreateComboRequest
		wantErr error
	}{
		{
			"bad duration",
			combo.CreateComboRequest{Name: "x", CourseIDs: ids[:1], Duration: "weekly"},
			core.ErrInvalidInput,
		},
		{
			"too many courses",
			combo.CreateComboRequest{Name: "x", CourseIDs: ids, Duration: "1-month"},
			core.ErrInvalidInput,
		},
		{
			"no courses",
			combo.CreateComboRequest{Name: "x", Duration: "1-month"},
			core.ErrInvalidInput,
		},
		{
			"discount above price",
			combo.CreateComboRequest{
				Name:          "x",
				CourseIDs:     ids[:1],
				Price:         decimal.RequireFromString("10"),
				DiscountPrice: dec("11"),
				Duration:      "1-month",
			},
			core.ErrInvalidInput,
		},
		{
			"unknown course",
			combo.CreateComboRequest{Name: "x", CourseIDs: []string{uuid.New().String()}, Duration: "lifetime"},
			core.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tt.req)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestService_UpdateAndDisable(t *testing.T) {
	_, svc, ids := setup(t, 5)
	ctx := context.Background()

	c, err := svc.Create(ctx, combo.CreateComboRequest{
		Name:      "Bundle",
		CourseIDs: ids[:2],
		Price:     decimal.RequireFromString("30"),
		Duration:  "1-month",
	})
	require.NoError(t, err)

	lifetime := "lifetime"
	updated, err := svc.Update(ctx, c.ID, combo.UpdateComboRequest{
		Duration:  &lifetime,
		CourseIDs: ids,
	})
	require.NoError(t, err)
	assert.Equal(t, combo.Lifetime, updated.Duration)
	assert.Len(t, updated.CourseIDs, 3)

	bad := "forever"
	_, err = svc.Update(ctx, c.ID, combo.UpdateComboRequest{Duration: &bad})
	require.ErrorIs(t, err, core.ErrInvalidInput)

	require.NoError(t, svc.Disable(ctx, c.ID))

	active, err := svc.List(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, active)

	all, err := svc.List(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestService_DeleteReferencedCombo(t *testing.T) {
	store, svc, ids := setup(t, 5)
	ctx := context.Background()

	c, err := svc.Create(ctx, combo.CreateComboRequest{
		Name:      "Bundle",
		CourseIDs: ids[:1],
		Duration:  "1-month",
	})
	require.NoError(t, err)

	comboID := c.ID
	require.NoError(t, store.Enrollments().UpsertAccess(ctx, &enrollment.Enrollment{
		ID:        uuid.New().String(),
		StudentID: "u1",
		CourseID:  ids[0],
		ComboID:   &comboID,
	}))

	err = svc.Delete(ctx, c.ID)
	require.ErrorIs(t, err, core.ErrInvalidState)

	unused, err := svc.Create(ctx, combo.CreateComboRequest{
		Name:      "Spare",
		CourseIDs: ids[1:2],
		Duration:  "lifetime",
	})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, unused.ID))

	_, err = svc.Get(ctx, unused.ID)
	require.ErrorIs(t, err, core.ErrNotFound)
}
