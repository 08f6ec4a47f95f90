// AngelaMos | 2026
// plan_test.go

package order_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/coursehub/internal/core"
	"github.com/carterperez-dev/coursehub/internal/order"
)

func TestParsePlan(t *testing.T) {
	tests := []struct {
		name     string
		planType string
		courseID string
		comboID  string
		want     order.Plan
		wantErr  bool
	}{
		{"single", "single", "c1", "", order.SinglePlan{CourseID: "c1"}, false},
		{"single trims and lowercases", " Single ", " c1 ", "", order.SinglePlan{CourseID: "c1"}, false},
		{"single missing course", "single", "", "", nil, true},
		{"single with combo", "single", "c1", "b1", nil, true},
		{"combo", "combo", "", "b1", order.ComboPlan{ComboID: "b1"}, false},
		{"combo missing combo", "combo", "", "", nil, true},
		{"combo with course", "combo", "c1", "b1", nil, true},
		{"quarterly", "quarterly", "", "", order.QuarterlyPlan{}, false},
		{"quarterly with course", "quarterly", "c1", "", nil, true},
		{"kit", "kit", "", "", order.KitPlan{}, false},
		{"kit with combo", "kit", "", "b1", nil, true},
		{"school", "school", "", "", order.SchoolPlan{}, false},
		{"unknown", "monthly", "", "", nil, true},
		{"empty", "", "", "", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := order.ParsePlan(tt.planType, tt.courseID, tt.comboID)
			if tt.wantErr {
				require.ErrorIs(t, err, core.ErrInvalidInput)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOrderPlanRoundTrip(t *testing.T) {
	courseID := "c1"
	o := order.NewOrder("o1", "u1", order.SinglePlan{CourseID: courseID})

	assert.Equal(t, order.PlanSingle, o.PlanType)
	assert.Equal(t, order.StatusPending, o.PaymentStatus)
	require.NotNil(t, o.CourseID)
	assert.Nil(t, o.ComboID)

	plan, err := o.Plan()
	require.NoError(t, err)
	assert.Equal(t, order.SinglePlan{CourseID: courseID}, plan)
}
