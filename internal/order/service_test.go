// AngelaMos | 2026
// service_test.go

package order_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/coursehub/internal/combo"
	"github.com/carterperez-dev/coursehub/internal/config"
	"github.com/carterperez-dev/coursehub/internal/core"
	"github.com/carterperez-dev/coursehub/internal/course"
	"github.com/carterperez-dev/coursehub/internal/enrollment"
	"github.com/carterperez-dev/coursehub/internal/notify"
	"github.com/carterperez-dev/coursehub/internal/order"
	"github.com/carterperez-dev/coursehub/internal/store/memory"
)

var t0 = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(kind string, ev notify.OrderEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, kind+":"+ev.OrderID)
}

func (r *recorder) OrderCreated(_ context.Context, ev notify.OrderEvent)  { r.add("created", ev) }
func (r *recorder) OrderApproved(_ context.Context, ev notify.OrderEvent) { r.add("approved", ev) }
func (r *recorder) OrderRejected(_ context.Context, ev notify.OrderEvent) { r.add("rejected", ev) }

type fixture struct {
	store       *memory.Store
	cfg         config.AccessConfig
	orders      *order.Service
	enrollments *enrollment.Service
	events      *recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.New(core.FixedClock(t0))
	cfg := config.Defaults().Access
	events := &recorder{}

	enrollments := enrollment.NewService(store.Enrollments(), store.Combos(), store, nil)
	orders := order.NewService(cfg, order.Deps{
		Repo:        store.Orders(),
		Courses:     store.Courses(),
		Combos:      store.Combos(),
		Enrollments: enrollments,
		Tx:          store,
		Notifier:    events,
		Clock:       core.FixedClock(t0),
	})

	return &fixture{
		store:       store,
		cfg:         cfg,
		orders:      orders,
		enrollments: enrollments,
		events:      events,
	}
}

func (f *fixture) course(t *testing.T, price string) string {
	t.Helper()
	c := &course.Course{
		ID:        uuid.New().String(),
		Title:     "Course",
		Slug:      uuid.New().String(),
		Price:     decimal.RequireFromString(price),
		Published: true,
	}
	require.NoError(t, f.store.Courses().Create(context.Background(), c))
	return c.ID
}

func (f *fixture) combo(t *testing.T, d combo.Duration, courseIDs ...string) *combo.Combo {
	t.Helper()
	c := &combo.Combo{
		ID:        uuid.New().String(),
		Name:      "Bundle",
		Price:     decimal.RequireFromString("100"),
		Duration:  d,
		IsActive:  true,
		CourseIDs: courseIDs,
	}
	require.NoError(t, f.store.Combos().Create(context.Background(), c))
	return c
}

func (f *fixture) place(t *testing.T, userID string, req order.CreateOrderRequest) *order.Order {
	t.Helper()
	if req.PaymentMethod == "" {
		req.PaymentMethod = "bank_transfer"
	}
	o, err := f.orders.Create(context.Background(), userID, req)
	require.NoError(t, err)
	return o
}

func TestCreate_PricesFromCatalogue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	courseID := f.course(t, "49.90")
	discounted := f.combo(t, combo.OneMonth, courseID)
	discounted.DiscountPrice = decimal.NewNullDecimal(decimal.RequireFromString("75"))
	require.NoError(t, f.store.Combos().Update(ctx, discounted))

	override := decimal.RequireFromString("1")

	single := f.place(t, "u1", order.CreateOrderRequest{
		PlanType: "single",
		CourseID: courseID,
		Amount:   &override,
	})
	assert.True(t, single.Amount.Equal(decimal.RequireFromString("49.90")))
	assert.Equal(t, order.StatusPending, single.PaymentStatus)
	assert.False(t, single.IsActive)

	bundle := f.place(t, "u1", order.CreateOrderRequest{PlanType: "combo", ComboID: discounted.ID})
	assert.True(t, bundle.Amount.Equal(decimal.RequireFromString("75")))

	quarterly := f.place(t, "u1", order.CreateOrderRequest{PlanType: "quarterly", Amount: &override})
	assert.True(t, quarterly.Amount.Equal(override))
}

func TestCreate_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	courseID := f.course(t, "10")
	inactive := f.combo(t, combo.OneMonth, courseID)
	require.NoError(t, f.store.Combos().SetActive(ctx, inactive.ID, false))

	negative := decimal.RequireFromString("-1")

	tests := []struct {
		name    string
		userID  string
		req     order.CreateOrderRequest
		wantErr error
	}{
		{"anonymous", "", order.CreateOrderRequest{PlanType: "kit"}, core.ErrUnauthorized},
		{"single without course", "u1", order.CreateOrderRequest{PlanType: "single"}, core.ErrInvalidInput},
		{"unknown plan", "u1", order.CreateOrderRequest{PlanType: "gold"}, core.ErrInvalidInput},
		{"missing course", "u1", order.CreateOrderRequest{PlanType: "single", CourseID: uuid.New().String()}, core.ErrNotFound},
		{"inactive combo", "u1", order.CreateOrderRequest{PlanType: "combo", ComboID: inactive.ID}, core.ErrInvalidState},
		{"negative amount", "u1", order.CreateOrderRequest{PlanType: "school", Amount: &negative}, core.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.req.PaymentMethod = "cash"
			_, err := f.orders.Create(ctx, tt.userID, tt.req)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestApprove_QuarterlyStacksOnActiveWindow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.place(t, "u1", order.CreateOrderRequest{PlanType: "quarterly"})
	first, err := f.orders.Approve(ctx, first.ID, t0)
	require.NoError(t, err)
	require.NotNil(t, first.EndDate)
	assert.Equal(t, t0.Add(f.cfg.QuarterlyPeriod), *first.EndDate)

	later := t0.Add(10 * 24 * time.Hour)
	second := f.place(t, "u1", order.CreateOrderRequest{PlanType: "quarterly"})
	second, err = f.orders.Approve(ctx, second.ID, later)
	require.NoError(t, err)

	assert.Equal(t, *first.EndDate, *second.StartDate)
	assert.Equal(t, first.EndDate.Add(f.cfg.QuarterlyPeriod), *second.EndDate)
}

func TestApprove_QuarterlyIgnoresLapsedWindow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.place(t, "u1", order.CreateOrderRequest{PlanType: "quarterly"})
	first, err := f.orders.Approve(ctx, first.ID, t0)
	require.NoError(t, err)

	after := first.EndDate.Add(time.Hour)
	second := f.place(t, "u1", order.CreateOrderRequest{PlanType: "quarterly"})
	second, err = f.orders.Approve(ctx, second.ID, after)
	require.NoError(t, err)

	assert.Equal(t, after, *second.StartDate)
}

func TestApprove_SingleEnrollsOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	courseID := f.course(t, "20")

	for range 2 {
		o := f.place(t, "u1", order.CreateOrderRequest{PlanType: "single", CourseID: courseID})
		approved, err := f.orders.Approve(ctx, o.ID, t0)
		require.NoError(t, err)
		assert.Equal(t, t0.Add(f.cfg.SinglePeriod), *approved.EndDate)
	}

	list, err := f.enrollments.ListMine(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, courseID, list[0].CourseID)
	assert.Zero(t, list[0].Progress)
}

func TestApprove_KitAndSchoolHaveNoEnd(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, plan := range []string{"kit", "school"} {
		o := f.place(t, "u1", order.CreateOrderRequest{PlanType: plan})
		approved, err := f.orders.Approve(ctx, o.ID, t0)
		require.NoError(t, err)
		assert.Nil(t, approved.EndDate, plan)
		assert.True(t, approved.IsActive, plan)
	}
}

func TestApprove_ComboEnrollsEveryCourse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c1, c2, c3 := f.course(t, "1"), f.course(t, "1"), f.course(t, "1")
	bundle := f.combo(t, combo.OneMonth, c1, c2, c3)

	o := f.place(t, "u1", order.CreateOrderRequest{PlanType: "combo", ComboID: bundle.ID})
	approved, err := f.orders.Approve(ctx, o.ID, t0)
	require.NoError(t, err)

	want := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	require.NotNil(t, approved.EndDate)
	assert.Equal(t, want, *approved.EndDate)

	for _, id := range []string{c1, c2, c3} {
		e, err := f.store.Enrollments().Get(ctx, "u1", id)
		require.NoError(t, err)
		require.NotNil(t, e.AccessEndDate)
		assert.Equal(t, want, *e.AccessEndDate)
		assert.Equal(t, bundle.ID, *e.ComboID)
	}
}

func TestApprove_ComboBatchFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c1, c2 := f.course(t, "1"), f.course(t, "1")
	bundle := f.combo(t, combo.ThreeMonths, c1, c2)
	o := f.place(t, "u1", order.CreateOrderRequest{PlanType: "combo", ComboID: bundle.ID})

	boom := assert.AnError
	f.store.FailEnrollmentWrite = func(e *enrollment.Enrollment) error {
		if e.CourseID == c2 {
			return boom
		}
		return nil
	}

	_, err := f.orders.Approve(ctx, o.ID, t0)
	require.ErrorIs(t, err, core.ErrPartialBatch)

	var batch *enrollment.BatchError
	require.ErrorAs(t, err, &batch)
	assert.Equal(t, c2, batch.CourseID)
	assert.Equal(t, 1, batch.Applied)

	_, err = f.store.Enrollments().Get(ctx, "u1", c1)
	require.ErrorIs(t, err, core.ErrNotFound)

	stored, err := f.orders.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusPending, stored.PaymentStatus)
}

func TestApprove_StatusPolicies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	o := f.place(t, "u1", order.CreateOrderRequest{PlanType: "kit"})
	first, err := f.orders.Approve(ctx, o.ID, t0)
	require.NoError(t, err)

	again, err := f.orders.Approve(ctx, o.ID, t0.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, first.ApprovedAt, again.ApprovedAt)

	rejected := f.place(t, "u1", order.CreateOrderRequest{PlanType: "kit"})
	_, err = f.orders.Reject(ctx, rejected.ID, "")
	require.NoError(t, err)

	_, err = f.orders.Approve(ctx, rejected.ID, t0)
	require.ErrorIs(t, err, core.ErrInvalidState)

	_, err = f.orders.Approve(ctx, uuid.New().String(), t0)
	require.ErrorIs(t, err, core.ErrNotFound)
}

func TestReject_AppendsReasonAndDeactivates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	o := f.place(t, "u1", order.CreateOrderRequest{PlanType: "quarterly"})
	_, err := f.orders.Approve(ctx, o.ID, t0)
	require.NoError(t, err)

	rejected, err := f.orders.Reject(ctx, o.ID, "chargeback")
	require.NoError(t, err)
	assert.Equal(t, order.StatusRejected, rejected.PaymentStatus)
	assert.False(t, rejected.IsActive)
	assert.Equal(t, "rejected: chargeback", rejected.Note)

	again, err := f.orders.Reject(ctx, o.ID, "second")
	require.NoError(t, err)
	assert.Equal(t, "rejected: chargeback", again.Note)

	assert.Equal(t, []string{
		"created:" + o.ID,
		"approved:" + o.ID,
		"rejected:" + o.ID,
	}, f.events.events)
}

func TestReject_ApprovedOrderLosesItsEnrollments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	refunded, kept := f.course(t, "20"), f.course(t, "20")

	o := f.place(t, "u1", order.CreateOrderRequest{PlanType: "single", CourseID: refunded})
	_, err := f.orders.Approve(ctx, o.ID, t0)
	require.NoError(t, err)

	other := f.place(t, "u1", order.CreateOrderRequest{PlanType: "single", CourseID: kept})
	_, err = f.orders.Approve(ctx, other.ID, t0)
	require.NoError(t, err)

	e, err := f.store.Enrollments().Get(ctx, "u1", refunded)
	require.NoError(t, err)
	require.NotNil(t, e.OrderID)
	assert.Equal(t, o.ID, *e.OrderID)
	assert.Nil(t, e.AccessEndDate)

	_, err = f.orders.Reject(ctx, o.ID, "refund")
	require.NoError(t, err)

	e, err = f.store.Enrollments().Get(ctx, "u1", refunded)
	require.NoError(t, err)
	require.NotNil(t, e.AccessEndDate)
	assert.Equal(t, t0, *e.AccessEndDate)
	assert.False(t, e.HasValidAccess(t0))

	e, err = f.store.Enrollments().Get(ctx, "u1", kept)
	require.NoError(t, err)
	assert.True(t, e.HasValidAccess(t0.AddDate(1, 0, 0)))
}

func TestReject_RevokeFailureKeepsOrderApproved(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	bundle := f.combo(t, combo.OneMonth, f.course(t, "1"), f.course(t, "1"))
	o := f.place(t, "u1", order.CreateOrderRequest{PlanType: "combo", ComboID: bundle.ID})
	_, err := f.orders.Approve(ctx, o.ID, t0)
	require.NoError(t, err)

	f.store.FailEnrollmentWrite = func(*enrollment.Enrollment) error { return assert.AnError }

	_, err = f.orders.Reject(ctx, o.ID, "chargeback")
	require.ErrorIs(t, err, assert.AnError)

	stored, err := f.orders.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusApproved, stored.PaymentStatus)
	assert.True(t, stored.IsActive)
}

func TestExpireSweep_IsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	courseID := f.course(t, "5")
	single := f.place(t, "u1", order.CreateOrderRequest{PlanType: "single", CourseID: courseID})
	_, err := f.orders.Approve(ctx, single.ID, t0)
	require.NoError(t, err)

	bundle := f.combo(t, combo.OneMonth, f.course(t, "1"), f.course(t, "1"))
	comboOrder := f.place(t, "u2", order.CreateOrderRequest{PlanType: "combo", ComboID: bundle.ID})
	_, err = f.orders.Approve(ctx, comboOrder.ID, t0)
	require.NoError(t, err)

	kit := f.place(t, "u3", order.CreateOrderRequest{PlanType: "kit"})
	_, err = f.orders.Approve(ctx, kit.ID, t0)
	require.NoError(t, err)

	later := t0.Add(f.cfg.SinglePeriod + 24*time.Hour)

	first, err := f.orders.ExpireSweep(ctx, later)
	require.NoError(t, err)
	assert.Equal(t, int64(2), first.OrdersExpired)
	assert.Equal(t, int64(2), first.EnrollmentsExpired)

	second, err := f.orders.ExpireSweep(ctx, later)
	require.NoError(t, err)
	assert.Equal(t, order.SweepResult{}, second)

	stillKit, err := f.orders.Get(ctx, kit.ID)
	require.NoError(t, err)
	assert.True(t, stillKit.IsActive)
}

func TestListMine_RequiresUser(t *testing.T) {
	f := newFixture(t)

	_, err := f.orders.ListMine(context.Background(), "")
	require.ErrorIs(t, err, core.ErrUnauthorized)

	f.place(t, "u1", order.CreateOrderRequest{PlanType: "kit"})
	f.place(t, "u2", order.CreateOrderRequest{PlanType: "kit"})

	mine, err := f.orders.ListMine(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}
