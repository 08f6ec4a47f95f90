// AngelaMos | 2026
// service_test.go

package user_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/coursehub/internal/access"
	"github.com/carterperez-dev/coursehub/internal/config"
	"github.com/carterperez-dev/coursehub/internal/core"
	"github.com/carterperez-dev/coursehub/internal/enrollment"
	"github.com/carterperez-dev/coursehub/internal/notify"
	"github.com/carterperez-dev/coursehub/internal/order"
	"github.com/carterperez-dev/coursehub/internal/store/memory"
	"github.com/carterperez-dev/coursehub/internal/user"
)

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// holdings stands in for the order side of an account.
type holdings struct {
	broad map[string]bool
	live  map[string]int
	err   error
}

func (h *holdings) HasActiveBroadSubscription(_ context.Context, userID string, _ time.Time) (bool, error) {
	return h.broad[userID], h.err
}

func (h *holdings) CountLive(_ context.Context, userID string, _ time.Time) (int, error) {
	return h.live[userID], h.err
}

type fixture struct {
	store *memory.Store
	svc   *user.Service
	held  *holdings
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New(core.FixedClock(t0))
	held := &holdings{broad: map[string]bool{}, live: map[string]int{}}
	svc := user.NewService(store.Users()).WithHoldings(held, held, core.FixedClock(t0))
	return &fixture{store: store, svc: svc, held: held}
}

func (f *fixture) register(t *testing.T, email string) string {
	t.Helper()
	info, err := f.svc.Create(context.Background(), email, "$argon2id$stub", " "+email+" ")
	require.NoError(t, err)
	return info.ID
}

func (f *fixture) promote(t *testing.T, id string) {
	t.Helper()
	_, err := f.store.Users().SetRole(context.Background(), id, user.RoleAdmin)
	require.NoError(t, err)
}

func TestService_CreateNormalizesAndRejectsDuplicates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	info, err := f.svc.Create(ctx, "  Ada@Example.COM ", "hash", "  Ada  ")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", info.Email)
	assert.Equal(t, "Ada", info.Name)
	assert.Equal(t, user.RoleStudent, info.Role)

	_, err = f.svc.Create(ctx, "ada@example.com", "hash", "Other")
	require.ErrorIs(t, err, core.ErrDuplicateKey)

	found, err := f.svc.GetByEmail(ctx, "ADA@example.com")
	require.NoError(t, err)
	assert.Equal(t, info.ID, found.ID)
}

func TestService_AccountReportsHoldings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.register(t, "sub@example.com")

	f.held.broad[id] = true
	f.held.live[id] = 2

	a, err := f.svc.Account(ctx, id)
	require.NoError(t, err)
	assert.True(t, a.BroadSubscription)
	assert.Equal(t, 2, a.LiveOrders)
	assert.Equal(t, t0, a.CheckedAt)
	assert.False(t, a.Deletable())

	_, err = f.svc.Account(ctx, "")
	require.ErrorIs(t, err, core.ErrUnauthorized)

	f.held.err = errors.New("orders unavailable")
	_, err = f.svc.Account(ctx, id)
	require.Error(t, err)
}

func TestService_AccountWithoutHoldings(t *testing.T) {
	store := memory.New(core.FixedClock(t0))
	svc := user.NewService(store.Users())

	info, err := svc.Create(context.Background(), "plain@example.com", "hash", "Plain")
	require.NoError(t, err)

	a, err := svc.Account(context.Background(), info.ID)
	require.NoError(t, err)
	assert.False(t, a.BroadSubscription)
	assert.Zero(t, a.LiveOrders)
	assert.True(t, a.Deletable())
}

func TestService_ChangeRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.register(t, "admin@example.com")
	f.promote(t, admin)
	student := f.register(t, "student@example.com")

	u, err := f.svc.ChangeRole(ctx, admin, student, user.RoleAdmin)
	require.NoError(t, err)
	assert.True(t, u.IsAdmin())

	_, err = f.svc.ChangeRole(ctx, admin, student, "owner")
	require.ErrorIs(t, err, core.ErrInvalidInput)

	_, err = f.svc.ChangeRole(ctx, admin, admin, user.RoleStudent)
	require.ErrorIs(t, err, core.ErrInvalidState)

	_, err = f.svc.ChangeRole(ctx, admin, admin, user.RoleAdmin)
	require.NoError(t, err)
}

func TestService_DeleteGuards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.register(t, "admin@example.com")
	f.promote(t, admin)
	otherAdmin := f.register(t, "second@example.com")
	f.promote(t, otherAdmin)
	buyer := f.register(t, "buyer@example.com")
	idle := f.register(t, "idle@example.com")
	f.held.live[buyer] = 1

	tests := []struct {
		name    string
		target  string
		wantErr error
	}{
		{"self", admin, core.ErrInvalidState},
		{"other admin", otherAdmin, core.ErrForbidden},
		{"live orders", buyer, core.ErrInvalidState},
		{"unknown", "00000000-0000-4000-8000-000000000000", core.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorIs(t, f.svc.Delete(ctx, admin, tt.target), tt.wantErr)
		})
	}

	require.NoError(t, f.svc.Delete(ctx, admin, idle))

	_, err := f.svc.GetByID(ctx, idle)
	require.ErrorIs(t, err, core.ErrNotFound)

	f.held.live[buyer] = 0
	require.NoError(t, f.svc.Delete(ctx, admin, buyer))
}

func TestService_DeleteCountsApprovedOrders(t *testing.T) {
	store := memory.New(core.FixedClock(t0))
	ctx := context.Background()

	enrollments := enrollment.NewService(store.Enrollments(), store.Combos(), store, nil)
	orders := order.NewService(config.Defaults().Access, order.Deps{
		Repo:        store.Orders(),
		Courses:     store.Courses(),
		Combos:      store.Combos(),
		Enrollments: enrollments,
		Tx:          store,
		Notifier:    notify.Nop{},
		Clock:       core.FixedClock(t0),
	})
	resolver := access.NewResolver(store.Orders(), store.Enrollments(), store.Combos(), nil)
	svc := user.NewService(store.Users()).WithHoldings(resolver, orders, core.FixedClock(t0))

	admin, err := svc.Create(ctx, "admin@example.com", "hash", "Admin")
	require.NoError(t, err)
	_, err = store.Users().SetRole(ctx, admin.ID, user.RoleAdmin)
	require.NoError(t, err)
	buyer, err := svc.Create(ctx, "buyer@example.com", "hash", "Buyer")
	require.NoError(t, err)

	pending, err := orders.Create(ctx, buyer.ID, order.CreateOrderRequest{PlanType: "quarterly", PaymentMethod: "card"})
	require.NoError(t, err)

	a, err := svc.Account(ctx, buyer.ID)
	require.NoError(t, err)
	assert.Zero(t, a.LiveOrders)

	_, err = orders.Approve(ctx, pending.ID, t0)
	require.NoError(t, err)

	a, err = svc.Account(ctx, buyer.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, a.LiveOrders)
	assert.True(t, a.BroadSubscription)

	require.ErrorIs(t, svc.Delete(ctx, admin.ID, buyer.ID), core.ErrInvalidState)

	_, err = orders.Reject(ctx, pending.ID, "refund")
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, admin.ID, buyer.ID))
}
