// AngelaMos | 2026
// handler_test.go

package course_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/coursehub/internal/access"
	"github.com/carterperez-dev/coursehub/internal/core"
	"github.com/carterperez-dev/coursehub/internal/course"
	"github.com/carterperez-dev/coursehub/internal/enrollment"
	"github.com/carterperez-dev/coursehub/internal/middleware"
	"github.com/carterperez-dev/coursehub/internal/order"
	"github.com/carterperez-dev/coursehub/internal/store/memory"
)

var t0 = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

type fixture struct {
	store *memory.Store
	svc   *course.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New(core.FixedClock(t0))
	return &fixture{store: store, svc: course.NewService(store.Courses())}
}

// router mounts the course routes the way the API does, with the real
// access guard in front of the content route.
func (f *fixture) router(userID, role string) http.Handler {
	identity := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userID == "" {
				core.Unauthorized(w, "")
				return
			}
			next.ServeHTTP(w, r.WithContext(middleware.WithUser(r.Context(), userID, role)))
		})
	}

	resolver := access.NewResolver(f.store.Orders(), f.store.Enrollments(), f.store.Combos(), nil)
	guarded := access.RequireCourseAccess(resolver, core.FixedClock(t0))

	h := course.NewHandler(f.svc)
	r := chi.NewRouter()
	h.RegisterRoutes(r, identity, guarded)
	h.RegisterAdminRoutes(r, identity, middleware.RequireAdmin)
	return r
}

func (f *fixture) course(t *testing.T, slug string, published bool) *course.Course {
	t.Helper()
	c, err := f.svc.Create(context.Background(), course.CreateCourseRequest{
		Title:     "Course " + slug,
		Slug:      slug,
		Published: published,
	})
	require.NoError(t, err)
	return c
}

func send(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) core.Response {
	t.Helper()
	var body core.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHandler_AdminCreate(t *testing.T) {
	f := newFixture(t)
	admin := f.router("admin-1", middleware.RoleAdmin)

	tests := []struct {
		name string
		body string
		want int
		code string
	}{
		{"created", `{"title":"Go Basics","slug":" Go-Basics ","price":"49.90","published":true}`, http.StatusCreated, ""},
		{"duplicate slug", `{"title":"Again","slug":"go-basics","price":"10"}`, http.StatusConflict, "DUPLICATE"},
		{"negative price", `{"title":"Cheap","slug":"cheap","price":"-1"}`, http.StatusBadRequest, "VALIDATION_FAILED"},
		{"missing title", `{"slug":"untitled","price":"1"}`, http.StatusBadRequest, "VALIDATION_FAILED"},
		{"malformed json", `{`, http.StatusBadRequest, "VALIDATION_FAILED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := send(admin, http.MethodPost, "/admin/courses", tt.body)
			require.Equal(t, tt.want, rec.Code, rec.Body.String())
			if tt.code != "" {
				body := decode(t, rec)
				require.NotNil(t, body.Error)
				assert.Equal(t, tt.code, body.Error.Code)
			}
		})
	}

	student := f.router("u1", middleware.RoleStudent)
	rec := send(student, http.MethodPost, "/admin/courses", `{"title":"X","slug":"x"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHandler_ListAndGet(t *testing.T) {
	f := newFixture(t)
	public := f.course(t, "public", true)
	f.course(t, "draft", false)
	h := f.router("", "")

	rec := send(h, http.MethodGet, "/courses?page_size=5", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var list struct {
		Data []course.CourseResponse `json:"data"`
		Meta core.Pagination        `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Data, 1)
	assert.Equal(t, public.ID, list.Data[0].ID)
	assert.Equal(t, 1, list.Meta.Total)
	assert.Equal(t, 5, list.Meta.PageSize)

	rec = send(h, http.MethodGet, "/courses/"+public.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = send(h, http.MethodGet, "/courses/"+uuid.New().String(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = send(h, http.MethodGet, "/courses/public", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_ContentIsGuarded(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	paid := f.course(t, "paid", true)
	other := f.course(t, "other", true)
	path := "/courses/" + paid.ID + "/content"

	t.Run("anonymous", func(t *testing.T) {
		rec := send(f.router("", ""), http.MethodGet, path, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("no purchase", func(t *testing.T) {
		rec := send(f.router("u1", middleware.RoleStudent), http.MethodGet, path, "")
		require.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, access.ReasonNoActiveOrder, decode(t, rec).Error.Code)
	})

	t.Run("single order for another course", func(t *testing.T) {
		end := t0.Add(24 * time.Hour)
		o := order.NewOrder(uuid.New().String(), "u2", order.SinglePlan{CourseID: other.ID})
		o.PaymentStatus = order.StatusApproved
		o.IsActive = true
		o.EndDate = &end
		require.NoError(t, f.store.Orders().Create(ctx, o))

		rec := send(f.router("u2", middleware.RoleStudent), http.MethodGet, path, "")
		require.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, access.ReasonDifferentCourse, decode(t, rec).Error.Code)
	})

	t.Run("enrolled", func(t *testing.T) {
		_, err := f.store.Enrollments().CreateIfAbsent(ctx, &enrollment.Enrollment{
			ID:        uuid.New().String(),
			StudentID: "u3",
			CourseID:  paid.ID,
		})
		require.NoError(t, err)

		rec := send(f.router("u3", middleware.RoleStudent), http.MethodGet, path, "")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		body := decode(t, rec)
		assert.Equal(t, "access granted", body.Message)
	})

	t.Run("malformed id", func(t *testing.T) {
		rec := send(f.router("u3", middleware.RoleStudent), http.MethodGet, "/courses/paid/content", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("admin bypass still validates the id", func(t *testing.T) {
		admin := f.router("admin-1", middleware.RoleAdmin)
		assert.Equal(t, http.StatusOK, send(admin, http.MethodGet, path, "").Code)
		assert.Equal(t, http.StatusBadRequest, send(admin, http.MethodGet, "/courses/paid/content", "").Code)
	})
}
