// AngelaMos | 2026
// middleware_test.go

package access_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/coursehub/internal/access"
	"github.com/carterperez-dev/coursehub/internal/core"
	"github.com/carterperez-dev/coursehub/internal/middleware"
	"github.com/carterperez-dev/coursehub/internal/order"
)

const (
	courseA = "7d1f0c7e-5b8a-4c61-9a0e-2c4f6e8a1b3d"
	courseB = "a4e2b9c0-1f3d-4e5a-8b6c-7d9e0f1a2b3c"
)

func guardedRouter(resolver *access.Resolver, userID, role string) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if userID != "" {
				req = req.WithContext(middleware.WithUser(req.Context(), userID, role))
			}
			next.ServeHTTP(w, req)
		})
	})
	r.With(access.RequireCourseAccess(resolver, core.FixedClock(t0))).
		Get("/courses/{courseID}/content", func(w http.ResponseWriter, req *http.Request) {
			d, ok := access.DecisionFromContext(req.Context())
			if ok {
				w.Header().Set("X-Grant", string(d.Grant))
			}
			w.WriteHeader(http.StatusOK)
		})
	return r
}

func serve(h http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body core.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotNil(t, body.Error)
	return body.Error.Code
}

func TestRequireCourseAccess(t *testing.T) {
	single := live(order.PlanSingle, at(t0.Add(time.Hour)))
	single.CourseID = strPtr(courseA)
	granting := access.NewResolver(orderList{single}, enrollmentsByCourse{}, membership{}, nil)

	t.Run("grants and exposes the decision", func(t *testing.T) {
		rec := serve(guardedRouter(granting, "u1", middleware.RoleStudent), "/courses/"+courseA+"/content")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "single", rec.Header().Get("X-Grant"))
	})

	t.Run("denies with the reason as code", func(t *testing.T) {
		rec := serve(guardedRouter(granting, "u1", middleware.RoleStudent), "/courses/"+courseB+"/content")
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, access.ReasonDifferentCourse, errorCode(t, rec))
	})

	t.Run("requires a user", func(t *testing.T) {
		rec := serve(guardedRouter(granting, "", ""), "/courses/"+courseA+"/content")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("admins bypass the resolver", func(t *testing.T) {
		broken := access.NewResolver(failingOrders{}, enrollmentsByCourse{}, membership{}, nil)
		rec := serve(guardedRouter(broken, "admin-1", middleware.RoleAdmin), "/courses/not-a-uuid/content")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get("X-Grant"))
	})

	t.Run("rejects a malformed course id", func(t *testing.T) {
		rec := serve(guardedRouter(granting, "u1", middleware.RoleStudent), "/courses/c1/content")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("school orders get their own reason", func(t *testing.T) {
		school := access.NewResolver(orderList{live(order.PlanSchool, nil)}, enrollmentsByCourse{}, membership{}, nil)
		rec := serve(guardedRouter(school, "u1", middleware.RoleStudent), "/courses/"+courseA+"/content")
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, access.ReasonSchoolNoAccess, errorCode(t, rec))
		assert.Contains(t, rec.Body.String(), "school purchases")
	})

	t.Run("evaluation errors deny", func(t *testing.T) {
		broken := access.NewResolver(failingOrders{}, enrollmentsByCourse{}, membership{}, nil)
		rec := serve(guardedRouter(broken, "u1", middleware.RoleStudent), "/courses/"+courseA+"/content")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, "SERVICE_UNAVAILABLE", errorCode(t, rec))
	})
}

func TestHandler_CheckCourseReportsDenialAsOK(t *testing.T) {
	resolver := access.NewResolver(orderList{}, enrollmentsByCourse{}, membership{}, nil)
	h := access.NewHandler(resolver, core.FixedClock(t0))

	r := chi.NewRouter()
	r.Get("/courses/{courseID}/access", func(w http.ResponseWriter, req *http.Request) {
		req = req.WithContext(middleware.WithUser(req.Context(), "u1", middleware.RoleStudent))
		h.CheckCourse(w, req)
	})

	rec := serve(r, "/courses/c1/access")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(r, "/courses/"+courseA+"/access")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data access.Decision `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Data.Allowed)
	assert.Equal(t, access.ReasonNoActiveOrder, body.Data.Reason)
}
