// AngelaMos | 2026
// handler.go

package access

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/coursehub/internal/core"
	"github.com/carterperez-dev/coursehub/internal/middleware"
)

type Handler struct {
	resolver *Resolver
	now      core.Clock
}

func NewHandler(resolver *Resolver, now core.Clock) *Handler {
	return &Handler{resolver: resolver, now: now}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.With(authenticator).Get("/subscription", h.Subscription)
}

// CheckCourse reports the decision for {courseID} without guarding
// anything. Denials are a normal 200 response.
func (h *Handler) CheckCourse(w http.ResponseWriter, r *http.Request) {
	courseID, ok := core.PathUUID(w, r, "courseID")
	if !ok {
		return
	}

	d, err := h.resolver.ResolveCourseAccess(
		r.Context(),
		middleware.GetUserID(r.Context()),
		courseID,
		h.now(),
	)
	if err != nil {
		core.JSONError(w, core.ServiceUnavailableError("course access could not be verified"))
		return
	}

	core.OK(w, d)
}

func (h *Handler) Subscription(w http.ResponseWriter, r *http.Request) {
	active, err := h.resolver.HasActiveBroadSubscription(
		r.Context(),
		middleware.GetUserID(r.Context()),
		h.now(),
	)
	if err != nil {
		core.JSONError(w, core.ServiceUnavailableError("subscription could not be verified"))
		return
	}

	core.OK(w, map[string]bool{"active": active})
}
