// AngelaMos | 2026
// middleware.go

package access

import (
	"context"
	"net/http"

	"github.com/carterperez-dev/coursehub/internal/core"
	"github.com/carterperez-dev/coursehub/internal/middleware"
)

type decisionKey struct{}

var denialMessages = map[string]string{
	ReasonNoActiveOrder:   "no active purchase covers this course",
	ReasonDifferentCourse: "your purchase covers a different course",
	ReasonKitNoAccess:     "kit purchases do not include course access",
	ReasonSchoolNoAccess:  "school purchases do not include course access",
	ReasonUnknownPlan:     "your plan does not include course access",
}

// RequireCourseAccess lets the request through only when the resolver
// grants the authenticated user the {courseID} in the route. Admins pass
// unconditionally. Evaluation errors deny.
func RequireCourseAccess(resolver *Resolver, now core.Clock) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if middleware.IsAdmin(ctx) {
				next.ServeHTTP(w, r)
				return
			}

			userID := middleware.GetUserID(ctx)
			if userID == "" {
				core.Unauthorized(w, "")
				return
			}

			courseID, ok := core.PathUUID(w, r, "courseID")
			if !ok {
				return
			}

			d, err := resolver.ResolveCourseAccess(ctx, userID, courseID, now())
			if err != nil {
				core.JSONError(w, core.ServiceUnavailableError("course access could not be verified"))
				return
			}

			if !d.Allowed {
				msg, ok := denialMessages[d.Reason]
				if !ok {
					msg = "access denied"
				}
				core.JSONError(w, core.AccessDeniedError(d.Reason, msg))
				return
			}

			ctx = context.WithValue(ctx, decisionKey{}, d)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// DecisionFromContext returns the grant that admitted the request, if any.
func DecisionFromContext(ctx context.Context) (Decision, bool) {
	d, ok := ctx.Value(decisionKey{}).(Decision)
	return d, ok
}
