// AngelaMos | 2026
// handler.go

package enrollment

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/coursehub/internal/core"
	"github.com/carterperez-dev/coursehub/internal/middleware"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
	now       core.Clock
}

func NewHandler(service *Service, now core.Clock) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(validator.WithRequiredStructEnabled()),
		now:       now,
	}
}

// RegisterRoutes mounts the student routes. guarded must enforce course
// access for the {courseID} in the path.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, guarded func(http.Handler) http.Handler,
) {
	r.Route("/enrollments", func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/me", h.ListMine)
		r.With(guarded).Put("/{courseID}/progress", h.UpdateProgress)
	})
}

func (h *Handler) RegisterAdminRoutes(
	r chi.Router,
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.Route("/admin/enrollments", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(adminOnly)

		r.Post("/combo", h.EnrollInCombo)
		r.Patch("/combo/extend", h.ExtendComboAccess)
		r.Patch("/{userID}/{courseID}/extend", h.ExtendAccess)
	})
}

func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListMine(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	core.OK(w, ToEnrollmentResponseList(list))
}

func (h *Handler) UpdateProgress(w http.ResponseWriter, r *http.Request) {
	courseID, ok := core.PathUUID(w, r, "courseID")
	if !ok {
		return
	}

	var req UpdateProgressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	e, err := h.service.UpdateProgress(
		r.Context(),
		middleware.GetUserID(r.Context()),
		courseID,
		req.Progress,
	)
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, ToEnrollmentResponse(e))
}

func (h *Handler) EnrollInCombo(w http.ResponseWriter, r *http.Request) {
	var req EnrollInComboRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	result, err := h.service.EnrollInCombo(r.Context(), req.UserID, req.ComboID, "", h.now())
	if err != nil {
		writeError(w, err)
		return
	}

	core.Created(w, ComboEnrollmentResponse{
		Enrollments:   ToEnrollmentResponseList(result.Enrollments),
		AccessEndDate: result.AccessEndDate,
	})
}

func (h *Handler) ExtendComboAccess(w http.ResponseWriter, r *http.Request) {
	var req ExtendComboAccessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	end, err := h.service.ExtendComboAccess(
		r.Context(),
		req.UserID,
		req.ComboID,
		req.Duration,
		h.now(),
	)
	if err != nil {
		writeError(w, err)
		return
	}

	core.OKWithMessage(w, "combo access extended", AccessWindowResponse{AccessEndDate: end})
}

func (h *Handler) ExtendAccess(w http.ResponseWriter, r *http.Request) {
	userID, ok := core.PathUUID(w, r, "userID")
	if !ok {
		return
	}
	courseID, ok := core.PathUUID(w, r, "courseID")
	if !ok {
		return
	}

	var req ExtendAccessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	e, err := h.service.ExtendAccess(
		r.Context(),
		userID,
		courseID,
		req.Duration,
		h.now(),
	)
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, ToEnrollmentResponse(e))
}

func writeError(w http.ResponseWriter, err error) {
	var batchErr *BatchError
	switch {
	case errors.As(err, &batchErr):
		core.JSONError(w, core.NewAppError(
			err,
			"combo enrollment stopped at course "+batchErr.CourseID,
			http.StatusInternalServerError,
			"PARTIAL_BATCH_FAILURE",
		))
	case errors.Is(err, core.ErrNotFound):
		core.NotFound(w, "enrollment")
	case errors.Is(err, core.ErrInvalidInput):
		core.BadRequest(w, err.Error())
	case errors.Is(err, core.ErrInvalidState):
		core.Conflict(w, "combo is not active")
	case errors.Is(err, core.ErrUnauthorized):
		core.Unauthorized(w, "")
	default:
		core.InternalServerError(w, err)
	}
}
