// AngelaMos | 2026
// handler.go

package course

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/coursehub/internal/core"
)

type Handler struct {
	service     *Service
	validator   *validator.Validate
	accessCheck http.HandlerFunc
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// WithAccessCheck serves GET /courses/{courseID}/access with fn.
func (h *Handler) WithAccessCheck(fn http.HandlerFunc) *Handler {
	h.accessCheck = fn
	return h
}

// RegisterRoutes mounts the public catalogue. guarded wraps routes that
// serve paid course material.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, guarded func(http.Handler) http.Handler,
) {
	r.Route("/courses", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/{courseID}", h.Get)

		r.Group(func(r chi.Router) {
			r.Use(authenticator)

			if h.accessCheck != nil {
				r.Get("/{courseID}/access", h.accessCheck)
			}
			r.With(guarded).Get("/{courseID}/content", h.Content)
		})
	})
}

func (h *Handler) RegisterAdminRoutes(
	r chi.Router,
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.Route("/admin/courses", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(adminOnly)

		r.Post("/", h.Create)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	params := ListCoursesParams{
		Page:          parseIntQuery(r, "page", 1),
		PageSize:      parseIntQuery(r, "page_size", 20),
		PublishedOnly: true,
	}
	params.Normalize()

	courses, total, err := h.service.List(r.Context(), params)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.Paginated(w, ToCourseResponseList(courses), params.Page, params.PageSize, total)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	courseID, ok := core.PathUUID(w, r, "courseID")
	if !ok {
		return
	}

	c, err := h.service.Get(r.Context(), courseID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "course")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToCourseResponse(c))
}

// Content is only reachable once the access guard has let the request through.
func (h *Handler) Content(w http.ResponseWriter, r *http.Request) {
	courseID, ok := core.PathUUID(w, r, "courseID")
	if !ok {
		return
	}

	c, err := h.service.Get(r.Context(), courseID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "course")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OKWithMessage(w, "access granted", ToCourseResponse(c))
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateCourseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	c, err := h.service.Create(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrDuplicateKey):
			core.JSONError(w, core.DuplicateError("slug"))
		case errors.Is(err, core.ErrInvalidInput):
			core.BadRequest(w, "price must not be negative")
		default:
			core.InternalServerError(w, err)
		}
		return
	}

	core.Created(w, ToCourseResponse(c))
}

func parseIntQuery(r *http.Request, key string, defaultVal int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}

	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}

	return parsed
}
