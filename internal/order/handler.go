// AngelaMos | 2026
// handler.go

package order

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/coursehub/internal/core"
	"github.com/carterperez-dev/coursehub/internal/enrollment"
	"github.com/carterperez-dev/coursehub/internal/middleware"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/orders", func(r chi.Router) {
		r.Use(authenticator)

		r.Post("/", h.Create)
		r.Get("/me", h.ListMine)
	})
}

func (h *Handler) RegisterAdminRoutes(
	r chi.Router,
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.Route("/admin/orders", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(adminOnly)

		r.Get("/", h.List)
		r.Get("/{orderID}", h.Get)
		r.Patch("/{orderID}/approve", h.Approve)
		r.Patch("/{orderID}/reject", h.Reject)
		r.Delete("/{orderID}", h.Delete)
	})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	o, err := h.service.Create(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		writeError(w, err)
		return
	}

	core.Created(w, ToOrderResponse(o))
}

func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.ListMine(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	core.OK(w, ToOrderResponseList(orders))
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := ListOrdersParams{
		Page:     parseIntQuery(r, "page", 1),
		PageSize: parseIntQuery(r, "page_size", 20),
		Status:   q.Get("status"),
		PlanType: q.Get("plan_type"),
		UserID:   q.Get("user_id"),
	}
	params.Normalize()

	orders, total, err := h.service.List(r.Context(), params)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.Paginated(w, ToOrderResponseList(orders), params.Page, params.PageSize, total)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	orderID, ok := core.PathUUID(w, r, "orderID")
	if !ok {
		return
	}

	o, err := h.service.Get(r.Context(), orderID)
	if err != nil {
		writeError(w, err)
		return
	}
	core.OK(w, ToOrderResponse(o))
}

func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	orderID, ok := core.PathUUID(w, r, "orderID")
	if !ok {
		return
	}

	o, err := h.service.Approve(r.Context(), orderID, h.service.Now())
	if err != nil {
		writeError(w, err)
		return
	}
	core.OKWithMessage(w, "order approved", ToOrderResponse(o))
}

func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	orderID, ok := core.PathUUID(w, r, "orderID")
	if !ok {
		return
	}

	var req RejectOrderRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			core.BadRequest(w, "invalid request body")
			return
		}
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	o, err := h.service.Reject(r.Context(), orderID, req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	core.OKWithMessage(w, "order rejected", ToOrderResponse(o))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	orderID, ok := core.PathUUID(w, r, "orderID")
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), orderID); err != nil {
		writeError(w, err)
		return
	}
	core.NoContent(w)
}

func writeError(w http.ResponseWriter, err error) {
	var batchErr *enrollment.BatchError
	switch {
	case errors.As(err, &batchErr):
		core.JSONError(w, core.NewAppError(
			err,
			"combo enrollment stopped at course "+batchErr.CourseID,
			http.StatusInternalServerError,
			"PARTIAL_BATCH_FAILURE",
		))
	case errors.Is(err, core.ErrNotFound):
		core.NotFound(w, "order, course or combo")
	case errors.Is(err, core.ErrInvalidInput):
		core.BadRequest(w, err.Error())
	case errors.Is(err, core.ErrInvalidState):
		core.Conflict(w, err.Error())
	case errors.Is(err, core.ErrUnauthorized):
		core.Unauthorized(w, "")
	default:
		core.InternalServerError(w, err)
	}
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
