// AngelaMos | 2026
// handler.go

package combo

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/coursehub/internal/core"
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

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/combos", func(r chi.Router) {
		r.Get("/", h.ListActive)
		r.Get("/{comboID}", h.Get)
	})
}

func (h *Handler) RegisterAdminRoutes(
	r chi.Router,
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.Route("/admin/combos", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(adminOnly)

		r.Get("/", h.ListAll)
		r.Post("/", h.Create)
		r.Put("/{comboID}", h.Update)
		r.Patch("/{comboID}/disable", h.Disable)
		r.Delete("/{comboID}", h.Delete)
	})
}

func (h *Handler) ListActive(w http.ResponseWriter, r *http.Request) {
	combos, err := h.service.List(r.Context(), true)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}
	core.OK(w, ToComboResponseList(combos))
}

func (h *Handler) ListAll(w http.ResponseWriter, r *http.Request) {
	combos, err := h.service.List(r.Context(), false)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}
	core.OK(w, ToComboResponseList(combos))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	comboID, ok := core.PathUUID(w, r, "comboID")
	if !ok {
		return
	}

	c, err := h.service.Get(r.Context(), comboID)
	if err != nil {
		writeError(w, err)
		return
	}
	core.OK(w, ToComboResponse(c))
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateComboRequest
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
		writeError(w, err)
		return
	}

	core.Created(w, ToComboResponse(c))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	comboID, ok := core.PathUUID(w, r, "comboID")
	if !ok {
		return
	}

	var req UpdateComboRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	c, err := h.service.Update(r.Context(), comboID, req)
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, ToComboResponse(c))
}

func (h *Handler) Disable(w http.ResponseWriter, r *http.Request) {
	comboID, ok := core.PathUUID(w, r, "comboID")
	if !ok {
		return
	}

	if err := h.service.Disable(r.Context(), comboID); err != nil {
		writeError(w, err)
		return
	}
	core.OKWithMessage(w, "combo disabled", nil)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	comboID, ok := core.PathUUID(w, r, "comboID")
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), comboID); err != nil {
		writeError(w, err)
		return
	}
	core.NoContent(w)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		core.NotFound(w, "combo or course")
	case errors.Is(err, core.ErrInvalidInput):
		core.BadRequest(w, err.Error())
	case errors.Is(err, core.ErrInvalidState):
		core.Conflict(w, "combo is referenced by orders; disable it instead")
	default:
		core.InternalServerError(w, err)
	}
}
