// AngelaMos | 2026
// handler_test.go

package combo_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/coursehub/internal/combo"
	"github.com/carterperez-dev/coursehub/internal/core"
	"github.com/carterperez-dev/coursehub/internal/middleware"
	"github.com/carterperez-dev/coursehub/internal/order"
)

func adminRouter(svc *combo.Service) http.Handler {
	asAdmin := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := middleware.WithUser(r.Context(), "admin-1", middleware.RoleAdmin)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}

	h := combo.NewHandler(svc)
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	h.RegisterAdminRoutes(r, asAdmin, middleware.RequireAdmin)
	return r
}

func send(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(rec, req)
	return rec
}

func comboData(t *testing.T, rec *httptest.ResponseRecorder) combo.ComboResponse {
	t.Helper()
	var body struct {
		Data combo.ComboResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Data
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body core.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotNil(t, body.Error)
	return body.Error.Code
}

func TestHandler_DisableWhenDeleteIsBlocked(t *testing.T) {
	store, svc, ids := setup(t, 5)
	h := adminRouter(svc)
	ctx := context.Background()

	rec := send(h, http.MethodPost, "/admin/combos",
		`{"name":"Backend","course_ids":["`+ids[0]+`","`+ids[1]+`"],"price":"80","duration":"2-months"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	sold := comboData(t, rec)
	assert.Equal(t, combo.TwoMonths, sold.Duration)

	o := order.NewOrder(uuid.New().String(), "u1", order.ComboPlan{ComboID: sold.ID})
	require.NoError(t, store.Orders().Create(ctx, o))

	rec = send(h, http.MethodDelete, "/admin/combos/"+sold.ID, "")
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "INVALID_STATE", errorCode(t, rec))
	assert.Contains(t, rec.Body.String(), "disable it instead")

	rec = send(h, http.MethodPatch, "/admin/combos/"+sold.ID+"/disable", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = send(h, http.MethodGet, "/combos", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), sold.ID)

	rec = send(h, http.MethodGet, "/combos/"+sold.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, comboData(t, rec).IsActive)

	rec = send(h, http.MethodPost, "/admin/combos",
		`{"name":"Spare","course_ids":["`+ids[2]+`"],"duration":"lifetime"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	spare := comboData(t, rec)

	rec = send(h, http.MethodDelete, "/admin/combos/"+spare.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = send(h, http.MethodGet, "/combos/"+spare.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_UpdateCombo(t *testing.T) {
	_, svc, ids := setup(t, 5)
	h := adminRouter(svc)

	rec := send(h, http.MethodPost, "/admin/combos",
		`{"name":"Bundle","course_ids":["`+ids[0]+`"],"duration":"1-month"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	c := comboData(t, rec)

	rec = send(h, http.MethodPut, "/admin/combos/"+c.ID, `{"name":"Renamed","duration":"3-months"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := comboData(t, rec)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, combo.ThreeMonths, updated.Duration)

	rec = send(h, http.MethodPut, "/admin/combos/"+c.ID, `{"duration":"weekly"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = send(h, http.MethodPut, "/admin/combos/"+uuid.New().String(), `{"name":"Ghost"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_MalformedComboIDs(t *testing.T) {
	_, svc, _ := setup(t, 5)
	h := adminRouter(svc)

	tests := []struct {
		method string
		path   string
		body   string
	}{
		{http.MethodGet, "/combos/bundle", ""},
		{http.MethodPut, "/admin/combos/bundle", `{"name":"x"}`},
		{http.MethodPatch, "/admin/combos/42/disable", ""},
		{http.MethodDelete, "/admin/combos/42", ""},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := send(h, tt.method, tt.path, tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "VALIDATION_FAILED", errorCode(t, rec))
		})
	}
}
