// AngelaMos | 2026
// params.go

package core

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

var paramValidator = validator.New()

// PathUUID returns the named route parameter when it is a UUID. Otherwise
// it writes a 400 and reports false, so malformed ids never reach storage.
func PathUUID(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	id := chi.URLParam(r, name)
	if err := paramValidator.Var(id, "required,uuid"); err != nil {
		BadRequest(w, "invalid "+name+": must be a UUID")
		return "", false
	}
	return id, true
}
