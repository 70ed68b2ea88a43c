package helpers

import (
	"encoding/json"
	"net/http"
)

// Validator is implemented by request DTOs that support validation.
// Validate returns a map of field name to error message; nil or empty means
// valid.
type Validator interface {
	Validate() map[string]string
}

// DecodeAndValidate decodes the request body into dest and, if dest
// implements Validator, runs Validate(). On decode or validation failure it
// writes a 400 field-error response and returns false; otherwise returns
// true. Callers should return immediately when DecodeAndValidate returns
// false.
func DecodeAndValidate(w http.ResponseWriter, r *http.Request, dest any) bool {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dest); err != nil {
		WriteFieldError(w, http.StatusBadRequest, "error", "Invalid request body!")
		return false
	}
	if v, ok := dest.(Validator); ok {
		if fields := v.Validate(); len(fields) > 0 {
			WriteFieldErrors(w, http.StatusBadRequest, fields)
			return false
		}
	}
	return true
}
