// Package httpx provides the JSON envelope used across the portal API:
// {"success": true, ...} on success, {"success": false, "error": ...,
// "errors": {field: [messages]}} on failure.
package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// Envelope is the standard payload shape. Extra keys are merged in so
// handlers can answer `{"success": true, "organization": {...}}`.
type Envelope map[string]any

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Success sends {"success": true} merged with the given payload.
func Success(w http.ResponseWriter, payload Envelope) {
	body := Envelope{"success": true}
	for k, v := range payload {
		body[k] = v
	}
	JSON(w, http.StatusOK, body)
}

// Message sends a plain success acknowledgement.
func Message(w http.ResponseWriter, message string) {
	Success(w, Envelope{"message": message})
}

// Fail sends {"success": false, "error": message} with the given status.
func Fail(w http.ResponseWriter, status int, message string) {
	JSON(w, status, Envelope{"success": false, "error": message})
}

// FieldErrors sends a 400 with the field→messages map that clients mirror
// into inline form errors.
func FieldErrors(w http.ResponseWriter, fields map[string][]string) {
	JSON(w, http.StatusBadRequest, Envelope{
		"success": false,
		"error":   "validation failed",
		"errors":  fields,
	})
}

// ValidationFieldErrors converts validator.ValidationErrors into the
// envelope's field→messages map and sends it.
func ValidationFieldErrors(w http.ResponseWriter, err error) {
	fields := make(map[string][]string)
	if verrs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range verrs {
			fields[fe.Field()] = append(fields[fe.Field()], "failed "+fe.Tag()+" validation")
		}
	} else if err != nil {
		fields["non_field_errors"] = []string{err.Error()}
	}
	FieldErrors(w, fields)
}

// DecodeJSON decodes a JSON request body into the target struct.
func DecodeJSON(r *http.Request, target any) error {
	return json.NewDecoder(r.Body).Decode(target)
}
