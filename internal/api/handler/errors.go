package handler

import (
	"encoding/json"
	"net/http"

	"github.com/mcoot/diceduel/internal/api/apierr"
)

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	apierr.WriteError(w, err)
}

// decodeJSON decodes a request body, rejecting unknown fields
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return apierr.NewInvalidRequestError("Invalid request body: " + err.Error())
	}
	return nil
}
