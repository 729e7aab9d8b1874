package handler

import (
	"encoding/json"
	"net/http"

	"github.com/John-Michael-Goco/CampusGoWeb/internal/api/apierr"
)

// maxBodyBytes bounds request bodies; a roster import is the largest payload
const maxBodyBytes = 4 << 20

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	apierr.WriteError(w, err)
}

// decodeJSON reads the request body into v. On failure it writes a 400
// and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		WriteError(w, apierr.NewInvalidRequestError("invalid request body"))
		return false
	}
	return true
}
