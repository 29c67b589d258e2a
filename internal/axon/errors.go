package axon

import (
	"encoding/json"
	"net/http"

	"minerd/pkg/types"
)

// HTTPError allows handlers to provide an HTTP status code for an error.
type HTTPError interface {
	error
	StatusCode() int
}

// tooBusyError signals queue timeout/overflow for 429 mapping.
type tooBusyError struct{ kind string }

func (e tooBusyError) Error() string { return "too busy: " + e.kind }

// IsTooBusy reports whether err indicates backpressure (return 429).
func IsTooBusy(err error) bool {
	_, ok := err.(tooBusyError)
	return ok
}

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.ErrorResponse{Error: msg, Code: status})
}
