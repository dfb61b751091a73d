package v1

import (
	"encoding/json"
	"net/http"
)

// writeJSON encodes v with the proper headers. The status is written before
// the body, so encode failures can only be logged, not reported.
func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}
