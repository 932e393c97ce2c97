// Package shared holds the response helpers every HTTP handler uses, so the
// error envelope and content type stay consistent across routers.
package shared

import (
	"encoding/json"
	"net/http"

	derrors "accountd/pkg/domain-errors"
)

// WriteError translates a domain error into the JSON error envelope. Untyped
// errors map to internal so infrastructure detail never leaks to callers.
func WriteError(w http.ResponseWriter, err error) {
	code := derrors.CodeOf(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(derrors.ToHTTPStatus(code))
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error": string(code),
	})
}

// WriteJSON writes a JSON body with the given status.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
