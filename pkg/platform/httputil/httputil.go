// Package httputil translates domain errors and payloads to HTTP responses.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "custodia/pkg/domain-errors"
)

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError renders a coded domain error. Server-side failures return a
// generic body: internal messages may quote SQL or infrastructure detail
// that does not belong on the wire.
func WriteError(w http.ResponseWriter, err error) {
	status := dErrors.HTTPStatus(err)
	body := map[string]string{"error": wireCode(dErrors.CodeOf(err))}
	if status < http.StatusInternalServerError {
		var domainErr *dErrors.Error
		if errors.As(err, &domainErr) && domainErr.Message != "" {
			body["error_description"] = domainErr.Message
		}
	}
	WriteJSON(w, status, body)
}

func wireCode(code dErrors.Code) string {
	switch code {
	case dErrors.CodeInternal:
		return "internal_error"
	default:
		return string(code)
	}
}
