// Package httputil centralizes JSON response and domain-error translation for
// all handlers so error envelopes stay consistent across endpoints.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	"aidgate/pkg/derrors"
)

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a domain error into the shared JSON error envelope.
// Internal errors omit the description so infrastructure detail never leaks
// to the public; client-caused errors keep their message.
func WriteError(w http.ResponseWriter, err error) {
	code := derrors.CodeOf(err)
	status := derrors.ToHTTPStatus(code)

	body := map[string]string{"error": string(code)}
	var de *derrors.Error
	if code != derrors.CodeInternal && errors.As(err, &de) {
		body["error_description"] = de.Message
	}
	WriteJSON(w, status, body)
}
