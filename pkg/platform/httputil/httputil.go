// Package httputil maps coded domain errors onto HTTP responses and
// keeps JSON encoding boilerplate out of handlers.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "switchboard/pkg/domainerrors"
)

// WriteJSON encodes v as the response body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteText writes a plain-text body. Used by the PBX-facing endpoints
// whose consumers splice the body into the dialplan as-is.
func WriteText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

type errorBody struct {
	Error       string            `json:"error"`
	Description string            `json:"error_description,omitempty"`
	Fields      map[string]string `json:"fields,omitempty"`
}

// WriteError translates a coded error into a status and JSON body.
// Internal errors keep their detail out of the response.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	body := errorBody{Error: string(code)}

	var de *dErrors.Error
	if errors.As(err, &de) {
		body.Description = de.Message
		body.Fields = de.Fields
	}

	status := http.StatusInternalServerError
	switch code {
	case dErrors.CodeValidation:
		status = http.StatusUnprocessableEntity
	case dErrors.CodeInvalidInput, dErrors.CodeBadRequest:
		status = http.StatusBadRequest
	case dErrors.CodeNotFound:
		status = http.StatusNotFound
	case dErrors.CodeConflict:
		status = http.StatusConflict
	case dErrors.CodeGateway:
		status = http.StatusBadGateway
	case dErrors.CodeTimeout:
		status = http.StatusGatewayTimeout
	case dErrors.CodeInternal:
		body.Description = ""
		body.Fields = nil
	default:
		body.Error = string(dErrors.CodeInternal)
		body.Description = ""
		body.Fields = nil
	}

	WriteJSON(w, status, body)
}

// Decode parses the JSON request body into T, reporting malformed
// bodies as bad requests.
func Decode[T any](r *http.Request) (T, error) {
	var v T
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		return v, dErrors.Wrap(err, dErrors.CodeBadRequest, "malformed request body")
	}
	return v, nil
}
