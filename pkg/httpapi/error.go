package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// ErrorEnvelope standardizes JSON error responses for API namespaces.
type ErrorEnvelope struct {
	Message string            `json:"message"`
	Code    string            `json:"code"`
	Meta    map[string]string `json:"meta,omitempty"`
	Details any               `json:"details,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	if w == nil {
		return nil
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return nil
	}
	return json.NewEncoder(w).Encode(payload)
}

func WriteError(w http.ResponseWriter, status int, code, message string, meta map[string]string) error {
	return WriteJSON(w, status, &ErrorEnvelope{
		Code:    code,
		Message: message,
		Meta:    meta,
	})
}

// WriteErrorDetails is WriteError with a structured details payload, e.g. the
// per-field violations of a rejected list.
func WriteErrorDetails(w http.ResponseWriter, status int, code, message string, meta map[string]string, details any) error {
	return WriteJSON(w, status, &ErrorEnvelope{
		Code:    code,
		Message: message,
		Meta:    meta,
		Details: details,
	})
}

var ErrBodyTooLarge = errors.New("request body too large")

// DecodeJSON reads a single JSON document of at most maxBytes into v.
func DecodeJSON(r *http.Request, maxBytes int64, v any) error {
	if r.Body == nil {
		return io.EOF
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBytes+1))
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.InputOffset() > maxBytes {
		return ErrBodyTooLarge
	}
	if dec.More() {
		return fmt.Errorf("unexpected data after JSON document")
	}
	return nil
}
