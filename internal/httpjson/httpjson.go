// Package httpjson writes JSON response bodies.
package httpjson

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

const encodeFailure = `{"error":"failed to encode response"}` + "\n"

// Write encodes payload with the given status code. The body is encoded
// before the header is sent, so an unencodable payload becomes a 500.
func Write(w http.ResponseWriter, status int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Int("status", status).Msg("failed to encode response")
		status, body = http.StatusInternalServerError, []byte(encodeFailure)
	} else {
		body = append(body, '\n')
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		log.Debug().Err(err).Msg("failed to write response")
	}
}

// Error writes a {"error": message} body.
func Error(w http.ResponseWriter, status int, message string) {
	Write(w, status, map[string]string{"error": message})
}

// Success writes {"success": true}.
func Success(w http.ResponseWriter) {
	Write(w, http.StatusOK, map[string]bool{"success": true})
}

// Decode reads a JSON request body into v.
func Decode(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
