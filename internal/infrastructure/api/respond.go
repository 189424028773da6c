package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"subete-shopify-layer/internal/domain"

	"github.com/rs/zerolog"
)

// Generic error texts. Upstream details are only logged.
const (
	msgMissingParameters = "Missing required parameters"
	msgInvalidBody       = "Invalid request body"
	msgUnauthorized      = "Unauthorized shop"
	msgNotFound          = "Campaign not found"
	msgAlreadyJoined     = "Already joined this campaign"
	msgInternal          = "Internal server error"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

// writeError maps the domain error taxonomy onto HTTP statuses
func writeError(w http.ResponseWriter, logger zerolog.Logger, err error) {
	status, message := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error().Err(err).Msg("Request failed")
	}
	writeJSON(w, status, map[string]string{"error": message})
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrMissingParameter):
		return http.StatusBadRequest, msgMissingParameters
	case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, domain.ErrInvalidCallback):
		return http.StatusForbidden, msgUnauthorized
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, msgNotFound
	case errors.Is(err, domain.ErrAlreadyJoined):
		return http.StatusConflict, msgAlreadyJoined
	default:
		return http.StatusInternalServerError, msgInternal
	}
}

// flexString accepts a JSON string or number, e.g. Shopify product ids
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// decodeJSON reads a JSON body into v
func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return err
	}
	return nil
}
