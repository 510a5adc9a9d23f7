package login

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

type response struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	User    *sessionUser `json:"user,omitempty"`
	Company *companyView `json:"company,omitempty"`
}

// sessionUser is the opaque marker returned by the probe.
type sessionUser struct {
	Session string `json:"session"`
}

type companyView struct {
	ID                 int64  `json:"id"`
	Name               string `json:"name"`
	BusinessIdentifier string `json:"businessIdentifier"`
}

func writeJSON(w http.ResponseWriter, status int, body response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Warn().Err(err).Msg("failed to write response")
	}
}
