package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"voice-ingest-go/internal/credentials"
	"voice-ingest-go/internal/types"
)

type credentialsView struct {
	APIKey         string     `json:"apiKey"`
	OrganizationID string     `json:"organizationKey"`
	Verified       bool       `json:"verified"`
	VerifiedAt     *time.Time `json:"verifiedAt,omitempty"`
}

func viewOf(c types.Credentials) credentialsView {
	return credentialsView{
		APIKey:         maskKey(c.APIKey),
		OrganizationID: c.OrganizationID,
		Verified:       c.Verified(),
		VerifiedAt:     c.VerifiedAt,
	}
}

// maskKey keeps the last four characters.
func maskKey(key string) string {
	if len(key) <= 4 {
		return strings.Repeat("*", len(key))
	}
	return strings.Repeat("*", len(key)-4) + key[len(key)-4:]
}

type credentialsRequest struct {
	APIKey         string `json:"apiKey"`
	OrganizationID string `json:"organizationKey"`
}

func (s *Server) getCredentials(w http.ResponseWriter, r *http.Request) {
	_ = writeJSON(w, http.StatusOK, viewOf(s.creds.Get()))
}

func (s *Server) putCredentials(w http.ResponseWriter, r *http.Request) {
	log := s.log.WithRequest(r).WithField("handler", "put_credentials")

	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	c, err := s.creds.Set(req.APIKey, req.OrganizationID)
	if err != nil {
		if errors.Is(err, credentials.ErrMissingKey) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.WithError(err).Error("store credentials failed")
		writeError(w, http.StatusInternalServerError, "store credentials failed")
		return
	}
	log.Info("credentials updated")
	_ = writeJSON(w, http.StatusOK, viewOf(c))
}

func (s *Server) verifyCredentials(w http.ResponseWriter, r *http.Request) {
	log := s.log.WithRequest(r).WithField("handler", "verify_credentials")

	c, err := s.creds.Verify(r.Context())
	if err != nil {
		if errors.Is(err, credentials.ErrMissingKey) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.WithError(err).Warn("verification failed")
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	log.Info("credentials verified")
	_ = writeJSON(w, http.StatusOK, viewOf(c))
}
