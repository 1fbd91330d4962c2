// Package credentials reads, updates and verifies the API credentials kept
// in the catalog document.
package credentials

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"voice-ingest-go/internal/logger"
	"voice-ingest-go/internal/types"
	"voice-ingest-go/internal/upstream"
)

var ErrMissingKey = errors.New("API Key is required")

// Store is the persisted side of the credentials.
type Store interface {
	Credentials() types.Credentials
	SetCredentials(apiKey, organizationID string)
	MarkVerified(at time.Time) types.Credentials
	Save() error
}

type Service struct {
	store    Store
	endpoint string
	caller   *upstream.Caller
	log      *logger.Logger
	now      func() time.Time
}

func NewService(store Store, baseURL string, caller *upstream.Caller, log *logger.Logger) *Service {
	return &Service{
		store:    store,
		endpoint: strings.TrimRight(baseURL, "/") + "/models",
		caller:   caller,
		log:      log.With("module", "credentials"),
		now:      time.Now,
	}
}

func (s *Service) Get() types.Credentials {
	return s.store.Credentials()
}

// Set stores a new key and organization; verification must be redone.
func (s *Service) Set(apiKey, organizationID string) (types.Credentials, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return types.Credentials{}, ErrMissingKey
	}
	s.store.SetCredentials(apiKey, strings.TrimSpace(organizationID))
	if err := s.store.Save(); err != nil {
		return types.Credentials{}, err
	}
	return s.store.Credentials(), nil
}

// Verify lists the upstream models with the stored key and records the
// verification time on success.
func (s *Service) Verify(ctx context.Context) (types.Credentials, error) {
	creds := s.store.Credentials()
	if strings.TrimSpace(creds.APIKey) == "" {
		return creds, ErrMissingKey
	}

	var resp struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	err := s.caller.DoJSON(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint, nil)
		if err != nil {
			return nil, err
		}
		upstream.Authorize(req, creds)
		return req, nil
	}, &resp)
	if err != nil {
		s.log.WithError(err).Warn("api key verification failed")
		return creds, err
	}

	creds = s.store.MarkVerified(s.now().UTC())
	if err := s.store.Save(); err != nil {
		return creds, err
	}
	s.log.WithField("models", len(resp.Data)).Info("api key verified")
	return creds, nil
}
