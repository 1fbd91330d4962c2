package credentials

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"voice-ingest-go/internal/catalog"
	"voice-ingest-go/internal/logger"
	"voice-ingest-go/internal/upstream"
)

func newService(t *testing.T, srv *httptest.Server) (*Service, *catalog.JSONStore) {
	t.Helper()
	store := catalog.NewJSONStore(filepath.Join(t.TempDir(), "data.json"))
	url := "http://127.0.0.1:0/v1"
	caller := &upstream.Caller{}
	if srv != nil {
		url = srv.URL + "/v1"
		caller.HTTP = srv.Client()
	}
	return NewService(store, url, caller, logger.Discard()), store
}

func TestVerifyMarksVerified(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/v1/models" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk-good" {
			t.Errorf("authorization = %q", r.Header.Get("Authorization"))
		}
		w.Write([]byte(`{"object":"list","data":[{"id":"whisper-1"}]}`))
	}))
	defer srv.Close()

	svc, store := newService(t, srv)
	if _, err := svc.Set(" sk-good ", ""); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	creds, err := svc.Verify(context.Background())
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if !creds.Verified() || creds.APIKey != "sk-good" {
		t.Fatalf("credentials = %+v", creds)
	}

	reloaded := catalog.NewJSONStore(store.Path())
	if err := reloaded.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !reloaded.Credentials().Verified() {
		t.Fatal("verification not persisted")
	}
}

func TestVerifyRejectedKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"Incorrect API key provided: sk-bad."}}`))
	}))
	defer srv.Close()

	svc, _ := newService(t, srv)
	svc.Set("sk-bad", "org-1")
	creds, err := svc.Verify(context.Background())
	if err == nil || err.Error() != "Incorrect API key provided: sk-bad." {
		t.Fatalf("error = %v", err)
	}
	if creds.Verified() {
		t.Fatal("rejected key marked verified")
	}
}

func TestVerifyWithoutKey(t *testing.T) {
	svc, _ := newService(t, nil)
	if _, err := svc.Verify(context.Background()); !errors.Is(err, ErrMissingKey) {
		t.Fatalf("error = %v, want ErrMissingKey", err)
	}
	if _, err := svc.Set("   ", ""); !errors.Is(err, ErrMissingKey) {
		t.Fatalf("Set error = %v, want ErrMissingKey", err)
	}
}
