// Package httpapi exposes batch ingestion, the transcript catalog and the
// credentials to a UI over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"voice-ingest-go/internal/logger"
	"voice-ingest-go/internal/pipeline"
	"voice-ingest-go/internal/types"
)

// Runner is the single-batch executor.
type Runner interface {
	Start(candidates []types.CandidateFile) (*pipeline.Batch, error)
	Current() (*pipeline.Batch, bool)
	Dismiss() error
}

// Catalog is the transcript side of the catalog store.
type Catalog interface {
	Transcripts() []types.TranscriptRecord
	Get(fileName string) (types.TranscriptRecord, bool)
	Remove(fileName string) (types.TranscriptRecord, bool)
	Save() error
}

type BlobRemover interface {
	Remove(path string) error
}

type Credentials interface {
	Get() types.Credentials
	Set(apiKey, organizationID string) (types.Credentials, error)
	Verify(ctx context.Context) (types.Credentials, error)
}

type Server struct {
	runner  Runner
	catalog Catalog
	blobs   BlobRemover
	creds   Credentials
	log     *logger.Logger

	// MaxUploadBytes bounds the multipart body of POST /batch.
	MaxUploadBytes int64
}

func NewServer(runner Runner, catalog Catalog, blobs BlobRemover, creds Credentials, log *logger.Logger) *Server {
	return &Server{
		runner:         runner,
		catalog:        catalog,
		blobs:          blobs,
		creds:          creds,
		log:            log.With("component", "http"),
		MaxUploadBytes: 512 << 20,
	}
}

// Handler returns the routed mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.health)

	mux.HandleFunc("POST /batch", s.startBatch)
	mux.HandleFunc("POST /batch/manifest", s.startManifestBatch)
	mux.HandleFunc("GET /batch", s.getBatch)
	mux.HandleFunc("GET /batch/events", s.batchEvents)
	mux.HandleFunc("DELETE /batch", s.dismissBatch)

	mux.HandleFunc("GET /transcripts", s.listTranscripts)
	mux.HandleFunc("GET /transcripts/summary", s.transcriptSummary)
	mux.HandleFunc("GET /transcripts/export", s.exportTranscripts)
	mux.HandleFunc("DELETE /transcripts/{name}", s.deleteTranscript)

	mux.HandleFunc("GET /credentials", s.getCredentials)
	mux.HandleFunc("PUT /credentials", s.putCredentials)
	mux.HandleFunc("POST /credentials/verify", s.verifyCredentials)

	return mux
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.log.WithRequest(r).Debug("health check")
	w.Write([]byte("ok"))
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	_ = writeJSON(w, status, errorResponse{Error: msg})
}
