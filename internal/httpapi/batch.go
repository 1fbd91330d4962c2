package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"voice-ingest-go/internal/export"
	"voice-ingest-go/internal/pipeline"
	"voice-ingest-go/internal/tracker"
	"voice-ingest-go/internal/types"
)

type batchResponse struct {
	tracker.Snapshot
	Finished bool              `json:"finished"`
	Summary  *pipeline.Summary `json:"summary,omitempty"`
	Error    string            `json:"error,omitempty"`
}

func newBatchResponse(b *pipeline.Batch) batchResponse {
	resp := batchResponse{Snapshot: b.Tracker.Snapshot(), Finished: b.Finished()}
	if resp.Finished {
		summary, err := b.Result()
		resp.Summary = &summary
		if err != nil {
			resp.Error = err.Error()
		}
	}
	return resp
}

// startBatch accepts multipart "files" parts. Optional "lastModified"
// values (unix milliseconds) pair with the files by position.
func (s *Server) startBatch(w http.ResponseWriter, r *http.Request) {
	log := s.log.WithRequest(r).WithField("handler", "start_batch")

	r.Body = http.MaxBytesReader(w, r.Body, s.MaxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		log.WithError(err).Warn("bad multipart body")
		writeError(w, http.StatusBadRequest, "expected multipart form with files")
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		writeError(w, http.StatusBadRequest, "no files")
		return
	}
	modTimes := r.MultipartForm.Value["lastModified"]

	candidates := make([]types.CandidateFile, 0, len(headers))
	for i, fh := range headers {
		c, err := readUpload(fh)
		if err != nil {
			log.WithError(err).WithField("file", fh.Filename).Warn("upload unreadable")
			writeError(w, http.StatusBadRequest, fmt.Sprintf("read %s: %v", fh.Filename, err))
			return
		}
		if i < len(modTimes) {
			if ms, err := strconv.ParseInt(modTimes[i], 10, 64); err == nil && ms > 0 {
				c.ModTime = time.UnixMilli(ms)
			}
		}
		candidates = append(candidates, c)
	}
	s.start(w, log, candidates)
}

func readUpload(fh *multipart.FileHeader) (types.CandidateFile, error) {
	f, err := fh.Open()
	if err != nil {
		return types.CandidateFile{}, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return types.CandidateFile{}, err
	}
	return types.CandidateFile{Name: filepath.Base(fh.Filename), Data: data}, nil
}

type manifestRequest struct {
	Path string `json:"path"`
}

// startManifestBatch queues the files listed in a workbook on the server's
// filesystem.
func (s *Server) startManifestBatch(w http.ResponseWriter, r *http.Request) {
	log := s.log.WithRequest(r).WithField("handler", "start_manifest_batch")

	var req manifestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Path == "" {
		writeError(w, http.StatusBadRequest, "expected {\"path\": \"...\"}")
		return
	}
	log = log.WithField("manifest", req.Path)

	paths, err := export.LoadManifest(req.Path)
	if err != nil {
		log.WithError(err).Warn("manifest load failed")
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	candidates := make([]types.CandidateFile, 0, len(paths))
	for _, p := range paths {
		c, err := types.LoadCandidate(p)
		if err != nil {
			log.WithError(err).WithField("file", p).Warn("manifest entry unreadable")
			writeError(w, http.StatusBadRequest, fmt.Sprintf("%s: %v", p, err))
			return
		}
		candidates = append(candidates, c)
	}
	s.start(w, log, candidates)
}

func (s *Server) start(w http.ResponseWriter, log *logrus.Entry, candidates []types.CandidateFile) {
	b, err := s.runner.Start(candidates)
	if errors.Is(err, pipeline.ErrBatchRunning) {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		log.WithError(err).Error("start batch failed")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	log.WithField("batch_id", b.ID).WithField("files", len(candidates)).Info("batch accepted")
	if err := writeJSON(w, http.StatusAccepted, newBatchResponse(b)); err != nil {
		log.WithError(err).Error("failed to write response")
	}
}

func (s *Server) getBatch(w http.ResponseWriter, r *http.Request) {
	b, ok := s.runner.Current()
	if !ok {
		writeError(w, http.StatusNotFound, pipeline.ErrNoBatch.Error())
		return
	}
	_ = writeJSON(w, http.StatusOK, newBatchResponse(b))
}

type eventsResponse struct {
	BatchID string          `json:"id"`
	Events  []tracker.Event `json:"events"`
	// Missed tells the client to reload GET /batch; older events were trimmed.
	Missed bool `json:"missed"`
}

func (s *Server) batchEvents(w http.ResponseWriter, r *http.Request) {
	b, ok := s.runner.Current()
	if !ok {
		writeError(w, http.StatusNotFound, pipeline.ErrNoBatch.Error())
		return
	}
	var since int64
	if v := r.URL.Query().Get("since"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "since must be a non-negative integer")
			return
		}
		since = n
	}
	keys := r.URL.Query()["key"]
	_ = writeJSON(w, http.StatusOK, eventsResponse{
		BatchID: b.ID,
		Events:  b.Tracker.Since(since, keys...),
		Missed:  b.Tracker.Missed(since),
	})
}

func (s *Server) dismissBatch(w http.ResponseWriter, r *http.Request) {
	log := s.log.WithRequest(r).WithField("handler", "dismiss_batch")
	if err := s.runner.Dismiss(); err != nil {
		if errors.Is(err, pipeline.ErrNoBatch) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		log.WithError(err).Error("dismiss failed")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	log.Info("batch dismissed")
	w.WriteHeader(http.StatusNoContent)
}
